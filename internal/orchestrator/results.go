package orchestrator

import (
	"github.com/ltdomains/domain-analyzer/internal/checks"
	"github.com/ltdomains/domain-analyzer/internal/dasclient"
	"github.com/ltdomains/domain-analyzer/internal/dnsprobe"
	"github.com/ltdomains/domain-analyzer/internal/domainutil"
	"github.com/ltdomains/domain-analyzer/internal/httpprobe"
	"github.com/ltdomains/domain-analyzer/internal/tlsprobe"
	"github.com/ltdomains/domain-analyzer/internal/whoisclient"
)

// dasCheckData is the "data" payload for the das check-result.
type dasCheckData struct {
	Registered bool   `json:"registered"`
	RawStatus  string `json:"raw_status"`
}

func dasResultToCheck(r dasclient.Result, err error) CheckResult {
	if err != nil {
		return CheckResult{Status: StatusError, Data: dasCheckData{Registered: r.Status == dasclient.StatusRegistered, RawStatus: r.RawStatus}}
	}
	return CheckResult{Status: StatusSuccess, Data: dasCheckData{Registered: r.Status == dasclient.StatusRegistered, RawStatus: r.RawStatus}}
}

func whoisOutcomeToCheck(o whoisclient.Outcome, err error) CheckResult {
	if o.RateLimited {
		return CheckResult{Status: StatusRateLimited, Data: nil}
	}
	if err != nil {
		return CheckResult{Status: StatusError, Data: nil}
	}
	return CheckResult{Status: StatusSuccess, Data: o.Record}
}

// httpCheckData is the "data" payload for the http check-result; runFull
// reads FinalURL back out of it to target later content-dependent checks.
type httpCheckData struct {
	FinalStatus   int      `json:"final_status"`
	FinalURL      string   `json:"final_url"`
	RedirectChain []string `json:"redirect_chain"`
	ReachedHTTPS  bool     `json:"reached_https"`
}

func httpResultToCheck(r httpprobe.Result) CheckResult {
	data := httpCheckData{
		FinalStatus:   r.FinalStatus,
		FinalURL:      r.FinalURL,
		RedirectChain: r.RedirectChain,
		ReachedHTTPS:  r.ReachedHTTPS,
	}
	if r.Error != nil {
		return CheckResult{Status: StatusError, Data: data}
	}
	return CheckResult{Status: StatusSuccess, Data: data}
}

func dnsResultToCheck(r dnsprobe.Result) CheckResult {
	return CheckResult{Status: StatusSuccess, Data: r}
}

func tlsResultToCheck(r tlsprobe.Result) CheckResult {
	if r.Error != nil {
		return CheckResult{Status: StatusError, Data: nil}
	}
	return CheckResult{Status: StatusSuccess, Data: r}
}

func contentToCheck(c checks.PageContent) CheckResult {
	if c.Error != nil {
		return CheckResult{Status: StatusError, Data: nil}
	}
	return CheckResult{Status: StatusSuccess, Data: c}
}

// extractHost normalizes a probe's final URL (or a bare domain) down to a
// host suitable for the TLS prober, which always dials port 443 on a host.
func extractHost(urlOrHost string) string {
	return domainutil.Normalize(urlOrHost)
}
