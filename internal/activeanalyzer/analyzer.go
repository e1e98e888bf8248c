// Package activeanalyzer classifies a domain's activity from its HTTP and
// DNS probe results using first-match decision-tree rules.
package activeanalyzer

import (
	"github.com/ltdomains/domain-analyzer/internal/dnsprobe"
	"github.com/ltdomains/domain-analyzer/internal/domainutil"
	"github.com/ltdomains/domain-analyzer/internal/httpprobe"
)

// Reason is the classification's supporting evidence tag.
type Reason string

const (
	ReasonNoDNS          Reason = "no_dns"
	ReasonServerError    Reason = "server_error"
	ReasonOffsiteRedirect Reason = "offsite_redirect"
	ReasonUnreachable    Reason = "unreachable"
	ReasonNone           Reason = ""
)

// Result is the analyzer's decision plus the evidence the orchestrator
// persists alongside it.
type Result struct {
	Active          bool
	Reason          Reason
	HasDNS          bool
	Responds        bool
	StatusCode      int
	FinalURL        string
	RedirectChain   []string
	CapturedDomains []string
}

// Analyzer applies the fixed seven-step decision tree (spec.md §4.10).
type Analyzer struct {
	keepPatterns []string
	ignore       []string
}

// Option configures an Analyzer at construction.
type Option func(*Analyzer)

// WithKeepPatterns sets the suffix list whose matching hosts retain
// subdomains during family extraction (e.g. ".gov.lt").
func WithKeepPatterns(patterns []string) Option {
	return func(a *Analyzer) { a.keepPatterns = patterns }
}

// WithIgnoreList sets hostnames excluded from discovery capture.
func WithIgnoreList(ignore []string) Option {
	return func(a *Analyzer) { a.ignore = ignore }
}

// New builds an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classify runs the decision tree for one domain given its probe results.
func (a *Analyzer) Classify(domain string, http httpprobe.Result, dns dnsprobe.Result) Result {
	hasDNS := len(dns.A.Values) > 0 || len(dns.AAAA.Values) > 0

	result := Result{
		HasDNS:        hasDNS,
		StatusCode:    http.FinalStatus,
		FinalURL:      http.FinalURL,
		RedirectChain: http.RedirectChain,
	}

	// Step 1: no DNS and connect-layer HTTP failure -> inactive, no_dns.
	if !hasDNS && http.Error != nil && http.ErrorKind == "connect" {
		result.Reason = ReasonNoDNS
		return result
	}

	// Step 7: timeout/connection refused at the HTTP layer -> unreachable.
	if http.Error != nil {
		result.Reason = ReasonUnreachable
		return result
	}

	result.Responds = true
	finalHost := hostOf(http.FinalURL)
	sameFamily := domainutil.SameFamily(finalHost, domain, a.keepPatterns)

	// Step 2: success and same-family final host -> active.
	if sameFamily && http.FinalStatus >= 200 && http.FinalStatus < 300 {
		result.Active = true
		return result
	}

	// Step 3: 4xx included, same-family -> still active.
	if sameFamily && http.FinalStatus >= 200 && http.FinalStatus <= 499 {
		result.Active = true
		return result
	}

	// Step 4: 5xx -> inactive, server_error.
	if http.FinalStatus >= 500 && http.FinalStatus <= 599 {
		result.Reason = ReasonServerError
		return result
	}

	// Step 5: offsite redirect to a different .lt family -> capture peers.
	if !sameFamily && domainutil.IsLithuanian(finalHost) {
		result.Reason = ReasonOffsiteRedirect
		result.CapturedDomains = domainutil.ExtractLTFromChain(http.RedirectChain, domain, a.ignore, a.keepPatterns)
		return result
	}

	// Step 6: offsite redirect to a non-.lt family -> inactive.
	result.Reason = ReasonOffsiteRedirect
	return result
}

func hostOf(rawURL string) string {
	return domainutil.Normalize(rawURL)
}
