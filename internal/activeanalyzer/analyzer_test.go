package activeanalyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ltdomains/domain-analyzer/internal/dnsprobe"
	"github.com/ltdomains/domain-analyzer/internal/httpprobe"
)

func dnsWithA() dnsprobe.Result {
	return dnsprobe.Result{A: dnsprobe.RecordResult{Success: true, Values: []string{"192.0.2.1"}}}
}

func dnsEmpty() dnsprobe.Result {
	return dnsprobe.Result{}
}

func TestClassify_NoDNSAndConnectFailure_IsInactiveNoDNS(t *testing.T) {
	a := New()
	result := a.Classify("example.lt", httpprobe.Result{Error: errors.New("connect refused"), ErrorKind: "connect"}, dnsEmpty())

	assert.False(t, result.Active)
	assert.Equal(t, ReasonNoDNS, result.Reason)
	assert.False(t, result.HasDNS)
}

func TestClassify_SameFamilyRedirectChain_IsActive(t *testing.T) {
	a := New()
	http := httpprobe.Result{
		FinalStatus:   200,
		FinalURL:      "https://www.example.lt/",
		RedirectChain: []string{"http://example.lt/", "https://example.lt/"},
	}
	result := a.Classify("example.lt", http, dnsWithA())

	assert.True(t, result.Active)
	assert.Empty(t, result.CapturedDomains)
}

func TestClassify_SameFamily4xx_IsStillActive(t *testing.T) {
	a := New()
	http := httpprobe.Result{FinalStatus: 404, FinalURL: "https://example.lt/missing"}
	result := a.Classify("example.lt", http, dnsWithA())

	assert.True(t, result.Active)
}

func TestClassify_5xx_IsInactiveServerError(t *testing.T) {
	a := New()
	http := httpprobe.Result{FinalStatus: 503, FinalURL: "https://example.lt/"}
	result := a.Classify("example.lt", http, dnsWithA())

	assert.False(t, result.Active)
	assert.Equal(t, ReasonServerError, result.Reason)
}

func TestClassify_OffsiteLTRedirect_CapturesPeerDomain(t *testing.T) {
	a := New()
	http := httpprobe.Result{
		FinalStatus:   200,
		FinalURL:      "https://augalyn.lt/",
		RedirectChain: []string{"https://gyvigali.lt/", "https://augalyn.lt/"},
	}
	result := a.Classify("gyvigali.lt", http, dnsWithA())

	assert.False(t, result.Active)
	assert.Equal(t, ReasonOffsiteRedirect, result.Reason)
	assert.Equal(t, []string{"augalyn.lt"}, result.CapturedDomains)
}

func TestClassify_OffsiteNonLTRedirect_IsInactiveNoCaptures(t *testing.T) {
	a := New()
	http := httpprobe.Result{FinalStatus: 200, FinalURL: "https://parked-domains.example/"}
	result := a.Classify("example.lt", http, dnsWithA())

	assert.False(t, result.Active)
	assert.Equal(t, ReasonOffsiteRedirect, result.Reason)
	assert.Empty(t, result.CapturedDomains)
}

func TestClassify_TimeoutAfterDNS_IsUnreachable(t *testing.T) {
	a := New()
	http := httpprobe.Result{Error: errors.New("timeout"), ErrorKind: "timeout"}
	result := a.Classify("example.lt", http, dnsWithA())

	assert.False(t, result.Active)
	assert.Equal(t, ReasonUnreachable, result.Reason)
}

func TestClassify_GovernmentSubdomainPreservedInCapture(t *testing.T) {
	a := New(WithKeepPatterns([]string{".gov.lt"}))
	http := httpprobe.Result{
		FinalStatus:   200,
		FinalURL:      "https://stat.gov.lt/",
		RedirectChain: []string{"https://origin.lt/", "https://stat.gov.lt/"},
	}
	result := a.Classify("origin.lt", http, dnsWithA())

	assert.Equal(t, []string{"stat.gov.lt"}, result.CapturedDomains)
}

func TestClassify_IgnoreListExcludesCapture(t *testing.T) {
	a := New(WithIgnoreList([]string{"augalyn.lt"}))
	http := httpprobe.Result{
		FinalStatus:   200,
		FinalURL:      "https://augalyn.lt/",
		RedirectChain: []string{"https://gyvigali.lt/", "https://augalyn.lt/"},
	}
	result := a.Classify("gyvigali.lt", http, dnsWithA())

	assert.Empty(t, result.CapturedDomains)
}
