// Package httpprobe probes a domain over HTTP/HTTPS, recording the final
// status, URL, and full redirect chain.
package httpprobe

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// Result is one probe's outcome.
type Result struct {
	Domain        string
	FinalStatus   int
	FinalURL      string
	RedirectChain []string
	ResponseTime  time.Duration
	ReachedHTTPS  bool

	Error     error
	ErrorKind string
}

// Prober issues one HEAD (falling back to GET on 405) per probed domain,
// following redirects up to a configurable hop cap. Probe builds a fresh
// http.Client per call so concurrent probes never share redirect-chain
// state.
type Prober struct {
	hopCap  int
	timeout time.Duration
}

// Option configures a Prober at construction.
type Option func(*Prober)

// WithHopCap overrides the maximum number of redirects followed (default 10).
func WithHopCap(n int) Option {
	return func(p *Prober) { p.hopCap = n }
}

// WithTimeout overrides the per-request timeout (default 15s).
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

// New builds a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{hopCap: 10, timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe issues the HEAD/GET-fallback request chain for domain (interpreted
// as "https://<domain>/" unless it already carries a scheme).
func (p *Prober) Probe(ctx context.Context, domain string) Result {
	target := normalizeTarget(domain)
	start := time.Now()

	var chain []string
	client := &http.Client{
		Timeout: p.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			chain = append(chain, req.URL.String())
			if len(via) >= p.hopCap {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	resp, err := doWithFallback(ctx, client, target)
	elapsed := time.Since(start)

	result := Result{
		Domain:        domain,
		RedirectChain: chain,
		ResponseTime:  elapsed,
	}
	if err != nil {
		result.Error = err
		result.ErrorKind = classifyErr(err)
		return result
	}
	defer resp.Body.Close()

	result.FinalStatus = resp.StatusCode
	result.FinalURL = resp.Request.URL.String()
	result.ReachedHTTPS = resp.Request.URL.Scheme == "https"
	return result
}

func normalizeTarget(domain string) string {
	if _, err := url.ParseRequestURI(domain); err == nil {
		if u, parseErr := url.Parse(domain); parseErr == nil && u.Scheme != "" {
			return domain
		}
	}
	return "https://" + domain + "/"
}

// doWithFallback issues HEAD, retrying as GET when the server replies 405.
func doWithFallback(ctx context.Context, client *http.Client, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		return resp, nil
	}
	resp.Body.Close()

	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(getReq)
}

func classifyErr(err error) string {
	var tlsErr *tls.CertificateVerificationError
	switch {
	case errors.As(err, &tlsErr):
		return "tls"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "connect"
	}
}
