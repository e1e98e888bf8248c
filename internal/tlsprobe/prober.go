// Package tlsprobe opens a TLS handshake against a domain's resolved A
// record on 443 and extracts certificate and negotiated-protocol details.
package tlsprobe

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"
)

// SANSet is the Subject Alternative Name list of a certificate.
type SANSet []string

// Result is one handshake's outcome.
type Result struct {
	Domain      string
	NotAfter    time.Time
	Issuer      string
	Subject     string
	SAN         SANSet
	Protocol    string
	CipherSuite string

	Error     error
	AlertText string
}

// Prober performs TLS handshakes.
type Prober struct {
	dialer  *net.Dialer
	timeout time.Duration
}

// Option configures a Prober at construction.
type Option func(*Prober)

// WithTimeout overrides the handshake timeout (default 10s).
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

// New builds a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(p)
	}
	p.dialer = &net.Dialer{Timeout: p.timeout}
	return p
}

// Probe dials domain:443 and performs a TLS handshake, reading leaf
// certificate fields. On handshake failure, Result.Error is set and
// AlertText carries the TLS alert reason when the stdlib exposes one.
func (p *Prober) Probe(ctx context.Context, domain string) Result {
	result := Result{Domain: domain}

	rawConn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(domain, "443"))
	if err != nil {
		result.Error = err
		result.AlertText = alertText(err)
		return result
	}
	defer rawConn.Close()

	conn := tls.Client(rawConn, &tls.Config{ServerName: domain})
	if err := conn.HandshakeContext(ctx); err != nil {
		result.Error = err
		result.AlertText = alertText(err)
		return result
	}

	state := conn.ConnectionState()
	result.Protocol = tlsVersionName(state.Version)
	result.CipherSuite = tls.CipherSuiteName(state.CipherSuite)

	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		result.NotAfter = leaf.NotAfter
		result.Issuer = leaf.Issuer.String()
		result.Subject = leaf.Subject.String()
		result.SAN = append(result.SAN, leaf.DNSNames...)
	}

	return result
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS13:
		return "TLS 1.3"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS10:
		return "TLS 1.0"
	default:
		return "unknown"
	}
}

func alertText(err error) string {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return "record header error"
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return "certificate verification failed"
	}
	return ""
}
