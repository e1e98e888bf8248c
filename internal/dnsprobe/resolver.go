// Package dnsprobe resolves A, AAAA, MX, NS, TXT, and CNAME records for a
// domain concurrently, in one profile call.
package dnsprobe

import (
	"context"
	"net"

	"golang.org/x/sync/errgroup"
)

// RecordResult is one record type's lookup outcome.
type RecordResult struct {
	Values  []string
	Success bool
	Error   error
}

// Result aggregates all record types for one domain.
type Result struct {
	Domain string
	A      RecordResult
	AAAA   RecordResult
	MX     RecordResult
	NS     RecordResult
	TXT    RecordResult
	CNAME  RecordResult
}

// Resolver performs concurrent DNS lookups via net.Resolver.
type Resolver struct {
	resolver *net.Resolver
}

// Option configures a Resolver at construction.
type Option func(*Resolver)

// WithNetResolver overrides the underlying net.Resolver (tests inject a
// resolver pointed at a fake DNS server).
func WithNetResolver(r *net.Resolver) Option {
	return func(res *Resolver) { res.resolver = r }
}

// New builds a Resolver using the system resolver unless overridden.
func New(opts ...Option) *Resolver {
	r := &Resolver{resolver: net.DefaultResolver}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up all six record types concurrently. NXDOMAIN is reported
// as a success with an empty value set; any other transport failure is
// reported as an error on that record type only — one record type failing
// never aborts the others.
func (r *Resolver) Resolve(ctx context.Context, domain string) Result {
	result := Result{Domain: domain}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ips, err := r.resolver.LookupIP(ctx, "ip4", domain)
		result.A = toRecordResult(ipsToStrings(ips), err)
		return nil
	})
	g.Go(func() error {
		ips, err := r.resolver.LookupIP(ctx, "ip6", domain)
		result.AAAA = toRecordResult(ipsToStrings(ips), err)
		return nil
	})
	g.Go(func() error {
		mxs, err := r.resolver.LookupMX(ctx, domain)
		var values []string
		for _, mx := range mxs {
			values = append(values, mx.Host)
		}
		result.MX = toRecordResult(values, err)
		return nil
	})
	g.Go(func() error {
		nss, err := r.resolver.LookupNS(ctx, domain)
		var values []string
		for _, ns := range nss {
			values = append(values, ns.Host)
		}
		result.NS = toRecordResult(values, err)
		return nil
	})
	g.Go(func() error {
		txts, err := r.resolver.LookupTXT(ctx, domain)
		result.TXT = toRecordResult(txts, err)
		return nil
	})
	g.Go(func() error {
		cname, err := r.resolver.LookupCNAME(ctx, domain)
		var values []string
		if err == nil && cname != "" {
			values = []string{cname}
		}
		result.CNAME = toRecordResult(values, err)
		return nil
	})

	// Every lookup swallows its own error into RecordResult; g.Wait never
	// returns a non-nil error, but calling it joins all goroutines.
	_ = g.Wait()
	return result
}

func ipsToStrings(ips []net.IP) []string {
	values := make([]string, 0, len(ips))
	for _, ip := range ips {
		values = append(values, ip.String())
	}
	return values
}

func toRecordResult(values []string, err error) RecordResult {
	if err != nil {
		if isNXDomain(err) {
			return RecordResult{Success: true}
		}
		return RecordResult{Success: false, Error: err}
	}
	return RecordResult{Success: true, Values: values}
}

func isNXDomain(err error) bool {
	var dnsErr *net.DNSError
	if e, ok := err.(*net.DNSError); ok {
		dnsErr = e
	} else {
		return false
	}
	return dnsErr.IsNotFound
}
