// Package dasclient implements the DAS (Domain Availability Service)
// line-protocol client used for cheap bulk registration checks against the
// .lt registry.
package dasclient

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

// Status is the normalized outcome of a DAS query.
type Status string

const (
	StatusRegistered    Status = "registered"
	StatusNotRegistered Status = "not_registered"
	StatusError         Status = "error"
)

// registeredValues are the raw DAS status strings that mean "registered".
var registeredValues = map[string]bool{
	"registered":          true,
	"blocked":             true,
	"reserved":            true,
	"restricteddisposal":  true,
	"restrictedrights":    true,
	"stopped":             true,
	"pendingcreate":       true,
	"pendingdelete":       true,
	"pendingrelease":      true,
	"outofservice":        true,
}

// Result is one domain's DAS check.
type Result struct {
	Domain    string
	Status    Status
	RawStatus string
}

// Client is a DAS line-protocol client. The wire protocol is
// compatibility-critical: "get 1.0 <domain>\n" in, read until the
// remote closes or a "Status:" line is seen.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  *net.Dialer
	logger  *slog.Logger
}

// Option configures a Client at construction.
type Option func(*Client)

// WithTimeout overrides the per-query socket timeout (default 5s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client dialing addr ("host:port", default
// "das.domreg.lt:4343").
func New(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		timeout: 5 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dialer = &net.Dialer{Timeout: c.timeout}
	return c
}

// Check performs one DAS query for domain. All failure modes (connect
// error, timeout, malformed response) fail conservatively: the returned
// Result reports StatusRegistered so the orchestrator never falsely skips
// a real domain.
func (c *Client) Check(ctx context.Context, domain string) (Result, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.logger.Warn("das: dial failed", "domain", domain, "error", err)
		return conservativeResult(domain), dErrors.Wrap(err, dErrors.CodeTransientNetwork, "das: dial failed")
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return conservativeResult(domain), dErrors.Wrap(err, dErrors.CodeTransientNetwork, "das: set deadline")
	}

	if _, err := fmt.Fprintf(conn, "get 1.0 %s\n", domain); err != nil {
		c.logger.Warn("das: write failed", "domain", domain, "error", err)
		return conservativeResult(domain), dErrors.Wrap(err, dErrors.CodeTransientNetwork, "das: write failed")
	}

	result := Result{Domain: domain}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Domain:"):
			result.Domain = strings.TrimSpace(strings.TrimPrefix(line, "Domain:"))
		case strings.HasPrefix(line, "Status:"):
			raw := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "Status:")))
			result.RawStatus = raw
			result.Status = classify(raw)
			return result, nil
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("das: read failed", "domain", domain, "error", err)
		return conservativeResult(domain), dErrors.Wrap(err, dErrors.CodeTransientNetwork, "das: read failed")
	}

	// Remote closed without a Status line: malformed response, fail
	// conservatively.
	return conservativeResult(domain), dErrors.New(dErrors.CodeMalformed, "das: no status line in response")
}

func classify(raw string) Status {
	if raw == "available" {
		return StatusNotRegistered
	}
	if registeredValues[raw] {
		return StatusRegistered
	}
	return StatusError
}

func conservativeResult(domain string) Result {
	return Result{Domain: domain, Status: StatusRegistered, RawStatus: "unknown"}
}
