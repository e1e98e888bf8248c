// Package whoisclient implements the port-43 WHOIS client used to enrich
// registered .lt domains with registrar, date, and nameserver data.
package whoisclient

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

// Nameserver is one retained nameserver entry; Host is always set, IP is
// empty when the response gave only a bare host.
type Nameserver struct {
	Host string
	IP   string
}

// Record is the parsed, recognized-field subset of one WHOIS response.
// Individual field parse failures are non-fatal: a missing field is left
// zero-valued and the overall Record is still returned as a success.
type Record struct {
	Domain               string
	Status               string
	Registered           string // YYYY-MM-DD, as given
	Expires              string // YYYY-MM-DD, as given
	Registrar            string
	RegistrarWebsite     string
	RegistrarEmail       string
	ContactOrganization  string
	ContactEmail         string
	Nameservers          []Nameserver

	AgeDays          *int
	DaysUntilExpiry  *int
	PrivacyProtected bool
}

const dateLayout = "2006-01-02"

// Client is a WHOIS port-43 line client.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  *net.Dialer
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Client at construction.
type Option func(*Client)

// WithTimeout overrides the per-query socket timeout (default 10s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// withClock overrides the "today" reference used for derived fields; for
// tests only.
func withClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New builds a Client dialing addr ("host:port", default
// "whois.domreg.lt:43").
func New(addr string, opts ...Option) *Client {
	c := &Client{
		addr:    addr,
		timeout: 10 * time.Second,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dialer = &net.Dialer{Timeout: c.timeout}
	return c
}

// Lookup queries the WHOIS server for domain and parses the response.
func (c *Client) Lookup(ctx context.Context, domain string) (Record, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeTransientNetwork, "whois: dial failed")
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeTransientNetwork, "whois: set deadline")
	}

	if _, err := conn.Write([]byte(domain + "\r\n")); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeTransientNetwork, "whois: write failed")
	}

	record := Record{Domain: domain}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		parseLine(scanner.Text(), &record)
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("whois: read failed", "domain", domain, "error", err)
		return Record{}, dErrors.Wrap(err, dErrors.CodeTransientNetwork, "whois: read failed")
	}

	c.deriveFields(&record)
	return record, nil
}

func parseLine(line string, record *Record) {
	if strings.HasPrefix(line, "%") {
		return
	}
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	switch key {
	case "Domain":
		record.Domain = value
	case "Status":
		record.Status = value
	case "Registered":
		record.Registered = value
	case "Expires":
		record.Expires = value
	case "Registrar":
		record.Registrar = value
	case "Registrar website":
		record.RegistrarWebsite = value
	case "Registrar email":
		record.RegistrarEmail = value
	case "Contact organization":
		record.ContactOrganization = value
	case "Contact email":
		record.ContactEmail = value
	case "Nameserver":
		record.Nameservers = append(record.Nameservers, parseNameserver(value))
	}
}

// parseNameserver accepts "<host>" or "<host> [<ip>]".
func parseNameserver(value string) Nameserver {
	host, rest, found := strings.Cut(value, " [")
	if !found {
		return Nameserver{Host: strings.TrimSpace(value)}
	}
	ip := strings.TrimSuffix(rest, "]")
	return Nameserver{Host: strings.TrimSpace(host), IP: strings.TrimSpace(ip)}
}

func (c *Client) deriveFields(record *Record) {
	today := c.now()

	if t, err := time.Parse(dateLayout, record.Registered); err == nil {
		days := int(today.Sub(t).Hours() / 24)
		record.AgeDays = &days
	}
	if t, err := time.Parse(dateLayout, record.Expires); err == nil {
		days := int(t.Sub(today).Hours() / 24)
		record.DaysUntilExpiry = &days
	}
	record.PrivacyProtected = record.ContactOrganization == ""
}
