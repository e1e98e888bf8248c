package whoisclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startFakeWHOIS(t *testing.T, response string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		conn.Read(buf)
		conn.Write([]byte(response))
	}()

	return ln.Addr().String()
}

const sampleResponse = "% lt domain registry whois server\r\n" +
	"Domain: example.lt\r\n" +
	"Status: registered\r\n" +
	"Registered: 2020-01-15\r\n" +
	"Expires: 2026-01-15\r\n" +
	"Registrar: UAB Example Registrar\r\n" +
	"Registrar website: https://registrar.example\r\n" +
	"Registrar email: support@registrar.example\r\n" +
	"Nameserver: ns1.example.lt\r\n" +
	"Nameserver: ns2.example.lt [192.0.2.1]\r\n"

func TestLookup_ParsesRecognizedFields(t *testing.T) {
	addr := startFakeWHOIS(t, sampleResponse)

	fixedNow := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	c := New(addr, withClock(func() time.Time { return fixedNow }))

	record, err := c.Lookup(context.Background(), "example.lt")
	require.NoError(t, err)

	assert.Equal(t, "example.lt", record.Domain)
	assert.Equal(t, "registered", record.Status)
	assert.Equal(t, "UAB Example Registrar", record.Registrar)
	assert.Equal(t, "https://registrar.example", record.RegistrarWebsite)
	require.Len(t, record.Nameservers, 2)
	assert.Equal(t, Nameserver{Host: "ns1.example.lt"}, record.Nameservers[0])
	assert.Equal(t, Nameserver{Host: "ns2.example.lt", IP: "192.0.2.1"}, record.Nameservers[1])

	require.NotNil(t, record.AgeDays)
	assert.Equal(t, 1827, *record.AgeDays)
	require.NotNil(t, record.DaysUntilExpiry)
	assert.Equal(t, 365, *record.DaysUntilExpiry)
	assert.True(t, record.PrivacyProtected, "no Contact organization line means privacy protected")
}

func TestLookup_IgnoresPercentLines(t *testing.T) {
	addr := startFakeWHOIS(t, "% comment\r\nDomain: example.lt\r\n")

	c := New(addr)
	record, err := c.Lookup(context.Background(), "example.lt")
	require.NoError(t, err)
	assert.Equal(t, "example.lt", record.Domain)
}

func TestLookup_MissingDatesAreNilNotFatal(t *testing.T) {
	addr := startFakeWHOIS(t, "Domain: example.lt\r\nStatus: registered\r\n")

	c := New(addr)
	record, err := c.Lookup(context.Background(), "example.lt")
	require.NoError(t, err)
	assert.Nil(t, record.AgeDays)
	assert.Nil(t, record.DaysUntilExpiry)
}

func TestLookup_ContactOrganizationPresentDisablesPrivacyFlag(t *testing.T) {
	addr := startFakeWHOIS(t, "Domain: example.lt\r\nContact organization: Example UAB\r\n")

	c := New(addr)
	record, err := c.Lookup(context.Background(), "example.lt")
	require.NoError(t, err)
	assert.False(t, record.PrivacyProtected)
}

func TestLookup_ConnectErrorReturnsTransientNetworkError(t *testing.T) {
	c := New("127.0.0.1:1", WithTimeout(200*time.Millisecond))
	_, err := c.Lookup(context.Background(), "example.lt")
	require.Error(t, err)
}

func TestParseNameserver(t *testing.T) {
	assert.Equal(t, Nameserver{Host: "ns1.example.lt"}, parseNameserver("ns1.example.lt"))
	assert.Equal(t, Nameserver{Host: "ns2.example.lt", IP: "192.0.2.1"}, parseNameserver("ns2.example.lt [192.0.2.1]"))
}
