package tlsprobe

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialAndInspect exercises the same handshake-then-extract logic Probe
// uses, against an arbitrary address rather than "<domain>:443" — this
// lets the test target httptest's ephemeral port.
func dialAndInspect(t *testing.T, addr string) Result {
	t.Helper()

	p := New(WithTimeout(5 * time.Second))
	conn, err := p.dialer.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	tlsConn := tls.Client(conn, &tls.Config{InsecureSkipVerify: true})
	defer tlsConn.Close()

	result := Result{}
	if err := tlsConn.Handshake(); err != nil {
		result.Error = err
		result.AlertText = alertText(err)
		return result
	}

	state := tlsConn.ConnectionState()
	result.Protocol = tlsVersionName(state.Version)
	result.CipherSuite = tls.CipherSuiteName(state.CipherSuite)
	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		result.NotAfter = leaf.NotAfter
		result.Issuer = leaf.Issuer.String()
		result.Subject = leaf.Subject.String()
	}
	return result
}

func TestHandshake_ExtractsCertificateFields(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := dialAndInspect(t, server.Listener.Addr().String())

	require.NoError(t, result.Error)
	assert.NotEmpty(t, result.Protocol)
	assert.NotZero(t, result.NotAfter)
	assert.NotEmpty(t, result.CipherSuite)
}

func TestProbe_ConnectErrorIsReported(t *testing.T) {
	p := New(WithTimeout(200 * time.Millisecond))
	result := p.Probe(context.Background(), "127.0.0.1.invalid.example")

	assert.Error(t, result.Error)
}

func TestTLSVersionName(t *testing.T) {
	assert.Equal(t, "TLS 1.3", tlsVersionName(tls.VersionTLS13))
	assert.Equal(t, "TLS 1.2", tlsVersionName(tls.VersionTLS12))
	assert.Equal(t, "unknown", tlsVersionName(0x0))
}

func TestAlertText_NilErrorReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", alertText(nil))
}
