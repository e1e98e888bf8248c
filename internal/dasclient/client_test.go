package dasclient

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startFakeDAS runs a one-shot DAS server on an ephemeral port: it accepts a
// single connection, replies with the given response lines, then closes it.
func startFakeDAS(t *testing.T, respond func(request string) []string) string {
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

		line, _ := bufio.NewReader(conn).ReadString('\n')
		for _, out := range respond(line) {
			conn.Write([]byte(out + "\n"))
		}
	}()

	return ln.Addr().String()
}

func TestCheck_RegisteredStatus(t *testing.T) {
	addr := startFakeDAS(t, func(req string) []string {
		assert.Equal(t, "get 1.0 example.lt\n", req)
		return []string{"Domain: example.lt", "Status: registered"}
	})

	c := New(addr)
	result, err := c.Check(context.Background(), "example.lt")
	require.NoError(t, err)
	assert.Equal(t, StatusRegistered, result.Status)
	assert.Equal(t, "example.lt", result.Domain)
}

func TestCheck_AvailableStatus(t *testing.T) {
	addr := startFakeDAS(t, func(req string) []string {
		return []string{"Domain: free-domain.lt", "Status: available"}
	})

	c := New(addr)
	result, err := c.Check(context.Background(), "free-domain.lt")
	require.NoError(t, err)
	assert.Equal(t, StatusNotRegistered, result.Status)
}

func TestCheck_UnrecognizedStatusIsError(t *testing.T) {
	addr := startFakeDAS(t, func(req string) []string {
		return []string{"Domain: weird.lt", "Status: something-unexpected"}
	})

	c := New(addr)
	result, err := c.Check(context.Background(), "weird.lt")
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "something-unexpected", result.RawStatus)
}

func TestCheck_ConnectErrorFailsConservatively(t *testing.T) {
	c := New("127.0.0.1:1", WithTimeout(200*time.Millisecond))
	result, err := c.Check(context.Background(), "example.lt")
	require.Error(t, err)
	assert.Equal(t, StatusRegistered, result.Status, "connect failure must assume registered")
}

func TestCheck_MalformedResponseFailsConservatively(t *testing.T) {
	addr := startFakeDAS(t, func(req string) []string {
		return []string{"Domain: example.lt"}
	})

	c := New(addr, WithTimeout(time.Second))
	result, err := c.Check(context.Background(), "example.lt")
	require.Error(t, err)
	assert.Equal(t, StatusRegistered, result.Status)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusRegistered, classify("registered"))
	assert.Equal(t, StatusRegistered, classify("blocked"))
	assert.Equal(t, StatusRegistered, classify("pendingdelete"))
	assert.Equal(t, StatusNotRegistered, classify("available"))
	assert.Equal(t, StatusError, classify("gibberish"))
}
