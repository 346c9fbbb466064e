//go:build linux || darwin || freebsd || solaris

package node

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/fzft/go-mock-httpd/config"
	"github.com/fzft/go-mock-httpd/httpwire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.Workers = 2
	cfg.Server.IOTimeout = 2
	cfg.Engine.Backend = "poll"
	return cfg
}

func startServer(t *testing.T, cfg *config.Config, h Handler) *Server {
	t.Helper()
	s := NewServer(cfg)
	if h != nil {
		s.SetHandler(h)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	select {
	case <-s.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("server failed to start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return s
}

func dial(t *testing.T, s *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	t.Cleanup(func() { conn.Close() })
	return conn
}

// roundTrip writes raw and parses one response off conn.
func roundTrip(t *testing.T, conn net.Conn, method, raw string) *httpwire.Context {
	t.Helper()
	_, err := io.WriteString(conn, raw)
	require.NoError(t, err)

	hc, err := httpwire.NewContext(httpwire.DefaultAttrs())
	require.NoError(t, err)
	hc.Request.Method = method
	require.NoError(t, hc.ParseResponse(conn))
	return hc
}

func TestServeEcho(t *testing.T) {
	s := startServer(t, testConfig(), nil)
	conn := dial(t, s)

	hc := roundTrip(t, conn, "GET", "GET /hello?x=1 HTTP/1.1\r\nHost: test\r\n\r\n")
	assert.Equal(t, httpwire.StatusOK, hc.Response.Status)
	assert.Equal(t, "GET /hello?x=1 HTTP/1.1\n", hc.Response.Body.String())

	// same connection, re-armed for the next request
	hc = roundTrip(t, conn, "POST", "POST /echo HTTP/1.1\r\nContent-Length: 4\r\n\r\nping")
	assert.Equal(t, httpwire.StatusOK, hc.Response.Status)
	assert.Equal(t, "ping", hc.Response.Body.String())
}

func TestServeChunkedRequest(t *testing.T) {
	s := startServer(t, testConfig(), nil)
	conn := dial(t, s)

	hc := roundTrip(t, conn, "POST", "POST /c HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	assert.Equal(t, "Wikipedia", hc.Response.Body.String())
}

func TestServeExpectContinue(t *testing.T) {
	s := startServer(t, testConfig(), nil)
	conn := dial(t, s)

	_, err := io.WriteString(conn, "PUT /up HTTP/1.1\r\nContent-Length: 5\r\nExpect: 100-continue\r\n\r\n")
	require.NoError(t, err)

	hc, err := httpwire.NewContext(httpwire.DefaultAttrs())
	require.NoError(t, err)
	hc.Request.Method = "PUT"
	require.NoError(t, hc.ParseResponse(conn))
	assert.Equal(t, httpwire.StatusContinue, hc.Response.Status)

	_, err = io.WriteString(conn, "hello")
	require.NoError(t, err)
	require.NoError(t, hc.ParseResponse(conn))
	assert.Equal(t, httpwire.StatusOK, hc.Response.Status)
	assert.Equal(t, "hello", hc.Response.Body.String())
}

func TestServeRejectsBadRequest(t *testing.T) {
	s := startServer(t, testConfig(), nil)
	conn := dial(t, s)

	hc := roundTrip(t, conn, "BREW", "BREW /pot HTTP/1.1\r\n\r\n")
	assert.Equal(t, httpwire.StatusMethodNotAllowed, hc.Response.Status)
	v, _ := hc.Response.Header.Get("Connection")
	assert.Equal(t, "close", v)

	_, err := conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestServeConnectionClose(t *testing.T) {
	s := startServer(t, testConfig(), nil)
	conn := dial(t, s)

	hc := roundTrip(t, conn, "GET", "GET / HTTP/1.0\r\n\r\n")
	assert.Equal(t, httpwire.Version10, hc.Response.Version)
	_, err := conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestServeHandlerError(t *testing.T) {
	h := HandlerFunc(func(ctx *httpwire.Context) error {
		if strings.HasPrefix(ctx.Request.URL, "/teapot") {
			return &httpwire.Error{Kind: httpwire.KindProtocol, Status: httpwire.StatusBadRequest}
		}
		return errors.New("boom")
	})
	s := startServer(t, testConfig(), h)
	conn := dial(t, s)

	hc := roundTrip(t, conn, "GET", "GET /teapot HTTP/1.1\r\n\r\n")
	assert.Equal(t, httpwire.StatusBadRequest, hc.Response.Status)
	hc = roundTrip(t, conn, "GET", "GET /other HTTP/1.1\r\n\r\n")
	assert.Equal(t, httpwire.StatusInternalServerError, hc.Response.Status)
}

func TestServeRefusesWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.MaxEvents = 3
	s := startServer(t, cfg, nil)

	dial(t, s)
	dial(t, s)
	require.Eventually(t, func() bool { return s.engine.Len() == 2 }, 3*time.Second, 10*time.Millisecond)

	conn := dial(t, s)
	hc, err := httpwire.NewContext(httpwire.DefaultAttrs())
	require.NoError(t, err)
	hc.Request.Method = "GET"
	require.NoError(t, hc.ParseResponse(conn))
	assert.Equal(t, httpwire.StatusServiceUnavailable, hc.Response.Status)
	assert.Equal(t, "Service Unavailable\n", hc.Response.Body.String())
}

func TestServeEvictsIdle(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.Keepalive = 1
	cfg.Engine.Timeout = 1
	s := startServer(t, cfg, nil)

	conn := dial(t, s)
	start := time.Now()
	_, err := conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.Equal(t, 0, s.engine.Len())
}

func TestServeHTTP09(t *testing.T) {
	s := startServer(t, testConfig(), nil)
	conn := dial(t, s)

	_, err := io.WriteString(conn, "GET /old\r\n")
	require.NoError(t, err)
	body, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "GET /old HTTP/0.9\n", string(body))
}

func TestServeListenFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := testConfig()
	cfg.Server.Addr = taken.Addr().String()
	s := NewServer(cfg)

	err = s.Serve(context.Background())
	require.Error(t, err)
	var opErr *net.OpError
	assert.True(t, errors.As(err, &opErr), "got %v", err)
	assert.Len(t, multierr.Errors(err), 1)
	select {
	case <-s.Ready():
		t.Fatal("server reported ready after a failed listen")
	default:
	}
}
