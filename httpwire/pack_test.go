package httpwire

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackResponse(t *testing.T) {
	c := newCtx(t, nil)
	c.Response.Version = Version11
	c.Response.SetStatus(StatusNotFound)
	c.Response.SetBody([]byte("nope"))

	var out Buffer
	require.NoError(t, c.PackResponse(&out))
	assert.Equal(t, "HTTP/1.1 404 Not Found\r\nContent-Length: 4\r\n\r\nnope", out.String())
}

func TestPackResponseHeadOmitsBody(t *testing.T) {
	c := newCtx(t, nil)
	c.Request.Method = MethodHead
	c.Response.Status = StatusOK
	c.Response.SetBody([]byte("hidden"))

	var out Buffer
	require.NoError(t, c.PackResponse(&out))
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 6\r\n\r\n", out.String())
}

func TestPackResponseChunked(t *testing.T) {
	c := newCtx(t, func(a *Attrs) { a.BodyCacheSize = 4 })
	c.Response.Version = Version10
	c.Response.SetStatus(StatusOK)
	c.Response.Header.Add("Transfer-Encoding", "chunked")
	c.Response.Body.AppendString("Wikipedia")

	var out Buffer
	require.NoError(t, c.PackResponse(&out))
	assert.Equal(t, "HTTP/1.0 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n4\r\npedi\r\n1\r\na\r\n0\r\n\r\n", out.String())
}

func TestPackResponseRejects(t *testing.T) {
	c := newCtx(t, nil)
	c.Response.Status = 999
	var out Buffer
	assert.True(t, errors.Is(c.PackResponse(&out), ErrInvalidInput))
	assert.Equal(t, 0, out.Len())
}

func TestPackWriterFailure(t *testing.T) {
	boom := errors.New("boom")
	c := newCtx(t, nil)
	c.Response.SetStatus(StatusOK)
	err := c.PackResponse(WriteFunc(func(p []byte) (int, error) { return 0, boom }))
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, boom))
}

func TestPackShortWrites(t *testing.T) {
	c := newCtx(t, nil)
	c.Response.SetStatus(StatusOK)
	c.Response.SetBody([]byte("body"))

	var out Buffer
	err := c.PackResponse(WriteFunc(func(p []byte) (int, error) {
		return out.Write(p[:1])
	}))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\nbody", out.String())
}

func TestPackRequestRoundTrip(t *testing.T) {
	src := newCtx(t, nil)
	src.Request.Method = MethodPost
	src.Request.URL = "/submit"
	src.Request.Query = "a=1"
	src.Request.Header.Add("Host", "example.com")
	src.Request.SetBody([]byte("payload"))

	var wire Buffer
	require.NoError(t, src.PackRequest(&wire))
	assert.True(t, strings.HasPrefix(wire.String(), "POST /submit?a=1 HTTP/1.1\r\n"))

	dst := newCtx(t, nil)
	require.NoError(t, dst.ParseRequest(strings.NewReader(wire.String())))
	assert.Equal(t, MethodPost, dst.Request.Method)
	assert.Equal(t, "/submit", dst.Request.URL)
	assert.Equal(t, "a=1", dst.Request.Query)
	assert.Equal(t, "payload", dst.Request.Body.String())
	host, _ := dst.Request.Header.Get("Host")
	assert.Equal(t, "example.com", host)
	length, _ := dst.Request.Header.Get("Content-Length")
	assert.Equal(t, "7", length)
}

func TestPackRequestChunkedRoundTrip(t *testing.T) {
	src := newCtx(t, func(a *Attrs) { a.BodyCacheSize = 3 })
	src.Request.Method = MethodPut
	src.Request.URL = "/blob"
	src.Request.Header.Add("Transfer-Encoding", "chunked")
	src.Request.Body.AppendString("streamed content")

	var wire Buffer
	require.NoError(t, src.PackRequest(&wire))

	dst := newCtx(t, nil)
	require.NoError(t, dst.ParseRequest(strings.NewReader(wire.String())))
	assert.True(t, dst.IsChunked())
	assert.Equal(t, "streamed content", dst.Request.Body.String())
}

func TestPackRequestHTTP09(t *testing.T) {
	c := newCtx(t, nil)
	c.Request.Method = MethodGet
	c.Request.URL = "/old"
	c.Request.Version = Version09
	c.Request.Header.Add("Host", "ignored")

	var out Buffer
	require.NoError(t, c.PackRequest(&out))
	assert.Equal(t, "GET /old\r\n", out.String())
}

func TestPackRequestGetOmitsBody(t *testing.T) {
	c := newCtx(t, nil)
	c.Request.Method = MethodGet
	c.Request.URL = "/"
	c.Request.Body.AppendString("dropped")

	var out Buffer
	require.NoError(t, c.PackRequest(&out))
	assert.Equal(t, "GET / HTTP/1.1\r\n\r\n", out.String())

	c.Request.URL = ""
	assert.True(t, errors.Is(c.PackRequest(&out), ErrInvalidInput))
}
