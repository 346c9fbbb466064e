package httpwire

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name   string
		method string
		raw    string
		status int
		reason string
		body   string
	}{
		{"content length", MethodGet, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello", 200, "OK", "hello"},
		{"until eof", MethodGet, "HTTP/1.0 200 OK\r\n\r\nuntil eof", 200, "OK", "until eof"},
		{"chunked", MethodGet, "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n", 200, "OK", "Wikipedia"},
		{"head", MethodHead, "HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\n", 200, "OK", ""},
		{"no content", MethodGet, "HTTP/1.1 204 No Content\r\n\r\n", 204, "No Content", ""},
		{"custom reason", MethodGet, "HTTP/1.1 404 Nothing Here\r\nContent-Length: 0\r\n\r\n", 404, "Nothing Here", ""},
		{"no reason", MethodGet, "HTTP/1.1 500\r\nContent-Length: 0\r\n\r\n", 500, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCtx(t, nil)
			c.Request.Method = tt.method
			require.NoError(t, c.ParseResponse(iotest.OneByteReader(strings.NewReader(tt.raw))))
			assert.Equal(t, tt.status, c.Response.Status)
			assert.Equal(t, tt.reason, c.Response.Reason)
			assert.Equal(t, tt.body, c.Response.Body.String())
		})
	}
}

func TestParseResponseKeepsRequest(t *testing.T) {
	c := newCtx(t, nil)
	c.Request.Method = MethodPost
	c.Request.URL = "/x"
	require.NoError(t, c.ParseResponse(strings.NewReader("HTTP/1.1 201 Created\r\nLocation: /x/1\r\nContent-Length: 0\r\n\r\n")))
	assert.Equal(t, "/x", c.Request.URL)
	loc, _ := c.Response.Header.Get("Location")
	assert.Equal(t, "/x/1", loc)
	assert.Equal(t, Version11, c.Response.Version)
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		target error
	}{
		{"unknown status", "HTTP/1.1 999 Weird\r\n\r\n", ErrBadResponseData},
		{"short status", "HTTP/1.1 20 OK\r\n\r\n", ErrBadResponseData},
		{"not http", "SMTP/1.1 200 OK\r\n\r\n", ErrBadResponseData},
		{"major version", "HTTP/2.0 200 OK\r\n\r\n", ErrBadResponseData},
		{"bad length", "HTTP/1.1 200 OK\r\nContent-Length: -1\r\n\r\n", ErrBadResponseData},
		{"short body", "HTTP/1.1 200 OK\r\nContent-Length: 9\r\n\r\nabc", ErrBadResponseData},
		{"truncated head", "HTTP/1.1 200 OK\r\nServer: x", ErrBadResponseData},
		{"bad chunk", "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWikiX\r\n", ErrBadChunkData},
		{"empty", "", ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCtx(t, nil)
			c.Request.Method = MethodGet
			err := c.ParseResponse(strings.NewReader(tt.raw))
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestParseResponseBodyLimit(t *testing.T) {
	c := newCtx(t, func(a *Attrs) { a.BodyMax = 4 })
	c.Request.Method = MethodGet
	err := c.ParseResponse(strings.NewReader("HTTP/1.0 200 OK\r\n\r\nfar too long"))
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))

	err = c.ParseResponse(strings.NewReader("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))
}

func TestParseResponseTruncatedChunk(t *testing.T) {
	c := newCtx(t, nil)
	c.Request.Method = MethodGet
	err := c.ParseResponse(strings.NewReader("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWi"))
	assert.True(t, errors.Is(err, ErrBadChunkData))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.False(t, c.ChunkedDone())
}
