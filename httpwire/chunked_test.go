package httpwire

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wikiChunked = "4;ext=1\r\nWiki\r\n5\r\npedia\r\nE\r\n in\r\n\r\nchunks.\r\n0\r\nX-Trailer: v\r\n\r\n"

func TestChunkDecoderAnySplit(t *testing.T) {
	in := []byte(wikiChunked)
	for split := 0; split <= len(in); split++ {
		var (
			d        chunkDecoder
			body     Buffer
			trailers Headers
		)
		n1, err := d.feed(in[:split], &body, &trailers, 1024, 1024)
		require.NoError(t, err, "split %d", split)
		require.Equal(t, split, n1)
		n2, err := d.feed(in[split:], &body, &trailers, 1024, 1024)
		require.NoError(t, err, "split %d", split)
		assert.Equal(t, len(in), n1+n2)
		assert.True(t, d.done())
		assert.Equal(t, "Wikipedia in\r\n\r\nchunks.", body.String())
		v, _ := trailers.Get("x-trailer")
		assert.Equal(t, "v", v)
	}
}

func TestChunkDecoderStopsAtEnd(t *testing.T) {
	var (
		d        chunkDecoder
		body     Buffer
		trailers Headers
	)
	in := []byte("3\r\nabc\r\n0\r\n\r\nGET / HTTP/1.1\r\n")
	n, err := d.feed(in, &body, &trailers, 1024, 1024)
	require.NoError(t, err)
	assert.Equal(t, strings.Index(string(in), "GET"), n)
	assert.Equal(t, "abc", body.String())
}

func TestChunkDecoderErrors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		max    int
		target error
	}{
		{"not hex", "zz\r\n", 1024, ErrBadChunkData},
		{"missing size", "\r\n", 1024, ErrBadChunkData},
		{"overflow", "1000000000000000\r\n", 1024, ErrBadChunkData},
		{"digit after space", "4 4\r\n", 1024, ErrBadChunkData},
		{"digit after tab", "4\t\t0\r\n", 1024, ErrBadChunkData},
		{"data too long", "4\r\nWikiX\r\n", 1024, ErrBadChunkData},
		{"missing LF", "4\rWiki\r\n", 1024, ErrBadChunkData},
		{"bad trailer", "0\r\n:x\r\n\r\n", 1024, ErrBadChunkData},
		{"over limit", "5\r\n12345\r\n", 4, ErrPayloadTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				d        chunkDecoder
				body     Buffer
				trailers Headers
			)
			_, err := d.feed([]byte(tt.in), &body, &trailers, tt.max, 1024)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestChunkDecoderSizeWhitespace(t *testing.T) {
	var (
		d        chunkDecoder
		body     Buffer
		trailers Headers
	)
	in := []byte("4 \t;x=1\r\nWiki\r\n0 \r\n\r\n")
	n, err := d.feed(in, &body, &trailers, 1024, 1024)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, "Wiki", body.String())
}

func TestChunkDecoderMetaLimit(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"trailer", "0\r\nX-T: " + strings.Repeat("v", 64) + "\r\n\r\n"},
		{"trailer name", "0\r\n" + strings.Repeat("X", 64) + ": v\r\n\r\n"},
		{"many trailers", "0\r\n" + strings.Repeat("A: b\r\n", 16) + "\r\n"},
		{"extension", "1;" + strings.Repeat("e", 64) + "\r\nx\r\n0\r\n\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				d        chunkDecoder
				body     Buffer
				trailers Headers
			)
			_, err := d.feed([]byte(tt.in), &body, &trailers, 1024, 32)
			assert.True(t, errors.Is(err, ErrHeaderTooLarge), "got %v", err)
		})
	}

	// the bound applies per size line, not to the body as a whole
	var (
		d        chunkDecoder
		body     Buffer
		trailers Headers
	)
	in := strings.Repeat("1;"+strings.Repeat("e", 20)+"\r\nx\r\n", 8) + "0\r\nA: b\r\n\r\n"
	n, err := d.feed([]byte(in), &body, &trailers, 1024, 32)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, strings.Repeat("x", 8), body.String())
}

func TestWriteChunked(t *testing.T) {
	var out Buffer
	require.NoError(t, WriteChunked(&out, []byte("Wikipedia"), 4))
	assert.Equal(t, "4\r\nWiki\r\n4\r\npedi\r\n1\r\na\r\n0\r\n\r\n", out.String())

	out.Reset()
	require.NoError(t, WriteChunked(&out, nil, 4))
	assert.Equal(t, "0\r\n\r\n", out.String())

	assert.True(t, errors.Is(WriteChunked(&out, []byte("x"), 0), ErrInvalidInput))
}

func TestWriteChunkedDecodes(t *testing.T) {
	payload := []byte(strings.Repeat("0123456789abcdef", 40))
	var out Buffer
	require.NoError(t, WriteChunked(&out, payload, 33))

	var (
		d        chunkDecoder
		body     Buffer
		trailers Headers
	)
	n, err := d.feed(out.Bytes(), &body, &trailers, len(payload), 1024)
	require.NoError(t, err)
	assert.Equal(t, out.Len(), n)
	assert.True(t, d.done())
	assert.Equal(t, payload, body.Bytes())
}
