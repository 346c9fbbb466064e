// Package httpwire parses and packs HTTP/1.x messages over plain io.Reader
// and io.Writer streams, byte by byte, with hard limits on every section.
package httpwire

import (
	"errors"
	"fmt"
	"io"

	"github.com/fzft/go-mock-httpd/log"
	"go.uber.org/zap"
)

// Attrs are the per-context limits. The cache sizes are how many bytes a
// single pull from the reader asks for.
type Attrs struct {
	URLMax          int `yaml:"url_max"`
	HeaderMax       int `yaml:"header_max"`
	BodyMax         int `yaml:"body_max"`
	HeaderCacheSize int `yaml:"header_cache_size"`
	BodyCacheSize   int `yaml:"body_cache_size"`
}

func DefaultAttrs() Attrs {
	return Attrs{
		URLMax:          4096,
		HeaderMax:       32 * 1024,
		BodyMax:         8 * 1024 * 1024,
		HeaderCacheSize: 4096,
		BodyCacheSize:   16 * 1024,
	}
}

func (a Attrs) Validate() error {
	if a.URLMax <= 0 || a.HeaderMax <= 0 || a.BodyMax <= 0 || a.HeaderCacheSize <= 0 || a.BodyCacheSize <= 0 {
		return wrap(ErrInvalidInput, fmt.Sprintf("non-positive limit in %+v", a), nil)
	}
	return nil
}

// maxZeroReads bounds how often a reader may return 0, nil in a row.
const maxZeroReads = 100

// Context holds one connection's codec state. It owns its buffers and
// header lists; nothing handed out by it stays valid across the next parse
// or Reset. A Context must not be used by two goroutines at once.
type Context struct {
	Attrs    Attrs
	Request  Request
	Response Response
	Logger   *zap.Logger

	// exactly one scratch holds unconsumed input at a time
	headerScratch Buffer
	bodyScratch   Buffer
	pos           int
	inBody        bool
	headBytes     int

	head        headParser
	chunk       chunkDecoder
	isChunked   bool
	chunkedDone bool
}

func NewContext(attrs Attrs) (*Context, error) {
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	return &Context{Attrs: attrs}, nil
}

func (c *Context) log() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Logger
}

// IsChunked reports whether the message being parsed uses chunked framing.
func (c *Context) IsChunked() bool { return c.isChunked }

// ChunkedDone reports that the terminal chunk and trailers were consumed.
func (c *Context) ChunkedDone() bool { return c.chunkedDone }

// ExpectContinue reports that the request asked for 100-continue. The
// staged interim response is in c.Response; pack it, then call ParseBody.
func (c *Context) ExpectContinue() bool { return c.Request.Shake }

// Reset clears both messages and all parse state, keeping buffer storage.
func (c *Context) Reset() {
	c.Request.reset()
	c.Response.reset()
	c.resetInput()
}

// Free releases every buffer. The context may be reused afterwards.
func (c *Context) Free() {
	c.Reset()
	c.Request.Body.Free()
	c.Response.Body.Free()
	c.headerScratch.Free()
	c.bodyScratch.Free()
}

func (c *Context) resetInput() {
	c.headerScratch.Reset()
	c.bodyScratch.Reset()
	c.pos = 0
	c.inBody = false
	c.headBytes = 0
	c.head = headParser{}
	c.chunk = chunkDecoder{}
	c.isChunked = false
	c.chunkedDone = false
}

// fill replaces the contents of buf with one pull of up to size bytes.
func (c *Context) fill(r io.Reader, buf *Buffer, size int) error {
	buf.Reset()
	c.pos = 0
	tail := buf.grow(size)
	for i := 0; i < maxZeroReads; i++ {
		n, err := r.Read(tail)
		if n > 0 {
			buf.commit(n)
			return nil
		}
		if err != nil {
			return err
		}
	}
	return io.ErrNoProgress
}

func (c *Context) nextHeadByte(r io.Reader) (byte, error) {
	if c.pos >= c.headerScratch.Len() {
		if err := c.fill(r, &c.headerScratch, c.Attrs.HeaderCacheSize); err != nil {
			return 0, err
		}
	}
	ch := c.headerScratch.b[c.pos]
	c.pos++
	return ch, nil
}

// toBody moves whatever was read past the head into the body scratch.
func (c *Context) toBody() {
	if c.inBody {
		return
	}
	c.bodyScratch.Reset()
	if c.pos < c.headerScratch.Len() {
		c.bodyScratch.Append(c.headerScratch.b[c.pos:]...)
	}
	c.headerScratch.Reset()
	c.pos = 0
	c.inBody = true
}

func (c *Context) bodyAvail() []byte {
	return c.bodyScratch.b[c.pos:]
}

// readFixed appends exactly n body bytes to body.
func (c *Context) readFixed(r io.Reader, body *Buffer, n int64, short *Error) error {
	for n > 0 {
		avail := c.bodyAvail()
		if len(avail) == 0 {
			want := int64(c.Attrs.BodyCacheSize)
			if n < want {
				want = n
			}
			if err := c.fill(r, &c.bodyScratch, int(want)); err != nil {
				if err == io.EOF {
					return wrap(short, "body shorter than Content-Length", io.ErrUnexpectedEOF)
				}
				return wrap(ErrTransport, "", err)
			}
			continue
		}
		k := int64(len(avail))
		if k > n {
			k = n
		}
		body.Append(avail[:k]...)
		c.pos += int(k)
		n -= k
	}
	return nil
}

// readToEOF appends everything up to end of stream, bounded by BodyMax.
func (c *Context) readToEOF(r io.Reader, body *Buffer) error {
	for {
		avail := c.bodyAvail()
		if len(avail) > 0 {
			if body.Len()+len(avail) > c.Attrs.BodyMax {
				return wrap(ErrPayloadTooLarge, "body exceeds limit", nil)
			}
			body.Append(avail...)
			c.pos += len(avail)
		}
		if err := c.fill(r, &c.bodyScratch, c.Attrs.BodyCacheSize); err != nil {
			if err == io.EOF {
				return nil
			}
			return wrap(ErrTransport, "", err)
		}
	}
}

// readChunked drives the chunk decoder until the terminal chunk.
func (c *Context) readChunked(r io.Reader, body *Buffer, trailers *Headers) error {
	c.chunk = chunkDecoder{}
	for !c.chunkedDone {
		avail := c.bodyAvail()
		if len(avail) == 0 {
			if err := c.fill(r, &c.bodyScratch, c.Attrs.BodyCacheSize); err != nil {
				if err == io.EOF {
					return wrap(ErrBadChunkData, "stream ended inside chunked body", io.ErrUnexpectedEOF)
				}
				return wrap(ErrTransport, "", err)
			}
			continue
		}
		n, err := c.chunk.feed(avail, body, trailers, c.Attrs.BodyMax, c.Attrs.HeaderMax)
		c.pos += n
		if err != nil {
			return err
		}
		if c.chunk.done() {
			c.chunkedDone = true
		}
	}
	return nil
}

// contentLength parses the Content-Length header. present is false when the
// header is missing.
func contentLength(h *Headers) (n int64, present bool, ok bool) {
	v, present := h.Get("Content-Length")
	if !present {
		return 0, false, true
	}
	v = trimOWS(v)
	if v == "" || len(v) > 18 {
		return 0, true, false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, true, false
		}
		n = n*10 + int64(v[i]-'0')
	}
	return n, true, true
}

// fail stages the error status on the response so a server can pack it
// straight away.
func (c *Context) fail(err error) {
	var e *Error
	if !errors.As(err, &e) || e.Status == 0 || e.Kind == KindTransport {
		return
	}
	c.Response.reset()
	c.Response.Version = Version11
	if c.Request.Version == Version10 {
		c.Response.Version = Version10
	}
	c.Response.SetStatus(e.Status)
	c.log().Debug("request rejected", zap.Int("status", e.Status), zap.Error(err))
}
