package httpwire

import (
	"io"
	"strings"
)

// ParseRequest reads one request head and, where the framing calls for it,
// its body. On a protocol failure the matching error status is staged in
// c.Response. When ExpectContinue reports true afterwards, the body is still
// on the wire: pack the staged 100 response and call ParseBody.
func (c *Context) ParseRequest(r io.Reader) (err error) {
	if r == nil {
		return wrap(ErrInvalidInput, "nil reader", nil)
	}
	c.Reset()
	defer func() {
		if err != nil {
			c.fail(err)
		}
	}()

	c.head.start(false)
	if err = c.parseHead(r); err != nil {
		return err
	}
	if c.Request.Version == Version09 {
		return nil
	}

	req := &c.Request
	te, _ := req.Header.Get("Transfer-Encoding")
	c.isChunked = hasToken(te, "chunked")
	if !bodyMethod(req.Method) {
		return c.readRequestBody(r, false)
	}
	if expect, ok := req.Header.Get("Expect"); ok && strings.EqualFold(trimOWS(expect), "100-continue") {
		if !c.isChunked {
			if _, err = c.requestLength(true); err != nil {
				return err
			}
		}
		c.toBody()
		req.Shake = true
		c.Response.Version = req.Version
		c.Response.SetStatus(StatusContinue)
		return nil
	}
	return c.readRequestBody(r, true)
}

// ParseBody reads the body of a request whose 100-continue handshake was
// answered.
func (c *Context) ParseBody(r io.Reader) (err error) {
	if r == nil || !c.Request.Shake {
		return wrap(ErrInvalidInput, "no pending 100-continue", nil)
	}
	c.Request.Shake = false
	c.Response.reset()
	defer func() {
		if err != nil {
			c.fail(err)
		}
	}()
	return c.readRequestBody(r, true)
}

// readRequestBody reads a chunked or Content-Length body. Methods that do
// not require a body still get one read when it is framed, so the stream
// stays in sync.
func (c *Context) readRequestBody(r io.Reader, required bool) error {
	req := &c.Request
	c.toBody()
	if c.isChunked {
		return c.readChunked(r, &req.Body, &req.Header)
	}
	n, err := c.requestLength(required)
	if err != nil || n == 0 {
		return err
	}
	return c.readFixed(r, &req.Body, n, ErrBadRequest)
}

func (c *Context) requestLength(required bool) (int64, error) {
	n, present, ok := contentLength(&c.Request.Header)
	switch {
	case !present && required:
		return 0, wrap(ErrLengthRequired, "missing Content-Length", nil)
	case !ok:
		return 0, wrap(ErrBadRequest, "invalid Content-Length", nil)
	case n > int64(c.Attrs.BodyMax):
		return 0, wrap(ErrPayloadTooLarge, "body exceeds limit", nil)
	}
	return n, nil
}
