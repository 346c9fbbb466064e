package httpwire

import "io"

// ParseResponse reads one response. c.Request.Method should still hold the
// method the response answers, since a HEAD response carries no body.
func (c *Context) ParseResponse(r io.Reader) error {
	if r == nil {
		return wrap(ErrInvalidInput, "nil reader", nil)
	}
	c.Response.reset()
	c.resetInput()

	c.head.start(true)
	if err := c.parseHead(r); err != nil {
		return err
	}
	resp := &c.Response
	if c.Request.Method == MethodHead || bodyless(resp.Status) {
		return nil
	}

	c.toBody()
	te, _ := resp.Header.Get("Transfer-Encoding")
	if c.isChunked = hasToken(te, "chunked"); c.isChunked {
		return c.readChunked(r, &resp.Body, &resp.Header)
	}
	n, present, ok := contentLength(&resp.Header)
	switch {
	case !present:
		return c.readToEOF(r, &resp.Body)
	case !ok:
		return wrap(ErrBadResponseData, "invalid Content-Length", nil)
	case n > int64(c.Attrs.BodyMax):
		return wrap(ErrPayloadTooLarge, "body exceeds limit", nil)
	}
	return c.readFixed(r, &resp.Body, n, ErrBadResponseData)
}
