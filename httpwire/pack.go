package httpwire

import "io"

var (
	crlf      = []byte("\r\n")
	lastChunk = []byte("0\r\n\r\n")
)

// PackRequest serialises c.Request to w. Headers go out in list order; a
// Transfer-Encoding: chunked header makes the body go out chunked.
func (c *Context) PackRequest(w io.Writer) error {
	req := &c.Request
	if w == nil || req.Method == "" || req.URL == "" {
		return wrap(ErrInvalidInput, "request needs a writer, method and URL", nil)
	}
	head := &c.headerScratch
	head.Reset()
	head.AppendString(req.Method)
	head.Append(' ')
	head.AppendString(req.Target())
	if req.Version == Version09 {
		head.Append(crlf...)
		return writeAll(w, head.Bytes())
	}
	v := req.Version
	if v != Version10 {
		v = Version11
	}
	head.Append(' ')
	head.AppendString(v.String())
	head.Append(crlf...)
	appendHeaders(head, &req.Header)
	if err := writeAll(w, head.Bytes()); err != nil {
		return err
	}
	if !bodyMethod(req.Method) || req.Body.Len() == 0 {
		return nil
	}
	return c.writeBody(w, &req.Header, req.Body.Bytes())
}

// PackResponse serialises c.Response to w. An empty reason is taken from the
// status table. No body is written for HEAD requests or for 1xx, 204 and 304.
func (c *Context) PackResponse(w io.Writer) error {
	resp := &c.Response
	code, ok := StatusCode(resp.Status)
	if w == nil || !ok {
		return wrap(ErrInvalidInput, "response needs a writer and a known status", nil)
	}
	reason := resp.Reason
	if reason == "" {
		reason, _ = StatusText(resp.Status)
	}
	v := resp.Version
	if v != Version10 {
		v = Version11
	}

	head := &c.headerScratch
	head.Reset()
	head.AppendString(v.String())
	head.Append(' ')
	head.AppendString(code)
	head.Append(' ')
	head.AppendString(reason)
	head.Append(crlf...)
	appendHeaders(head, &resp.Header)
	if err := writeAll(w, head.Bytes()); err != nil {
		return err
	}
	if c.Request.Method == MethodHead || bodyless(resp.Status) || resp.Body.Len() == 0 {
		return nil
	}
	return c.writeBody(w, &resp.Header, resp.Body.Bytes())
}

func appendHeaders(b *Buffer, h *Headers) {
	for n := h.Front(); n != nil; n = n.Next {
		b.AppendString(n.Name)
		b.Append(':', ' ')
		b.AppendString(n.Value)
		b.Append(crlf...)
	}
	b.Append(crlf...)
}

func (c *Context) writeBody(w io.Writer, h *Headers, body []byte) error {
	te, _ := h.Get("Transfer-Encoding")
	if hasToken(te, "chunked") {
		return WriteChunked(w, body, c.Attrs.BodyCacheSize)
	}
	return writeAll(w, body)
}
