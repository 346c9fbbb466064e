package httpwire

import (
	"io"
)

type headState int

const (
	hsStart headState = iota
	hsCommand
	hsURLStart
	hsURL
	hsParams
	hsQuery
	hsFragment
	hsSimpleLF // bare CR after the target, HTTP/0.9
	hsProtoStart
	hsProto // "HTTP/", indexed by headParser.idx
	hsMajor
	hsDot
	hsMinor
	hsTitleCR
	hsStatusSep
	hsStatus
	hsStatusEnd
	hsReason
	hsTitleLF
	hsHeaderStart
	hsHeaderName
	hsHeaderOWS
	hsHeaderValue
	hsHeaderLF
	hsHeadLF
	hsDone
)

const proto = "HTTP/"

// headParser consumes the start line and header block one byte at a time.
// A parsed header is held back until the next line start so an obs-fold
// continuation can extend it.
type headParser struct {
	state    headState
	response bool
	idx      int
	tok      []byte
	urlLen   int
	major    int
	minor    int
	status   int
	digits   int
	name     []byte
	value    []byte
	pending  bool
}

func (p *headParser) start(response bool) {
	*p = headParser{response: response, tok: p.tok[:0], name: p.name[:0], value: p.value[:0]}
	if response {
		p.state = hsProto
	}
}

func (p *headParser) bad(msg string) *Error {
	if p.response {
		return wrap(ErrBadResponseData, msg, nil)
	}
	return wrap(ErrBadRequest, msg, nil)
}

// parseHead runs the head state machine until the blank line that ends the
// header block.
func (c *Context) parseHead(r io.Reader) error {
	p := &c.head
	for p.state != hsDone {
		ch, err := c.nextHeadByte(r)
		if err != nil {
			if err == io.EOF {
				if c.headBytes == 0 {
					return wrap(ErrTransport, "connection closed", io.EOF)
				}
				return p.eof()
			}
			return wrap(ErrTransport, "", err)
		}
		c.headBytes++
		if c.headBytes > c.Attrs.HeaderMax {
			return wrap(ErrHeaderTooLarge, "message head exceeds limit", nil)
		}
		if err := c.step(ch); err != nil {
			return err
		}
	}
	return nil
}

func (p *headParser) eof() *Error {
	if p.response {
		return wrap(ErrBadResponseData, "stream ended inside message head", io.ErrUnexpectedEOF)
	}
	return wrap(ErrBadRequest, "stream ended inside message head", io.ErrUnexpectedEOF)
}

func (c *Context) headers() *Headers {
	if c.head.response {
		return &c.Response.Header
	}
	return &c.Request.Header
}

func (c *Context) setVersion(v Version) {
	if c.head.response {
		c.Response.Version = v
	} else {
		c.Request.Version = v
	}
}

func (c *Context) step(ch byte) error {
	p := &c.head
	switch p.state {
	case hsStart:
		switch {
		case ch == '\r' || ch == '\n':
			// tolerate empty lines before the request line
		case isTchar(ch):
			p.tok = append(p.tok[:0], ch)
			p.state = hsCommand
		default:
			return p.bad("invalid request line")
		}

	case hsCommand:
		switch {
		case ch == ' ':
			m, ok := lookupMethod(p.tok)
			if !ok {
				return wrap(ErrMethodNotAllowed, "unknown method "+string(p.tok), nil)
			}
			c.Request.Method = m
			p.state = hsURLStart
		case isTchar(ch):
			if len(p.tok) >= maxMethodLen {
				return wrap(ErrMethodNotAllowed, "unknown method", nil)
			}
			p.tok = append(p.tok, ch)
		default:
			return p.bad("invalid method")
		}

	case hsURLStart:
		if ch == ' ' {
			return nil
		}
		if isCtl(ch) {
			return p.bad("missing request target")
		}
		p.tok = p.tok[:0]
		p.state = hsURL
		return c.target(ch)

	case hsURL, hsParams, hsQuery, hsFragment:
		return c.target(ch)

	case hsSimpleLF:
		if ch != '\n' {
			return p.bad("expected LF")
		}
		c.Request.Version = Version09
		p.state = hsDone

	case hsProtoStart:
		switch ch {
		case ' ':
		case 'H':
			p.idx = 1
			p.state = hsProto
		default:
			return p.bad("invalid protocol")
		}

	case hsProto:
		if ch != proto[p.idx] {
			return p.bad("invalid protocol")
		}
		p.idx++
		if p.idx == len(proto) {
			p.state = hsMajor
		}

	case hsMajor:
		if !isDigit(ch) {
			return p.bad("invalid major version")
		}
		p.major = int(ch - '0')
		p.state = hsDot

	case hsDot:
		if ch != '.' {
			return p.bad("invalid version")
		}
		p.state = hsMinor

	case hsMinor:
		if !isDigit(ch) {
			return p.bad("invalid minor version")
		}
		p.minor = int(ch - '0')
		if p.major != 1 {
			if p.response {
				return wrap(ErrBadResponseData, "unsupported version", nil)
			}
			return wrap(ErrVersionNotSupported, "unsupported version", nil)
		}
		v := Version11
		if p.minor == 0 {
			v = Version10
		}
		c.setVersion(v)
		if p.response {
			p.state = hsStatusSep
		} else {
			p.state = hsTitleCR
		}

	case hsTitleCR:
		if ch != '\r' {
			return p.bad("expected CR after version")
		}
		p.state = hsTitleLF

	case hsStatusSep:
		if ch != ' ' {
			return p.bad("expected space after version")
		}
		p.state = hsStatus

	case hsStatus:
		if !isDigit(ch) {
			return p.bad("invalid status code")
		}
		p.status = p.status*10 + int(ch-'0')
		p.digits++
		if p.digits == 3 {
			if _, ok := StatusText(p.status); !ok {
				return p.bad("unknown status code")
			}
			c.Response.Status = p.status
			p.state = hsStatusEnd
		}

	case hsStatusEnd:
		switch ch {
		case ' ':
			p.tok = p.tok[:0]
			p.state = hsReason
		case '\r':
			p.state = hsTitleLF
		default:
			return p.bad("invalid status line")
		}

	case hsReason:
		switch {
		case ch == '\r':
			c.Response.Reason = string(p.tok)
			p.state = hsTitleLF
		case isCtl(ch) && ch != '\t':
			return p.bad("invalid reason phrase")
		default:
			p.tok = append(p.tok, ch)
		}

	case hsTitleLF:
		if ch != '\n' {
			return p.bad("expected LF")
		}
		p.state = hsHeaderStart

	case hsHeaderStart:
		switch {
		case ch == '\r':
			c.commitHeader()
			p.state = hsHeadLF
		case ch == ' ' || ch == '\t':
			if !p.pending {
				return p.bad("continuation line without header")
			}
			p.state = hsHeaderOWS
		case isTchar(ch):
			c.commitHeader()
			p.name = append(p.name[:0], ch)
			p.state = hsHeaderName
		default:
			return p.bad("invalid header name")
		}

	case hsHeaderName:
		switch {
		case ch == ':':
			p.value = p.value[:0]
			p.state = hsHeaderOWS
		case isTchar(ch):
			p.name = append(p.name, ch)
		default:
			return p.bad("invalid header name")
		}

	case hsHeaderOWS:
		switch {
		case ch == ' ' || ch == '\t':
		case ch == '\r':
			p.state = hsHeaderLF
		case isCtl(ch):
			return p.bad("invalid header value")
		default:
			if p.pending && len(p.value) > 0 {
				// folded line joins with a single space
				p.value = append(p.value, ' ')
			}
			p.value = append(p.value, ch)
			p.state = hsHeaderValue
		}

	case hsHeaderValue:
		switch {
		case ch == '\r':
			p.state = hsHeaderLF
		case isCtl(ch) && ch != '\t':
			return p.bad("invalid header value")
		default:
			p.value = append(p.value, ch)
		}

	case hsHeaderLF:
		if ch != '\n' {
			return p.bad("expected LF after header")
		}
		p.pending = true
		p.state = hsHeaderStart

	case hsHeadLF:
		if ch != '\n' {
			return p.bad("expected LF after header block")
		}
		p.state = hsDone
	}
	return nil
}

// target handles one byte of the request target, splitting it into its
// path, params, query and fragment.
func (c *Context) target(ch byte) error {
	p := &c.head
	switch {
	case ch == ' ':
		c.commitTarget()
		p.state = hsProtoStart
		return nil
	case ch == '\r':
		c.commitTarget()
		if c.Request.Method != MethodGet {
			return wrap(ErrMethodNotAllowed, "HTTP/0.9 only allows GET", nil)
		}
		p.state = hsSimpleLF
		return nil
	case isCtl(ch):
		return p.bad("invalid character in request target")
	}

	p.urlLen++
	if p.urlLen > c.Attrs.URLMax {
		return wrap(ErrURITooLong, "request target exceeds limit", nil)
	}
	next := p.state
	switch {
	case ch == ';' && p.state == hsURL:
		next = hsParams
	case ch == '?' && (p.state == hsURL || p.state == hsParams):
		next = hsQuery
	case ch == '#' && p.state != hsFragment:
		next = hsFragment
	}
	if next != p.state {
		c.commitTarget()
		p.tok = p.tok[:0]
		p.state = next
		return nil
	}
	p.tok = append(p.tok, ch)
	return nil
}

func (c *Context) commitTarget() {
	p := &c.head
	s := string(p.tok)
	switch p.state {
	case hsURL:
		c.Request.URL = s
	case hsParams:
		c.Request.Params = s
	case hsQuery:
		c.Request.Query = s
	case hsFragment:
		c.Request.Fragment = s
	}
}

func (c *Context) commitHeader() {
	p := &c.head
	if !p.pending {
		return
	}
	c.headers().Add(string(p.name), trimOWS(string(p.value)))
	p.pending = false
}

func trimOWS(s string) string {
	i, j := 0, len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t') {
		j--
	}
	return s[i:j]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isCtl(c byte) bool { return c < 0x20 || c == 0x7f }

// isTchar reports an RFC 7230 token character.
func isTchar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', isDigit(c):
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}
