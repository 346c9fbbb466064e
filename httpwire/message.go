package httpwire

import (
	"strconv"
	"strings"
)

type Version int

const (
	VersionUnknown Version = iota
	Version09
	Version10
	Version11
)

func (v Version) String() string {
	switch v {
	case Version09:
		return "HTTP/0.9"
	case Version10:
		return "HTTP/1.0"
	case Version11:
		return "HTTP/1.1"
	default:
		return "HTTP/?"
	}
}

// Request is a parsed or to-be-packed request. The target is split into
// its path, ';' parameters, '?' query and '#' fragment without decoding.
type Request struct {
	// Shake is set while a 100-continue handshake is pending.
	Shake bool

	Method   string
	URL      string
	Params   string
	Query    string
	Fragment string
	Version  Version
	Header   Headers
	Body     Buffer
}

// Target reassembles the request target as it appears on the wire.
func (r *Request) Target() string {
	var b strings.Builder
	b.WriteString(r.URL)
	if r.Params != "" {
		b.WriteByte(';')
		b.WriteString(r.Params)
	}
	if r.Query != "" {
		b.WriteByte('?')
		b.WriteString(r.Query)
	}
	if r.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(r.Fragment)
	}
	return b.String()
}

// SetBody replaces the body and sets a matching Content-Length.
func (r *Request) SetBody(p []byte) {
	r.Body.Reset()
	r.Body.Append(p...)
	r.Header.Set("Content-Length", strconv.Itoa(len(p)))
}

// KeepAlive reports whether the connection may carry another request.
func (r *Request) KeepAlive() bool {
	conn, _ := r.Header.Get("Connection")
	switch {
	case hasToken(conn, "close"):
		return false
	case r.Version == Version11:
		return true
	case r.Version == Version10:
		return hasToken(conn, "keep-alive")
	default:
		return false
	}
}

func (r *Request) reset() {
	r.Shake = false
	r.Method, r.URL, r.Params, r.Query, r.Fragment = "", "", "", "", ""
	r.Version = VersionUnknown
	r.Header.Reset()
	r.Body.Reset()
}

type Response struct {
	Version Version
	Status  int
	Reason  string
	Header  Headers
	Body    Buffer
}

// SetStatus sets the status and its table reason phrase.
func (r *Response) SetStatus(code int) {
	r.Status = code
	r.Reason, _ = StatusText(code)
}

// SetBody replaces the body and sets a matching Content-Length.
func (r *Response) SetBody(p []byte) {
	r.Body.Reset()
	r.Body.Append(p...)
	r.Header.Set("Content-Length", strconv.Itoa(len(p)))
}

func (r *Response) reset() {
	r.Version = VersionUnknown
	r.Status = 0
	r.Reason = ""
	r.Header.Reset()
	r.Body.Reset()
}
