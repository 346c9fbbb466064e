package node

import (
	"github.com/fzft/go-mock-httpd/httpwire"
)

// Handler answers one parsed request by filling ctx.Response. The server
// packs the response; a returned error becomes a status via
// httpwire.StatusOf.
type Handler interface {
	Serve(ctx *httpwire.Context) error
}

type HandlerFunc func(ctx *httpwire.Context) error

func (f HandlerFunc) Serve(ctx *httpwire.Context) error { return f(ctx) }

// DefaultHandler echoes the request body back, or the request line when the
// body is empty.
type DefaultHandler struct{}

func (DefaultHandler) Serve(ctx *httpwire.Context) error {
	req := &ctx.Request
	resp := &ctx.Response
	resp.SetStatus(httpwire.StatusOK)
	resp.Header.Add("Content-Type", "text/plain")
	if req.Body.Len() > 0 {
		resp.SetBody(req.Body.Bytes())
		return nil
	}
	resp.SetBody([]byte(req.Method + " " + req.Target() + " " + req.Version.String() + "\n"))
	return nil
}
