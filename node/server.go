//go:build linux || darwin || freebsd || solaris

package node

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fzft/go-mock-httpd/config"
	"github.com/fzft/go-mock-httpd/event"
	"github.com/fzft/go-mock-httpd/httpwire"
	"github.com/fzft/go-mock-httpd/log"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Server accepts connections through an event engine and serves one
// request per readiness event on a pool of workers. A connection that stays
// open is handed back to the engine for its next request.
type Server struct {
	cfg     *config.Config
	handler Handler
	log     *zap.Logger

	engine    *event.Engine
	queue     *event.Queue
	ioTimeout time.Duration
	busyReply []byte

	addr  string
	ready chan struct{}
	wg    sync.WaitGroup
}

func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		cfg:       cfg,
		handler:   DefaultHandler{},
		log:       log.Logger,
		ioTimeout: time.Duration(cfg.Server.IOTimeout) * time.Second,
		ready:     make(chan struct{}),
	}
}

func (s *Server) SetHandler(handler Handler) {
	s.handler = handler
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the bound listener address; valid after Ready.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves until SIGINT, SIGTERM or SIGQUIT.
func (s *Server) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case sig := <-sigCh:
			s.log.Info("received signal", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()
	return s.Serve(ctx)
}

// Serve listens on the configured address and blocks until ctx ends or the
// engine fails.
func (s *Server) Serve(ctx context.Context) error {
	ec, err := s.cfg.EventConfig()
	if err != nil {
		return err
	}
	ec.Logger = s.log
	if s.busyReply, err = packBusy(s.cfg.HTTP); err != nil {
		return err
	}

	engine, err := event.New(ec)
	if err != nil {
		return err
	}
	abort := func(err error) error {
		return multierr.Append(err, engine.Destroy())
	}
	queue, err := event.NewQueue(s.cfg.Server.QueueSize)
	if err != nil {
		return abort(err)
	}
	lnFd, err := event.ListenFD(s.cfg.Server.Addr)
	if err != nil {
		s.log.Error("listen error", zap.String("addr", s.cfg.Server.Addr), zap.Error(err))
		return abort(err)
	}
	if err := engine.AddListener(lnFd); err != nil {
		return abort(multierr.Append(err, unix.Close(lnFd)))
	}
	s.engine, s.queue = engine, queue
	s.addr, _ = event.LocalAddr(lnFd)
	close(s.ready)
	s.log.Info("listening", zap.String("addr", s.addr), zap.Stringer("backend", engine.Backend()),
		zap.Int("workers", s.cfg.Server.Workers))

	for i := 0; i < s.cfg.Server.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	dispatchErr := make(chan error, 1)
	go func() {
		dispatchErr <- engine.Dispatch(s.onEvent)
	}()

	select {
	case <-ctx.Done():
		engine.Terminate()
		err = <-dispatchErr
	case err = <-dispatchErr:
	}
	if err != nil {
		s.log.Error("dispatch stopped", zap.Error(err))
	}

	s.log.Info("shutting down server")
	return multierr.Append(err, s.shutdown())
}

// shutdown stops the workers, closes whatever they never picked up and
// tears the engine down with every socket it still watches.
func (s *Server) shutdown() error {
	s.queue.Close()
	s.wg.Wait()
	for {
		elem, err := s.queue.Pop()
		if err != nil {
			break
		}
		closeFd(elem.Fd)
	}
	return s.engine.Destroy()
}

// onEvent runs on the dispatching goroutine and must not block.
func (s *Server) onEvent(elem event.Elem) {
	switch {
	case elem.Mask.Has(event.Timer):
	case elem.Mask.Has(event.Busy):
		s.log.Warn("connection refused, engine full", zap.Int("fd", elem.Fd))
		s.refuse(elem.Fd)
	case elem.Mask.Has(event.Timeout):
		s.log.Debug("connection idle, closing", zap.Int("fd", elem.Fd))
		closeFd(elem.Fd)
	default:
		if err := s.queue.Push(elem); err != nil {
			s.log.Warn("worker queue rejected connection", zap.Int("fd", elem.Fd), zap.Error(err))
			s.refuse(elem.Fd)
		}
	}
}

// refuse sends the canned 503 with a single non-blocking write and closes.
func (s *Server) refuse(fd int) {
	unix.Write(fd, s.busyReply)
	closeFd(fd)
}

func (s *Server) worker() {
	defer s.wg.Done()
	hc, err := httpwire.NewContext(s.cfg.HTTP)
	if err != nil {
		s.log.Error("failed to create codec context", zap.Error(err))
		return
	}
	hc.Logger = s.log
	defer hc.Free()

	for {
		elem, err := s.queue.PopWait(context.Background())
		if err != nil {
			return
		}
		s.serveConn(hc, elem)
	}
}

func (s *Server) serveConn(hc *httpwire.Context, elem event.Elem) {
	conn := newConn(elem.Fd, s.ioTimeout)
	if elem.Mask.Has(event.Error) || !elem.Mask.Has(event.Read) {
		conn.Close()
		return
	}

	keep := s.exchange(hc, conn)
	if !keep {
		conn.Close()
		return
	}
	if err := s.engine.Add(event.Elem{Fd: elem.Fd, Mask: event.Read}); err != nil {
		s.log.Warn("failed to re-arm connection", zap.Int("fd", elem.Fd), zap.Error(err))
		conn.Close()
	}
}

// exchange serves one request on conn and reports whether the connection
// may carry another.
func (s *Server) exchange(hc *httpwire.Context, conn Conn) bool {
	logger := s.log.With(zap.Int("fd", conn.Fd()), zap.String("peer", conn.Ip()))

	err := hc.ParseRequest(conn)
	if err == nil && hc.ExpectContinue() {
		if err = hc.PackResponse(conn); err == nil {
			err = hc.ParseBody(conn)
		}
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false
		}
		if hc.Response.Status == 0 {
			logger.Debug("connection failed", zap.Error(err))
			return false
		}
		logger.Debug("bad request", zap.Int("status", hc.Response.Status), zap.Error(err))
		errorResponse(&hc.Response, hc.Response.Status)
		hc.Response.Header.Set("Connection", "close")
		if err := hc.PackResponse(conn); err != nil {
			logger.Debug("failed to send error response", zap.Error(err))
		}
		return false
	}

	req := &hc.Request
	if err := s.handler.Serve(hc); err != nil {
		logger.Warn("handler failed", zap.String("method", req.Method), zap.String("url", req.URL), zap.Error(err))
		errorResponse(&hc.Response, httpwire.StatusOf(err))
	}

	if req.Version == httpwire.Version09 {
		if _, err := conn.Write(hc.Response.Body.Bytes()); err != nil {
			logger.Debug("write failed", zap.Error(err))
		}
		return false
	}

	keep := req.KeepAlive()
	hc.Response.Version = req.Version
	if !keep {
		hc.Response.Header.Set("Connection", "close")
	} else if req.Version == httpwire.Version10 {
		hc.Response.Header.Set("Connection", "keep-alive")
	}
	if err := hc.PackResponse(conn); err != nil {
		logger.Debug("write failed", zap.Error(err))
		return false
	}
	logger.Debug("served", zap.String("method", req.Method), zap.String("url", req.URL),
		zap.Int("status", hc.Response.Status))
	return keep
}

// errorResponse replaces resp with a plain text body naming status.
func errorResponse(resp *httpwire.Response, status int) {
	resp.Header.Reset()
	resp.SetStatus(status)
	resp.Header.Add("Content-Type", "text/plain")
	resp.SetBody([]byte(resp.Reason + "\n"))
}

func packBusy(attrs httpwire.Attrs) ([]byte, error) {
	hc, err := httpwire.NewContext(attrs)
	if err != nil {
		return nil, err
	}
	errorResponse(&hc.Response, httpwire.StatusServiceUnavailable)
	hc.Response.Header.Add("Connection", "close")

	var out httpwire.Buffer
	if err := hc.PackResponse(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
