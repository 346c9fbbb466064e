package event

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fzft/go-mock-httpd/log"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Engine is one listener's event state: a backend, the connection registry
// and the flags coordinating Dispatch with Terminate and Destroy.
//
// Add, Modify and Delete may be called from any goroutine while Dispatch
// runs. Engines share nothing with each other.
type Engine struct {
	cfg Config
	log *zap.Logger
	be  backend

	mu  sync.Mutex
	reg *registry

	ready   []Elem
	over    atomic.Bool
	running atomic.Bool
	closed  atomic.Bool

	now func() time.Time
}

// New validates cfg, creates the backend and sizes the registry from
// cfg.MaxEvents.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Logger
	}

	be, err := newBackend(cfg.Backend, cfg.MaxEvents)
	if err != nil {
		logger.Error("failed to init backend", zap.Stringer("backend", cfg.Backend), zap.Error(err))
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		log:   logger.With(zap.Stringer("backend", be.kind())),
		be:    be,
		reg:   newRegistry(cfg.MaxEvents),
		ready: make([]Elem, cfg.MaxEvents),
		now:   time.Now,
	}
	e.log.Debug("engine initialised", zap.Int("max_events", cfg.MaxEvents))
	return e, nil
}

// Backend reports the multiplexer actually in use.
func (e *Engine) Backend() BackendKind {
	return e.be.kind()
}

// AddListener registers an accepting socket. Readiness on it triggers
// admission instead of a callback.
func (e *Engine) AddListener(fd int) error {
	if fd < 0 {
		return fmt.Errorf("%w: fd %d", ErrInvalidInput, fd)
	}
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reg.lookupAccept(fd) != nil {
		return nil
	}
	if err := e.be.add(fd, Read); err != nil {
		e.log.Error("failed to register listener", zap.Int("fd", fd), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	e.reg.insertAccept(fd, e.now())
	return nil
}

// Add starts monitoring elem.Fd for elem.Mask. Adding a socket that is
// already registered updates its interest and restarts its keepalive.
func (e *Engine) Add(elem Elem) error {
	if elem.Fd < 0 {
		return fmt.Errorf("%w: fd %d", ErrInvalidInput, elem.Fd)
	}
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(elem)
}

func (e *Engine) addLocked(elem Elem) error {
	if n := e.reg.lookup(elem.Fd); n != nil {
		return e.modifyLocked(n, elem)
	}
	if err := e.be.add(elem.Fd, elem.Mask); err != nil {
		e.log.Error("failed to add fd", zap.Int("fd", elem.Fd), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	e.reg.insert(elem.Fd, elem.Mask, e.now())
	return nil
}

// Modify replaces the interest of a registered socket and restarts its
// keepalive. An unregistered socket is added.
func (e *Engine) Modify(elem Elem) error {
	if elem.Fd < 0 {
		return fmt.Errorf("%w: fd %d", ErrInvalidInput, elem.Fd)
	}
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.reg.lookup(elem.Fd)
	if n == nil {
		return e.addLocked(elem)
	}
	return e.modifyLocked(n, elem)
}

func (e *Engine) modifyLocked(n *connNode, elem Elem) error {
	if err := e.be.modify(elem.Fd, elem.Mask); err != nil {
		e.log.Error("failed to modify fd", zap.Int("fd", elem.Fd), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	n.mask = elem.Mask
	n.start = e.now()
	return nil
}

// Delete stops monitoring elem.Fd. Deleting an unknown socket is not an
// error. The socket itself is left open.
func (e *Engine) Delete(elem Elem) error {
	if elem.Fd < 0 {
		return fmt.Errorf("%w: fd %d", ErrInvalidInput, elem.Fd)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if n := e.reg.lookup(elem.Fd); n != nil {
		e.reg.remove(n)
	} else if n := e.reg.lookupAccept(elem.Fd); n != nil {
		e.reg.removeAccept(n)
	} else {
		return nil
	}
	if err := e.be.del(elem.Fd); err != nil {
		e.log.Error("failed to delete fd", zap.Int("fd", elem.Fd), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// Len is the number of registered data sockets.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.count
}

// Registered reports whether fd is in the table and, if so, its interest.
func (e *Engine) Registered(fd int) (Mask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n := e.reg.lookup(fd); n != nil {
		return n.mask, true
	}
	return None, false
}

// Terminate asks a running Dispatch to return after its current iteration.
// It is safe to call from any goroutine, any number of times.
func (e *Engine) Terminate() {
	e.over.Store(true)
}

// Destroy terminates the loop, waits for Dispatch to return, closes every
// registered socket and releases the backend. It must not be called from
// the dispatching goroutine.
func (e *Engine) Destroy() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.Terminate()
	for e.running.Load() {
		time.Sleep(time.Millisecond)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var errs error
	data, accepts := e.reg.drain()
	for _, fd := range append(data, accepts...) {
		if err := e.be.del(fd); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete fd %d: %w", fd, err))
		}
		if err := unix.Close(fd); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close fd %d: %w", fd, err))
		}
	}
	if err := e.be.close(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		e.log.Warn("engine destroyed with errors", zap.Error(errs))
	} else {
		e.log.Debug("engine destroyed", zap.Int("closed", len(data)+len(accepts)))
	}
	return errs
}
