package event

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Dispatch runs the loop on the calling goroutine until Terminate is
// called or the backend fails. Each iteration waits up to Config.Timeout,
// delivers every ready data socket to cb once (removing it from the
// registry first, so the callback must re-Add to hear from it again),
// admits new connections on listener sockets, reports a Timer element when
// the wait timed out with nothing ready, and finally sweeps expired
// sockets. An interrupted wait only sweeps.
//
// cb may be nil, in which case evicted sockets are closed directly and
// ready or busy sockets are closed as well.
func (e *Engine) Dispatch(cb Callback) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)
	// claim running before checking closed; Destroy works in the opposite order
	if e.closed.Load() {
		return ErrClosed
	}
	if cb == nil {
		cb = closeElem
	}

	e.log.Info("dispatch loop started")
	defer e.log.Info("dispatch loop stopped")

	for !e.over.Load() {
		n, err := e.be.wait(e.cfg.Timeout, e.ready)
		if err == errInterrupted {
			e.sweep(cb)
			continue
		}
		if err != nil {
			e.log.Error("backend wait failed", zap.Error(err))
			e.over.Store(true)
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}

		if n == 0 {
			cb(Elem{Fd: -1, Mask: Timer})
		}
		for i := 0; i < n; i++ {
			e.handleReady(e.ready[i], cb)
		}

		e.sweep(cb)
	}
	e.over.Store(true)
	return nil
}

func closeElem(elem Elem) {
	if elem.Fd >= 0 {
		_ = unix.Close(elem.Fd)
	}
}

func (e *Engine) handleReady(elem Elem, cb Callback) {
	e.mu.Lock()
	if e.reg.lookupAccept(elem.Fd) != nil {
		e.mu.Unlock()
		e.accept(elem.Fd, cb)
		return
	}

	n := e.reg.lookup(elem.Fd)
	if n == nil {
		// deleted by another goroutine after the wait returned
		e.mu.Unlock()
		return
	}
	e.reg.remove(n)
	err := e.be.del(elem.Fd)
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("failed to disarm ready fd", zap.Int("fd", elem.Fd), zap.Error(err))
	}
	cb(elem)
}

// accept takes one pending connection off a listener and either registers
// it for reading or hands it to cb as Busy when the registry is full.
// Failures only cost the new connection.
func (e *Engine) accept(lfd int, cb Callback) {
	fd, _, err := unix.Accept(lfd)
	if err != nil {
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK && err != unix.EINTR {
			e.log.Warn("accept failed", zap.Int("listener", lfd), zap.Error(err))
		}
		return
	}
	unix.CloseOnExec(fd)

	if err := e.cfg.tune(fd); err != nil {
		e.log.Warn("failed to tune accepted socket", zap.Int("fd", fd), zap.Error(err))
		_ = unix.Close(fd)
		return
	}

	e.mu.Lock()
	if e.reg.count >= e.cfg.MaxEvents-1 {
		e.mu.Unlock()
		e.log.Debug("registry full, refusing connection", zap.Int("fd", fd))
		cb(Elem{Fd: fd, Mask: Busy})
		return
	}
	err = e.addLocked(Elem{Fd: fd, Mask: Read})
	e.mu.Unlock()

	if err != nil {
		_ = unix.Close(fd)
		return
	}
	e.log.Debug("new connection", zap.Int("fd", fd))
}

// sweep evicts sockets that outlived the keepalive or carry no interest.
// Each evicted socket is reported once, after it has left the registry.
func (e *Engine) sweep(cb Callback) {
	e.mu.Lock()
	expired := e.reg.expire(e.now(), e.cfg.Keepalive)
	for _, n := range expired {
		if err := e.be.del(n.fd); err != nil {
			e.log.Warn("failed to unregister expired fd", zap.Int("fd", n.fd), zap.Error(err))
		}
	}
	e.mu.Unlock()

	for _, n := range expired {
		e.log.Debug("evicting idle socket", zap.Int("fd", n.fd), zap.Stringer("mask", n.mask))
		cb(Elem{Fd: n.fd, Mask: Timeout})
	}
}
