//go:build linux

package event

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func init() {
	register(BackendEpoll, newEpollBackend)
	autoBackend = BackendEpoll
}

// epollBackend is level triggered; the kernel owns the interest set.
type epollBackend struct {
	epfd   int
	events []unix.EpollEvent
}

func newEpollBackend(maxEvents int) (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &epollBackend{
		epfd:   epfd,
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

func (b *epollBackend) kind() BackendKind { return BackendEpoll }

func epollEvents(mask Mask) uint32 {
	var ev uint32
	if mask&Read != 0 {
		ev |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if mask&Write != 0 {
		ev |= unix.EPOLLOUT
	}
	if mask&OOB != 0 {
		ev |= unix.EPOLLPRI
	}
	return ev
}

func epollMask(events uint32) Mask {
	var m Mask
	if events&unix.EPOLLIN != 0 {
		m |= Read
	}
	if events&unix.EPOLLOUT != 0 {
		m |= Write
	}
	if events&unix.EPOLLPRI != 0 {
		m |= OOB
	}
	if events&unix.EPOLLERR != 0 {
		m |= Error
	}
	if events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		m |= Close
	}
	return m
}

func (b *epollBackend) ctl(op, fd int, mask Mask) error {
	return unix.EpollCtl(b.epfd, op, fd, &unix.EpollEvent{Fd: int32(fd), Events: epollEvents(mask)})
}

func (b *epollBackend) add(fd int, mask Mask) error {
	err := b.ctl(unix.EPOLL_CTL_ADD, fd, mask)
	if err == unix.EEXIST {
		err = b.ctl(unix.EPOLL_CTL_MOD, fd, mask)
	}
	return os.NewSyscallError("epoll_ctl add", err)
}

func (b *epollBackend) modify(fd int, mask Mask) error {
	err := b.ctl(unix.EPOLL_CTL_MOD, fd, mask)
	if err == unix.ENOENT {
		err = b.ctl(unix.EPOLL_CTL_ADD, fd, mask)
	}
	return os.NewSyscallError("epoll_ctl mod", err)
}

func (b *epollBackend) del(fd int) error {
	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return os.NewSyscallError("epoll_ctl del", err)
}

func (b *epollBackend) wait(timeout time.Duration, ready []Elem) (int, error) {
	events := b.events
	if len(ready) < len(events) {
		events = events[:len(ready)]
	}
	n, err := unix.EpollWait(b.epfd, events, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, errInterrupted
		}
		return 0, os.NewSyscallError("epoll_wait", err)
	}
	for i := 0; i < n; i++ {
		ready[i] = Elem{Fd: int(events[i].Fd), Mask: epollMask(events[i].Events)}
	}
	return n, nil
}

func (b *epollBackend) close() error {
	return os.NewSyscallError("close", unix.Close(b.epfd))
}
