//go:build linux || darwin || freebsd || solaris

package event

import (
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

func init() {
	register(BackendPoll, newPollBackend)
}

type pollBackend struct {
	mu       sync.Mutex
	interest map[int]Mask
	pfds     []unix.PollFd
}

func newPollBackend(maxEvents int) (backend, error) {
	return &pollBackend{
		interest: make(map[int]Mask, maxEvents),
		pfds:     make([]unix.PollFd, 0, maxEvents),
	}, nil
}

func (b *pollBackend) kind() BackendKind { return BackendPoll }

func (b *pollBackend) add(fd int, mask Mask) error {
	b.mu.Lock()
	b.interest[fd] = mask
	b.mu.Unlock()
	return nil
}

func (b *pollBackend) modify(fd int, mask Mask) error {
	return b.add(fd, mask)
}

func (b *pollBackend) del(fd int) error {
	b.mu.Lock()
	delete(b.interest, fd)
	b.mu.Unlock()
	return nil
}

func pollEvents(mask Mask) int16 {
	var ev int16
	if mask&Read != 0 {
		ev |= unix.POLLIN
	}
	if mask&Write != 0 {
		ev |= unix.POLLOUT
	}
	if mask&OOB != 0 {
		ev |= unix.POLLPRI
	}
	return ev
}

func pollMask(revents int16) Mask {
	var m Mask
	if revents&unix.POLLIN != 0 {
		m |= Read
	}
	if revents&unix.POLLOUT != 0 {
		m |= Write
	}
	if revents&unix.POLLPRI != 0 {
		m |= OOB
	}
	if revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
		m |= Error
	}
	if revents&unix.POLLHUP != 0 {
		m |= Close
	}
	return m
}

func (b *pollBackend) wait(timeout time.Duration, ready []Elem) (int, error) {
	b.mu.Lock()
	b.pfds = b.pfds[:0]
	for fd, mask := range b.interest {
		b.pfds = append(b.pfds, unix.PollFd{Fd: int32(fd), Events: pollEvents(mask)})
	}
	b.mu.Unlock()
	sort.Slice(b.pfds, func(i, j int) bool { return b.pfds[i].Fd < b.pfds[j].Fd })

	n, err := unix.Poll(b.pfds, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, errInterrupted
		}
		return 0, os.NewSyscallError("poll", err)
	}
	if n == 0 {
		return 0, nil
	}

	count := 0
	for i := range b.pfds {
		if count == len(ready) {
			break
		}
		if m := pollMask(b.pfds[i].Revents); m != None {
			ready[count] = Elem{Fd: int(b.pfds[i].Fd), Mask: m}
			count++
		}
	}
	return count, nil
}

func (b *pollBackend) close() error {
	b.mu.Lock()
	b.interest = map[int]Mask{}
	b.mu.Unlock()
	return nil
}
