//go:build linux || darwin || freebsd || solaris

package event

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// fdSetSize is FD_SETSIZE for the platform's fd_set layout.
const fdSetSize = int(unsafe.Sizeof(unix.FdSet{})) * 8

func init() {
	register(BackendSelect, newSelectBackend)
}

// selectBackend keeps its interest set in user space and rebuilds the fd
// sets on every wait.
type selectBackend struct {
	mu       sync.Mutex
	interest map[int]Mask
	fds      []int
}

func newSelectBackend(maxEvents int) (backend, error) {
	return &selectBackend{
		interest: make(map[int]Mask, maxEvents),
		fds:      make([]int, 0, maxEvents),
	}, nil
}

func (b *selectBackend) kind() BackendKind { return BackendSelect }

func (b *selectBackend) add(fd int, mask Mask) error {
	if fd < 0 || fd >= fdSetSize {
		return fmt.Errorf("%w: fd %d outside select range", ErrInvalidInput, fd)
	}
	b.mu.Lock()
	b.interest[fd] = mask
	b.mu.Unlock()
	return nil
}

func (b *selectBackend) modify(fd int, mask Mask) error {
	return b.add(fd, mask)
}

func (b *selectBackend) del(fd int) error {
	b.mu.Lock()
	delete(b.interest, fd)
	b.mu.Unlock()
	return nil
}

func (b *selectBackend) wait(timeout time.Duration, ready []Elem) (int, error) {
	var rset, wset, eset unix.FdSet
	maxFd := -1

	b.mu.Lock()
	b.fds = b.fds[:0]
	for fd, mask := range b.interest {
		if mask&Read != 0 {
			rset.Set(fd)
		}
		if mask&Write != 0 {
			wset.Set(fd)
		}
		if mask&OOB != 0 {
			eset.Set(fd)
		}
		b.fds = append(b.fds, fd)
		if fd > maxFd {
			maxFd = fd
		}
	}
	b.mu.Unlock()
	sort.Ints(b.fds)

	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(maxFd+1, &rset, &wset, &eset, &tv)
	if err != nil {
		switch err {
		case unix.EINTR:
			return 0, errInterrupted
		case unix.EBADF:
			// a watched fd was closed behind our back; report it instead of
			// failing the whole loop
			if c := b.reportBad(ready); c > 0 {
				return c, nil
			}
			return 0, errInterrupted
		}
		return 0, os.NewSyscallError("select", err)
	}
	if n == 0 {
		return 0, nil
	}

	count := 0
	for _, fd := range b.fds {
		if count == len(ready) {
			break
		}
		var m Mask
		if rset.IsSet(fd) {
			m |= Read
		}
		if wset.IsSet(fd) {
			m |= Write
		}
		if eset.IsSet(fd) {
			m |= OOB
		}
		if m != None {
			ready[count] = Elem{Fd: fd, Mask: m}
			count++
		}
	}
	return count, nil
}

func (b *selectBackend) reportBad(ready []Elem) int {
	count := 0
	for _, fd := range b.fds {
		if count == len(ready) {
			break
		}
		if !isFDValid(fd) {
			ready[count] = Elem{Fd: fd, Mask: Error | Close}
			count++
		}
	}
	return count
}

func (b *selectBackend) close() error {
	b.mu.Lock()
	b.interest = map[int]Mask{}
	b.mu.Unlock()
	return nil
}
