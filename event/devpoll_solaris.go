//go:build solaris

package event

import (
	"os"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// from <sys/devpoll.h>
const (
	dpPoll     = 0xD001 // DP_POLL
	pollRemove = 0x0800 // POLLREMOVE
)

// dvpoll mirrors struct dvpoll.
type dvpoll struct {
	fds     *unix.PollFd
	nfds    uint64
	timeout int32
	_       int32
}

func init() {
	register(BackendDevpoll, newDevpollBackend)
	autoBackend = BackendDevpoll
}

// devpollBackend feeds interest changes to /dev/poll by writing pollfd
// records. Since the device ORs event bits into an existing entry, a modify
// first removes the fd.
type devpollBackend struct {
	dpfd     int
	interest map[int]Mask
	results  []unix.PollFd
}

func newDevpollBackend(maxEvents int) (backend, error) {
	dpfd, err := unix.Open("/dev/poll", unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, os.NewSyscallError("open /dev/poll", err)
	}
	return &devpollBackend{
		dpfd:     dpfd,
		interest: make(map[int]Mask, maxEvents),
		results:  make([]unix.PollFd, maxEvents),
	}, nil
}

func (b *devpollBackend) kind() BackendKind { return BackendDevpoll }

func (b *devpollBackend) write(pfds ...unix.PollFd) error {
	size := int(unsafe.Sizeof(unix.PollFd{})) * len(pfds)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&pfds[0])), size)
	_, err := unix.Write(b.dpfd, buf)
	return os.NewSyscallError("write /dev/poll", err)
}

func (b *devpollBackend) add(fd int, mask Mask) error {
	return b.modify(fd, mask)
}

func (b *devpollBackend) modify(fd int, mask Mask) error {
	pfd := unix.PollFd{Fd: int32(fd), Events: pollEvents(mask)}
	var err error
	if _, ok := b.interest[fd]; ok {
		err = b.write(unix.PollFd{Fd: int32(fd), Events: pollRemove}, pfd)
	} else {
		err = b.write(pfd)
	}
	if err != nil {
		return err
	}
	b.interest[fd] = mask
	return nil
}

func (b *devpollBackend) del(fd int) error {
	if _, ok := b.interest[fd]; !ok {
		return nil
	}
	delete(b.interest, fd)
	return b.write(unix.PollFd{Fd: int32(fd), Events: pollRemove})
}

func (b *devpollBackend) wait(timeout time.Duration, ready []Elem) (int, error) {
	results := b.results
	if len(ready) < len(results) {
		results = results[:len(ready)]
	}
	dvp := dvpoll{
		fds:     &results[0],
		nfds:    uint64(len(results)),
		timeout: int32(timeoutMillis(timeout)),
	}
	n, err := unix.IoctlSetIntRetInt(b.dpfd, dpPoll, int(uintptr(unsafe.Pointer(&dvp))))
	runtime.KeepAlive(&dvp)
	if err != nil {
		if err == unix.EINTR {
			return 0, errInterrupted
		}
		return 0, os.NewSyscallError("ioctl DP_POLL", err)
	}
	for i := 0; i < n; i++ {
		ready[i] = Elem{Fd: int(results[i].Fd), Mask: pollMask(results[i].Revents)}
	}
	return n, nil
}

func (b *devpollBackend) close() error {
	return os.NewSyscallError("close", unix.Close(b.dpfd))
}
