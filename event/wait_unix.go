//go:build linux || darwin || freebsd || solaris

package event

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// WaitFD blocks until fd is ready for mask (Read, Write or both) or timeout
// passes, in which case it returns ErrTimeout. It serves blocking I/O on a
// socket that has been taken out of the engine for a callback.
func WaitFD(fd int, mask Mask, timeout time.Duration) error {
	if fd < 0 || mask&(Read|Write) == None {
		return fmt.Errorf("%w: wait on fd %d for %s", ErrInvalidInput, fd, mask)
	}
	pfd := []unix.PollFd{{Fd: int32(fd), Events: pollEvents(mask)}}
	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return ErrTimeout
		}
		n, err := unix.Poll(pfd, timeoutMillis(left))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return os.NewSyscallError("poll", err)
		}
		if n > 0 {
			return nil
		}
	}
}
