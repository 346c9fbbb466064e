//go:build linux || darwin || freebsd || solaris

package node

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isTemporary reports errors that mean "try again once the socket is ready".
func isTemporary(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}

func closeFd(fd int) error {
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
		return nil
	}
	return unix.Close(fd)
}
