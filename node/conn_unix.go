//go:build linux || darwin || freebsd || solaris

package node

import (
	"io"
	"os"
	"time"

	"github.com/fzft/go-mock-httpd/event"
	"golang.org/x/sys/unix"
)

type fdConn struct {
	fd      int
	ip      string
	timeout time.Duration
}

func newConn(fd int, timeout time.Duration) *fdConn {
	c := &fdConn{fd: fd, timeout: timeout}
	if addr, err := event.PeerAddr(fd); err == nil {
		c.ip = addr
	}
	return c
}

func (c *fdConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == nil && n == 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case isTemporary(err):
			if err := event.WaitFD(c.fd, event.Read, c.timeout); err != nil {
				return 0, err
			}
		default:
			return 0, os.NewSyscallError("read", err)
		}
	}
}

func (c *fdConn) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(c.fd, p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
		case isTemporary(err):
			if err := event.WaitFD(c.fd, event.Write, c.timeout); err != nil {
				return written, err
			}
		default:
			return written, os.NewSyscallError("write", err)
		}
	}
	return written, nil
}

func (c *fdConn) Close() error {
	return closeFd(c.fd)
}

func (c *fdConn) Fd() int {
	return c.fd
}

func (c *fdConn) Ip() string {
	return c.ip
}
