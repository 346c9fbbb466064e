//go:build linux || darwin || freebsd || solaris

package event

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

func isFDValid(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

// tune applies the engine's socket options to an accepted connection.
func (c *Config) tune(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return os.NewSyscallError("set nonblock", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return os.NewSyscallError("setsockopt SO_REUSEADDR", err)
	}
	if c.SendBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, c.SendBuffer); err != nil {
			return os.NewSyscallError("setsockopt SO_SNDBUF", err)
		}
	}
	if c.RecvBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, c.RecvBuffer); err != nil {
			return os.NewSyscallError("setsockopt SO_RCVBUF", err)
		}
	}
	if c.TCPNoDelay {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return os.NewSyscallError("setsockopt TCP_NODELAY", err)
		}
	}
	if c.TCPNoPush {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpNoPush, 1); err != nil {
			return os.NewSyscallError("setsockopt TCP_NOPUSH", err)
		}
	}
	return nil
}

// ListenFD opens a TCP listener on a "host:port" address and returns a
// non-blocking descriptor owned by the caller.
func ListenFD(addr string) (int, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return -1, err
	}
	defer ln.Close()

	f, err := ln.(*net.TCPListener).File()
	if err != nil {
		return -1, err
	}
	defer f.Close()

	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return -1, os.NewSyscallError("dup", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, os.NewSyscallError("set nonblock", err)
	}
	return fd, nil
}

// LocalAddr reports the bound address of a socket descriptor.
func LocalAddr(fd int) (string, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return "", os.NewSyscallError("getsockname", err)
	}
	return sockaddrString(sa), nil
}

// PeerAddr reports the remote address of a connected socket descriptor.
func PeerAddr(fd int) (string, error) {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return "", os.NewSyscallError("getpeername", err)
	}
	return sockaddrString(sa), nil
}

func sockaddrString(sa unix.Sockaddr) string {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), fmt.Sprint(addr.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), fmt.Sprint(addr.Port))
	case *unix.SockaddrUnix:
		return addr.Name
	default:
		return ""
	}
}
