package node

import "io"

// Conn is the connection a worker serves. The engine has disarmed the
// descriptor before handing it over, so reads and writes block (up to the
// server's IO timeout) instead of returning EAGAIN.
type Conn interface {
	io.ReadWriteCloser

	Fd() int
	Ip() string
}
