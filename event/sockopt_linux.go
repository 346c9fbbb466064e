package event

import "golang.org/x/sys/unix"

// TCP_CORK is the Linux counterpart of TCP_NOPUSH.
const tcpNoPush = unix.TCP_CORK
