package event

import "golang.org/x/sys/unix"

const tcpNoPush = unix.TCP_CORK
