// Package event is a single-threaded readiness dispatcher over one of the
// select, poll, epoll, kqueue or /dev/poll multiplexers.
//
// An Engine keeps a registry of monitored sockets, waits on the active
// backend, admits connections arriving on listener sockets and hands every
// ready socket to a Callback exactly once per readiness. Sockets that make
// no progress for longer than the keepalive are evicted by a sweep that runs
// after each wait.
package event

import "strings"

// Mask is a set of readiness conditions.
type Mask uint32

const None Mask = 0

const (
	Read Mask = 1 << iota
	Write
	OOB
	Error
	Close
	// Timer marks the synthetic element delivered when a wait times out.
	Timer
	// Busy marks an accepted socket that was refused admission.
	Busy
	// Timeout marks a socket evicted by the keepalive sweep.
	Timeout
)

var maskNames = []struct {
	m    Mask
	name string
}{
	{Read, "READ"},
	{Write, "WRITE"},
	{OOB, "OOB"},
	{Error, "ERROR"},
	{Close, "CLOSE"},
	{Timer, "TIMER"},
	{Busy, "BUSY"},
	{Timeout, "TIMEOUT"},
}

func (m Mask) String() string {
	if m == None {
		return "NONE"
	}
	var parts []string
	for _, n := range maskNames {
		if m&n.m != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Has reports whether every bit of o is set in m.
func (m Mask) Has(o Mask) bool {
	return m&o == o
}

// Elem is the descriptor passed across the engine API. It is a value and is
// never retained by the engine.
type Elem struct {
	Fd   int
	Mask Mask
}

// Callback receives ready, busy, evicted and timer elements. It runs on the
// dispatching goroutine and may call Add, Modify and Delete.
type Callback func(elem Elem)
