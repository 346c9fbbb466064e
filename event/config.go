package event

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type BackendKind int

const (
	// BackendAuto picks the native multiplexer of the build platform.
	BackendAuto BackendKind = iota
	BackendSelect
	BackendPoll
	BackendEpoll
	BackendKqueue
	BackendDevpoll
)

var backendNames = map[BackendKind]string{
	BackendAuto:    "auto",
	BackendSelect:  "select",
	BackendPoll:    "poll",
	BackendEpoll:   "epoll",
	BackendKqueue:  "kqueue",
	BackendDevpoll: "devpoll",
}

func (k BackendKind) String() string {
	if name, ok := backendNames[k]; ok {
		return name
	}
	return fmt.Sprintf("BackendKind(%d)", int(k))
}

// ParseBackend maps a backend name to its kind. The empty string is auto.
func ParseBackend(s string) (BackendKind, error) {
	if s == "" {
		return BackendAuto, nil
	}
	for k, name := range backendNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidInput, s)
}

// Config carries the engine-wide limits and the socket options applied to
// accepted connections.
type Config struct {
	Backend BackendKind

	// MaxEvents bounds the readiness buffer and the registry population.
	MaxEvents int

	// Timeout bounds a single backend wait.
	Timeout time.Duration

	// Keepalive is how long a registered socket may sit without being
	// re-armed before the sweep evicts it.
	Keepalive time.Duration

	SendBuffer int
	RecvBuffer int
	TCPNoDelay bool
	TCPNoPush  bool

	Logger *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		Backend:   BackendAuto,
		MaxEvents: 1024,
		Timeout:   time.Second,
		Keepalive: 60 * time.Second,
	}
}

// Validate reports the first out-of-range field as ErrInvalidInput.
func (c *Config) Validate() error {
	switch {
	case c.MaxEvents < 2:
		return fmt.Errorf("%w: max events %d", ErrInvalidInput, c.MaxEvents)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout %s", ErrInvalidInput, c.Timeout)
	case c.Keepalive <= 0:
		return fmt.Errorf("%w: keepalive %s", ErrInvalidInput, c.Keepalive)
	case c.SendBuffer < 0 || c.RecvBuffer < 0:
		return fmt.Errorf("%w: negative socket buffer size", ErrInvalidInput)
	}
	if _, ok := backendNames[c.Backend]; !ok {
		return fmt.Errorf("%w: backend %s", ErrInvalidInput, c.Backend)
	}
	return nil
}
