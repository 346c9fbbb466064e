package event

import (
	"errors"
	"fmt"
	"time"
)

// backend is one readiness multiplexer. Registration calls are serialized by
// the engine lock; wait runs on the dispatching goroutine concurrently with
// them.
//
// modify of an fd that was never added behaves like add, and del of an
// unknown fd is a no-op.
type backend interface {
	kind() BackendKind
	add(fd int, mask Mask) error
	modify(fd int, mask Mask) error
	del(fd int) error
	// wait blocks up to timeout and fills ready with at most one element per
	// ready fd, already translated to the abstract mask. An interrupted wait
	// returns errInterrupted.
	wait(timeout time.Duration, ready []Elem) (int, error)
	close() error
}

// errInterrupted reports a wait cut short before its timeout with nothing
// to deliver.
var errInterrupted = errors.New("event: wait interrupted")

type backendFactory func(maxEvents int) (backend, error)

// factories is filled per platform by the backend files' init functions.
var factories = map[BackendKind]backendFactory{}

// autoBackend is overridden by the native backend of the build platform.
var autoBackend = BackendPoll

func register(kind BackendKind, f backendFactory) {
	factories[kind] = f
}

func newBackend(kind BackendKind, maxEvents int) (backend, error) {
	if kind == BackendAuto {
		kind = autoBackend
	}
	f, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnsupported, kind)
	}
	be, err := f(maxEvents)
	if err != nil {
		return nil, fmt.Errorf("%w: %s init: %v", ErrBackend, kind, err)
	}
	return be, nil
}

// Supported lists the backends compiled into this build.
func Supported() []BackendKind {
	var kinds []BackendKind
	for k := BackendSelect; k <= BackendDevpoll; k++ {
		if _, ok := factories[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d / time.Millisecond
	if ms == 0 && d > 0 {
		ms = 1
	}
	return int(ms)
}
