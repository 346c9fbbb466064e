package event

import "errors"

var (
	ErrInvalidInput       = errors.New("event: invalid input")
	ErrBackend            = errors.New("event: backend failure")
	ErrBackendUnsupported = errors.New("event: backend not supported on this platform")
	ErrFull               = errors.New("event: full")
	ErrEmpty              = errors.New("event: empty")
	ErrTimeout            = errors.New("event: timed out")
	ErrRunning            = errors.New("event: dispatch already running")
	ErrClosed             = errors.New("event: engine closed")
)
