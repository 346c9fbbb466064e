package httpwire

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInvalidInput Kind = iota
	KindAllocFailure
	KindProtocol
	KindUnsupportedVersion
	KindInternal
	KindBadResponseData
	KindBadChunkData
	// KindTransport wraps an error returned by the caller's reader or writer.
	KindTransport
)

var kindNames = [...]string{
	KindInvalidInput:       "invalid input",
	KindAllocFailure:       "allocation failure",
	KindProtocol:           "protocol violation",
	KindUnsupportedVersion: "unsupported version",
	KindInternal:           "internal failure",
	KindBadResponseData:    "bad response data",
	KindBadChunkData:       "bad chunk data",
	KindTransport:          "transport",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the codec's failure type. Status is the HTTP status a server
// should answer with, or zero when none applies.
type Error struct {
	Kind   Kind
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	s := "httpwire: " + e.Kind.String()
	if e.Status != 0 {
		s += fmt.Sprintf(" (%d)", e.Status)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and, when the target carries one, Status, so the
// exported sentinels work with errors.Is whatever the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
}

var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrBadRequest          = &Error{Kind: KindProtocol, Status: StatusBadRequest}
	ErrMethodNotAllowed    = &Error{Kind: KindProtocol, Status: StatusMethodNotAllowed}
	ErrLengthRequired      = &Error{Kind: KindProtocol, Status: StatusLengthRequired}
	ErrPayloadTooLarge     = &Error{Kind: KindProtocol, Status: StatusRequestEntityTooLarge}
	ErrURITooLong          = &Error{Kind: KindProtocol, Status: StatusRequestURITooLong}
	ErrHeaderTooLarge      = &Error{Kind: KindProtocol, Status: StatusRequestHeaderFieldsTooLarge}
	ErrVersionNotSupported = &Error{Kind: KindUnsupportedVersion, Status: StatusHTTPVersionNotSupported}
	ErrInternal            = &Error{Kind: KindInternal, Status: StatusInternalServerError}
	ErrBadResponseData     = &Error{Kind: KindBadResponseData}
	ErrBadChunkData        = &Error{Kind: KindBadChunkData, Status: StatusBadRequest}
	ErrTransport           = &Error{Kind: KindTransport}
)

// wrap derives a concrete error from a sentinel.
func wrap(sentinel *Error, msg string, err error) *Error {
	return &Error{Kind: sentinel.Kind, Status: sentinel.Status, Msg: msg, Err: err}
}

// StatusOf reports the status a server should send for err, defaulting to
// 500 for anything that is not a codec error with a status.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return StatusInternalServerError
}
