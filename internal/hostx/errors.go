package hostx

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Kind classifies connection-level failures. Each kind is reported on its
// own; callers can tell "could not connect" from "connected then lost".
type Kind int

const (
	KindConnect Kind = iota + 1
	KindExtensionUnsupported
	KindNoMemory
	KindRequestTooLong
	KindParse
	KindInvalidScreen
	KindLost
)

// Sentinels matching each Kind through errors.Is.
var (
	ErrConnect              = errors.New("failed to connect to host X server")
	ErrExtensionUnsupported = errors.New("connection to host X server closed: unsupported extension")
	ErrNoMemory             = errors.New("connection to host X server closed: out of memory")
	ErrRequestTooLong       = errors.New("connection to host X server closed: request too large")
	ErrParse                = errors.New("invalid display for host X server")
	ErrInvalidScreen        = errors.New("host X server does not have a matching screen")
	ErrLost                 = errors.New("connection to host X server lost")
)

var kindErrors = map[Kind]error{
	KindConnect:              ErrConnect,
	KindExtensionUnsupported: ErrExtensionUnsupported,
	KindNoMemory:             ErrNoMemory,
	KindRequestTooLong:       ErrRequestTooLong,
	KindParse:                ErrParse,
	KindInvalidScreen:        ErrInvalidScreen,
	KindLost:                 ErrLost,
}

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindExtensionUnsupported:
		return "extension-unsupported"
	case KindNoMemory:
		return "no-memory"
	case KindRequestTooLong:
		return "request-too-long"
	case KindParse:
		return "parse"
	case KindInvalidScreen:
		return "invalid-screen"
	case KindLost:
		return "lost"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ConnectionError is a connection-level failure.
type ConnectionError struct {
	Kind    Kind
	Display string
	Err     error
}

func (e *ConnectionError) Error() string {
	var msg string
	switch e.Kind {
	case KindConnect:
		msg = fmt.Sprintf("failed to connect to host X server at display %s", e.Display)
	case KindParse:
		msg = fmt.Sprintf("invalid display for host X server: %s", e.Display)
	case KindInvalidScreen:
		msg = fmt.Sprintf("host X server does not have a screen matching display %s", e.Display)
	default:
		if s, ok := kindErrors[e.Kind]; ok {
			msg = s.Error()
		} else {
			msg = "host X server connection error"
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *ConnectionError) Is(target error) bool {
	return kindErrors[e.Kind] == target
}

// KindOf returns the Kind of a connection error, 0 if err is not one.
func KindOf(err error) Kind {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// RequestError is a checked request rejected by the host server.
type RequestError struct {
	Request string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Request, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ProtocolError is an asynchronous error caused by an unchecked request.
type ProtocolError struct {
	Sequence uint16
	BadID    uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("host X protocol error (sequence %d, bad id 0x%x): %s", e.Sequence, e.BadID, e.Message)
}

// LogError reports a connection-level error on l and returns whether err
// was one. Other errors are left to the caller.
func LogError(l *log.Logger, err error) bool {
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		return false
	}
	l.Error(ce.Error(), "kind", ce.Kind)
	return true
}
