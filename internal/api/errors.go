package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed user action.
type Kind int

const (
	// KindValidation is a client-side rejection made before any request.
	KindValidation Kind = iota
	// KindNetwork is a connectivity failure or timeout.
	KindNetwork
	// KindBackend is an error reported by the backend itself.
	KindBackend
	// KindParse is an empty or malformed response body.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindBackend:
		return "backend"
	case KindParse:
		return "parse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Messages shown for failures that carry no backend text.
const (
	MsgServerUnreachable = "Cannot reach analysis server. Check if server is running."
	MsgUnknown           = "Unknown error"
	MsgTimeout           = "Request timed out"
)

// Error is returned by every Client method on failure.
type Error struct {
	Kind       Kind
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Kind, e.Endpoint, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Kind, e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}

// UserMessage turns any error into notification text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case KindNetwork:
		if apiErr.Message == MsgTimeout {
			return MsgTimeout
		}
		return MsgServerUnreachable
	case KindParse:
		return MsgUnknown
	default:
		if apiErr.Message == "" {
			return MsgUnknown
		}
		return apiErr.Message
	}
}
