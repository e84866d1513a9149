package analyzer

import (
	"errors"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/session"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a transient message for the user.
type Notification struct {
	Level Level
	Text  string
}

// Info, Success, Warn build notifications.
func Info(text string) Notification    { return Notification{Level: LevelInfo, Text: text} }
func Success(text string) Notification { return Notification{Level: LevelSuccess, Text: text} }
func Warn(text string) Notification    { return Notification{Level: LevelWarning, Text: text} }

// Notify turns an operation error into the message the user sees. A stale
// response yields a zero Notification and should not be shown.
func Notify(err error) Notification {
	if err == nil {
		return Notification{}
	}

	var rej *upload.RejectError
	switch {
	case errors.Is(err, session.ErrStale):
		return Notification{}
	case errors.Is(err, session.ErrBusy):
		return Warn("Analysis already in progress")
	case errors.Is(err, session.ErrNoFile):
		return Warn("Please select a file first")
	case errors.Is(err, ErrNotUploaded), errors.Is(err, ErrECGNotUploaded):
		return Warn(err.Error())
	case errors.As(err, &rej):
		return Notification{Level: LevelError, Text: rej.Text}
	}
	return Notification{Level: LevelError, Text: "Error: " + api.UserMessage(err)}
}

// IsZero reports whether n carries no message.
func (n Notification) IsZero() bool { return n.Text == "" }
