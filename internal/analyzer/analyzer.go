// Package analyzer implements the page controllers: each one owns a session,
// validates input, calls one backend endpoint per action and maps the
// response onto display fields.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
	"go.uber.org/zap"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/db"
	"github.com/MaiMahmoud182/DSP-task-1/internal/session"
	"github.com/MaiMahmoud182/DSP-task-1/internal/ui"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// Recorder stores completed analyses. *db.Store satisfies it.
type Recorder interface {
	Record(e db.Entry) (db.Entry, error)
}

// Deps are shared by every controller.
type Deps struct {
	Client    *api.Client
	Logger    *zap.Logger
	History   Recorder
	OutputDir string
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// AnalyzeFunc performs the endpoint call for the selected file.
type AnalyzeFunc[R any] func(ctx context.Context, file api.FilePart) (R, error)

// Presenter writes a result into the display and returns a one-line summary
// for the history.
type Presenter[R any] func(d *Display, r R) string

// FileAnalyzer is the shared upload-then-analyze flow.
type FileAnalyzer[R any] struct {
	name    string
	policy  upload.Policy
	session *session.Session[R]
	display *Display
	analyze AnalyzeFunc[R]
	present Presenter[R]
	deps    Deps
}

// NewFileAnalyzer wires a policy, an endpoint call and a presenter.
func NewFileAnalyzer[R any](name string, policy upload.Policy, display *Display,
	analyze AnalyzeFunc[R], present Presenter[R], deps Deps) *FileAnalyzer[R] {
	return &FileAnalyzer[R]{
		name:    name,
		policy:  policy,
		session: session.New[R](session.FileRequired),
		display: display,
		analyze: analyze,
		present: present,
		deps:    deps,
	}
}

// Name returns the analyzer name used in logs and history.
func (a *FileAnalyzer[R]) Name() string { return a.name }

// Session exposes the underlying session.
func (a *FileAnalyzer[R]) Session() *session.Session[R] { return a.session }

// Display exposes the result fields.
func (a *FileAnalyzer[R]) Display() *Display { return a.display }

// Busy reports whether a request is outstanding.
func (a *FileAnalyzer[R]) Busy() bool { return a.session.Busy() }

// Select validates path against the policy and makes it the session's file.
// A rejected file clears the previous selection.
func (a *FileAnalyzer[R]) Select(path string) (Notification, error) {
	f, err := upload.Open(path, a.policy)
	if err != nil {
		if a.session.Busy() {
			return Notify(session.ErrBusy), session.ErrBusy
		}
		a.session.ClearFile()
		a.display.Reset()
		a.deps.logger().Info("file rejected",
			zap.String("analyzer", a.name),
			zap.String("path", path),
			zap.Error(err))
		var rej *upload.RejectError
		if errors.As(err, &rej) {
			return Notify(err), err
		}
		return Notification{Level: LevelError, Text: "Cannot open file: " + err.Error()}, err
	}

	if err := a.session.SelectFile(f); err != nil {
		return Notify(err), err
	}
	a.display.Reset()
	return Info(fmt.Sprintf("Selected %s (%s)", f.Name, ui.FormatFileSize(f.Size))), nil
}

// Analyze runs the endpoint call for the selected file. The session leaves
// Analyzing whatever the outcome.
func (a *FileAnalyzer[R]) Analyze(ctx context.Context) (R, error) {
	var zero R
	tk, err := a.session.Begin()
	if err != nil {
		return zero, err
	}
	id, f := a.session.ID(), a.session.File()

	r, err := withFile(ctx, f, a.analyze)
	var summary string
	if ferr := a.session.FinishWith(tk, r, err, func(r R) {
		summary = a.present(a.display, r)
	}); ferr != nil {
		a.logFailure("analyze", ferr)
		return zero, ferr
	}

	a.record(id, f, summary)
	a.deps.logger().Info("analysis complete",
		zap.String("analyzer", a.name),
		zap.String("session", id),
		zap.String("summary", summary))
	return r, nil
}

// Reset clears the file, the result and the cached audio and restores the
// placeholders. In-flight responses are dropped when they arrive.
func (a *FileAnalyzer[R]) Reset() error {
	return a.resetWith(nil)
}

// resetWith also runs clear under the session lock.
func (a *FileAnalyzer[R]) resetWith(clear func()) error {
	err := a.session.ResetWith(func() {
		a.display.Reset()
		if clear != nil {
			clear()
		}
	})
	if err != nil {
		a.logFailure("reset", err)
		return err
	}
	return nil
}

// origin identifies the request, session and file a follow-up call was
// made for.
type origin struct {
	ticket session.Ticket
	id     string
	file   *upload.File
}

// followUp runs a call that needs the session idle but does not replace its
// result. On success apply runs with the stored result (nil before the first
// analysis) unless the session was reset meanwhile.
func followUp[R, T any](ctx context.Context, a *FileAnalyzer[R], op string,
	call func(ctx context.Context) (T, error), apply func(r *R, out T)) (T, origin, error) {
	var zero T
	tk, err := a.session.Hold()
	if err != nil {
		return zero, origin{}, err
	}
	from := origin{ticket: tk, id: a.session.ID(), file: a.session.File()}

	out, err := call(ctx)
	var fn func(*R)
	if err == nil && apply != nil {
		fn = func(r *R) { apply(r, out) }
	}
	if rerr := a.session.ReleaseWith(tk, fn); rerr != nil {
		a.logFailure(op, rerr)
		return zero, origin{}, rerr
	}
	if err != nil {
		a.logFailure(op, err)
		return zero, origin{}, err
	}
	return out, from, nil
}

// followUpFile is followUp for calls that re-upload the selected file.
func followUpFile[R, T any](ctx context.Context, a *FileAnalyzer[R], op string,
	call func(ctx context.Context, file api.FilePart) (T, error), apply func(r *R, out T)) (T, error) {
	f := a.session.File()
	out, _, err := followUp(ctx, a, op, func(ctx context.Context) (T, error) {
		return withFile(ctx, f, call)
	}, apply)
	return out, err
}

func withFile[T any](ctx context.Context, f *upload.File,
	call func(ctx context.Context, file api.FilePart) (T, error)) (T, error) {
	var zero T
	if f == nil {
		return zero, session.ErrNoFile
	}
	rd, err := f.Reader()
	if err != nil {
		return zero, err
	}
	defer rd.Close()
	return call(ctx, api.FilePart{Name: f.Name, Body: rd})
}

func (a *FileAnalyzer[R]) record(id string, f *upload.File, summary string) {
	name := ""
	if f != nil {
		name = f.Name
	}
	recordHistory(a.deps, db.Entry{
		SessionID: id,
		Analyzer:  a.name,
		FileName:  name,
		Summary:   summary,
	})
}

func recordHistory(deps Deps, e db.Entry) {
	if deps.History == nil {
		return
	}
	if _, err := deps.History.Record(e); err != nil {
		err := xerrors.New(err)
		deps.logger().Warn("record history", zap.String("analyzer", e.Analyzer), zap.Error(err))
	}
}

func (a *FileAnalyzer[R]) logFailure(op string, err error) {
	logFailure(a.deps.logger(), a.name, op, err)
}

func logFailure(logger *zap.Logger, name, op string, err error) {
	switch {
	case errors.Is(err, session.ErrStale):
		logger.Debug("dropped stale response", zap.String("analyzer", name), zap.String("op", op))
	case api.IsKind(err, api.KindValidation), errors.Is(err, session.ErrNoFile), errors.Is(err, session.ErrBusy):
		logger.Info("request refused", zap.String("analyzer", name), zap.String("op", op), zap.Error(err))
	default:
		err := xerrors.New(err)
		logger.Error("request failed", zap.String("analyzer", name), zap.String("op", op), zap.Error(err))
	}
}
