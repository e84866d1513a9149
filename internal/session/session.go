// Package session holds the per-page analysis state: the selected file, the
// last result and the cached playable audio, guarded by a small state
// machine so that at most one request is outstanding per page.
package session

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// State is the page state.
type State int

const (
	Idle State = iota
	FileSelected
	Analyzing
	ResultDisplayed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "file selected"
	case Analyzing:
		return "analyzing"
	case ResultDisplayed:
		return "result displayed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Input says whether Begin needs a selected file.
type Input int

const (
	FileRequired Input = iota
	NoFile
)

var (
	// ErrBusy is returned while a request is outstanding.
	ErrBusy = errors.New("analysis already in progress")
	// ErrNoFile is returned by Begin when a file is required but none is selected.
	ErrNoFile = errors.New("No file selected")
	// ErrStale is returned by Finish for a response that belongs to an
	// earlier generation. The response is dropped.
	ErrStale = errors.New("stale response")
)

// Ticket identifies one outstanding request.
type Ticket struct {
	gen   uint64
	epoch uint64
}

// Session is owned by exactly one page controller.
type Session[R any] struct {
	mu sync.Mutex

	input     Input
	id        string
	state     State
	gen       uint64
	epoch     uint64
	file      *upload.File
	result    *R
	audioPath string
}

// New returns an idle session.
func New[R any](input Input) *Session[R] {
	return &Session[R]{input: input, id: uuid.NewString()}
}

// ID returns the session identifier. It changes on Reset.
func (s *Session[R]) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// State returns the current state.
func (s *Session[R]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a request is outstanding.
func (s *Session[R]) Busy() bool {
	return s.State() == Analyzing
}

// File returns the selected file, or nil.
func (s *Session[R]) File() *upload.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Result returns the last successful result.
func (s *Session[R]) Result() (R, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		var zero R
		return zero, false
	}
	return *s.result, true
}

// AudioPath returns the cached playable audio, if any.
func (s *Session[R]) AudioPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioPath
}

// SelectFile replaces the selected file and drops the previous result.
func (s *Session[R]) SelectFile(f *upload.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Analyzing {
		return ErrBusy
	}
	if f == nil {
		s.clearFileLocked()
		return nil
	}
	s.file = f
	s.result = nil
	s.state = FileSelected
	return nil
}

// ClearFile drops the selected file, as happens when a new selection is
// rejected.
func (s *Session[R]) ClearFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Analyzing {
		return
	}
	s.clearFileLocked()
}

func (s *Session[R]) clearFileLocked() {
	s.file = nil
	if s.state == FileSelected {
		s.state = Idle
	}
}

// Begin moves the session to Analyzing.
func (s *Session[R]) Begin() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Analyzing {
		return Ticket{}, ErrBusy
	}
	if s.input == FileRequired && s.file == nil {
		return Ticket{}, ErrNoFile
	}
	s.gen++
	s.state = Analyzing
	return Ticket{gen: s.gen, epoch: s.epoch}, nil
}

// Finish ends the request identified by t. On error the session returns to
// the state it would be in without a result; on success the result is
// stored. A ticket from an earlier generation leaves the session untouched
// and returns ErrStale.
func (s *Session[R]) Finish(t Ticket, result R, err error) error {
	return s.FinishWith(t, result, err, nil)
}

// FinishWith is Finish with apply run on a stored result before the lock is
// released, so a concurrent Reset either precedes it (and the response is
// stale) or follows it. apply must not call back into the session.
func (s *Session[R]) FinishWith(t Ticket, result R, err error, apply func(R)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.gen || s.state != Analyzing {
		return ErrStale
	}
	if err != nil {
		s.state = s.restingStateLocked()
		return err
	}
	s.result = &result
	s.state = ResultDisplayed
	if apply != nil {
		apply(result)
	}
	return nil
}

// Hold marks the session busy for a follow-up request that does not
// replace the result, such as a spectrogram of the selected file.
func (s *Session[R]) Hold() (Ticket, error) {
	return s.Begin()
}

// Release ends a request started with Hold. The stored result is kept.
func (s *Session[R]) Release(t Ticket) error {
	return s.ReleaseWith(t, nil)
}

// ReleaseWith is Release with apply run under the lock while t is still
// current. apply gets the stored result, or nil when there is none, and must
// not call back into the session.
func (s *Session[R]) ReleaseWith(t Ticket, apply func(*R)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen != s.gen || s.state != Analyzing {
		return ErrStale
	}
	s.state = s.restingStateLocked()
	if apply != nil {
		apply(s.result)
	}
	return nil
}

// Current reports whether t belongs to the latest request.
func (s *Session[R]) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.gen == s.gen
}

func (s *Session[R]) restingStateLocked() State {
	switch {
	case s.result != nil:
		return ResultDisplayed
	case s.file != nil:
		return FileSelected
	default:
		return Idle
	}
}

// CacheAudio records a temp file holding playable audio. The previously
// cached file is removed.
func (s *Session[R]) CacheAudio(path string) error {
	s.mu.Lock()
	prev := s.audioPath
	s.audioPath = path
	s.mu.Unlock()

	if prev == "" || prev == path {
		return nil
	}
	return removeFile(prev)
}

// CacheAudioFor is CacheAudio for audio produced by the request t. When the
// session was reset since, path is removed instead and ErrStale returned.
func (s *Session[R]) CacheAudioFor(t Ticket, path string) error {
	s.mu.Lock()
	if t.epoch != s.epoch {
		s.mu.Unlock()
		if err := removeFile(path); err != nil {
			return err
		}
		return ErrStale
	}
	prev := s.audioPath
	s.audioPath = path
	s.mu.Unlock()

	if prev == "" || prev == path {
		return nil
	}
	return removeFile(prev)
}

// Reset returns the session to Idle from any state. Outstanding requests
// become stale and the cached audio file is removed.
func (s *Session[R]) Reset() error {
	return s.ResetWith(nil)
}

// ResetWith is Reset with clear run under the lock, for state kept next to
// the session such as its display. clear must not call back into the
// session.
func (s *Session[R]) ResetWith(clear func()) error {
	s.mu.Lock()
	prev := s.audioPath
	s.gen++
	s.epoch++
	s.id = uuid.NewString()
	s.state = Idle
	s.file = nil
	s.result = nil
	s.audioPath = ""
	if clear != nil {
		clear()
	}
	s.mu.Unlock()

	if prev == "" {
		return nil
	}
	return removeFile(prev)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cached audio: %w", err)
	}
	return nil
}
