package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

func testFile() *upload.File {
	return &upload.File{Path: "/tmp/car.wav", Name: "car.wav", MIMEType: "audio/wav", Size: 1536}
}

func TestNewSessionIsIdle(t *testing.T) {
	s := New[string](FileRequired)
	if s.State() != Idle {
		t.Errorf("State = %v, want idle", s.State())
	}
	if s.ID() == "" {
		t.Error("ID is empty")
	}
	if _, ok := s.Result(); ok {
		t.Error("new session has a result")
	}
}

func TestBeginRequiresFile(t *testing.T) {
	s := New[string](FileRequired)
	if _, err := s.Begin(); !errors.Is(err, ErrNoFile) {
		t.Errorf("Begin without file = %v, want ErrNoFile", err)
	}

	gen := New[string](NoFile)
	if _, err := gen.Begin(); err != nil {
		t.Errorf("Begin on NoFile session = %v", err)
	}
}

func TestLifecycle(t *testing.T) {
	s := New[string](FileRequired)
	if err := s.SelectFile(testFile()); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if s.State() != FileSelected {
		t.Fatalf("State = %v, want file selected", s.State())
	}

	tk, err := s.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !s.Busy() {
		t.Error("Busy = false during request")
	}
	if _, err := s.Begin(); !errors.Is(err, ErrBusy) {
		t.Errorf("second Begin = %v, want ErrBusy", err)
	}
	if err := s.SelectFile(testFile()); !errors.Is(err, ErrBusy) {
		t.Errorf("SelectFile while busy = %v, want ErrBusy", err)
	}

	if err := s.Finish(tk, "42 km/h", nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if s.Busy() {
		t.Error("Busy = true after Finish")
	}
	if s.State() != ResultDisplayed {
		t.Errorf("State = %v, want result displayed", s.State())
	}
	got, ok := s.Result()
	if !ok || got != "42 km/h" {
		t.Errorf("Result = %q, %v", got, ok)
	}
}

func TestFinishWithErrorLeavesAnalyzing(t *testing.T) {
	s := New[string](FileRequired)
	s.SelectFile(testFile())
	tk, _ := s.Begin()

	boom := errors.New("boom")
	if err := s.Finish(tk, "", boom); !errors.Is(err, boom) {
		t.Errorf("Finish = %v, want boom", err)
	}
	if s.State() != FileSelected {
		t.Errorf("State = %v, want file selected", s.State())
	}
	if _, ok := s.Result(); ok {
		t.Error("failed request stored a result")
	}
}

func TestStaleResponseAfterReset(t *testing.T) {
	s := New[string](FileRequired)
	s.SelectFile(testFile())
	tk, _ := s.Begin()
	oldID := s.ID()

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.ID() == oldID {
		t.Error("Reset kept the session ID")
	}
	if err := s.Finish(tk, "late", nil); !errors.Is(err, ErrStale) {
		t.Errorf("Finish after Reset = %v, want ErrStale", err)
	}
	if s.State() != Idle {
		t.Errorf("State = %v, want idle", s.State())
	}
	if _, ok := s.Result(); ok {
		t.Error("stale response overwrote the result")
	}
}

func TestStaleTicketFromEarlierRequest(t *testing.T) {
	s := New[string](NoFile)
	first, _ := s.Begin()
	s.Finish(first, "one", nil)

	second, _ := s.Begin()
	if err := s.Finish(first, "again", nil); !errors.Is(err, ErrStale) {
		t.Errorf("Finish(first) = %v, want ErrStale", err)
	}
	if err := s.Finish(second, "two", nil); err != nil {
		t.Errorf("Finish(second) = %v", err)
	}
	if got, _ := s.Result(); got != "two" {
		t.Errorf("Result = %q, want two", got)
	}
}

func TestClearFile(t *testing.T) {
	s := New[string](FileRequired)
	s.SelectFile(testFile())
	s.ClearFile()
	if s.File() != nil {
		t.Error("File not cleared")
	}
	if s.State() != Idle {
		t.Errorf("State = %v, want idle", s.State())
	}
}

func TestCacheAudioRemovesPrevious(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.wav")
	second := filepath.Join(dir, "b.wav")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	s := New[string](NoFile)
	if err := s.CacheAudio(first); err != nil {
		t.Fatalf("CacheAudio: %v", err)
	}
	if err := s.CacheAudio(second); err != nil {
		t.Fatalf("CacheAudio: %v", err)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Error("previous audio file still exists")
	}
	if s.AudioPath() != second {
		t.Errorf("AudioPath = %q, want %q", s.AudioPath(), second)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Error("Reset left the cached audio file")
	}
	if s.AudioPath() != "" {
		t.Errorf("AudioPath = %q after Reset", s.AudioPath())
	}
}

func TestConcurrentBeginAllowsOne(t *testing.T) {
	s := New[int](NoFile)
	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Begin(); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if started != 1 {
		t.Errorf("started = %d, want 1", started)
	}
}

func TestStateString(t *testing.T) {
	if Analyzing.String() != "analyzing" {
		t.Errorf("Analyzing = %q", Analyzing.String())
	}
	if State(7).String() != "state(7)" {
		t.Errorf("State(7) = %q", State(7).String())
	}
}

func TestHoldKeepsResult(t *testing.T) {
	s := New[string](FileRequired)
	s.SelectFile(testFile())
	tk, _ := s.Begin()
	s.Finish(tk, "speed", nil)

	hold, err := s.Hold()
	if err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if !s.Busy() {
		t.Error("Busy = false during Hold")
	}
	if !s.Current(hold) || s.Current(tk) {
		t.Error("Current does not track the latest ticket")
	}
	if err := s.Release(hold); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if s.State() != ResultDisplayed {
		t.Errorf("State = %v, want result displayed", s.State())
	}
	if got, _ := s.Result(); got != "speed" {
		t.Errorf("Result = %q, want speed", got)
	}
	if err := s.Release(hold); !errors.Is(err, ErrStale) {
		t.Errorf("second Release = %v, want ErrStale", err)
	}
}

func TestResetWaitsForFinishWith(t *testing.T) {
	s := New[string](NoFile)
	tk, _ := s.Begin()

	var shown []string
	resetDone := make(chan struct{})
	err := s.FinishWith(tk, "speed", nil, func(r string) {
		go func() {
			s.ResetWith(func() { shown = nil })
			close(resetDone)
		}()
		time.Sleep(20 * time.Millisecond)
		shown = append(shown, r)
	})
	if err != nil {
		t.Fatalf("FinishWith: %v", err)
	}
	<-resetDone
	if len(shown) != 0 {
		t.Errorf("shown = %v after Reset, want empty", shown)
	}
	if s.State() != Idle {
		t.Errorf("State = %v, want idle", s.State())
	}
}

func TestFinishWithSkipsApplyWhenStale(t *testing.T) {
	s := New[string](NoFile)
	tk, _ := s.Begin()
	s.Reset()

	called := false
	err := s.FinishWith(tk, "late", nil, func(string) { called = true })
	if !errors.Is(err, ErrStale) {
		t.Errorf("FinishWith = %v, want ErrStale", err)
	}
	if called {
		t.Error("apply ran for a stale response")
	}

	tk, _ = s.Begin()
	s.FinishWith(tk, "", errors.New("timeout"), func(string) { called = true })
	if called {
		t.Error("apply ran for a failed request")
	}
}

func TestReleaseWith(t *testing.T) {
	s := New[string](FileRequired)
	s.SelectFile(testFile())

	hold, _ := s.Hold()
	var got *string
	if err := s.ReleaseWith(hold, func(r *string) { got = r }); err != nil {
		t.Fatalf("ReleaseWith: %v", err)
	}
	if got != nil {
		t.Errorf("apply got %q before any result", *got)
	}

	tk, _ := s.Begin()
	s.Finish(tk, "speed", nil)
	hold, _ = s.Hold()
	s.ReleaseWith(hold, func(r *string) { *r += " 72 km/h" })
	if r, _ := s.Result(); r != "speed 72 km/h" {
		t.Errorf("Result = %q", r)
	}

	hold, _ = s.Hold()
	s.Reset()
	if err := s.ReleaseWith(hold, func(*string) { t.Error("apply ran after Reset") }); !errors.Is(err, ErrStale) {
		t.Errorf("ReleaseWith after Reset = %v, want ErrStale", err)
	}
}

func TestCacheAudioForStaleTicket(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gen.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := New[string](NoFile)
	tk, _ := s.Begin()
	s.Finish(tk, "ok", nil)
	s.Reset()

	if err := s.CacheAudioFor(tk, path); !errors.Is(err, ErrStale) {
		t.Errorf("CacheAudioFor = %v, want ErrStale", err)
	}
	if s.AudioPath() != "" {
		t.Errorf("AudioPath = %q, want empty", s.AudioPath())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale audio file was not removed")
	}
}

func TestCacheAudioForSurvivesNextRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "play.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := New[string](NoFile)
	tk, _ := s.Begin()
	s.Finish(tk, "ok", nil)
	next, _ := s.Begin()
	s.Finish(next, "again", nil)

	if err := s.CacheAudioFor(tk, path); err != nil {
		t.Fatalf("CacheAudioFor: %v", err)
	}
	if s.AudioPath() != path {
		t.Errorf("AudioPath = %q, want %q", s.AudioPath(), path)
	}
}
