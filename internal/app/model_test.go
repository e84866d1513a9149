package app

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MaiMahmoud182/DSP-task-1/internal/analyzer"
	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/db"
	"github.com/MaiMahmoud182/DSP-task-1/internal/mockbackend"
	"github.com/MaiMahmoud182/DSP-task-1/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestModel returns a sized model talking to the fixture backend.
func newTestModel(t *testing.T) Model {
	t.Helper()
	ts := httptest.NewServer(mockbackend.New(nil).Router())
	t.Cleanup(ts.Close)
	m := New(analyzer.Deps{Client: api.New(ts.URL), OutputDir: t.TempDir()}, nil)
	m.width = 120
	m.height = 40
	return m
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case KeyTab:
		return tea.KeyMsg{Type: tea.KeyTab}
	case KeyShiftTab:
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case KeyEnter:
		return tea.KeyMsg{Type: tea.KeyEnter}
	case KeyUp:
		return tea.KeyMsg{Type: tea.KeyUp}
	case KeyDown:
		return tea.KeyMsg{Type: tea.KeyDown}
	case KeyLeft:
		return tea.KeyMsg{Type: tea.KeyLeft}
	case KeyRight:
		return tea.KeyMsg{Type: tea.KeyRight}
	case KeyEsc:
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and, when it produced a command, runs it and feeds
// the resulting message back.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	m, cmd := applyUpdate(m, key(k))
	if cmd == nil {
		return m
	}
	m, _ = applyUpdate(m, cmd())
	return m
}

// wavHeader is enough of a RIFF/WAVE header for content sniffing.
const wavHeader = "RIFF\x24\x00\x00\x00WAVEfmt "

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func openFile(t *testing.T, m Model, path string) Model {
	t.Helper()
	m, _ = applyUpdate(m, key(KeyOpen))
	if !m.prompting {
		t.Fatal("o should open the path prompt")
	}
	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(path)})
	m, cmd := applyUpdate(m, key(KeyEnter))
	if cmd == nil {
		t.Fatal("enter in the prompt should select the file")
	}
	m, _ = applyUpdate(m, cmd())
	return m
}

func TestNewModel(t *testing.T) {
	m := New(analyzer.Deps{Client: api.New("http://localhost:0")}, nil)
	if m.tab != TabDoppler {
		t.Errorf("tab = %v, want Doppler", m.tab)
	}
	if m.polarMode != api.PolarDynamic {
		t.Errorf("polarMode = %q", m.polarMode)
	}
	for tab := Tab(0); tab < tabCount; tab++ {
		if m.busy(tab) {
			t.Errorf("%v busy on a new model", tab)
		}
	}
	if m.View() != "Initializing..." {
		t.Error("view before WindowSizeMsg should be the placeholder")
	}
}

func TestTabCycle(t *testing.T) {
	m := newTestModel(t)
	m, _ = applyUpdate(m, key(KeyTab))
	if m.tab != TabVoice {
		t.Errorf("tab = %v, want Voice", m.tab)
	}
	m, _ = applyUpdate(m, key(KeyShiftTab))
	m, _ = applyUpdate(m, key(KeyShiftTab))
	if m.tab != TabDrone {
		t.Errorf("tab = %v, want Drone", m.tab)
	}
	m, _ = applyUpdate(m, key(KeyShiftTab))
	if m.tab != TabECG {
		t.Errorf("tab = %v, want ECG", m.tab)
	}
}

func TestSliderAdjust(t *testing.T) {
	m := newTestModel(t)
	m, _ = applyUpdate(m, key(KeyDown))
	m, _ = applyUpdate(m, key(KeyRight))
	if got := m.doppler.Sliders.Velocity.Value; got != 65 {
		t.Errorf("velocity = %v, want 65", got)
	}
	m, _ = applyUpdate(m, key(KeyUp))
	m, _ = applyUpdate(m, key(KeyLeft))
	if got := m.doppler.Sliders.BaseFrequency.Value; got != 110 {
		t.Errorf("base frequency = %v, want 110", got)
	}
}

func TestActionKeysIgnoredWhileBusy(t *testing.T) {
	m := newTestModel(t)
	m.pending[TabDoppler] = true

	m, cmd := applyUpdate(m, key(KeyGenerate))
	if cmd != nil {
		t.Error("generate should be ignored while busy")
	}
	m, _ = applyUpdate(m, key(KeyRight))
	if got := m.doppler.Sliders.BaseFrequency.Value; got != 120 {
		t.Errorf("slider moved while busy: %v", got)
	}
	m, _ = applyUpdate(m, key(KeyOpen))
	if m.prompting {
		t.Error("file prompt opened while busy")
	}
	if !strings.Contains(m.View(), "analyzing…") {
		t.Error("footer should show analyzing… while busy")
	}

	// Other tabs stay usable.
	m, _ = applyUpdate(m, key(KeyTab))
	if _, cmd := applyUpdate(m, key(KeyRight)); cmd != nil {
		t.Error("slider keys produce no command")
	}
	if m.busy(TabVoice) {
		t.Error("voice tab should not be busy")
	}
}

func TestGenerateFlow(t *testing.T) {
	m := newTestModel(t)

	m, cmd := applyUpdate(m, key(KeyGenerate))
	if cmd == nil {
		t.Fatal("generate should return a command")
	}
	if !m.busy(TabDoppler) {
		t.Error("tab should be busy once the command is dispatched")
	}

	m, _ = applyUpdate(m, cmd())
	if m.busy(TabDoppler) {
		t.Error("tab still busy after the response")
	}
	if m.genWave == nil {
		t.Fatal("generated waveform not kept")
	}
	if m.notification.Level != analyzer.LevelSuccess {
		t.Errorf("notification = %+v", m.notification)
	}
	if got := m.doppler.GenDisplay.Get(analyzer.FieldBaseFreq); got != "120 Hz" {
		t.Errorf("base frequency field = %q", got)
	}
	if !strings.Contains(m.View(), "samples") {
		t.Error("view should show waveform statistics")
	}

	m = press(t, m, KeyReset)
	if m.genWave != nil {
		t.Error("reset kept the waveform")
	}
	if got := m.doppler.GenDisplay.Get(analyzer.FieldBaseFreq); got != analyzer.PlaceholderHz {
		t.Errorf("after reset base frequency = %q", got)
	}
}

func TestNewRecordsIntoStore(t *testing.T) {
	ts := httptest.NewServer(mockbackend.New(nil).Router())
	t.Cleanup(ts.Close)
	store, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m := New(analyzer.Deps{Client: api.New(ts.URL), OutputDir: t.TempDir()}, store)
	m.width, m.height = 120, 40
	m = press(t, m, KeyGenerate)

	entries, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Analyzer != "doppler" {
		t.Errorf("history = %+v, want one doppler entry", entries)
	}
}

func TestVehicleFlowThroughPrompt(t *testing.T) {
	m := newTestModel(t)
	m = openFile(t, m, writeFile(t, "car.wav", wavHeader))
	if !strings.HasPrefix(m.notification.Text, "Selected car.wav") {
		t.Errorf("notification = %q", m.notification.Text)
	}

	m = press(t, m, KeyEnter)
	if got := m.doppler.Vehicle.Display().Get(analyzer.FieldSpeed); got != "72.4 km/h" {
		t.Errorf("speed = %q", got)
	}
	if !strings.Contains(m.View(), "72.4 km/h") {
		t.Error("view should show the estimated speed")
	}

	m = press(t, m, KeySpectrogram)
	if _, ok := m.doppler.LastSpectrogram(); !ok {
		t.Error("spectrogram not fetched")
	}

	m = press(t, m, KeyExport)
	for _, name := range []string{"doppler_vehicle.png", "doppler_spectrogram.png"} {
		if _, err := os.Stat(filepath.Join(m.deps.OutputDir, name)); err != nil {
			t.Errorf("%s not exported: %v", name, err)
		}
	}
}

func TestPromptRejectsWrongType(t *testing.T) {
	m := newTestModel(t)
	m, _ = applyUpdate(m, key(KeyTab))
	m = openFile(t, m, writeFile(t, "notes.txt", "hello"))
	if m.notification.Level != analyzer.LevelError {
		t.Errorf("level = %v", m.notification.Level)
	}
	if m.notification.Text != "Please select a valid audio file (WAV, MP3, FLAC, AAC, OGG)" {
		t.Errorf("text = %q", m.notification.Text)
	}
}

func TestPromptEditing(t *testing.T) {
	m := newTestModel(t)
	m, _ = applyUpdate(m, key(KeyOpen))
	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.promptText != "ab" {
		t.Errorf("promptText = %q", m.promptText)
	}
	// q is text while the prompt is open.
	m, cmd := applyUpdate(m, key(KeyQuit))
	if cmd != nil || m.promptText != "abq" {
		t.Errorf("q in prompt: text %q, cmd %v", m.promptText, cmd != nil)
	}
	m, _ = applyUpdate(m, key(KeyEsc))
	if m.prompting || m.promptText != "" {
		t.Error("esc should close and clear the prompt")
	}
}

func TestEEGFlow(t *testing.T) {
	m := newTestModel(t)
	m.tab = TabEEG

	m = press(t, m, KeyClassify)
	if m.notification.Text != analyzer.ErrNotUploaded.Error() {
		t.Errorf("classify before upload = %q", m.notification.Text)
	}

	csv := "time,Fp1,Fp2\n0,1,0.5\n0.004,2,0.1\n0.008,-1,0.3\n0.012,0.5,-0.2\n"
	m = openFile(t, m, writeFile(t, "rec.csv", csv))
	m = press(t, m, KeyEnter)
	m = press(t, m, KeyClassify)
	if len(m.insights) != 2 {
		t.Errorf("insights = %v", m.insights)
	}

	m = press(t, m, KeyPolarMode)
	if m.polarMode != api.PolarFixed || len(m.polar) != 2 {
		t.Errorf("polar mode %q with %d channels", m.polarMode, len(m.polar))
	}
	m = press(t, m, KeyRecurrence)
	if m.recurrence == nil {
		t.Fatal("recurrence not fetched")
	}
	if m.recurrence.Channel1.Name != "Fp1" || m.recurrence.Channel2.Name != "Fp2" {
		t.Errorf("compared %s and %s", m.recurrence.Channel1.Name, m.recurrence.Channel2.Name)
	}
}

// beatsCSV is two leads at 360 Hz with a beat every 0.8 s.
func beatsCSV(seconds int) string {
	var b strings.Builder
	b.WriteString("I,II\n")
	for i := 0; i < seconds*360; i++ {
		v := 0.0
		if i >= 144 && (i-144)%288 == 0 {
			v = 1.5
		}
		fmt.Fprintf(&b, "%g,%g\n", v, v)
	}
	return b.String()
}

func TestECGFlow(t *testing.T) {
	m := newTestModel(t)
	m.tab = TabECG

	m = press(t, m, KeyClassify)
	if m.notification.Text != analyzer.ErrECGNotUploaded.Error() {
		t.Errorf("classify before upload = %q", m.notification.Text)
	}

	m = openFile(t, m, writeFile(t, "leads.csv", beatsCSV(10)))
	m = press(t, m, KeyEnter)
	if m.notification.Level != analyzer.LevelSuccess {
		t.Fatalf("upload notification = %+v", m.notification)
	}
	if !strings.Contains(m.View(), "75 bpm") {
		t.Error("view should show the heart rate")
	}

	m = press(t, m, KeyClassify)
	if got := m.ecg.Display().Get(analyzer.FieldDiagnosis); got != "Normal ECG (94%)" {
		t.Errorf("diagnosis = %q", got)
	}

	m = press(t, m, KeyPolarMode)
	if m.ecgPolarMode != api.PolarFixed || len(m.ecgPolar) != 12 {
		t.Errorf("polar mode %q with %d leads", m.ecgPolarMode, len(m.ecgPolar))
	}
	m = press(t, m, KeyPolarMode)
	if m.ecgPolarMode != api.PolarCumulative {
		t.Errorf("polar mode = %q, want cumulative", m.ecgPolarMode)
	}

	m = press(t, m, KeyStatistics)
	if m.ecgStats == nil || m.ecgStats.TotalBeats != 12 {
		t.Fatalf("statistics = %+v", m.ecgStats)
	}

	m = press(t, m, KeyReset)
	if m.ecgPolar != nil || m.ecgStats != nil {
		t.Error("reset should drop the ECG payloads")
	}
	if got := m.ecg.Display().Get(analyzer.FieldHeartRate); got != analyzer.PlaceholderBPM {
		t.Errorf("heart rate after reset = %q", got)
	}
}

func TestHealthListsModules(t *testing.T) {
	m := newTestModel(t)
	m, _ = applyUpdate(m, healthCmd(m.deps.Client)())
	if !m.online || len(m.modules) != len(api.Modules) {
		t.Fatalf("online %v, modules %v", m.online, m.modules)
	}
	if !strings.Contains(m.View(), "5 modules") {
		t.Error("status bar should count the healthy modules")
	}
	m.modules["ecg"] = "unavailable"
	if !strings.Contains(m.View(), "down: ecg") {
		t.Error("status bar should name the unavailable module")
	}
}

func TestDroneFlow(t *testing.T) {
	m := newTestModel(t)
	m.tab = TabDrone
	m = openFile(t, m, writeFile(t, "drone.wav", wavHeader))
	m = press(t, m, KeyEnter)
	if m.detection == nil || m.detection.Prediction != "DRONE" {
		t.Fatalf("detection = %+v", m.detection)
	}
	if !strings.Contains(m.View(), "82%") {
		t.Error("view should show the drone confidence meter")
	}
	m = press(t, m, KeyClassify)
	if len(m.droneClasses) == 0 {
		t.Error("drone classes not loaded")
	}
}

func TestErrorNotification(t *testing.T) {
	m := newTestModel(t)
	m.pending[TabDoppler] = true
	m, cmd := applyUpdate(m, GeneratedMsg{Err: &api.Error{Kind: api.KindBackend, Message: "x"}})
	if m.busy(TabDoppler) {
		t.Error("busy after failure")
	}
	if m.notification.Level != analyzer.LevelError || m.notification.Text != "Error: x" {
		t.Errorf("notification = %+v", m.notification)
	}
	if cmd == nil {
		t.Error("expected a clear-notification command")
	}
}

func TestStaleResponseIgnored(t *testing.T) {
	m := newTestModel(t)
	m.pending[TabVoice] = true
	m, cmd := applyUpdate(m, VoiceAnalyzedMsg{Err: session.ErrStale})
	if m.busy(TabVoice) {
		t.Error("busy after stale response")
	}
	if !m.notification.IsZero() || cmd != nil {
		t.Errorf("stale response produced notification %+v", m.notification)
	}
}

func TestNotificationClears(t *testing.T) {
	m := newTestModel(t)
	m, _ = applyUpdate(m, ResetDoneMsg{Tab: TabVoice})
	first := m.notifySeq
	m, _ = applyUpdate(m, ExportedMsg{Err: errors.New("disk full")})

	m, _ = applyUpdate(m, ClearNotificationMsg{Seq: first})
	if m.notification.IsZero() {
		t.Error("an older timer cleared a newer notification")
	}
	m, _ = applyUpdate(m, ClearNotificationMsg{Seq: m.notifySeq})
	if !m.notification.IsZero() {
		t.Error("notification not cleared")
	}
}

func TestExportNothing(t *testing.T) {
	m := newTestModel(t)
	m.tab = TabVoice
	m = press(t, m, KeyExport)
	if m.notification.Text != "Nothing to export yet" {
		t.Errorf("notification = %q", m.notification.Text)
	}
}

func TestHealthOffline(t *testing.T) {
	m := newTestModel(t)
	m, _ = applyUpdate(m, HealthMsg{Err: &api.Error{Kind: api.KindNetwork, Message: "request failed"}})
	if m.online {
		t.Error("online after failed health check")
	}
	if !strings.Contains(m.View(), api.MsgServerUnreachable) {
		t.Error("status bar should show the unreachable message")
	}
}

func TestViewPlaceholders(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	for _, want := range []string{"DSPLAB", "Doppler", "Voice", "EEG", "ECG", "Drone", "-- km/h", "-- Hz", "○ idle"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if len(got) != len(want) {
		t.Fatalf("wrapText = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
