package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MaiMahmoud182/DSP-task-1/internal/analyzer"
	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/chart"
	"github.com/MaiMahmoud182/DSP-task-1/internal/db"
	"github.com/MaiMahmoud182/DSP-task-1/internal/ui"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"

	tea "github.com/charmbracelet/bubbletea"
)

// Tab is one page of the TUI.
type Tab int

const (
	TabDoppler Tab = iota
	TabVoice
	TabEEG
	TabECG
	TabDrone
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabDoppler:
		return "Doppler"
	case TabVoice:
		return "Voice"
	case TabEEG:
		return "EEG"
	case TabECG:
		return "ECG"
	case TabDrone:
		return "Drone"
	default:
		return fmt.Sprintf("Tab(%d)", int(t))
	}
}

// historyLimit is how many past analyses the panel lists.
const historyLimit = 5

// notificationTimeout is how long a notification stays on screen.
const notificationTimeout = 5 * time.Second

// Model is the root bubbletea model for the dsplab TUI.
type Model struct {
	deps  analyzer.Deps
	store *db.Store

	doppler *analyzer.Doppler
	voice   *analyzer.Voice
	eeg     *analyzer.EEG
	ecg     *analyzer.ECG
	drone   *analyzer.Drone

	// Backend
	online        bool
	checked       bool
	backendStatus string
	modules       map[string]string

	// UI state
	tab         Tab
	sliderIndex [tabCount]int
	pending     [tabCount]bool
	prompting   bool
	promptText  string
	width       int
	height      int

	// Latest payloads, kept for the panel and for exports
	genWave      *api.WaveformPayload
	vehicleWave  *api.WaveformPayload
	vehicleConf  float64
	voiceWave    *api.WaveformPayload
	polarMode    api.PolarMode
	polar        map[string]api.PolarSeries
	recurrence   *api.Recurrence
	insights     []string
	ecgPolarMode api.PolarMode
	ecgPolar     map[string]api.PolarSeries
	ecgStats     *api.ECGStatistics
	detection    *api.DroneDetection
	droneClasses []string
	lastAudio    string

	// Notifications
	notification analyzer.Notification
	notifySeq    int

	// DB
	history []db.Entry
}

// New creates a Model. store may be nil, in which case no history is shown.
func New(deps analyzer.Deps, store *db.Store) Model {
	if store != nil {
		deps.History = store
	}
	return Model{
		deps:          deps,
		store:         store,
		doppler:       analyzer.NewDoppler(deps),
		voice:         analyzer.NewVoice(deps),
		eeg:           analyzer.NewEEG(deps),
		ecg:           analyzer.NewECG(deps),
		drone:         analyzer.NewDrone(deps),
		backendStatus: "Checking backend...",
		polarMode:     api.PolarDynamic,
		ecgPolarMode:  api.PolarCumulative,
	}
}

// Init checks the backend and loads the history.
func (m Model) Init() tea.Cmd {
	return tea.Batch(healthCmd(m.deps.Client), loadHistoryCmd(m.store))
}

// healthCmd checks the backend and then each module. A module that does not
// answer is reported as unavailable.
func healthCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		h, err := client.Health(ctx)
		if err != nil {
			return HealthMsg{Err: err}
		}
		modules := make(map[string]string, len(api.Modules))
		for _, name := range api.Modules {
			mh, err := client.ModuleHealth(ctx, name)
			if err != nil {
				modules[name] = "unavailable"
				continue
			}
			modules[name] = mh.Status
		}
		return HealthMsg{Health: h, Modules: modules}
	}
}

// loadHistoryCmd reads the most recent analyses from SQLite.
func loadHistoryCmd(store *db.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := store.Recent(historyLimit)
		if err != nil {
			return HistoryLoadedMsg{} // history is best effort
		}
		return HistoryLoadedMsg{Entries: entries}
	}
}

func selectFileCmd(tab Tab, sel func(string) (analyzer.Notification, error), path string) tea.Cmd {
	return func() tea.Msg {
		n, err := sel(path)
		return FileSelectedMsg{Tab: tab, Notification: n, Err: err}
	}
}

func generateCmd(d *analyzer.Doppler, cfg upload.SamplingConfiguration) tea.Cmd {
	return func() tea.Msg {
		out, err := d.Generate(context.Background(), cfg)
		return GeneratedMsg{Sound: out, Err: err}
	}
}

func analyzeVehicleCmd(d *analyzer.Doppler) tea.Cmd {
	return func() tea.Msg {
		r, err := d.AnalyzeVehicle(context.Background())
		return VehicleAnalyzedMsg{Result: r, Err: err}
	}
}

func spectrogramCmd(d *analyzer.Doppler) tea.Cmd {
	return func() tea.Msg {
		s, err := d.Spectrogram(context.Background())
		return SpectrogramMsg{Data: s, Err: err}
	}
}

func resampleCmd(tab Tab, mode api.ResampleMode, fn func(context.Context, api.ResampleMode) (string, error)) tea.Cmd {
	return func() tea.Msg {
		path, err := fn(context.Background(), mode)
		return ResampledMsg{Tab: tab, Mode: mode, Path: path, Err: err}
	}
}

func analyzeVoiceCmd(v *analyzer.Voice) tea.Cmd {
	return func() tea.Msg {
		r, err := v.Analyze(context.Background())
		return VoiceAnalyzedMsg{Result: r, Err: err}
	}
}

func uploadEEGCmd(e *analyzer.EEG) tea.Cmd {
	return func() tea.Msg {
		r, err := e.Upload(context.Background())
		return EEGUploadedMsg{Result: r, Err: err}
	}
}

func classifyEEGCmd(e *analyzer.EEG) tea.Cmd {
	return func() tea.Msg {
		c, err := e.Classify(context.Background(), "")
		return EEGClassifiedMsg{Classification: c, Err: err}
	}
}

func polarCmd(e *analyzer.EEG, mode api.PolarMode) tea.Cmd {
	return func() tea.Msg {
		s, err := e.Polar(context.Background(), mode, nil, 0)
		return PolarMsg{Mode: mode, Series: s, Err: err}
	}
}

// recurrenceCmd compares the first two channels over their first samples.
// A single-channel recording is compared with itself.
func recurrenceCmd(e *analyzer.EEG) tea.Cmd {
	return func() tea.Msg {
		channels := e.Channels()
		if len(channels) == 0 {
			return RecurrenceMsg{Err: analyzer.ErrNotUploaded}
		}
		second := channels[0]
		if len(channels) > 1 {
			second = channels[1]
		}
		end := 500
		if r, ok := e.Session().Result(); ok && len(r.Upload.Data.TimeData) > 0 {
			end = min(end, len(r.Upload.Data.TimeData))
		}
		r, err := e.Recurrence(context.Background(),
			api.Region{ChannelName: channels[0], EndIndex: end},
			api.Region{ChannelName: second, EndIndex: end}, 0)
		return RecurrenceMsg{Recurrence: r, Err: err}
	}
}

func uploadECGCmd(e *analyzer.ECG) tea.Cmd {
	return func() tea.Msg {
		r, err := e.Upload(context.Background())
		return ECGUploadedMsg{Result: r, Err: err}
	}
}

func classifyECGCmd(e *analyzer.ECG) tea.Cmd {
	return func() tea.Msg {
		c, err := e.Classify(context.Background())
		return ECGClassifiedMsg{Classification: c, Err: err}
	}
}

func ecgPolarCmd(e *analyzer.ECG, mode api.PolarMode, t float64) tea.Cmd {
	return func() tea.Msg {
		s, err := e.Polar(context.Background(), mode, t)
		return ECGPolarMsg{Mode: mode, Series: s, Err: err}
	}
}

func ecgStatsCmd(e *analyzer.ECG) tea.Cmd {
	return func() tea.Msg {
		st, err := e.Statistics(context.Background())
		return ECGStatsMsg{Statistics: st, Err: err}
	}
}

func inspectECGCmd(e *analyzer.ECG) tea.Cmd {
	return func() tea.Msg {
		a, err := e.Inspect(context.Background())
		return ECGStatsMsg{Statistics: a.Analysis, Err: err}
	}
}

func detectDroneCmd(d *analyzer.Drone) tea.Cmd {
	return func() tea.Msg {
		r, err := d.Detect(context.Background())
		return DroneDetectedMsg{Detection: r, Err: err}
	}
}

func droneClassesCmd(d *analyzer.Drone) tea.Cmd {
	return func() tea.Msg {
		c, err := d.Classes(context.Background())
		return DroneClassesMsg{Classes: c, Err: err}
	}
}

func resetCmd(tab Tab, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return ResetDoneMsg{Tab: tab, Err: fn()}
	}
}

// clearNotificationCmd fires after a delay to clear the notification.
func clearNotificationCmd(seq int) tea.Cmd {
	return tea.Tick(notificationTimeout, func(time.Time) tea.Msg {
		return ClearNotificationMsg{Seq: seq}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case HealthMsg:
		m.checked = true
		if msg.Err != nil {
			m.online = false
			m.backendStatus = api.UserMessage(msg.Err)
			return m, nil
		}
		m.online = true
		m.backendStatus = "Backend " + msg.Health.Status
		m.modules = msg.Modules
		return m, nil

	case FileSelectedMsg:
		if msg.Err == nil {
			m.clearPayloads(msg.Tab)
		}
		return m, m.notify(msg.Notification)

	case GeneratedMsg:
		m.pending[TabDoppler] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		wf := msg.Sound.WaveformVisualization
		m.genWave = &wf
		m.lastAudio = m.doppler.Generator().AudioPath()
		return m, m.succeed("Doppler sound generated")

	case VehicleAnalyzedMsg:
		m.pending[TabDoppler] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		a := msg.Result.Analysis
		m.vehicleWave = a.WaveformData
		m.vehicleConf = a.Confidence
		if !a.IsVehicle {
			return m, m.warn("No vehicle detected")
		}
		return m, m.succeed(fmt.Sprintf("Estimated speed %.1f km/h", a.EstimatedSpeed))

	case SpectrogramMsg:
		m.pending[TabDoppler] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		return m, m.notify(analyzer.Success(fmt.Sprintf("Spectrogram ready (%d x %d), press x to export",
			len(msg.Data.Frequency), len(msg.Data.Time))))

	case ResampledMsg:
		m.pending[msg.Tab] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		if msg.Mode == api.ModeDownload {
			return m, m.notify(analyzer.Success("Saved " + msg.Path))
		}
		m.lastAudio = msg.Path
		return m, m.notify(analyzer.Success("Playback audio ready: " + msg.Path))

	case VoiceAnalyzedMsg:
		m.pending[TabVoice] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		wf := msg.Result.Analysis.WaveformData
		m.voiceWave = &wf
		if msg.Result.Aliasing.Authoritative {
			return m, m.warn(msg.Result.Aliasing.Label())
		}
		return m, m.succeed(msg.Result.Aliasing.Label())

	case EEGUploadedMsg:
		m.pending[TabEEG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		return m, m.succeed(fmt.Sprintf("Loaded %d channels", len(msg.Result.Upload.Data.ChannelNames)))

	case EEGClassifiedMsg:
		m.pending[TabEEG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		m.insights = msg.Classification.Insights
		return m, m.succeed("Signal quality: " + msg.Classification.SignalQuality.Assessment)

	case PolarMsg:
		m.pending[TabEEG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		m.polarMode = msg.Mode
		m.polar = msg.Series
		return m, m.notify(analyzer.Info(fmt.Sprintf("Polar data (%s) for %d channels", msg.Mode, len(msg.Series))))

	case RecurrenceMsg:
		m.pending[TabEEG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		r := msg.Recurrence
		m.recurrence = &r
		return m, m.notify(analyzer.Info(fmt.Sprintf("Recurrence %s vs %s: rate %.2f",
			r.Channel1.Name, r.Channel2.Name, r.Metrics.RecurrenceRate)))

	case ECGUploadedMsg:
		m.pending[TabECG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		a := msg.Result.Upload.Analysis
		return m, m.succeed(fmt.Sprintf("Loaded %d leads, heart rate %.0f bpm", len(msg.Result.Upload.Data.LeadNames), a.HeartRate))

	case ECGClassifiedMsg:
		m.pending[TabECG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		if msg.Classification.IsAbnormal {
			return m, m.warn("Abnormal ECG: " + msg.Classification.PrimaryDiagnosis)
		}
		return m, m.succeed(msg.Classification.PrimaryDiagnosis)

	case ECGPolarMsg:
		m.pending[TabECG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		m.ecgPolarMode = msg.Mode
		m.ecgPolar = msg.Series
		return m, m.notify(analyzer.Info(fmt.Sprintf("Polar data (%s) for %d leads", msg.Mode, len(msg.Series))))

	case ECGStatsMsg:
		m.pending[TabECG] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		st := msg.Statistics
		m.ecgStats = &st
		return m, m.notify(analyzer.Info(fmt.Sprintf("%.0f bpm over %s", st.HeartRate, ui.FormatDuration(st.Duration))))

	case DroneDetectedMsg:
		m.pending[TabDrone] = false
		if msg.Err != nil {
			return m, m.fail(msg.Err)
		}
		d := msg.Detection
		m.detection = &d
		return m, m.succeed("Prediction: " + strings.ToUpper(d.Prediction))

	case DroneClassesMsg:
		m.pending[TabDrone] = false
		if msg.Err != nil {
			return m, m.notify(analyzer.Notify(msg.Err))
		}
		m.droneClasses = msg.Classes.DroneClasses
		return m, nil

	case ResetDoneMsg:
		m.pending[msg.Tab] = false
		m.clearPayloads(msg.Tab)
		if msg.Err != nil {
			return m, m.notify(analyzer.Notify(msg.Err))
		}
		return m, m.notify(analyzer.Info(msg.Tab.String() + " reset"))

	case ExportedMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, chart.ErrNoData) {
				return m, m.notify(analyzer.Warn("Nothing to export yet"))
			}
			return m, m.notify(analyzer.Notification{Level: analyzer.LevelError, Text: "Export failed: " + msg.Err.Error()})
		}
		return m, m.notify(analyzer.Success(fmt.Sprintf("Exported %d chart(s) to %s", len(msg.Paths), m.deps.OutputDir)))

	case HistoryLoadedMsg:
		m.history = msg.Entries
		return m, nil

	case ClearNotificationMsg:
		if msg.Seq == m.notifySeq {
			m.notification = analyzer.Notification{}
		}
		return m, nil
	}

	return m, nil
}

// notify shows n and schedules its removal. A zero notification, such as
// the one for a stale response, is dropped.
func (m *Model) notify(n analyzer.Notification) tea.Cmd {
	if n.IsZero() {
		return nil
	}
	m.notifySeq++
	m.notification = n
	return clearNotificationCmd(m.notifySeq)
}

func (m *Model) fail(err error) tea.Cmd {
	return m.notify(analyzer.Notify(err))
}

func (m *Model) warn(text string) tea.Cmd {
	return tea.Batch(m.notify(analyzer.Warn(text)), loadHistoryCmd(m.store))
}

func (m *Model) succeed(text string) tea.Cmd {
	return tea.Batch(m.notify(analyzer.Success(text)), loadHistoryCmd(m.store))
}

// clearPayloads forgets the charts of tab.
func (m *Model) clearPayloads(tab Tab) {
	switch tab {
	case TabDoppler:
		m.genWave, m.vehicleWave, m.vehicleConf = nil, nil, 0
	case TabVoice:
		m.voiceWave = nil
	case TabEEG:
		m.polar, m.recurrence, m.insights = nil, nil, nil
	case TabECG:
		m.ecgPolar, m.ecgStats = nil, nil
	case TabDrone:
		m.detection = nil
	}
	m.lastAudio = ""
}

// busy reports whether tab has a request outstanding, counting commands
// that were dispatched but have not started yet.
func (m Model) busy(tab Tab) bool {
	if m.pending[tab] {
		return true
	}
	switch tab {
	case TabDoppler:
		return m.doppler.Busy()
	case TabVoice:
		return m.voice.Busy()
	case TabEEG:
		return m.eeg.Busy()
	case TabECG:
		return m.ecg.Busy()
	case TabDrone:
		return m.drone.Busy()
	}
	return false
}

// sliders returns the controls of tab in display order.
func (m Model) sliders(tab Tab) []*upload.Slider {
	switch tab {
	case TabDoppler:
		return append(m.doppler.Sliders.All(), m.doppler.Rate)
	case TabVoice:
		return []*upload.Slider{m.voice.Rate}
	case TabEEG:
		return []*upload.Slider{m.eeg.Rate}
	case TabECG:
		return []*upload.Slider{m.ecg.Rate, m.ecg.Start}
	}
	return nil
}

func (m Model) selectedSlider() *upload.Slider {
	s := m.sliders(m.tab)
	if len(s) == 0 {
		return nil
	}
	return s[min(m.sliderIndex[m.tab], len(s)-1)]
}

func (m Model) selector(tab Tab) func(string) (analyzer.Notification, error) {
	switch tab {
	case TabDoppler:
		return m.doppler.Vehicle.Select
	case TabVoice:
		return m.voice.Select
	case TabEEG:
		return m.eeg.Select
	case TabECG:
		return m.ecg.Select
	default:
		return m.drone.Select
	}
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompting {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		m.cleanup()
		return m, tea.Quit

	case KeyTab:
		m.tab = (m.tab + 1) % tabCount
		return m, nil

	case KeyShiftTab:
		m.tab = (m.tab + tabCount - 1) % tabCount
		return m, nil

	case KeyUp:
		if m.sliderIndex[m.tab] > 0 {
			m.sliderIndex[m.tab]--
		}
		return m, nil

	case KeyDown:
		if m.sliderIndex[m.tab] < len(m.sliders(m.tab))-1 {
			m.sliderIndex[m.tab]++
		}
		return m, nil
	}

	// Everything below talks to the backend or changes what a running
	// request reads, so it is disabled while the tab is busy.
	if m.busy(m.tab) {
		return m, nil
	}

	switch msg.String() {
	case KeyLeft:
		if s := m.selectedSlider(); s != nil {
			s.Dec()
		}
		return m, nil

	case KeyRight:
		if s := m.selectedSlider(); s != nil {
			s.Inc()
		}
		return m, nil

	case KeyOpen:
		m.prompting = true
		m.promptText = ""
		return m, nil

	case KeyReset:
		m.pending[m.tab] = true
		return m, resetCmd(m.tab, m.resetFunc(m.tab))

	case KeyExport:
		return m, exportCmd(m.exportFigures(m.tab), m.deps.OutputDir)
	}

	return m.handleActionKey(msg.String())
}

func (m Model) handleActionKey(key string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.tab {
	case TabDoppler:
		switch key {
		case KeyEnter:
			cmd = analyzeVehicleCmd(m.doppler)
		case KeyGenerate:
			cmd = generateCmd(m.doppler, m.doppler.Sliders.Config())
		case KeySpectrogram:
			cmd = spectrogramCmd(m.doppler)
		case KeyPlayback:
			cmd = resampleCmd(TabDoppler, api.ModePlayback, m.doppler.Resample)
		case KeyDownload:
			cmd = resampleCmd(TabDoppler, api.ModeDownload, m.doppler.Resample)
		}

	case TabVoice:
		switch key {
		case KeyEnter:
			cmd = analyzeVoiceCmd(m.voice)
		case KeyPlayback:
			cmd = resampleCmd(TabVoice, api.ModePlayback, m.voice.Resample)
		case KeyDownload:
			cmd = resampleCmd(TabVoice, api.ModeDownload, m.voice.Resample)
		}

	case TabEEG:
		switch key {
		case KeyEnter:
			cmd = uploadEEGCmd(m.eeg)
		case KeyClassify:
			cmd = classifyEEGCmd(m.eeg)
		case KeyPolarMode:
			next := api.PolarFixed
			if m.polarMode == api.PolarFixed {
				next = api.PolarDynamic
			}
			cmd = polarCmd(m.eeg, next)
		case KeyRecurrence:
			cmd = recurrenceCmd(m.eeg)
		}

	case TabECG:
		switch key {
		case KeyEnter:
			cmd = uploadECGCmd(m.ecg)
		case KeyClassify:
			cmd = classifyECGCmd(m.ecg)
		case KeyPolarMode:
			next := api.PolarFixed
			if m.ecgPolarMode == api.PolarFixed {
				next = api.PolarCumulative
			}
			cmd = ecgPolarCmd(m.ecg, next, m.ecg.Start.Value)
		case KeyStatistics:
			cmd = ecgStatsCmd(m.ecg)
		case KeyInspect:
			cmd = inspectECGCmd(m.ecg)
		}

	case TabDrone:
		switch key {
		case KeyEnter:
			cmd = detectDroneCmd(m.drone)
		case KeyClassify:
			cmd = droneClassesCmd(m.drone)
		}
	}

	if cmd != nil {
		m.pending[m.tab] = true
	}
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.cleanup()
		return m, tea.Quit

	case tea.KeyEsc:
		m.prompting = false
		m.promptText = ""
		return m, nil

	case tea.KeyEnter:
		m.prompting = false
		path := expandHome(strings.TrimSpace(m.promptText))
		m.promptText = ""
		if path == "" {
			return m, nil
		}
		return m, selectFileCmd(m.tab, m.selector(m.tab), path)

	case tea.KeyBackspace:
		if r := []rune(m.promptText); len(r) > 0 {
			m.promptText = string(r[:len(r)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.promptText += " "
		return m, nil

	case tea.KeyRunes:
		m.promptText += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) resetFunc(tab Tab) func() error {
	switch tab {
	case TabDoppler:
		return m.doppler.Reset
	case TabVoice:
		return m.voice.Reset
	case TabEEG:
		return func() error { return m.eeg.Reset(context.Background()) }
	case TabECG:
		return m.ecg.Reset
	default:
		return m.drone.Reset
	}
}

// cleanup removes cached audio before the program exits. The backend's EEG
// recording is left in place.
func (m Model) cleanup() {
	for _, reset := range []func() error{m.doppler.Reset, m.voice.Reset, m.eeg.FileAnalyzer.Reset, m.ecg.Reset, m.drone.Reset} {
		if err := reset(); err != nil {
			m.logger().Debug("cleanup", zap.Error(err))
		}
	}
}

func (m Model) logger() *zap.Logger {
	if m.deps.Logger == nil {
		return zap.NewNop()
	}
	return m.deps.Logger
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
