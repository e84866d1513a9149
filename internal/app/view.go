package app

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MaiMahmoud182/DSP-task-1/internal/analyzer"
	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/chart"
	"github.com/MaiMahmoud182/DSP-task-1/internal/ui"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderTabs())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Main content: controls | results
	sections = append(sections, m.renderMainContent())

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.prompting {
		sections = append(sections, m.renderPrompt())
	} else if !m.notification.IsZero() {
		sections = append(sections, m.renderNotification())
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("DSPLAB")
	var target string
	if m.deps.Client != nil {
		target = ui.DimStyle.Render(" · " + m.deps.Client.BaseURL())
	}
	return title + target
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := t.String()
		if m.busy(t) {
			label += " ⟳"
		}
		if t == m.tab {
			parts = append(parts, ui.TabActiveStyle.Render(label))
		} else {
			parts = append(parts, ui.TabStyle.Render(label))
		}
	}
	return strings.Join(parts, ui.DividerStyle.Render("│"))
}

func (m Model) renderStatusBar() string {
	var backend string
	switch {
	case !m.checked:
		backend = ui.IdleDotStyle.Render("○ ") + ui.StatusStyle.Render(m.backendStatus)
	case m.online:
		backend = ui.OnlineDotStyle.Render("● ") + ui.StatusStyle.Render(m.backendStatus)
	default:
		backend = ui.OfflineDotStyle.Render("● ") + ui.ErrorTextStyle.Render(m.backendStatus)
	}

	var activity string
	if m.busy(m.tab) {
		activity = ui.BusyDotStyle.Render("● analyzing…")
	} else {
		activity = ui.IdleDotStyle.Render("○ idle")
	}

	file := ui.DimStyle.Render("no file")
	if f := m.currentFile(); f != nil {
		file = f.Name + ui.DimStyle.Render(" ("+ui.FormatFileSize(f.Size)+")")
	}

	return backend + m.moduleStatus() + "  " + activity + "  " + file
}

// moduleStatus summarizes per-module health, naming the modules that are
// not healthy.
func (m Model) moduleStatus() string {
	if len(m.modules) == 0 {
		return ""
	}
	var down []string
	for _, name := range api.Modules {
		if status, ok := m.modules[name]; ok && status != "healthy" {
			down = append(down, name)
		}
	}
	if len(down) == 0 {
		return ui.DimStyle.Render(fmt.Sprintf(" · %d modules", len(m.modules)))
	}
	return ui.WarnTextStyle.Render(" · down: " + strings.Join(down, ", "))
}

func (m Model) currentFile() *upload.File {
	switch m.tab {
	case TabDoppler:
		return m.doppler.Vehicle.Session().File()
	case TabVoice:
		return m.voice.Session().File()
	case TabEEG:
		return m.eeg.Session().File()
	case TabECG:
		return m.ecg.Session().File()
	default:
		return m.drone.Session().File()
	}
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + tabs(1) + status(1) + dividers(2) + notification(1) + footer(1)
	reserved := 7
	return max(5, m.height-reserved)
}

func (m Model) controlPanelWidth() int {
	if m.width == 0 {
		return 36
	}
	return max(28, m.width*40/100)
}

func (m Model) resultPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.controlPanelWidth()-3)
}

func (m Model) renderMainContent() string {
	leftW := m.controlPanelWidth()
	rightW := m.resultPanelWidth()
	h := m.contentHeight()

	left := fitLines(m.controlLines(leftW), h)
	right := fitLines(m.resultLines(rightW), h)

	divider := ui.DividerStyle.Render("│")
	rows := make([]string, 0, h)
	for i := 0; i < h; i++ {
		rows = append(rows, padRight(left[i], leftW)+" "+divider+" "+right[i])
	}
	return strings.Join(rows, "\n")
}

func (m Model) controlLines(width int) []string {
	lines := []string{ui.PanelTitleStyle.Render("CONTROLS")}

	sliders := m.sliders(m.tab)
	if len(sliders) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No adjustable settings"))
	}
	selected := min(m.sliderIndex[m.tab], max(0, len(sliders)-1))
	for i, s := range sliders {
		marker := "  "
		label := s.Label
		if i == selected {
			marker = ui.SelectedStyle.Render("> ")
			label = ui.SelectedStyle.Render(label)
		}
		lines = append(lines, marker+label)
		lines = append(lines, "    "+sliderBar(s, max(8, width-22))+" "+sliderValue(s))
	}

	lines = append(lines, "")
	lines = append(lines, ui.PanelTitleStyle.Render("HISTORY"))
	if len(m.history) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No analyses yet"))
	}
	for _, e := range m.history {
		ts := ui.TimestampStyle.Render(e.CreatedAt.Format("[15:04:05]"))
		lines = append(lines, ts+" "+truncateToWidth(e.Analyzer+": "+e.Summary, max(10, width-11)))
	}
	return lines
}

func sliderBar(s *upload.Slider, width int) string {
	pos := 0
	if s.Max > s.Min {
		pos = int(math.Round((s.Value - s.Min) / (s.Max - s.Min) * float64(width-1)))
	}
	return ui.DimStyle.Render(strings.Repeat("━", pos)) + ui.SelectedStyle.Render("●") +
		ui.DimStyle.Render(strings.Repeat("━", width-1-pos))
}

func sliderValue(s *upload.Slider) string {
	return fmt.Sprintf("%d %s", s.Int(), s.Unit)
}

func (m Model) resultLines(width int) []string {
	lines := []string{ui.PanelTitleStyle.Render("RESULTS")}

	switch m.tab {
	case TabDoppler:
		lines = append(lines, ui.DimStyle.Render("Generator"))
		lines = append(lines, renderFields(m.doppler.GenDisplay)...)
		lines = append(lines, m.waveLines(m.genWave, width)...)
		lines = append(lines, "", ui.DimStyle.Render("Vehicle analysis"))
		lines = append(lines, renderFields(m.doppler.Vehicle.Display())...)
		if m.vehicleWave != nil {
			lines = append(lines, "Confidence  "+ui.LevelStyle(m.vehicleConf).Render(ui.Meter(m.vehicleConf, 20)))
		}
		lines = append(lines, m.waveLines(m.vehicleWave, width)...)

	case TabVoice:
		lines = append(lines, renderFields(m.voice.Display())...)
		lines = append(lines, m.waveLines(m.voiceWave, width)...)

	case TabEEG:
		lines = append(lines, renderFields(m.eeg.Display())...)
		lines = append(lines, ui.DimStyle.Render("Polar mode: "+string(m.polarMode)))
		if m.recurrence != nil {
			met := m.recurrence.Metrics
			lines = append(lines, fmt.Sprintf("Recurrence %s/%s: rate %.2f, determinism %.2f, correlation %.2f",
				m.recurrence.Channel1.Name, m.recurrence.Channel2.Name,
				met.RecurrenceRate, met.Determinism, met.Correlation))
		}
		for _, in := range m.insights {
			for _, wl := range wrapText("• "+in, max(10, width-2)) {
				lines = append(lines, ui.DimStyle.Render(wl))
			}
		}

	case TabECG:
		lines = append(lines, renderFields(m.ecg.Display())...)
		lines = append(lines, ui.DimStyle.Render("Polar mode: "+string(m.ecgPolarMode)))
		if len(m.ecgPolar) > 0 {
			lines = append(lines, fmt.Sprintf("Polar data for %d leads", len(m.ecgPolar)))
		}
		if st := m.ecgStats; st != nil && len(st.LeadsAvailable) > 0 {
			lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("%d leads analyzed", len(st.LeadsAvailable))))
		}

	case TabDrone:
		lines = append(lines, renderFields(m.drone.Display())...)
		if d := m.detection; d != nil {
			for _, key := range []string{"drone", "bird", "noise"} {
				if score, ok := d.ConfidenceScores[key]; ok {
					lines = append(lines, fmt.Sprintf("%-6s %s", key, ui.LevelStyle(score).Render(ui.Meter(score, 20))))
				}
			}
		}
		if len(m.droneClasses) > 0 {
			for _, wl := range wrapText("Drone classes: "+strings.Join(m.droneClasses, ", "), max(10, width)) {
				lines = append(lines, ui.DimStyle.Render(wl))
			}
		}
	}

	if m.lastAudio != "" {
		lines = append(lines, "", ui.DimStyle.Render("Audio: "+m.lastAudio))
	}
	return lines
}

func renderFields(d *analyzer.Display) []string {
	fields := d.Fields()
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		label := ui.FieldLabelStyle.Render(f.Label)
		var value string
		switch {
		case f.Value == f.Placeholder:
			value = ui.PlaceholderStyle.Render(f.Value)
		case f.Label == analyzer.FieldAliasing && strings.HasPrefix(f.Value, "Aliasing detected"):
			value = ui.AliasStyle.Render(f.Value)
		case f.Label == analyzer.FieldAliasing:
			value = ui.CleanStyle.Render(f.Value)
		default:
			value = ui.FieldValueStyle.Render(f.Value)
		}
		lines = append(lines, label+value)
	}
	return lines
}

// waveLines draws a sparkline of the waveform, red when it aliases, with its
// summary statistics underneath.
func (m Model) waveLines(wf *api.WaveformPayload, width int) []string {
	if wf == nil || len(wf.Amplitude) == 0 {
		return nil
	}
	style := ui.CleanStyle
	if wf.IsAliasing != nil && *wf.IsAliasing {
		style = ui.AliasStyle
	}
	spark := ui.Sparkline(chart.Downsample(wf.Amplitude, max(10, width-2)))
	st := chart.Summary(wf.Amplitude)
	return []string{
		style.Render(spark),
		ui.DimStyle.Render(fmt.Sprintf("%d samples  peak %.3f  rms %.3f  mean %.3f", st.Samples, st.Peak, st.RMS, st.Mean)),
	}
}

func (m Model) renderPrompt() string {
	return ui.PromptStyle.Render("Open "+m.tab.String()+" file: ") + m.promptText + "▌"
}

func (m Model) renderNotification() string {
	n := m.notification
	switch n.Level {
	case analyzer.LevelError:
		return ui.ErrorStyle.Render("✗ ") + ui.ErrorTextStyle.Render(n.Text)
	case analyzer.LevelWarning:
		return ui.WarnTextStyle.Render("! " + n.Text)
	case analyzer.LevelSuccess:
		return ui.SuccessTextStyle.Render("✓ " + n.Text)
	default:
		return ui.InfoTextStyle.Render("· " + n.Text)
	}
}

func footerKey(key, desc string) string {
	return ui.FooterKeyStyle.Render(key) + ui.FooterDescStyle.Render(" "+desc)
}

func (m Model) renderFooter() string {
	var parts []string

	if m.prompting {
		parts = append(parts, footerKey("Enter", "Open"), footerKey("Esc", "Cancel"))
		return strings.Join(parts, "  ")
	}

	parts = append(parts, footerKey("Tab", "Page"))
	if m.busy(m.tab) {
		parts = append(parts, ui.SpinnerStyle.Render("analyzing…"))
		parts = append(parts, footerKey("q", "Quit"))
		return strings.Join(parts, "  ")
	}

	if len(m.sliders(m.tab)) > 0 {
		parts = append(parts, footerKey("↑↓", "Select"), footerKey("←→", "Adjust"))
	}
	parts = append(parts, footerKey("o", "Open"))

	switch m.tab {
	case TabDoppler:
		parts = append(parts, footerKey("g", "Generate"), footerKey("Enter", "Analyze"),
			footerKey("s", "Spectrogram"), footerKey("p", "Play"), footerKey("d", "Download"))
	case TabVoice:
		parts = append(parts, footerKey("Enter", "Analyze"), footerKey("p", "Play"), footerKey("d", "Download"))
	case TabEEG:
		parts = append(parts, footerKey("Enter", "Upload"), footerKey("c", "Classify"),
			footerKey("m", "Polar"), footerKey("e", "Recurrence"))
	case TabECG:
		parts = append(parts, footerKey("Enter", "Upload"), footerKey("c", "Classify"),
			footerKey("m", "Polar"), footerKey("t", "Stats"), footerKey("a", "Analyze"))
	case TabDrone:
		parts = append(parts, footerKey("Enter", "Detect"), footerKey("c", "Classes"))
	}
	parts = append(parts, footerKey("x", "Export"), footerKey("r", "Reset"), footerKey("q", "Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

// fitLines pads or cuts lines to exactly height entries.
func fitLines(lines []string, height int) []string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines[:height]
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
