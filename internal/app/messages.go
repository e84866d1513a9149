package app

import (
	"github.com/MaiMahmoud182/DSP-task-1/internal/analyzer"
	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/db"
)

// HealthMsg carries the result of the startup health check. Modules maps
// each module to its reported status.
type HealthMsg struct {
	Health  api.Health
	Modules map[string]string
	Err     error
}

// FileSelectedMsg is sent after a path from the prompt was validated.
type FileSelectedMsg struct {
	Tab          Tab
	Notification analyzer.Notification
	Err          error
}

// GeneratedMsg carries a synthesized Doppler sound.
type GeneratedMsg struct {
	Sound api.DopplerSound
	Err   error
}

// VehicleAnalyzedMsg carries a vehicle-pass analysis.
type VehicleAnalyzedMsg struct {
	Result analyzer.VehicleResult
	Err    error
}

// SpectrogramMsg carries the spectrogram of the vehicle recording.
type SpectrogramMsg struct {
	Data api.SpectrogramData
	Err  error
}

// ResampledMsg is sent when resampled audio was written to Path.
type ResampledMsg struct {
	Tab  Tab
	Mode api.ResampleMode
	Path string
	Err  error
}

// VoiceAnalyzedMsg carries a voice aliasing analysis.
type VoiceAnalyzedMsg struct {
	Result analyzer.VoiceResult
	Err    error
}

// EEGUploadedMsg carries the summary of an uploaded recording.
type EEGUploadedMsg struct {
	Result analyzer.EEGResult
	Err    error
}

// EEGClassifiedMsg carries band powers and insights.
type EEGClassifiedMsg struct {
	Classification api.EEGClassification
	Err            error
}

// PolarMsg carries polar series for every channel.
type PolarMsg struct {
	Mode   api.PolarMode
	Series map[string]api.PolarSeries
	Err    error
}

// RecurrenceMsg carries a channel comparison.
type RecurrenceMsg struct {
	Recurrence api.Recurrence
	Err        error
}

// ECGUploadedMsg carries the summary of an uploaded 12-lead recording.
type ECGUploadedMsg struct {
	Result analyzer.ECGResult
	Err    error
}

// ECGClassifiedMsg carries the classifier's verdict.
type ECGClassifiedMsg struct {
	Classification api.ECGClassification
	Err            error
}

// ECGPolarMsg carries polar series for every lead.
type ECGPolarMsg struct {
	Mode   api.PolarMode
	Series map[string]api.PolarSeries
	Err    error
}

// ECGStatsMsg carries a beat analysis, of the uploaded recording or of the
// selected file.
type ECGStatsMsg struct {
	Statistics api.ECGStatistics
	Err        error
}

// DroneDetectedMsg carries a drone classification.
type DroneDetectedMsg struct {
	Detection api.DroneDetection
	Err       error
}

// DroneClassesMsg carries the classifier's label groups.
type DroneClassesMsg struct {
	Classes api.DroneClasses
	Err     error
}

// ResetDoneMsg is sent after a tab was reset.
type ResetDoneMsg struct {
	Tab Tab
	Err error
}

// ExportedMsg lists the chart files written by an export.
type ExportedMsg struct {
	Paths []string
	Err   error
}

// HistoryLoadedMsg carries the most recent analyses from SQLite.
type HistoryLoadedMsg struct {
	Entries []db.Entry
}

// ClearNotificationMsg clears a notification after a timeout. Seq ties it
// to the notification it was scheduled for.
type ClearNotificationMsg struct {
	Seq int
}
