// Package api provides the HTTP client and wire types for the DSP analysis
// backend. Every call is a single request/response exchange; the backend does
// all signal processing.
package api

import (
	"encoding/json"
	"fmt"
)

// ResampleMode selects how the backend prepares resampled audio.
type ResampleMode string

const (
	ModePlayback ResampleMode = "playback"
	ModeDownload ResampleMode = "download"
)

// PolarMode selects the polar window. The EEG endpoint knows fixed and
// dynamic; the ECG endpoint knows fixed and treats anything else as
// cumulative.
type PolarMode string

const (
	PolarFixed      PolarMode = "fixed"
	PolarDynamic    PolarMode = "dynamic"
	PolarCumulative PolarMode = "cumulative"
)

// Modules are the analysis modules with their own health endpoint.
var Modules = []string{"doppler", "voice", "eeg", "ecg", "drone"}

// envelope is the common success/error wrapper most endpoints use.
type envelope struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WaveformPayload is a time/amplitude pair ready for line charts.
type WaveformPayload struct {
	Time               []float64 `json:"time"`
	Amplitude          []float64 `json:"amplitude"`
	IsAliasing         *bool     `json:"is_aliasing,omitempty"`
	NyquistFrequency   *float64  `json:"nyquist_frequency,omitempty"`
	AnalysisSampleRate *float64  `json:"analysis_sample_rate,omitempty"`
}

// Health is returned by GET /api/health.
type Health struct {
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Version   string              `json:"version"`
	Models    map[string]bool     `json:"models,omitempty"`
	Endpoints map[string][]string `json:"endpoints,omitempty"`
}

// ModuleHealth is returned by GET /api/{module}/health. Endpoints maps an
// operation name to "METHOD path".
type ModuleHealth struct {
	Status           string            `json:"status"`
	Message          string            `json:"message"`
	Endpoints        map[string]string `json:"endpoints,omitempty"`
	ModelLoaded      *bool             `json:"model_loaded,omitempty"`
	DopplerAvailable *bool             `json:"doppler_available,omitempty"`
}

// DopplerRequest is the body of POST /api/generate-doppler-sound.
type DopplerRequest struct {
	BaseFreq     float64 `json:"base_freq"`
	Velocity     float64 `json:"velocity"`
	Duration     float64 `json:"duration"`
	SamplingRate float64 `json:"sampling_rate"`
}

// GenerationParameters echoes what the synthesizer actually used.
type GenerationParameters struct {
	BaseFrequency float64 `json:"base_frequency"`
	Velocity      float64 `json:"velocity"`
	Duration      float64 `json:"duration"`
	SampleRate    float64 `json:"sample_rate"`
}

// DopplerSound is the response of POST /api/generate-doppler-sound.
type DopplerSound struct {
	Success               bool                 `json:"success"`
	AudioData             string               `json:"audio_data"`
	WaveformVisualization WaveformPayload      `json:"waveform_visualization"`
	GenerationParameters  GenerationParameters `json:"generation_parameters"`
}

// SamplingInfo describes the rate the backend analysed at.
type SamplingInfo struct {
	OriginalSampleRate float64  `json:"original_sample_rate"`
	AnalysisSampleRate float64  `json:"analysis_sample_rate"`
	WasResampled       *bool    `json:"was_resampled,omitempty"`
	NyquistFrequency   float64  `json:"nyquist_frequency"`
	HasAliasing        *bool    `json:"has_aliasing,omitempty"`
	MaxFrequency       *float64 `json:"max_frequency,omitempty"`
}

// VehicleAnalysis is the analysis block of POST /api/analyze-vehicle-sound.
type VehicleAnalysis struct {
	IsVehicle         bool             `json:"is_vehicle"`
	EstimatedSpeed    float64          `json:"estimated_speed"`
	SourceFrequency   float64          `json:"source_frequency"`
	ApproachFrequency float64          `json:"approach_frequency"`
	RecedeFrequency   float64          `json:"recede_frequency"`
	ClosestPointTime  float64          `json:"closest_point_time"`
	Confidence        float64          `json:"confidence"`
	SoundType         string           `json:"sound_type"`
	Duration          float64          `json:"duration"`
	AnalysisMethod    string           `json:"analysis_method"`
	Message           string           `json:"message"`
	WaveformData      *WaveformPayload `json:"waveform_data,omitempty"`
	SamplingInfo      *SamplingInfo    `json:"sampling_info,omitempty"`
}

// VehicleAnalysisResponse wraps VehicleAnalysis.
type VehicleAnalysisResponse struct {
	Success  bool            `json:"success"`
	Analysis VehicleAnalysis `json:"analysis"`
	Message  string          `json:"message"`
}

// VoiceAnalysis is the analysis block of POST /api/analyze-voice.
type VoiceAnalysis struct {
	WaveformData   WaveformPayload `json:"waveform_data"`
	SamplingInfo   SamplingInfo    `json:"sampling_info"`
	Duration       float64         `json:"duration"`
	AnalysisMethod string          `json:"analysis_method"`
	Message        string          `json:"message"`
}

// VoiceAnalysisResponse wraps VoiceAnalysis.
type VoiceAnalysisResponse struct {
	Success  bool          `json:"success"`
	Analysis VoiceAnalysis `json:"analysis"`
	Message  string        `json:"message"`
}

// SpectrogramData is an intensity matrix indexed [frequency][time].
type SpectrogramData struct {
	Intensity  [][]float64 `json:"intensity"`
	Time       []float64   `json:"time"`
	Frequency  []float64   `json:"frequency"`
	SampleRate float64     `json:"sample_rate"`
}

// SpectrogramResponse is the response of POST /api/get-spectrogram.
type SpectrogramResponse struct {
	Success     bool            `json:"success"`
	Spectrogram SpectrogramData `json:"spectrogram"`
}

// ResampledAudio is returned by the resampled audio/voice endpoints.
// AudioData is a data URI.
type ResampledAudio struct {
	Success              bool         `json:"success"`
	AudioData            string       `json:"audio_data"`
	OriginalSamplingRate float64      `json:"original_sampling_rate"`
	TargetSamplingRate   float64      `json:"target_sampling_rate"`
	PlaybackSamplingRate float64      `json:"playback_sampling_rate"`
	WasUpsampled         bool         `json:"was_upsampled"`
	WasResampled         bool         `json:"was_resampled"`
	Mode                 ResampleMode `json:"mode"`
}

// EEGData is the parsed recording held by the backend after upload.
type EEGData struct {
	Channels     [][]float64 `json:"channels"`
	ChannelNames []string    `json:"channel_names"`
	TimeData     []float64   `json:"time_data"`
	SamplingRate float64     `json:"sampling_rate"`
	Duration     float64     `json:"duration"`
}

// EEGBasicAnalysis accompanies an upload.
type EEGBasicAnalysis struct {
	SignalQuality float64                       `json:"signal_quality"`
	BandPowers    map[string]map[string]float64 `json:"band_powers"`
	ChannelsCount int                           `json:"channels_count"`
	Duration      float64                       `json:"duration"`
	SamplingRate  float64                       `json:"sampling_rate"`
}

// EEGUpload is the response of POST /api/eeg/upload.
type EEGUpload struct {
	Message  string           `json:"message"`
	Data     EEGData          `json:"data"`
	Analysis EEGBasicAnalysis `json:"analysis"`
}

// SignalQuality is a score with its qualitative label.
type SignalQuality struct {
	Score      float64 `json:"score"`
	Assessment string  `json:"assessment"`
}

// EEGClassification is the classification block of POST /api/eeg/classify.
type EEGClassification struct {
	SignalQuality       SignalQuality                 `json:"signal_quality"`
	BandPowers          map[string]map[string]float64 `json:"band_powers"`
	DominantFrequencies map[string]float64            `json:"dominant_frequencies"`
	ChannelCount        int                           `json:"channel_count"`
	TotalDuration       float64                       `json:"total_duration"`
	AnalysisType        string                        `json:"analysis_type"`
	Insights            []string                      `json:"insights"`
}

// EEGClassificationResponse wraps EEGClassification.
type EEGClassificationResponse struct {
	Success        bool              `json:"success"`
	Classification EEGClassification `json:"classification"`
	Message        string            `json:"message"`
}

// PolarSeries is one channel of polar plot data; Theta is in degrees.
type PolarSeries struct {
	R     []float64 `json:"r"`
	Theta []float64 `json:"theta"`
}

// Region selects a sample range of one channel for recurrence analysis.
type Region struct {
	ChannelName string `json:"channelName"`
	StartIndex  int    `json:"startIndex"`
	EndIndex    int    `json:"endIndex"`
}

// RecurrenceRequest is the body of POST /api/eeg/get_recurrence_data.
type RecurrenceRequest struct {
	Region1   Region  `json:"region1"`
	Region2   Region  `json:"region2"`
	Threshold float64 `json:"threshold,omitempty"`
}

// RecurrenceChannel is one side of a recurrence comparison.
type RecurrenceChannel struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
	Time []float64 `json:"time"`
}

// RecurrenceMetrics are the scalar outputs of a recurrence comparison.
type RecurrenceMetrics struct {
	RecurrenceRate   float64  `json:"recurrenceRate"`
	Determinism      float64  `json:"determinism"`
	CrossCorrelation float64  `json:"crossCorrelation"`
	Correlation      float64  `json:"correlation"`
	Autocorrelation  *float64 `json:"autocorrelation,omitempty"`
}

// Recurrence is the response of POST /api/eeg/get_recurrence_data.
type Recurrence struct {
	Channel1         RecurrenceChannel `json:"channel1"`
	Channel2         RecurrenceChannel `json:"channel2"`
	Metrics          RecurrenceMetrics `json:"metrics"`
	IsSelfComparison bool              `json:"isSelfComparison"`
}

// ClassScore is one (class, score) pair from the drone classifier.
type ClassScore struct {
	Name  string
	Score float64
}

// UnmarshalJSON accepts the backend's [name, score] tuple form as well as
// an object with name/score keys.
func (c *ClassScore) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 2 {
			return fmt.Errorf("class score: want 2 elements, got %d", len(tuple))
		}
		if err := json.Unmarshal(tuple[0], &c.Name); err != nil {
			return fmt.Errorf("class score name: %w", err)
		}
		if err := json.Unmarshal(tuple[1], &c.Score); err != nil {
			return fmt.Errorf("class score value: %w", err)
		}
		return nil
	}

	var obj struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("class score: %w", err)
	}
	c.Name, c.Score = obj.Name, obj.Score
	return nil
}

// MarshalJSON writes the tuple form the backend uses.
func (c ClassScore) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Name, c.Score})
}

// AudioInfo describes the uploaded clip as seen by the backend.
type AudioInfo struct {
	FileType     string `json:"file_type"`
	FileSize     string `json:"file_size"`
	AnalysisTime string `json:"analysis_time"`
}

// DroneDetection is the response of POST /api/drone/detect.
type DroneDetection struct {
	Success          bool               `json:"success"`
	Prediction       string             `json:"prediction"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Confidences      map[string]float64 `json:"confidences"`
	TopClasses       []ClassScore       `json:"top_classes"`
	AudioInfo        AudioInfo          `json:"audio_info"`
}

// DroneClasses is the response of GET /api/drone/classes.
type DroneClasses struct {
	DroneClasses []string `json:"drone_classes"`
	BirdClasses  []string `json:"bird_classes"`
	NoiseClasses []string `json:"noise_classes"`
	OtherClasses []string `json:"other_classes"`
}

// ECGLeads is the lead order of the ECG classifier.
var ECGLeads = []string{"I", "II", "III", "AVR", "AVL", "AVF", "V1", "V2", "V3", "V4", "V5", "V6"}

// ECGFrame is the recording as a table: one row per sample, one column per
// lead.
type ECGFrame struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
	Shape   []int       `json:"shape"`
}

// ECGData is the parsed 12-lead recording held by the backend after upload.
// Leads follow ECGLeads; missing leads are zero-filled.
type ECGData struct {
	Leads          [][]float64 `json:"leads"`
	SamplingRate   float64     `json:"sampling_rate"`
	Duration       float64     `json:"duration"`
	LeadNames      []string    `json:"lead_names"`
	SamplesPerLead int         `json:"samples_per_lead"`
	DataFrame      ECGFrame    `json:"dataframe"`
	Theta          []float64   `json:"theta"`
}

// ECGRhythm is the beat analysis of lead II.
type ECGRhythm struct {
	HeartRate     float64 `json:"heart_rate"`
	RRInterval    float64 `json:"rr_interval"`
	SignalQuality float64 `json:"signal_quality"`
	TotalBeats    int     `json:"total_beats"`
}

// ECGUpload is the response of POST /api/ecg/upload.
type ECGUpload struct {
	Message  string    `json:"message"`
	Data     ECGData   `json:"data"`
	Analysis ECGRhythm `json:"analysis"`
}

// ECGClassifyRequest is the body of POST /api/ecg/classify.
type ECGClassifyRequest struct {
	ECGData      [][]float64 `json:"ecg_data"`
	SamplingRate float64     `json:"sampling_rate"`
}

// ECGPrediction is one condition scored by the classifier.
type ECGPrediction struct {
	Condition   string  `json:"condition"`
	Probability float64 `json:"probability"`
	Confidence  string  `json:"confidence"`
}

// ECGClassification is the response of POST /api/ecg/classify. Predictions
// are sorted by probability, highest first.
type ECGClassification struct {
	Predictions      []ECGPrediction    `json:"predictions"`
	PrimaryDiagnosis string             `json:"primary_diagnosis"`
	IsAbnormal       bool               `json:"is_abnormal"`
	IsNormal         bool               `json:"is_normal"`
	ModelUsed        bool               `json:"model_used"`
	Message          string             `json:"message"`
	Confidence       float64            `json:"confidence"`
	RawProbabilities map[string]float64 `json:"raw_probabilities"`
}

// ECGStatistics is the response of GET /api/ecg/statistics and the analysis
// block of POST /api/ecg/analyze.
type ECGStatistics struct {
	ECGRhythm
	Duration       float64  `json:"duration"`
	SamplingRate   float64  `json:"sampling_rate"`
	LeadsAvailable []string `json:"leads_available,omitempty"`
}

// ECGDataSummary describes a recording analysed without being kept.
type ECGDataSummary struct {
	LeadsCount     int      `json:"leads_count"`
	SamplesPerLead int      `json:"samples_per_lead"`
	LeadNames      []string `json:"lead_names"`
}

// ECGAnalysis is the response of POST /api/ecg/analyze.
type ECGAnalysis struct {
	Message     string         `json:"message"`
	Analysis    ECGStatistics  `json:"analysis"`
	DataSummary ECGDataSummary `json:"data_summary"`
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool { return &b }

// Float64Ptr returns a pointer to a float64 value.
func Float64Ptr(f float64) *float64 { return &f }
