package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultDetectTimeout bounds drone detection, the only call with a deadline.
const DefaultDetectTimeout = 30 * time.Second

// Client talks to the analysis backend over HTTP. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	logger        *zap.Logger
	detectTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for per-call debug lines.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDetectTimeout overrides DefaultDetectTimeout.
func WithDetectTimeout(d time.Duration) Option {
	return func(c *Client) { c.detectTimeout = d }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		logger:        zap.NewNop(),
		detectTimeout: DefaultDetectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// FilePart is a file attached to a multipart request.
type FilePart struct {
	Name string
	Body io.Reader
}

// Health checks that the backend is up.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/api/health", nil, &out)
	return out, err
}

// ModuleHealth checks one analysis module, one of Modules.
func (c *Client) ModuleHealth(ctx context.Context, module string) (ModuleHealth, error) {
	var out ModuleHealth
	err := c.get(ctx, "/api/"+url.PathEscape(module)+"/health", nil, &out)
	return out, err
}

// GenerateDopplerSound asks the backend to synthesize a passing vehicle.
func (c *Client) GenerateDopplerSound(ctx context.Context, req DopplerRequest) (DopplerSound, error) {
	var out DopplerSound
	err := c.postJSON(ctx, "/api/generate-doppler-sound", req, &out)
	return out, err
}

// AnalyzeVehicleSound uploads a recording for Doppler analysis.
func (c *Client) AnalyzeVehicleSound(ctx context.Context, file FilePart, targetRate int) (VehicleAnalysisResponse, error) {
	var out VehicleAnalysisResponse
	fields := map[string]string{}
	if targetRate > 0 {
		fields["target_sampling_rate"] = strconv.Itoa(targetRate)
	}
	err := c.postMultipart(ctx, "/api/analyze-vehicle-sound", "audio_file", file, fields, &out)
	return out, err
}

// Spectrogram uploads a recording and returns its spectrogram.
func (c *Client) Spectrogram(ctx context.Context, file FilePart) (SpectrogramResponse, error) {
	var out SpectrogramResponse
	err := c.postMultipart(ctx, "/api/get-spectrogram", "audio_file", file, nil, &out)
	return out, err
}

// ResampledAudio returns the vehicle recording resampled to targetRate.
func (c *Client) ResampledAudio(ctx context.Context, file FilePart, targetRate int, mode ResampleMode) (ResampledAudio, error) {
	return c.resample(ctx, "/api/get-resampled-audio", file, targetRate, mode)
}

// AnalyzeVoice uploads a voice clip for the aliasing demonstration.
func (c *Client) AnalyzeVoice(ctx context.Context, file FilePart, targetRate int) (VoiceAnalysisResponse, error) {
	var out VoiceAnalysisResponse
	fields := map[string]string{}
	if targetRate > 0 {
		fields["target_sampling_rate"] = strconv.Itoa(targetRate)
	}
	err := c.postMultipart(ctx, "/api/analyze-voice", "audio_file", file, fields, &out)
	return out, err
}

// ResampledVoice returns the voice clip resampled to targetRate.
func (c *Client) ResampledVoice(ctx context.Context, file FilePart, targetRate int, mode ResampleMode) (ResampledAudio, error) {
	return c.resample(ctx, "/api/get-resampled-voice", file, targetRate, mode)
}

func (c *Client) resample(ctx context.Context, endpoint string, file FilePart, targetRate int, mode ResampleMode) (ResampledAudio, error) {
	var out ResampledAudio
	if mode == "" {
		mode = ModePlayback
	}
	fields := map[string]string{
		"target_sampling_rate": strconv.Itoa(targetRate),
		"mode":                 string(mode),
	}
	err := c.postMultipart(ctx, endpoint, "audio_file", file, fields, &out)
	return out, err
}

// UploadEEG uploads a CSV recording; the backend keeps it for later calls.
func (c *Client) UploadEEG(ctx context.Context, file FilePart, samplingRate int) (EEGUpload, error) {
	var out EEGUpload
	fields := map[string]string{"sampling_rate": strconv.Itoa(samplingRate)}
	err := c.postMultipart(ctx, "/api/eeg/upload", "eeg_file", file, fields, &out)
	return out, err
}

// ClassifyEEG classifies the recording uploaded last.
func (c *Client) ClassifyEEG(ctx context.Context, analysisType string) (EEGClassificationResponse, error) {
	var out EEGClassificationResponse
	var body any = struct{}{}
	if analysisType != "" {
		body = map[string]string{"analysis_type": analysisType}
	}
	err := c.postJSON(ctx, "/api/eeg/classify", body, &out)
	return out, err
}

// PolarData returns per-channel polar series. An empty channels slice asks
// for every channel.
func (c *Client) PolarData(ctx context.Context, mode PolarMode, channels []string, currentTime float64) (map[string]PolarSeries, error) {
	q := url.Values{}
	if len(channels) > 0 {
		q.Set("channels", strings.Join(channels, ","))
	}
	q.Set("current_time", strconv.FormatFloat(currentTime, 'f', -1, 64))

	out := map[string]PolarSeries{}
	err := c.get(ctx, "/api/eeg/get_polar_data/"+url.PathEscape(string(mode)), q, &out)
	return out, err
}

// RecurrenceData compares two channel regions.
func (c *Client) RecurrenceData(ctx context.Context, req RecurrenceRequest) (Recurrence, error) {
	var out Recurrence
	err := c.postJSON(ctx, "/api/eeg/get_recurrence_data", req, &out)
	return out, err
}

// EEGChannels lists the channel names of the loaded recording.
func (c *Client) EEGChannels(ctx context.Context) ([]string, error) {
	var out struct {
		Channels []string `json:"channels"`
	}
	err := c.get(ctx, "/api/eeg/channels", nil, &out)
	return out.Channels, err
}

// ResetEEG drops the recording held by the backend.
func (c *Client) ResetEEG(ctx context.Context) error {
	return c.postJSON(ctx, "/api/eeg/reset", struct{}{}, nil)
}

// UploadECG uploads a 12-lead CSV recording; the backend keeps it for the
// polar and statistics calls.
func (c *Client) UploadECG(ctx context.Context, file FilePart, samplingRate int) (ECGUpload, error) {
	var out ECGUpload
	fields := map[string]string{"sampling_rate": strconv.Itoa(samplingRate)}
	err := c.postMultipart(ctx, "/api/ecg/upload", "ecg_file", file, fields, &out)
	return out, err
}

// AnalyzeECG runs the beat analysis on a recording without keeping it.
func (c *Client) AnalyzeECG(ctx context.Context, file FilePart, samplingRate int) (ECGAnalysis, error) {
	var out ECGAnalysis
	fields := map[string]string{"sampling_rate": strconv.Itoa(samplingRate)}
	err := c.postMultipart(ctx, "/api/ecg/analyze", "ecg_file", file, fields, &out)
	return out, err
}

// ClassifyECG scores the 12 leads, in ECGLeads order, for the classifier's
// conditions.
func (c *Client) ClassifyECG(ctx context.Context, leads [][]float64, samplingRate float64) (ECGClassification, error) {
	var out ECGClassification
	err := c.postJSON(ctx, "/api/ecg/classify", ECGClassifyRequest{ECGData: leads, SamplingRate: samplingRate}, &out)
	return out, err
}

// ECGPolarData returns per-lead polar series of the uploaded recording.
// PolarFixed is a 2 s window starting at currentTime; any other mode covers
// the whole recording.
func (c *Client) ECGPolarData(ctx context.Context, mode PolarMode, currentTime float64) (map[string]PolarSeries, error) {
	q := url.Values{}
	q.Set("current_time", strconv.FormatFloat(currentTime, 'f', -1, 64))

	out := map[string]PolarSeries{}
	err := c.get(ctx, "/api/ecg/polar-data/"+url.PathEscape(string(mode)), q, &out)
	return out, err
}

// ECGStatistics recomputes the beat analysis of the uploaded recording.
func (c *Client) ECGStatistics(ctx context.Context) (ECGStatistics, error) {
	var out ECGStatistics
	err := c.get(ctx, "/api/ecg/statistics", nil, &out)
	return out, err
}

// DetectDrone classifies an audio clip. Unlike the other calls it is bounded
// by the client's detect timeout.
func (c *Client) DetectDrone(ctx context.Context, file FilePart) (DroneDetection, error) {
	ctx, cancel := context.WithTimeout(ctx, c.detectTimeout)
	defer cancel()

	var out DroneDetection
	err := c.postMultipart(ctx, "/api/drone/detect", "file", file, nil, &out)
	return out, err
}

// DroneClasses lists the classifier's label groups.
func (c *Client) DroneClasses(ctx context.Context) (DroneClasses, error) {
	var out DroneClasses
	err := c.get(ctx, "/api/drone/classes", nil, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, endpoint, target, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return &Error{Kind: KindValidation, Endpoint: endpoint, Message: "encode request", Err: err}
	}
	return c.do(ctx, http.MethodPost, endpoint, endpoint, bytes.NewReader(data), "application/json", out)
}

func (c *Client) postMultipart(ctx context.Context, endpoint, fileField string, file FilePart, fields map[string]string, out any) error {
	if file.Body == nil {
		return &Error{Kind: KindValidation, Endpoint: endpoint, Message: "No file selected"}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(fileField, file.Name)
	if err != nil {
		return &Error{Kind: KindValidation, Endpoint: endpoint, Message: "build upload", Err: err}
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return &Error{Kind: KindValidation, Endpoint: endpoint, Message: "read upload", Err: err}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return &Error{Kind: KindValidation, Endpoint: endpoint, Message: "build upload", Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return &Error{Kind: KindValidation, Endpoint: endpoint, Message: "build upload", Err: err}
	}

	return c.do(ctx, http.MethodPost, endpoint, endpoint, &buf, w.FormDataContentType(), out)
}

// do executes one exchange and maps every failure onto an *Error.
func (c *Client) do(ctx context.Context, method, endpoint, target string, body io.Reader, contentType string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+target, body)
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Message: "create request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend unreachable",
			zap.String("endpoint", endpoint),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return &Error{Kind: KindNetwork, Endpoint: endpoint, Message: MsgTimeout, Err: err}
		}
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindBackend, Endpoint: endpoint, StatusCode: resp.StatusCode, Message: backendMessage(data, resp.StatusCode)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return &Error{Kind: KindParse, Endpoint: endpoint, Message: "empty response body"}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &Error{Kind: KindParse, Endpoint: endpoint, Message: "decode response", Err: err}
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = MsgUnknown
		}
		return &Error{Kind: KindBackend, Endpoint: endpoint, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindParse, Endpoint: endpoint, Message: "decode response", Err: err}
	}
	return nil
}

// backendMessage extracts the best human message from an error body.
func backendMessage(data []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
