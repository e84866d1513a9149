package mockbackend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/audio"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func startServer(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	s := New(nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, api.New(ts.URL)
}

func file(name, body string) api.FilePart {
	return api.FilePart{Name: name, Body: strings.NewReader(body)}
}

const eegCSV = `time,Fp1,Fp2
0,1.0,0.5
0.004,2.0,0.1
0.008,-1.0,0.3
0.012,0.5,-0.2
`

func TestHealth(t *testing.T) {
	_, c := startServer(t)
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", h.Status)
	}
}

func TestModuleHealth(t *testing.T) {
	_, c := startServer(t)
	for _, m := range api.Modules {
		h, err := c.ModuleHealth(context.Background(), m)
		if err != nil {
			t.Errorf("%s: %v", m, err)
			continue
		}
		if h.Status != "healthy" || h.Message == "" {
			t.Errorf("%s health = %+v", m, h)
		}
	}
	h, _ := c.Health(context.Background())
	if !h.Models["ecg_model_loaded"] || len(h.Endpoints["ecg"]) == 0 {
		t.Errorf("root health = %+v", h)
	}
}

func TestGenerateDopplerValidation(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	_, err := c.GenerateDopplerSound(ctx, api.DopplerRequest{BaseFreq: 50, Velocity: 60, Duration: 6, SamplingRate: 44100})
	if err == nil || api.UserMessage(err) != "Base frequency must be between 80 and 1000 Hz" {
		t.Errorf("low base freq err = %v", err)
	}
	_, err = c.GenerateDopplerSound(ctx, api.DopplerRequest{BaseFreq: 120, Velocity: 501, Duration: 6, SamplingRate: 44100})
	if err == nil || api.UserMessage(err) != "Vehicle velocity must be between 0 and 500 km/h" {
		t.Errorf("high velocity err = %v", err)
	}
}

func TestGenerateDoppler(t *testing.T) {
	_, c := startServer(t)
	out, err := c.GenerateDopplerSound(context.Background(), api.DopplerRequest{BaseFreq: 200, Velocity: 90, Duration: 3, SamplingRate: 22050})
	if err != nil {
		t.Fatalf("GenerateDopplerSound: %v", err)
	}
	if out.GenerationParameters.BaseFrequency != 200 {
		t.Errorf("BaseFrequency = %v, want 200", out.GenerationParameters.BaseFrequency)
	}
	if len(out.WaveformVisualization.Time) != 400 {
		t.Errorf("waveform points = %d, want 400", len(out.WaveformVisualization.Time))
	}
	mt, data, err := audio.ParseDataURI(out.AudioData)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if mt != "audio/wav" || !strings.HasPrefix(string(data), "RIFF") {
		t.Errorf("audio = %s, %q...", mt, data[:4])
	}
}

func TestAnalyzeVehicleRejectsExtension(t *testing.T) {
	_, c := startServer(t)
	_, err := c.AnalyzeVehicleSound(context.Background(), file("notes.txt", "x"), 0)
	if !api.IsKind(err, api.KindBackend) {
		t.Fatalf("err = %v, want backend error", err)
	}
	if api.UserMessage(err) != "Unsupported file type: .txt" {
		t.Errorf("message = %q", api.UserMessage(err))
	}
}

func TestAnalyzeVehicle(t *testing.T) {
	_, c := startServer(t)
	out, err := c.AnalyzeVehicleSound(context.Background(), file("car.wav", "RIFF"), 8000)
	if err != nil {
		t.Fatalf("AnalyzeVehicleSound: %v", err)
	}
	a := out.Analysis
	if !a.IsVehicle || a.SourceFrequency != 440 {
		t.Errorf("analysis = %+v", a)
	}
	if a.SamplingInfo == nil || a.SamplingInfo.AnalysisSampleRate != 8000 {
		t.Errorf("sampling info = %+v", a.SamplingInfo)
	}
	if a.SamplingInfo.HasAliasing != nil {
		t.Error("vehicle fixture should omit has_aliasing")
	}
}

func TestTargetRateRange(t *testing.T) {
	_, c := startServer(t)
	_, err := c.AnalyzeVoice(context.Background(), file("voice.wav", "RIFF"), 50)
	if api.UserMessage(err) != "Target sampling rate must be between 100 and 48000 Hz" {
		t.Errorf("err = %v", err)
	}
}

func TestAnalyzeVoiceAliasingFlag(t *testing.T) {
	_, c := startServer(t)
	out, err := c.AnalyzeVoice(context.Background(), file("voice.wav", "RIFF"), 4000)
	if err != nil {
		t.Fatalf("AnalyzeVoice: %v", err)
	}
	wf := out.Analysis.WaveformData
	if wf.IsAliasing == nil || !*wf.IsAliasing {
		t.Error("4000 Hz voice should be flagged as aliasing")
	}
	if out.Analysis.SamplingInfo.NyquistFrequency != 2000 {
		t.Errorf("Nyquist = %v, want 2000", out.Analysis.SamplingInfo.NyquistFrequency)
	}
}

func TestResampleModes(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	out, err := c.ResampledVoice(ctx, file("voice.wav", "RIFF"), 2000, "")
	if err != nil {
		t.Fatalf("ResampledVoice: %v", err)
	}
	if out.Mode != api.ModePlayback || !out.WasUpsampled || out.PlaybackSamplingRate != fixtureRate {
		t.Errorf("playback = %+v", out)
	}

	out, err = c.ResampledAudio(ctx, file("car.wav", "RIFF"), 2000, api.ModeDownload)
	if err != nil {
		t.Fatalf("ResampledAudio: %v", err)
	}
	if out.Mode != api.ModeDownload || out.WasUpsampled || out.PlaybackSamplingRate != 2000 {
		t.Errorf("download = %+v", out)
	}
}

func TestSpectrogramShape(t *testing.T) {
	_, c := startServer(t)
	out, err := c.Spectrogram(context.Background(), file("car.wav", "RIFF"))
	if err != nil {
		t.Fatalf("Spectrogram: %v", err)
	}
	s := out.Spectrogram
	if len(s.Intensity) != len(s.Frequency) || len(s.Intensity[0]) != len(s.Time) {
		t.Errorf("shape = %dx%d, axes %d/%d", len(s.Intensity), len(s.Intensity[0]), len(s.Frequency), len(s.Time))
	}
}

func TestEEGRequiresUpload(t *testing.T) {
	_, c := startServer(t)
	_, err := c.ClassifyEEG(context.Background(), "")
	if api.UserMessage(err) != noEEG {
		t.Errorf("err = %v, want %q", err, noEEG)
	}
}

func TestEEGFlow(t *testing.T) {
	s, c := startServer(t)
	ctx := context.Background()

	up, err := c.UploadEEG(ctx, file("session.csv", eegCSV), 250)
	if err != nil {
		t.Fatalf("UploadEEG: %v", err)
	}
	if got := up.Data.ChannelNames; len(got) != 2 || got[0] != "Fp1" {
		t.Errorf("channels = %v", got)
	}
	if up.Data.Duration != 4.0/250 {
		t.Errorf("duration = %v", up.Data.Duration)
	}

	names, err := c.EEGChannels(ctx)
	if err != nil || len(names) != 2 {
		t.Errorf("EEGChannels = %v, %v", names, err)
	}

	cls, err := c.ClassifyEEG(ctx, "detailed")
	if err != nil {
		t.Fatalf("ClassifyEEG: %v", err)
	}
	if cls.Classification.AnalysisType != "detailed" || len(cls.Classification.Insights) != 2 {
		t.Errorf("classification = %+v", cls.Classification)
	}

	polar, err := c.PolarData(ctx, api.PolarFixed, []string{"Fp2"}, 0)
	if err != nil {
		t.Fatalf("PolarData: %v", err)
	}
	if len(polar) != 1 || len(polar["Fp2"].R) != 4 || polar["Fp2"].Theta[3] != 360 {
		t.Errorf("polar = %+v", polar)
	}

	rec, err := c.RecurrenceData(ctx, api.RecurrenceRequest{
		Region1:   api.Region{ChannelName: "Fp1", StartIndex: 0, EndIndex: 4},
		Region2:   api.Region{ChannelName: "Fp1", StartIndex: 0, EndIndex: 4},
		Threshold: 0.1,
	})
	if err != nil {
		t.Fatalf("RecurrenceData: %v", err)
	}
	if !rec.IsSelfComparison || rec.Metrics.Autocorrelation == nil {
		t.Errorf("recurrence = %+v", rec)
	}

	if err := c.ResetEEG(ctx); err != nil {
		t.Fatalf("ResetEEG: %v", err)
	}
	s.mu.Lock()
	held := s.eeg
	s.mu.Unlock()
	if held != nil {
		t.Error("reset kept the recording")
	}
}

func TestEEGUploadRejectsType(t *testing.T) {
	_, c := startServer(t)
	_, err := c.UploadEEG(context.Background(), file("scan.edf", "x"), 250)
	if api.UserMessage(err) != "Invalid file type" {
		t.Errorf("err = %v", err)
	}
	_, err = c.UploadEEG(context.Background(), file("bad.csv", "only\n"), 250)
	if api.UserMessage(err) != "Failed to parse EEG file" {
		t.Errorf("err = %v", err)
	}
}

func TestDetectDrone(t *testing.T) {
	_, c := startServer(t)
	out, err := c.DetectDrone(context.Background(), file("my_drone.wav", "RIFF"))
	if err != nil {
		t.Fatalf("DetectDrone: %v", err)
	}
	if out.Prediction != "DRONE" {
		t.Errorf("Prediction = %q, want DRONE", out.Prediction)
	}
	if len(out.TopClasses) == 0 || out.TopClasses[0].Name != "Aircraft" {
		t.Errorf("top classes = %+v", out.TopClasses)
	}
	if out.Confidences["Aircraft"] != 0.52 {
		t.Errorf("confidences[Aircraft] = %v", out.Confidences["Aircraft"])
	}

	if _, err := c.DetectDrone(context.Background(), file("clip.m4a", "x")); err != nil {
		t.Errorf("m4a: %v", err)
	}
	_, err = c.DetectDrone(context.Background(), file("clip.aac", "x"))
	if api.UserMessage(err) != "Unsupported file format. Use MP3, WAV, OGG, M4A or FLAC" {
		t.Errorf("aac err = %v", err)
	}
}

func TestDroneClasses(t *testing.T) {
	_, c := startServer(t)
	out, err := c.DroneClasses(context.Background())
	if err != nil {
		t.Fatalf("DroneClasses: %v", err)
	}
	if len(out.DroneClasses) == 0 || len(out.BirdClasses) == 0 {
		t.Errorf("classes = %+v", out)
	}
}

func TestNoRoute(t *testing.T) {
	s := New(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Endpoint not found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// ecgCSV writes leads I and II as a spike train with one beat every beat
// seconds, plus a column the parser ignores.
func ecgCSV(rate int, seconds, beat float64) string {
	var b strings.Builder
	b.WriteString("time,i,II\n")
	period := int(beat * float64(rate))
	for i := 0; i < int(seconds*float64(rate)); i++ {
		v := 0.0
		if i >= period/2 && (i-period/2)%period == 0 {
			v = 1.5
		}
		fmt.Fprintf(&b, "%d,%g,%g\n", i, v, v)
	}
	return b.String()
}

func TestECGRequiresUpload(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()
	if _, err := c.ECGStatistics(ctx); api.UserMessage(err) != noECG {
		t.Errorf("statistics err = %v", err)
	}
	_, err := c.ECGPolarData(ctx, api.PolarFixed, 0)
	if api.UserMessage(err) != "No ECG data loaded. Please upload a file first." {
		t.Errorf("polar err = %v", err)
	}
}

func TestECGFlow(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()

	up, err := c.UploadECG(ctx, file("leads.csv", ecgCSV(360, 10, 0.8)), 360)
	if err != nil {
		t.Fatalf("UploadECG: %v", err)
	}
	if up.Data.SamplesPerLead != 3600 || len(up.Data.Leads) != 12 || up.Data.Duration != 10 {
		t.Errorf("data = %d samples, %d leads, %v s", up.Data.SamplesPerLead, len(up.Data.Leads), up.Data.Duration)
	}
	if up.Data.Leads[5][0] != 0 || up.Data.DataFrame.Shape[1] != 12 {
		t.Error("missing leads should be zero-filled")
	}
	a := up.Analysis
	if a.HeartRate != 75 || a.RRInterval != 800 || a.TotalBeats != 12 || a.SignalQuality != 41 {
		t.Errorf("analysis = %+v", a)
	}

	stats, err := c.ECGStatistics(ctx)
	if err != nil {
		t.Fatalf("ECGStatistics: %v", err)
	}
	if stats.HeartRate != 75 || len(stats.LeadsAvailable) != 12 || stats.SamplingRate != 360 {
		t.Errorf("statistics = %+v", stats)
	}

	fixed, err := c.ECGPolarData(ctx, api.PolarFixed, 2)
	if err != nil {
		t.Fatalf("ECGPolarData: %v", err)
	}
	if got := fixed["II"]; len(got.R) != 720 || got.Theta[0] != 360*720.0/3599 {
		t.Errorf("fixed window = %d samples from theta %v", len(got.R), got.Theta[0])
	}
	end, _ := c.ECGPolarData(ctx, api.PolarFixed, 9.5)
	if len(end["II"].R) != 720 {
		t.Errorf("window near the end = %d samples, want 720", len(end["II"].R))
	}
	all, _ := c.ECGPolarData(ctx, api.PolarCumulative, 2)
	if len(all["V6"].R) != 3600 {
		t.Errorf("cumulative = %d samples", len(all["V6"].R))
	}

	cls, err := c.ClassifyECG(ctx, up.Data.Leads, 360)
	if err != nil {
		t.Fatalf("ClassifyECG: %v", err)
	}
	if !cls.IsNormal || cls.PrimaryDiagnosis != "Normal ECG" || len(cls.Predictions) != 6 {
		t.Errorf("classification = %+v", cls)
	}
}

func TestClassifyECGTachycardia(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()
	up, err := c.UploadECG(ctx, file("fast.csv", ecgCSV(360, 10, 0.5)), 360)
	if err != nil {
		t.Fatalf("UploadECG: %v", err)
	}
	if up.Analysis.HeartRate != 120 {
		t.Errorf("heart rate = %v, want 120", up.Analysis.HeartRate)
	}

	cls, err := c.ClassifyECG(ctx, up.Data.Leads, 360)
	if err != nil {
		t.Fatalf("ClassifyECG: %v", err)
	}
	if !cls.IsAbnormal || cls.PrimaryDiagnosis != "ST" || cls.Predictions[0].Condition != "ST" || cls.Predictions[0].Confidence != "High" {
		t.Errorf("classification = %+v", cls)
	}
}

func TestClassifyECGValidation(t *testing.T) {
	_, c := startServer(t)
	_, err := c.ClassifyECG(context.Background(), make([][]float64, 3), 360)
	if api.UserMessage(err) != "Expected 12 leads of ECG data" {
		t.Errorf("3 leads err = %v", err)
	}
	_, err = c.ClassifyECG(context.Background(), nil, 360)
	if api.UserMessage(err) != "No ECG data provided" {
		t.Errorf("nil leads err = %v", err)
	}
}

func TestECGUploadErrors(t *testing.T) {
	_, c := startServer(t)
	ctx := context.Background()
	if _, err := c.UploadECG(ctx, file("leads.edf", "x"), 360); api.UserMessage(err) != "Invalid file type" {
		t.Errorf("edf err = %v", err)
	}
	if _, err := c.UploadECG(ctx, file("leads.csv", "I,II\n"), 360); api.UserMessage(err) != "Failed to parse ECG file" {
		t.Errorf("header only err = %v", err)
	}
}

func TestAnalyzeECGKeepsNothing(t *testing.T) {
	s, c := startServer(t)
	out, err := c.AnalyzeECG(context.Background(), file("leads.csv", ecgCSV(360, 5, 0.8)), 360)
	if err != nil {
		t.Fatalf("AnalyzeECG: %v", err)
	}
	if out.DataSummary.LeadsCount != 12 || out.DataSummary.SamplesPerLead != 1800 || out.Analysis.Duration != 5 {
		t.Errorf("analysis = %+v", out)
	}
	s.mu.Lock()
	held := s.ecg
	s.mu.Unlock()
	if held != nil {
		t.Error("analyze kept the recording")
	}
}
