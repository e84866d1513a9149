package analyzer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/audio"
	"github.com/MaiMahmoud182/DSP-task-1/internal/db"
	"github.com/MaiMahmoud182/DSP-task-1/internal/session"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// Vehicle display labels.
const (
	FieldSpeed      = "Estimated speed"
	FieldSource     = "Source frequency"
	FieldApproach   = "Approach frequency"
	FieldRecede     = "Recede frequency"
	FieldClosest    = "Closest approach"
	FieldConfidence = "Confidence"
	FieldSoundType  = "Sound type"
	FieldAliasing   = "Aliasing"
)

// Generator display labels.
const (
	FieldBaseFreq   = "Base frequency"
	FieldVelocity   = "Velocity"
	FieldDuration   = "Duration"
	FieldSampleRate = "Sample rate"
)

// VehicleResult is a vehicle analysis with its aliasing verdict.
type VehicleResult struct {
	Analysis api.VehicleAnalysis
	Aliasing AliasingVerdict
}

// Doppler drives the Doppler page: the synthesizer and the vehicle-pass
// analyzer.
type Doppler struct {
	deps Deps

	Sliders upload.Sliders
	Rate    *upload.Slider

	gen        *session.Session[api.DopplerSound]
	GenDisplay *Display
	Vehicle    *FileAnalyzer[VehicleResult]

	mu          sync.Mutex
	spectrogram *api.SpectrogramData
}

// NewDoppler returns a Doppler controller.
func NewDoppler(deps Deps) *Doppler {
	d := &Doppler{
		deps:    deps,
		Sliders: upload.DefaultSliders(),
		Rate:    upload.RateSlider(),
		gen:     session.New[api.DopplerSound](session.NoFile),
		GenDisplay: NewDisplay(
			Field{Label: FieldBaseFreq, Placeholder: PlaceholderHz},
			Field{Label: FieldVelocity, Placeholder: PlaceholderSpeed},
			Field{Label: FieldDuration, Placeholder: PlaceholderTime},
			Field{Label: FieldSampleRate, Placeholder: PlaceholderHz},
		),
	}
	d.Vehicle = NewFileAnalyzer("doppler", upload.AudioPolicy, NewDisplay(
		Field{Label: FieldSpeed, Placeholder: PlaceholderSpeed},
		Field{Label: FieldSource, Placeholder: PlaceholderHz},
		Field{Label: FieldApproach, Placeholder: PlaceholderHz},
		Field{Label: FieldRecede, Placeholder: PlaceholderHz},
		Field{Label: FieldClosest, Placeholder: PlaceholderTime},
		Field{Label: FieldConfidence, Placeholder: PlaceholderPct},
		Field{Label: FieldSoundType, Placeholder: PlaceholderText},
		Field{Label: FieldAliasing, Placeholder: PlaceholderText},
	), d.analyzeVehicle, presentVehicle, deps)
	return d
}

// Generator exposes the synthesizer session.
func (d *Doppler) Generator() *session.Session[api.DopplerSound] { return d.gen }

// Busy reports whether either half of the page is waiting on the backend.
func (d *Doppler) Busy() bool { return d.gen.Busy() || d.Vehicle.Busy() }

// Generate synthesizes a passing vehicle and caches the audio for playback.
func (d *Doppler) Generate(ctx context.Context, cfg upload.SamplingConfiguration) (api.DopplerSound, error) {
	tk, err := d.gen.Begin()
	if err != nil {
		return api.DopplerSound{}, err
	}
	id := d.gen.ID()

	out, err := d.deps.Client.GenerateDopplerSound(ctx, api.DopplerRequest{
		BaseFreq:     cfg.BaseFrequency,
		Velocity:     cfg.Velocity,
		Duration:     cfg.Duration,
		SamplingRate: cfg.SamplingRate,
	})
	if ferr := d.gen.FinishWith(tk, out, err, d.presentGenerated); ferr != nil {
		logFailure(d.deps.logger(), "doppler", "generate", ferr)
		return api.DopplerSound{}, ferr
	}

	if out.AudioData != "" {
		path, err := audio.WriteTemp(out.AudioData)
		if err != nil {
			logFailure(d.deps.logger(), "doppler", "cache audio", err)
		} else if err := d.gen.CacheAudioFor(tk, path); err != nil {
			logFailure(d.deps.logger(), "doppler", "cache audio", err)
		}
	}

	p := out.GenerationParameters
	summary := fmt.Sprintf("generated %.0f Hz at %.0f km/h", p.BaseFrequency, p.Velocity)
	recordHistory(d.deps, db.Entry{SessionID: id, Analyzer: "doppler", Summary: summary})
	d.deps.logger().Info("doppler sound generated",
		zap.Float64("base_freq", p.BaseFrequency),
		zap.Float64("velocity", p.Velocity),
		zap.Int("samples", len(out.WaveformVisualization.Amplitude)))
	return out, nil
}

func (d *Doppler) presentGenerated(out api.DopplerSound) {
	p := out.GenerationParameters
	d.GenDisplay.Set(FieldBaseFreq, fmt.Sprintf("%.0f Hz", p.BaseFrequency))
	d.GenDisplay.Set(FieldVelocity, fmt.Sprintf("%.0f km/h", p.Velocity))
	d.GenDisplay.Set(FieldDuration, fmt.Sprintf("%.1f s", p.Duration))
	d.GenDisplay.Set(FieldSampleRate, fmt.Sprintf("%.0f Hz", p.SampleRate))
}

// AnalyzeVehicle uploads the selected recording.
func (d *Doppler) AnalyzeVehicle(ctx context.Context) (VehicleResult, error) {
	return d.Vehicle.Analyze(ctx)
}

func (d *Doppler) analyzeVehicle(ctx context.Context, file api.FilePart) (VehicleResult, error) {
	resp, err := d.deps.Client.AnalyzeVehicleSound(ctx, file, d.Rate.Int())
	if err != nil {
		return VehicleResult{}, err
	}
	a := resp.Analysis

	var flag *bool
	rate := float64(d.Rate.Int())
	if a.SamplingInfo != nil {
		flag = a.SamplingInfo.HasAliasing
		if a.SamplingInfo.AnalysisSampleRate > 0 {
			rate = a.SamplingInfo.AnalysisSampleRate
		}
	}
	if flag == nil && a.WaveformData != nil {
		flag = a.WaveformData.IsAliasing
	}
	v := JudgeAliasing(flag, a.SourceFrequency, rate)
	if v.Disagree {
		d.deps.logger().Warn("aliasing verdict disagrees with backend",
			zap.Bool("backend", *v.Backend),
			zap.Bool("client", v.Client),
			zap.Float64("source_frequency", a.SourceFrequency),
			zap.Float64("sampling_rate", rate))
	}
	return VehicleResult{Analysis: a, Aliasing: v}, nil
}

func presentVehicle(d *Display, r VehicleResult) string {
	a := r.Analysis
	d.Set(FieldSpeed, fmt.Sprintf("%.1f km/h", a.EstimatedSpeed))
	d.Set(FieldSource, fmt.Sprintf("%.1f Hz", a.SourceFrequency))
	d.Set(FieldApproach, fmt.Sprintf("%.1f Hz", a.ApproachFrequency))
	d.Set(FieldRecede, fmt.Sprintf("%.1f Hz", a.RecedeFrequency))
	d.Set(FieldClosest, fmt.Sprintf("%.2f s", a.ClosestPointTime))
	d.Set(FieldConfidence, fmt.Sprintf("%.0f%%", a.Confidence*100))
	if a.SoundType != "" {
		d.Set(FieldSoundType, a.SoundType)
	}
	d.Set(FieldAliasing, r.Aliasing.Label())

	if !a.IsVehicle {
		return "no vehicle detected"
	}
	return fmt.Sprintf("%.1f km/h, source %.1f Hz", a.EstimatedSpeed, a.SourceFrequency)
}

// Spectrogram fetches the spectrogram of the selected recording.
func (d *Doppler) Spectrogram(ctx context.Context) (api.SpectrogramData, error) {
	resp, err := followUpFile(ctx, d.Vehicle, "spectrogram", func(ctx context.Context, f api.FilePart) (api.SpectrogramResponse, error) {
		return d.deps.Client.Spectrogram(ctx, f)
	}, func(_ *VehicleResult, resp api.SpectrogramResponse) {
		d.mu.Lock()
		d.spectrogram = &resp.Spectrogram
		d.mu.Unlock()
	})
	if err != nil {
		return api.SpectrogramData{}, err
	}
	return resp.Spectrogram, nil
}

// LastSpectrogram returns the most recent spectrogram, if any.
func (d *Doppler) LastSpectrogram() (api.SpectrogramData, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.spectrogram == nil {
		return api.SpectrogramData{}, false
	}
	return *d.spectrogram, true
}

// Resample fetches the selected recording at the target rate. Playback
// caches a temp file; download saves into the output directory. The path of
// the written file is returned.
func (d *Doppler) Resample(ctx context.Context, mode api.ResampleMode) (string, error) {
	return resample(ctx, d.Vehicle, d.deps, d.Rate.Int(), mode, d.deps.Client.ResampledAudio)
}

// Reset clears both halves of the page.
func (d *Doppler) Reset() error {
	genErr := d.gen.ResetWith(d.GenDisplay.Reset)
	err := d.Vehicle.resetWith(func() {
		d.mu.Lock()
		d.spectrogram = nil
		d.mu.Unlock()
	})
	if err != nil {
		return err
	}
	return genErr
}

type resampleFunc func(ctx context.Context, file api.FilePart, rate int, mode api.ResampleMode) (api.ResampledAudio, error)

func resample[R any](ctx context.Context, a *FileAnalyzer[R], deps Deps, rate int, mode api.ResampleMode, call resampleFunc) (string, error) {
	f := a.session.File()
	out, from, err := followUp(ctx, a, "resample", func(ctx context.Context) (api.ResampledAudio, error) {
		return withFile(ctx, f, func(ctx context.Context, file api.FilePart) (api.ResampledAudio, error) {
			return call(ctx, file, rate, mode)
		})
	}, nil)
	if err != nil {
		return "", err
	}

	if mode == api.ModeDownload {
		path, err := audio.Save(out.AudioData, deps.OutputDir, fmt.Sprintf("resampled_%dHz", rate))
		if err != nil {
			return "", err
		}
		deps.logger().Info("resampled audio saved", zap.String("analyzer", a.name), zap.String("path", path))
		return path, nil
	}

	path, err := audio.WriteTemp(out.AudioData)
	if err != nil {
		return "", err
	}
	if err := a.session.CacheAudioFor(from.ticket, path); err != nil {
		a.logFailure("cache audio", err)
		return "", err
	}
	return path, nil
}
