package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/ui"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// Voice display labels.
const (
	FieldOriginalRate = "Original rate"
	FieldAnalysisRate = "Analysis rate"
	FieldNyquist      = "Nyquist frequency"
	FieldMaxFrequency = "Max frequency"
	FieldLength       = "Length"
)

// VoiceResult is a voice analysis with its aliasing verdict.
type VoiceResult struct {
	Analysis api.VoiceAnalysis
	Aliasing AliasingVerdict
}

// Voice drives the voice aliasing page.
type Voice struct {
	*FileAnalyzer[VoiceResult]

	deps Deps
	Rate *upload.Slider
}

// NewVoice returns a Voice controller.
func NewVoice(deps Deps) *Voice {
	v := &Voice{deps: deps, Rate: upload.RateSlider()}
	v.FileAnalyzer = NewFileAnalyzer("voice", upload.AudioPolicy, NewDisplay(
		Field{Label: FieldOriginalRate, Placeholder: PlaceholderHz},
		Field{Label: FieldAnalysisRate, Placeholder: PlaceholderHz},
		Field{Label: FieldNyquist, Placeholder: PlaceholderHz},
		Field{Label: FieldMaxFrequency, Placeholder: PlaceholderHz},
		Field{Label: FieldLength, Placeholder: PlaceholderText},
		Field{Label: FieldAliasing, Placeholder: PlaceholderText},
	), v.analyze, presentVoice, deps)
	return v
}

func (v *Voice) analyze(ctx context.Context, file api.FilePart) (VoiceResult, error) {
	resp, err := v.deps.Client.AnalyzeVoice(ctx, file, v.Rate.Int())
	if err != nil {
		return VoiceResult{}, err
	}
	a := resp.Analysis

	flag := a.WaveformData.IsAliasing
	if flag == nil {
		flag = a.SamplingInfo.HasAliasing
	}
	var maxFreq float64
	if a.SamplingInfo.MaxFrequency != nil {
		maxFreq = *a.SamplingInfo.MaxFrequency
	}
	verdict := JudgeAliasing(flag, maxFreq, a.SamplingInfo.AnalysisSampleRate)
	if verdict.Disagree {
		v.deps.logger().Warn("aliasing verdict disagrees with backend",
			zap.Bool("backend", *verdict.Backend),
			zap.Bool("client", verdict.Client),
			zap.Float64("max_frequency", maxFreq),
			zap.Float64("sampling_rate", a.SamplingInfo.AnalysisSampleRate))
	}
	return VoiceResult{Analysis: a, Aliasing: verdict}, nil
}

func presentVoice(d *Display, r VoiceResult) string {
	info := r.Analysis.SamplingInfo
	d.Set(FieldOriginalRate, fmt.Sprintf("%.0f Hz", info.OriginalSampleRate))
	d.Set(FieldAnalysisRate, fmt.Sprintf("%.0f Hz", info.AnalysisSampleRate))
	d.Set(FieldNyquist, fmt.Sprintf("%.0f Hz", info.NyquistFrequency))
	if info.MaxFrequency != nil {
		d.Set(FieldMaxFrequency, fmt.Sprintf("%.0f Hz", *info.MaxFrequency))
	}
	d.Set(FieldLength, ui.FormatDuration(r.Analysis.Duration))
	d.Set(FieldAliasing, r.Aliasing.Label())
	return fmt.Sprintf("%.0f Hz: %s", info.AnalysisSampleRate, r.Aliasing.Label())
}

// Resample fetches the clip at the target rate for playback or download.
func (v *Voice) Resample(ctx context.Context, mode api.ResampleMode) (string, error) {
	return resample(ctx, v.FileAnalyzer, v.deps, v.Rate.Int(), mode, v.deps.Client.ResampledVoice)
}
