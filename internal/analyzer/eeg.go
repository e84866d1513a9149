package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/ui"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// EEG display labels.
const (
	FieldChannels     = "Channels"
	FieldEEGDuration  = "Duration"
	FieldEEGRate      = "Sampling rate"
	FieldQuality      = "Signal quality"
	FieldAssessment   = "Assessment"
	FieldDominantBand = "Dominant band"
)

// ErrNotUploaded is returned by EEG follow-up calls before a successful upload.
var ErrNotUploaded = errors.New("Please upload an EEG file first")

// EEGResult accumulates everything the EEG page has fetched for the current
// recording.
type EEGResult struct {
	Upload         api.EEGUpload
	Classification *api.EEGClassification
	PolarMode      api.PolarMode
	Polar          map[string]api.PolarSeries
	Recurrence     *api.Recurrence
}

// EEG drives the EEG page.
type EEG struct {
	*FileAnalyzer[EEGResult]

	deps Deps
	Rate *upload.Slider
}

// NewEEG returns an EEG controller.
func NewEEG(deps Deps) *EEG {
	e := &EEG{deps: deps, Rate: upload.EEGRateSlider()}
	e.FileAnalyzer = NewFileAnalyzer("eeg", upload.EEGPolicy, NewDisplay(
		Field{Label: FieldChannels, Placeholder: PlaceholderText},
		Field{Label: FieldEEGDuration, Placeholder: PlaceholderText},
		Field{Label: FieldEEGRate, Placeholder: PlaceholderHz},
		Field{Label: FieldQuality, Placeholder: PlaceholderPct},
		Field{Label: FieldAssessment, Placeholder: PlaceholderText},
		Field{Label: FieldDominantBand, Placeholder: PlaceholderText},
	), e.upload, presentEEGUpload, deps)
	return e
}

// Upload sends the selected recording; the backend keeps it for the
// follow-up calls.
func (e *EEG) Upload(ctx context.Context) (EEGResult, error) {
	return e.Analyze(ctx)
}

func (e *EEG) upload(ctx context.Context, file api.FilePart) (EEGResult, error) {
	out, err := e.deps.Client.UploadEEG(ctx, file, e.Rate.Int())
	if err != nil {
		return EEGResult{}, err
	}
	return EEGResult{Upload: out}, nil
}

func presentEEGUpload(d *Display, r EEGResult) string {
	data := r.Upload.Data
	d.Set(FieldChannels, fmt.Sprintf("%d (%s)", len(data.ChannelNames), strings.Join(data.ChannelNames, ", ")))
	d.Set(FieldEEGDuration, ui.FormatDuration(data.Duration))
	d.Set(FieldEEGRate, fmt.Sprintf("%.0f Hz", data.SamplingRate))
	d.Set(FieldQuality, fmt.Sprintf("%.0f%%", r.Upload.Analysis.SignalQuality))
	return fmt.Sprintf("%d channels, %s", len(data.ChannelNames), ui.FormatDuration(data.Duration))
}

// requireUpload fails unless a recording has been uploaded in this session.
func (e *EEG) requireUpload() error {
	if _, ok := e.session.Result(); !ok {
		return ErrNotUploaded
	}
	return nil
}

// Classify asks for band powers, dominant frequencies and insights.
func (e *EEG) Classify(ctx context.Context, analysisType string) (api.EEGClassification, error) {
	if err := e.requireUpload(); err != nil {
		return api.EEGClassification{}, err
	}
	var c api.EEGClassification
	_, from, err := followUp(ctx, e.FileAnalyzer, "classify", func(ctx context.Context) (api.EEGClassificationResponse, error) {
		return e.deps.Client.ClassifyEEG(ctx, analysisType)
	}, func(r *EEGResult, resp api.EEGClassificationResponse) {
		c = resp.Classification
		if r != nil {
			r.Classification = &c
		}
		e.display.Set(FieldQuality, fmt.Sprintf("%.0f%%", c.SignalQuality.Score))
		e.display.Set(FieldAssessment, c.SignalQuality.Assessment)
		if band := DominantBand(c.BandPowers); band != "" {
			e.display.Set(FieldDominantBand, band)
		}
	})
	if err != nil {
		return api.EEGClassification{}, err
	}
	e.record(from.id, from.file, fmt.Sprintf("classified: %s quality", c.SignalQuality.Assessment))
	return c, nil
}

// Polar fetches polar series for channels (all when empty) at time t.
func (e *EEG) Polar(ctx context.Context, mode api.PolarMode, channels []string, t float64) (map[string]api.PolarSeries, error) {
	if err := e.requireUpload(); err != nil {
		return nil, err
	}
	out, _, err := followUp(ctx, e.FileAnalyzer, "polar", func(ctx context.Context) (map[string]api.PolarSeries, error) {
		return e.deps.Client.PolarData(ctx, mode, channels, t)
	}, func(r *EEGResult, out map[string]api.PolarSeries) {
		if r != nil {
			r.PolarMode = mode
			r.Polar = out
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Recurrence compares two channel regions.
func (e *EEG) Recurrence(ctx context.Context, r1, r2 api.Region, threshold float64) (api.Recurrence, error) {
	if err := e.requireUpload(); err != nil {
		return api.Recurrence{}, err
	}
	out, _, err := followUp(ctx, e.FileAnalyzer, "recurrence", func(ctx context.Context) (api.Recurrence, error) {
		return e.deps.Client.RecurrenceData(ctx, api.RecurrenceRequest{Region1: r1, Region2: r2, Threshold: threshold})
	}, func(r *EEGResult, out api.Recurrence) {
		if r != nil {
			r.Recurrence = &out
		}
	})
	if err != nil {
		return api.Recurrence{}, err
	}
	return out, nil
}

// Channels lists the channel names of the uploaded recording.
func (e *EEG) Channels() []string {
	r, ok := e.session.Result()
	if !ok {
		return nil
	}
	return append([]string(nil), r.Upload.Data.ChannelNames...)
}

// Reset clears the page and drops the recording held by the backend. The
// local state is cleared even when the backend call fails.
func (e *EEG) Reset(ctx context.Context) error {
	local := e.FileAnalyzer.Reset()
	if err := e.deps.Client.ResetEEG(ctx); err != nil {
		logFailure(e.deps.logger(), "eeg", "reset", err)
		return err
	}
	return local
}

// DominantBand returns the band with the highest power summed over channels.
func DominantBand(powers map[string]map[string]float64) string {
	bands := make([]string, 0, len(powers))
	for b := range powers {
		bands = append(bands, b)
	}
	sort.Strings(bands)

	best, bestPower := "", -1.0
	for _, b := range bands {
		total := 0.0
		for _, p := range powers[b] {
			total += p
		}
		if total > bestPower {
			best, bestPower = b, total
		}
	}
	return best
}
