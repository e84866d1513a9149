package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/ui"
	"github.com/MaiMahmoud182/DSP-task-1/internal/upload"
)

// ECG display labels.
const (
	FieldLeads       = "Leads"
	FieldECGDuration = "Duration"
	FieldECGRate     = "Sampling rate"
	FieldHeartRate   = "Heart rate"
	FieldRRInterval  = "RR interval"
	FieldBeats       = "Total beats"
	FieldECGQuality  = "Signal quality"
	FieldDiagnosis   = "Diagnosis"
)

// ErrECGNotUploaded is returned by ECG follow-up calls before a successful
// upload.
var ErrECGNotUploaded = errors.New("Please upload an ECG file first")

// ECGResult accumulates everything the ECG page has fetched for the current
// recording.
type ECGResult struct {
	Upload         api.ECGUpload
	Classification *api.ECGClassification
	PolarMode      api.PolarMode
	Polar          map[string]api.PolarSeries
	Statistics     *api.ECGStatistics
}

// ECG drives the ECG page.
type ECG struct {
	*FileAnalyzer[ECGResult]

	deps  Deps
	Rate  *upload.Slider
	Start *upload.Slider
}

// NewECG returns an ECG controller.
func NewECG(deps Deps) *ECG {
	e := &ECG{deps: deps, Rate: upload.ECGRateSlider(), Start: upload.PolarStartSlider()}
	e.FileAnalyzer = NewFileAnalyzer("ecg", upload.ECGPolicy, NewDisplay(
		Field{Label: FieldLeads, Placeholder: PlaceholderText},
		Field{Label: FieldECGDuration, Placeholder: PlaceholderText},
		Field{Label: FieldECGRate, Placeholder: PlaceholderHz},
		Field{Label: FieldHeartRate, Placeholder: PlaceholderBPM},
		Field{Label: FieldRRInterval, Placeholder: PlaceholderMs},
		Field{Label: FieldBeats, Placeholder: PlaceholderText},
		Field{Label: FieldECGQuality, Placeholder: PlaceholderPct},
		Field{Label: FieldDiagnosis, Placeholder: PlaceholderText},
	), e.upload, presentECGUpload, deps)
	return e
}

// Upload sends the selected recording; the backend keeps it for the polar
// and statistics calls.
func (e *ECG) Upload(ctx context.Context) (ECGResult, error) {
	return e.Analyze(ctx)
}

func (e *ECG) upload(ctx context.Context, file api.FilePart) (ECGResult, error) {
	out, err := e.deps.Client.UploadECG(ctx, file, e.Rate.Int())
	if err != nil {
		return ECGResult{}, err
	}
	return ECGResult{Upload: out}, nil
}

func presentECGUpload(d *Display, r ECGResult) string {
	data := r.Upload.Data
	d.Set(FieldLeads, fmt.Sprintf("%d x %d samples", len(data.LeadNames), data.SamplesPerLead))
	d.Set(FieldECGDuration, ui.FormatDuration(data.Duration))
	d.Set(FieldECGRate, fmt.Sprintf("%.0f Hz", data.SamplingRate))
	presentRhythm(d, r.Upload.Analysis)
	return fmt.Sprintf("%.0f bpm, %d beats", r.Upload.Analysis.HeartRate, r.Upload.Analysis.TotalBeats)
}

func presentRhythm(d *Display, a api.ECGRhythm) {
	d.Set(FieldHeartRate, fmt.Sprintf("%.0f bpm", a.HeartRate))
	d.Set(FieldRRInterval, fmt.Sprintf("%.0f ms", a.RRInterval))
	d.Set(FieldBeats, fmt.Sprintf("%d", a.TotalBeats))
	d.Set(FieldECGQuality, fmt.Sprintf("%.0f%%", a.SignalQuality))
}

func (e *ECG) uploaded() (ECGResult, error) {
	r, ok := e.session.Result()
	if !ok {
		return ECGResult{}, ErrECGNotUploaded
	}
	return r, nil
}

// Classify sends the uploaded leads to the classifier.
func (e *ECG) Classify(ctx context.Context) (api.ECGClassification, error) {
	r, err := e.uploaded()
	if err != nil {
		return api.ECGClassification{}, err
	}
	data := r.Upload.Data
	out, from, err := followUp(ctx, e.FileAnalyzer, "classify", func(ctx context.Context) (api.ECGClassification, error) {
		return e.deps.Client.ClassifyECG(ctx, data.Leads, data.SamplingRate)
	}, func(r *ECGResult, out api.ECGClassification) {
		if r != nil {
			r.Classification = &out
		}
		e.display.Set(FieldDiagnosis, Diagnosis(out))
	})
	if err != nil {
		return api.ECGClassification{}, err
	}
	e.record(from.id, from.file, "diagnosis: "+out.PrimaryDiagnosis)
	return out, nil
}

// Diagnosis is the one-line verdict of a classification.
func Diagnosis(c api.ECGClassification) string {
	if c.IsNormal {
		return fmt.Sprintf("%s (%.0f%%)", c.PrimaryDiagnosis, c.Confidence*100)
	}
	return fmt.Sprintf("%s, abnormal (%.0f%%)", c.PrimaryDiagnosis, c.Confidence*100)
}

// Polar fetches per-lead polar series at time t.
func (e *ECG) Polar(ctx context.Context, mode api.PolarMode, t float64) (map[string]api.PolarSeries, error) {
	if _, err := e.uploaded(); err != nil {
		return nil, err
	}
	out, _, err := followUp(ctx, e.FileAnalyzer, "polar", func(ctx context.Context) (map[string]api.PolarSeries, error) {
		return e.deps.Client.ECGPolarData(ctx, mode, t)
	}, func(r *ECGResult, out map[string]api.PolarSeries) {
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

// Statistics refreshes the beat analysis of the uploaded recording.
func (e *ECG) Statistics(ctx context.Context) (api.ECGStatistics, error) {
	if _, err := e.uploaded(); err != nil {
		return api.ECGStatistics{}, err
	}
	out, _, err := followUp(ctx, e.FileAnalyzer, "statistics", e.deps.Client.ECGStatistics,
		func(r *ECGResult, out api.ECGStatistics) {
			if r != nil {
				r.Statistics = &out
			}
			presentRhythm(e.display, out.ECGRhythm)
		})
	if err != nil {
		return api.ECGStatistics{}, err
	}
	return out, nil
}

// Inspect runs the beat analysis on the selected file without uploading it
// for later calls.
func (e *ECG) Inspect(ctx context.Context) (api.ECGAnalysis, error) {
	return followUpFile(ctx, e.FileAnalyzer, "inspect", func(ctx context.Context, f api.FilePart) (api.ECGAnalysis, error) {
		return e.deps.Client.AnalyzeECG(ctx, f, e.Rate.Int())
	}, func(_ *ECGResult, out api.ECGAnalysis) {
		e.display.Set(FieldLeads, fmt.Sprintf("%d x %d samples", out.DataSummary.LeadsCount, out.DataSummary.SamplesPerLead))
		e.display.Set(FieldECGDuration, ui.FormatDuration(out.Analysis.Duration))
		e.display.Set(FieldECGRate, fmt.Sprintf("%.0f Hz", out.Analysis.SamplingRate))
		presentRhythm(e.display, out.Analysis.ECGRhythm)
	})
}

// Leads lists the lead names of the uploaded recording.
func (e *ECG) Leads() []string {
	r, ok := e.session.Result()
	if !ok {
		return nil
	}
	return append([]string(nil), r.Upload.Data.LeadNames...)
}
