// Package chart maps backend payloads onto go-chart figures and renders them
// to PNG. It does no signal processing; every value comes from the backend.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
)

const (
	defaultWidth  = 1024
	defaultHeight = 400
)

var (
	aliasColor = drawing.ColorFromHex("e53935")
	cleanColor = drawing.ColorFromHex("43a047")

	channelColors = []drawing.Color{
		gochart.ColorBlue,
		gochart.ColorGreen,
		gochart.ColorRed,
		gochart.ColorOrange,
		gochart.ColorCyan,
		gochart.ColorYellow,
		gochart.ColorAlternateGray,
	}
)

// ErrNoData is returned when a payload has nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Figure is anything go-chart can render.
type Figure interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// pointStyle renders points only, without connecting lines.
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: 0,
		DotWidth:    3,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: 1.5,
	}
}

// Waveform plots amplitude over time. Aliased signals are drawn red, clean
// ones green; when the backend reports a Nyquist frequency it is annotated
// on the chart.
func Waveform(p api.WaveformPayload, title string) (*gochart.Chart, error) {
	n := min(len(p.Time), len(p.Amplitude))
	if n < 2 {
		return nil, ErrNoData
	}
	xs, ys := p.Time[:n], p.Amplitude[:n]

	col := cleanColor
	name := "Signal"
	if p.IsAliasing != nil && *p.IsAliasing {
		col = aliasColor
		name = "Signal (aliasing)"
	}

	series := []gochart.Series{
		gochart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: lineStyle(col)},
	}
	if p.NyquistFrequency != nil {
		series = append(series, gochart.AnnotationSeries{
			Annotations: []gochart.Value2{{
				XValue: xs[0],
				YValue: floats.Max(ys),
				Label:  fmt.Sprintf("Nyquist %.0f Hz", *p.NyquistFrequency),
			}},
		})
	}

	ch := &gochart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "Time (s)"},
		YAxis:      gochart.YAxis{Name: "Amplitude", Range: paddedRange(ys)},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(ch)}
	return ch, nil
}

// Polar projects each channel's (r, θ) series onto x/y, θ in degrees.
// Channels are drawn in name order so colors are stable.
func Polar(data map[string]api.PolarSeries, title string) (*gochart.Chart, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	var series []gochart.Series
	var all []float64
	for i, name := range names {
		s := data[name]
		n := min(len(s.R), len(s.Theta))
		if n == 0 {
			continue
		}
		xs := make([]float64, n)
		ys := make([]float64, n)
		for j := 0; j < n; j++ {
			rad := s.Theta[j] * math.Pi / 180
			xs[j] = s.R[j] * math.Cos(rad)
			ys[j] = s.R[j] * math.Sin(rad)
		}
		all = append(all, xs...)
		all = append(all, ys...)
		series = append(series, gochart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(channelColors[i%len(channelColors)]),
		})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}

	// Same range on both axes keeps the plot round.
	r := paddedRange(all)
	ch := &gochart.Chart{
		Title:      title,
		Width:      600,
		Height:     600,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      gochart.XAxis{Range: r},
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: r.Min, Max: r.Max}},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(ch)}
	return ch, nil
}

// Recurrence scatters channel 1 against channel 2.
func Recurrence(r api.Recurrence) (*gochart.Chart, error) {
	n := min(len(r.Channel1.Data), len(r.Channel2.Data))
	if n < 2 {
		return nil, ErrNoData
	}
	xs, ys := r.Channel1.Data[:n], r.Channel2.Data[:n]

	title := fmt.Sprintf("Recurrence: %s vs %s", r.Channel1.Name, r.Channel2.Name)
	if r.IsSelfComparison {
		title = fmt.Sprintf("Recurrence: %s (self)", r.Channel1.Name)
	}

	return &gochart.Chart{
		Title:      title,
		Width:      600,
		Height:     600,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: r.Channel1.Name, Range: paddedRange(xs)},
		YAxis:      gochart.YAxis{Name: r.Channel2.Name, Range: paddedRange(ys)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: "points", XValues: xs, YValues: ys, Style: pointStyle(gochart.ColorBlue)},
		},
	}, nil
}

// Confidence draws the drone classifier's top classes as bars, in percent.
func Confidence(d api.DroneDetection) (*gochart.BarChart, error) {
	if len(d.TopClasses) == 0 {
		return nil, ErrNoData
	}
	bars := make([]gochart.Value, 0, len(d.TopClasses))
	for i, c := range d.TopClasses {
		col := gochart.ColorBlue
		if i == 0 {
			col = gochart.ColorGreen
		}
		bars = append(bars, gochart.Value{
			Label: c.Name,
			Value: c.Score * 100,
			Style: gochart.Style{FillColor: col, StrokeColor: col},
		})
	}
	return &gochart.BarChart{
		Title:      "Top classes: " + d.Prediction,
		Width:      defaultWidth,
		Height:     defaultHeight,
		BarWidth:   60,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis: gochart.YAxis{
			Name:  "Confidence (%)",
			Range: &gochart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: bars,
	}, nil
}

// Render writes f to w as PNG.
func Render(w io.Writer, f Figure) error {
	if err := f.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// WritePNG renders f into path, creating the parent directory.
func WritePNG(path string, f Figure) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := Render(out, f); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

// paddedRange returns the data range with 5% headroom. A flat series gets a
// unit range so the axis is never zero-width.
func paddedRange(vs []float64) *gochart.ContinuousRange {
	if len(vs) == 0 {
		return &gochart.ContinuousRange{Min: -1, Max: 1}
	}
	lo, hi := floats.Min(vs), floats.Max(vs)
	if hi-lo == 0 {
		return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.05
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
