package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
)

// viridis stops, dark to bright.
var viridis = []color.RGBA{
	{68, 1, 84, 255},
	{59, 82, 139, 255},
	{33, 145, 140, 255},
	{94, 201, 98, 255},
	{253, 231, 37, 255},
}

// Spectrogram renders the intensity matrix as a heatmap, one pixel per cell
// scaled by cell. Rows are frequency bins, drawn low at the bottom.
func Spectrogram(s api.SpectrogramData, cell int) (image.Image, error) {
	rows := len(s.Intensity)
	if rows == 0 || len(s.Intensity[0]) == 0 {
		return nil, ErrNoData
	}
	cols := len(s.Intensity[0])
	if cell < 1 {
		cell = 1
	}

	lo, hi := intensityRange(s.Intensity)
	img := image.NewRGBA(image.Rect(0, 0, cols*cell, rows*cell))
	for f, row := range s.Intensity {
		y0 := (rows - 1 - f) * cell
		for t := 0; t < cols; t++ {
			v := 0.0
			if t < len(row) {
				v = row[t]
			}
			c := Ramp(normalize(v, lo, hi))
			for dy := 0; dy < cell; dy++ {
				for dx := 0; dx < cell; dx++ {
					img.SetRGBA(t*cell+dx, y0+dy, c)
				}
			}
		}
	}
	return img, nil
}

// Ramp maps v in [0, 1] onto the viridis palette.
func Ramp(v float64) color.RGBA {
	v = max(0, min(1, v))
	pos := v * float64(len(viridis)-1)
	i := int(pos)
	if i >= len(viridis)-1 {
		return viridis[len(viridis)-1]
	}
	frac := pos - float64(i)
	a, b := viridis[i], viridis[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*frac + 0.5)
	}
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 255}
}

// WriteImagePNG encodes img into path.
func WriteImagePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	return out.Close()
}

func intensityRange(m [][]float64) (lo, hi float64) {
	first := true
	for _, row := range m {
		if len(row) == 0 {
			continue
		}
		rlo, rhi := floats.Min(row), floats.Max(row)
		if first {
			lo, hi, first = rlo, rhi, false
			continue
		}
		lo, hi = min(lo, rlo), max(hi, rhi)
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}
