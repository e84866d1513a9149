package app

import (
	"errors"
	"image"
	"path/filepath"

	"github.com/MaiMahmoud182/DSP-task-1/internal/chart"

	tea "github.com/charmbracelet/bubbletea"
)

// exportItem is one chart to write: either a go-chart figure or a raster
// image (the spectrogram).
type exportItem struct {
	name string
	fig  chart.Figure
	img  image.Image
	err  error
}

// exportFigures builds every chart the tab currently has data for.
func (m Model) exportFigures(tab Tab) []exportItem {
	var items []exportItem
	add := func(name string, fig chart.Figure, err error) {
		items = append(items, exportItem{name: name, fig: fig, err: err})
	}

	switch tab {
	case TabDoppler:
		if m.genWave != nil {
			fig, err := chart.Waveform(*m.genWave, "Generated Doppler sound")
			add("doppler_generated.png", fig, err)
		}
		if m.vehicleWave != nil {
			fig, err := chart.Waveform(*m.vehicleWave, "Vehicle sound")
			add("doppler_vehicle.png", fig, err)
		}
		if s, ok := m.doppler.LastSpectrogram(); ok {
			img, err := chart.Spectrogram(s, 4)
			items = append(items, exportItem{name: "doppler_spectrogram.png", img: img, err: err})
		}

	case TabVoice:
		if m.voiceWave != nil {
			fig, err := chart.Waveform(*m.voiceWave, "Voice")
			add("voice_waveform.png", fig, err)
		}

	case TabEEG:
		if len(m.polar) > 0 {
			fig, err := chart.Polar(m.polar, "EEG polar ("+string(m.polarMode)+")")
			add("eeg_polar.png", fig, err)
		}
		if m.recurrence != nil {
			fig, err := chart.Recurrence(*m.recurrence)
			add("eeg_recurrence.png", fig, err)
		}

	case TabECG:
		if len(m.ecgPolar) > 0 {
			fig, err := chart.Polar(m.ecgPolar, "ECG polar ("+string(m.ecgPolarMode)+")")
			add("ecg_polar.png", fig, err)
		}

	case TabDrone:
		if m.detection != nil {
			fig, err := chart.Confidence(*m.detection)
			add("drone_confidence.png", fig, err)
		}
	}
	return items
}

// exportCmd writes items into dir, replacing earlier exports of the same
// chart.
func exportCmd(items []exportItem, dir string) tea.Cmd {
	return func() tea.Msg {
		if len(items) == 0 {
			return ExportedMsg{Err: chart.ErrNoData}
		}
		var paths []string
		var errs []error
		for _, it := range items {
			if it.err != nil {
				errs = append(errs, it.err)
				continue
			}
			path := filepath.Join(dir, it.name)
			var err error
			if it.img != nil {
				err = chart.WriteImagePNG(path, it.img)
			} else {
				err = chart.WritePNG(path, it.fig)
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			paths = append(paths, path)
		}
		if len(paths) == 0 {
			return ExportedMsg{Err: errors.Join(errs...)}
		}
		return ExportedMsg{Paths: paths}
	}
}
