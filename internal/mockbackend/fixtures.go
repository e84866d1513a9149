package mockbackend

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
)

// fixtureRate is the rate of every synthesized WAV; fixtures stay small.
const fixtureRate = 8000

// wavDataURI returns a mono 16-bit PCM sine of freq Hz as a data URI.
func wavDataURI(freq, seconds float64) string {
	n := int(seconds * fixtureRate)
	var pcm bytes.Buffer
	for i := 0; i < n; i++ {
		v := math.Sin(2 * math.Pi * freq * float64(i) / fixtureRate)
		binary.Write(&pcm, binary.LittleEndian, int16(v*0.5*math.MaxInt16))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+pcm.Len()))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(fixtureRate))
	binary.Write(&buf, binary.LittleEndian, uint32(fixtureRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(pcm.Len()))
	buf.Write(pcm.Bytes())

	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// waveform returns points of a decaying-then-rising sine over seconds.
func waveform(freq, seconds float64, points int) api.WaveformPayload {
	p := api.WaveformPayload{
		Time:      make([]float64, points),
		Amplitude: make([]float64, points),
	}
	for i := 0; i < points; i++ {
		t := seconds * float64(i) / float64(points-1)
		env := 0.3 + 0.7*math.Exp(-math.Pow((t-seconds/2)/(seconds/4), 2))
		p.Time[i] = t
		p.Amplitude[i] = env * math.Sin(2*math.Pi*freq*t/100)
	}
	return p
}

// spectrogram returns a freqBins x timeBins matrix with a sweeping ridge.
func spectrogram(freqBins, timeBins int, sampleRate float64) api.SpectrogramData {
	s := api.SpectrogramData{
		Intensity:  make([][]float64, freqBins),
		Time:       make([]float64, timeBins),
		Frequency:  make([]float64, freqBins),
		SampleRate: sampleRate,
	}
	for t := range s.Time {
		s.Time[t] = float64(t) * 0.1
	}
	for f := range s.Intensity {
		s.Frequency[f] = float64(f) * sampleRate / 2 / float64(freqBins)
		row := make([]float64, timeBins)
		for t := range row {
			ridge := float64(freqBins) * (0.6 - 0.2*float64(t)/float64(timeBins))
			row[t] = -80 + 70*math.Exp(-math.Pow(float64(f)-ridge, 2)/8)
		}
		s.Intensity[f] = row
	}
	return s
}

// eegRecording is the parsed upload held between EEG calls.
type eegRecording struct {
	names    []string
	channels [][]float64
	time     []float64
	rate     float64
}

func (r *eegRecording) samples() int {
	if len(r.channels) == 0 {
		return 0
	}
	return len(r.channels[0])
}

func (r *eegRecording) duration() float64 {
	return float64(r.samples()) / r.rate
}

func (r *eegRecording) channel(name string) ([]float64, bool) {
	for i, n := range r.names {
		if n == name {
			return r.channels[i], true
		}
	}
	return nil, false
}

// parseEEG reads a CSV whose first column is time and the rest are
// channels. A non-numeric first row is taken as the header.
func parseEEG(rd io.Reader, rate float64) (*eegRecording, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) < 2 {
		return nil, errors.New("CSV file must have at least 2 columns (time + at least 1 channel)")
	}

	rec := &eegRecording{rate: rate}
	cols := len(rows[0]) - 1
	if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
		rec.names = append(rec.names, rows[0][1:]...)
		rows = rows[1:]
	} else {
		for i := 1; i <= cols; i++ {
			rec.names = append(rec.names, fmt.Sprintf("Channel_%d", i))
		}
	}
	rec.channels = make([][]float64, cols)

	for _, row := range rows {
		if len(row) < cols+1 {
			continue
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("time column: %w", err)
		}
		rec.time = append(rec.time, t)
		for c := 0; c < cols; c++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("channel %s: %w", rec.names[c], err)
			}
			rec.channels[c] = append(rec.channels[c], v)
		}
	}
	if rec.samples() == 0 {
		return nil, errors.New("no samples")
	}
	return rec, nil
}

var bandShares = map[string]float64{
	"delta": 0.30,
	"theta": 0.20,
	"alpha": 0.25,
	"beta":  0.15,
	"gamma": 0.10,
}

// bandPowers splits each channel's variance across the bands in fixed
// proportions, keyed band -> channel.
func (r *eegRecording) bandPowers() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(bandShares))
	for band, share := range bandShares {
		out[band] = make(map[string]float64, len(r.names))
		for i, name := range r.names {
			out[band][name] = share * stat.Variance(r.channels[i], nil)
		}
	}
	return out
}

// quality scores 0..100: flat or clipped channels lower it.
func (r *eegRecording) quality() float64 {
	score := 100.0
	for _, ch := range r.channels {
		if len(ch) < 2 || stat.Variance(ch, nil) == 0 {
			score -= 100 / float64(len(r.channels))
		}
	}
	return math.Max(0, score)
}

func assessment(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

// polar maps a window of samples to (r, θ) with θ spread over 0..360.
func polar(samples []float64) api.PolarSeries {
	s := api.PolarSeries{R: append([]float64(nil), samples...), Theta: make([]float64, len(samples))}
	if len(samples) == 1 {
		return s
	}
	for i := range samples {
		s.Theta[i] = 360 * float64(i) / float64(len(samples)-1)
	}
	return s
}

// recurrence computes the comparison metrics of two equal-length slices.
func recurrence(a, b []float64, threshold float64) api.RecurrenceMetrics {
	n := min(len(a), len(b))
	a, b = a[:n], b[:n]
	if threshold <= 0 {
		threshold = 0.1
	}

	var hits int
	for i := range a {
		for j := range b {
			if math.Abs(a[i]-b[j]) < threshold {
				hits++
			}
		}
	}
	rate := 0.0
	if n > 0 {
		rate = float64(hits) / float64(n*n)
	}
	corr := 0.0
	if n > 1 {
		corr = stat.Correlation(a, b, nil)
		if math.IsNaN(corr) {
			corr = 0
		}
	}
	return api.RecurrenceMetrics{
		RecurrenceRate:   rate,
		Determinism:      math.Min(1, rate*1.5),
		CrossCorrelation: corr,
		Correlation:      corr,
	}
}
