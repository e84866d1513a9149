package upload

import "math"

// Slider mirrors a range control: values are clamped to [Min, Max] and
// snapped to Step.
type Slider struct {
	Label string
	Unit  string
	Min   float64
	Max   float64
	Step  float64
	Value float64
}

// NewSlider returns a slider holding value after clamping.
func NewSlider(label, unit string, min, max, step, value float64) *Slider {
	s := &Slider{Label: label, Unit: unit, Min: min, Max: max, Step: step}
	s.Set(value)
	return s
}

// Set stores v clamped and snapped.
func (s *Slider) Set(v float64) {
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	s.Value = math.Max(s.Min, math.Min(s.Max, v))
}

// Inc moves up by one step.
func (s *Slider) Inc() { s.Set(s.Value + s.Step) }

// Dec moves down by one step.
func (s *Slider) Dec() { s.Set(s.Value - s.Step) }

// Int returns the value rounded to the nearest integer.
func (s *Slider) Int() int { return int(math.Round(s.Value)) }

// SamplingConfiguration is read from the sliders on demand; it is never
// stored as a validated model.
type SamplingConfiguration struct {
	SamplingRate  float64
	BaseFrequency float64
	Velocity      float64
	Duration      float64
}

// Sliders groups the controls of the Doppler generator.
type Sliders struct {
	SamplingRate  *Slider
	BaseFrequency *Slider
	Velocity      *Slider
	Duration      *Slider
}

// DefaultSliders returns controls with the backend's accepted ranges.
func DefaultSliders() Sliders {
	return Sliders{
		SamplingRate:  NewSlider("Sampling rate", "Hz", 100, 48000, 100, 44100),
		BaseFrequency: NewSlider("Base frequency", "Hz", 80, 1000, 10, 120),
		Velocity:      NewSlider("Velocity", "km/h", 0, 500, 5, 60),
		Duration:      NewSlider("Duration", "s", 1, 10, 1, 6),
	}
}

// All returns the sliders in display order.
func (s Sliders) All() []*Slider {
	return []*Slider{s.BaseFrequency, s.Velocity, s.Duration, s.SamplingRate}
}

// Config reads the current values.
func (s Sliders) Config() SamplingConfiguration {
	return SamplingConfiguration{
		SamplingRate:  s.SamplingRate.Value,
		BaseFrequency: s.BaseFrequency.Value,
		Velocity:      s.Velocity.Value,
		Duration:      s.Duration.Value,
	}
}

// RateSlider is the resample-rate control shared by the voice and vehicle
// pages.
func RateSlider() *Slider {
	return NewSlider("Target sampling rate", "Hz", 100, 48000, 100, 8000)
}

// EEGRateSlider is the sampling-rate control of the EEG page.
func EEGRateSlider() *Slider {
	return NewSlider("Sampling rate", "Hz", 100, 1000, 10, 250)
}

// ECGRateSlider is the sampling-rate control of the ECG page.
func ECGRateSlider() *Slider {
	return NewSlider("Sampling rate", "Hz", 100, 1000, 10, 360)
}

// PolarStartSlider picks the start of the fixed polar window, in seconds.
func PolarStartSlider() *Slider {
	return NewSlider("Window start", "s", 0, 60, 1, 0)
}
