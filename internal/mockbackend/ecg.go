package mockbackend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
)

const (
	defaultECGRate = 360
	noECG          = "No ECG data loaded"
	// normalThreshold is the probability every condition must stay under
	// for a normal verdict.
	normalThreshold = 0.2
)

var (
	ecgFormats = []string{".csv", ".txt"}
	ecgLabels  = []string{"1dAVb", "RBBB", "LBBB", "SB", "AF", "ST"}
)

// ecgRecording is a 12-lead upload in api.ECGLeads order, every lead padded
// to the same length.
type ecgRecording struct {
	leads [][]float64
	rate  float64
	theta []float64
}

func (r *ecgRecording) samples() int { return len(r.leads[0]) }

func (r *ecgRecording) duration() float64 { return float64(r.samples()) / r.rate }

// parseECG reads a CSV with a header row. Column names are matched to the
// lead names case-insensitively; unknown columns are ignored, missing leads
// are zero-filled and empty cells are skipped.
func parseECG(rd io.Reader, rate float64) (*ecgRecording, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.New("no samples")
	}

	col := make(map[int]int) // csv column -> lead index
	for i, name := range rows[0] {
		if lead := slices.Index(api.ECGLeads, strings.ToUpper(strings.TrimSpace(name))); lead >= 0 {
			col[i] = lead
		}
	}

	rec := &ecgRecording{leads: make([][]float64, len(api.ECGLeads)), rate: rate}
	for _, row := range rows[1:] {
		for i, lead := range col {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("lead %s: %w", api.ECGLeads[lead], err)
			}
			rec.leads[lead] = append(rec.leads[lead], v)
		}
	}

	n := 0
	for _, l := range rec.leads {
		n = max(n, len(l))
	}
	if n == 0 {
		return nil, errors.New("no samples")
	}
	for i := range rec.leads {
		for len(rec.leads[i]) < n {
			rec.leads[i] = append(rec.leads[i], 0)
		}
	}

	rec.theta = make([]float64, n)
	if n > 1 {
		for i := range rec.theta {
			rec.theta[i] = 360 * float64(i) / float64(n-1)
		}
	}
	return rec, nil
}

// rPeaks returns the indexes of samples above mean + 2σ that are the
// maximum within 0.3 s either side.
func rPeaks(x []float64, rate float64) []int {
	if len(x) == 0 {
		return nil
	}
	mean, sd := stat.MeanStdDev(x, nil)
	if n := float64(len(x)); n > 1 {
		sd *= math.Sqrt((n - 1) / n)
	}
	threshold := mean + 2*sd
	dist := max(1, int(0.3*rate))

	var peaks []int
	for i := dist; i < len(x)-dist; i++ {
		if x[i] > threshold && x[i] == floats.Max(x[i-dist:i+dist]) {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// meanRR is the mean beat interval in seconds, or 0 with fewer than two
// beats.
func meanRR(peaks []int, rate float64) float64 {
	if len(peaks) < 2 {
		return 0
	}
	return float64(peaks[len(peaks)-1]-peaks[0]) / float64(len(peaks)-1) / rate
}

// rrVariation is the coefficient of variation of the beat intervals.
func rrVariation(peaks []int) float64 {
	if len(peaks) < 3 {
		return 0
	}
	rr := make([]float64, len(peaks)-1)
	for i := range rr {
		rr[i] = float64(peaks[i+1] - peaks[i])
	}
	mean, sd := stat.MeanStdDev(rr, nil)
	if mean == 0 {
		return 0
	}
	return sd / mean
}

// signalQuality scores each lead by its range: flat leads get 30, the rest
// 80 and up.
func signalQuality(leads [][]float64) float64 {
	var scores []float64
	for _, l := range leads {
		if len(l) <= 10 {
			continue
		}
		span := floats.Max(l) - floats.Min(l)
		if span > 0.1 {
			scores = append(scores, math.Min(100, 80+span*50))
		} else {
			scores = append(scores, 30)
		}
	}
	if len(scores) == 0 {
		return 50
	}
	return math.Trunc(stat.Mean(scores, nil))
}

// rhythm analyses lead II.
func (r *ecgRecording) rhythm() api.ECGRhythm {
	lead := r.leads[1]
	peaks := rPeaks(lead, r.rate)
	out := api.ECGRhythm{SignalQuality: signalQuality(r.leads), TotalBeats: len(peaks)}
	if rr := meanRR(peaks, r.rate); rr > 0 {
		out.RRInterval = math.Trunc(rr * 1000)
		if float64(len(lead)) >= r.rate {
			out.HeartRate = math.Trunc(60 / rr)
		}
	}
	return out
}

func (r *ecgRecording) statistics() api.ECGStatistics {
	return api.ECGStatistics{
		ECGRhythm:    r.rhythm(),
		Duration:     r.duration(),
		SamplingRate: r.rate,
	}
}

// classifyLeads scores the conditions from the lead II rhythm: slow and fast
// rates read as sinus brady/tachycardia, irregular intervals as AF.
func classifyLeads(leads [][]float64, rate float64) api.ECGClassification {
	probs := map[string]float64{"1dAVb": 0.04, "RBBB": 0.03, "LBBB": 0.02, "SB": 0.05, "AF": 0.06, "ST": 0.05}
	peaks := rPeaks(leads[1], rate)
	if rr := meanRR(peaks, rate); rr > 0 {
		switch hr := 60 / rr; {
		case hr < 60:
			probs["SB"] = 0.78
		case hr > 100:
			probs["ST"] = 0.81
		}
	}
	if rrVariation(peaks) > 0.15 {
		probs["AF"] = 0.66
	}

	out := api.ECGClassification{ModelUsed: true, RawProbabilities: probs}
	best := ""
	for _, label := range ecgLabels {
		p := probs[label]
		out.Predictions = append(out.Predictions, api.ECGPrediction{Condition: label, Probability: p, Confidence: confidence(p)})
		if best == "" || p > probs[best] {
			best = label
		}
	}
	sort.SliceStable(out.Predictions, func(i, j int) bool {
		return out.Predictions[i].Probability > out.Predictions[j].Probability
	})

	if probs[best] < normalThreshold {
		out.PrimaryDiagnosis = "Normal ECG"
		out.IsNormal = true
		out.Message = "Normal ECG"
		out.Confidence = 1 - probs[best]
	} else {
		out.PrimaryDiagnosis = best
		out.IsAbnormal = true
		out.Message = "Abnormal ECG"
		out.Confidence = probs[best]
	}
	return out
}

func confidence(p float64) string {
	switch {
	case p > 0.7:
		return "High"
	case p > 0.4:
		return "Medium"
	default:
		return "Low"
	}
}

// ecgUpload reads and parses the ecg_file upload with the backend's
// messages. ok is false after an error reply.
func (s *Server) ecgUpload(c *gin.Context) (*ecgRecording, bool) {
	fh, err := c.FormFile("ecg_file")
	if err != nil {
		failPlain(c, http.StatusBadRequest, "No file provided")
		return nil, false
	}
	if fh.Filename == "" {
		failPlain(c, http.StatusBadRequest, "No file selected")
		return nil, false
	}
	if !slices.Contains(ecgFormats, ext(fh.Filename)) {
		failPlain(c, http.StatusBadRequest, "Invalid file type")
		return nil, false
	}
	rate, err := strconv.Atoi(c.DefaultPostForm("sampling_rate", strconv.Itoa(defaultECGRate)))
	if err != nil || rate <= 0 {
		rate = defaultECGRate
	}

	f, err := fh.Open()
	if err != nil {
		failPlain(c, http.StatusInternalServerError, "Server error: "+err.Error())
		return nil, false
	}
	defer f.Close()

	rec, err := parseECG(f, float64(rate))
	if err != nil {
		s.logger.Info("ecg parse failed", zap.Error(err))
		failPlain(c, http.StatusBadRequest, "Failed to parse ECG file")
		return nil, false
	}
	return rec, true
}

func (s *Server) ecgHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.ModuleHealth{
		Status:      "healthy",
		Message:     "ECG Analyzer API is running!",
		ModelLoaded: api.BoolPtr(true),
	})
}

func (s *Server) uploadECG(c *gin.Context) {
	rec, ok := s.ecgUpload(c)
	if !ok {
		return
	}
	s.mu.Lock()
	s.ecg = rec
	s.mu.Unlock()

	n := rec.samples()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, len(rec.leads))
		for l := range rec.leads {
			rows[i][l] = rec.leads[l][i]
		}
	}
	c.JSON(http.StatusOK, api.ECGUpload{
		Message: "ECG file processed successfully!",
		Data: api.ECGData{
			Leads:          rec.leads,
			SamplingRate:   rec.rate,
			Duration:       rec.duration(),
			LeadNames:      api.ECGLeads,
			SamplesPerLead: n,
			DataFrame:      api.ECGFrame{Columns: api.ECGLeads, Data: rows, Shape: []int{n, len(rec.leads)}},
			Theta:          rec.theta,
		},
		Analysis: rec.rhythm(),
	})
}

func (s *Server) classifyECG(c *gin.Context) {
	var req api.ECGClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ECGData == nil {
		failPlain(c, http.StatusBadRequest, "No ECG data provided")
		return
	}
	if len(req.ECGData) != len(api.ECGLeads) {
		failPlain(c, http.StatusBadRequest, "Expected 12 leads of ECG data")
		return
	}
	if req.SamplingRate <= 0 {
		req.SamplingRate = defaultECGRate
	}
	c.JSON(http.StatusOK, classifyLeads(req.ECGData, req.SamplingRate))
}

func (s *Server) heldECG(c *gin.Context, msg string) (*ecgRecording, bool) {
	s.mu.Lock()
	rec := s.ecg
	s.mu.Unlock()
	if rec == nil {
		failPlain(c, http.StatusBadRequest, msg)
		return nil, false
	}
	return rec, true
}

func (s *Server) ecgPolarData(c *gin.Context) {
	rec, ok := s.heldECG(c, "No ECG data loaded. Please upload a file first.")
	if !ok {
		return
	}
	t, err := strconv.ParseFloat(c.DefaultQuery("current_time", "0"), 64)
	if err != nil {
		t = 0
	}

	total := rec.samples()
	start, end := 0, total
	if api.PolarMode(c.Param("mode")) == api.PolarFixed {
		window := int(rec.rate * 2)
		start = max(0, int(t*rec.rate))
		if start+window > total {
			start = max(0, total-window)
		}
		end = start + window
	}

	out := make(map[string]api.PolarSeries, len(api.ECGLeads))
	for i, name := range api.ECGLeads {
		stop := min(end, len(rec.leads[i]))
		out[name] = api.PolarSeries{R: rec.leads[i][start:stop], Theta: rec.theta[start:stop]}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) analyzeECG(c *gin.Context) {
	rec, ok := s.ecgUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.ECGAnalysis{
		Message:  "ECG analysis completed successfully!",
		Analysis: rec.statistics(),
		DataSummary: api.ECGDataSummary{
			LeadsCount:     len(rec.leads),
			SamplesPerLead: rec.samples(),
			LeadNames:      api.ECGLeads,
		},
	})
}

func (s *Server) ecgStatistics(c *gin.Context) {
	rec, ok := s.heldECG(c, noECG)
	if !ok {
		return
	}
	stats := rec.statistics()
	stats.LeadsAvailable = api.ECGLeads
	c.JSON(http.StatusOK, stats)
}
