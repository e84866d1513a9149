package mockbackend

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
)

var (
	dopplerFormats = []string{".wav", ".mp3", ".flac", ".aac", ".ogg"}
	droneFormats   = []string{".mp3", ".wav", ".ogg", ".m4a", ".flac"}
	eegFormats     = []string{".csv", ".txt"}
)

const noEEG = "No EEG data loaded. Please upload a file first."

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// failPlain is the {error} shape of the EEG and drone endpoints.
func failPlain(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// formFile returns the named upload with the same messages as the backend.
func formFile(c *gin.Context, field, missing string) (*multipart.FileHeader, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		fail(c, http.StatusBadRequest, missing)
		return nil, false
	}
	if fh.Filename == "" {
		fail(c, http.StatusBadRequest, "No file selected")
		return nil, false
	}
	return fh, true
}

func ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// targetRate parses target_sampling_rate. ok is false after an error reply.
func targetRate(c *gin.Context, required bool) (rate int, present, ok bool) {
	raw := c.PostForm("target_sampling_rate")
	if raw == "" {
		if required {
			fail(c, http.StatusBadRequest, "No target sampling rate provided")
			return 0, false, false
		}
		return 0, false, true
	}
	rate, err := strconv.Atoi(raw)
	if err != nil || rate < 100 || rate > 48000 {
		fail(c, http.StatusBadRequest, "Target sampling rate must be between 100 and 48000 Hz")
		return 0, true, false
	}
	return rate, true, true
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, api.Health{
		Status:  "healthy",
		Message: "Backend API is running",
		Version: "1.0",
		Models:  map[string]bool{"ecg_model_loaded": true},
		Endpoints: map[string][]string{
			"ecg":     {"/api/ecg/upload", "/api/ecg/classify"},
			"eeg":     {"/api/eeg/upload", "/api/eeg/classify"},
			"doppler": {"/api/generate-doppler-sound", "/api/analyze-vehicle-sound", "/api/get-spectrogram", "/api/get-resampled-audio"},
			"drone":   {"/api/drone/detect", "/api/drone/classes"},
			"voice":   {"/api/analyze-voice", "/api/get-resampled-voice"},
		},
	})
}

// moduleHealths are the per-module health replies, ECG aside.
var moduleHealths = map[string]api.ModuleHealth{
	"doppler": {
		Status:           "healthy",
		Message:          "Doppler Analyzer API is running!",
		DopplerAvailable: api.BoolPtr(true),
		Endpoints: map[string]string{
			"generate_sound":  "POST /api/generate-doppler-sound",
			"analyze_sound":   "POST /api/analyze-vehicle-sound",
			"get_spectrogram": "POST /api/get-spectrogram",
		},
	},
	"voice": {
		Status:  "healthy",
		Message: "Voice Analyzer API is running!",
		Endpoints: map[string]string{
			"analyze_voice":       "POST /api/analyze-voice",
			"get_resampled_voice": "POST /api/get-resampled-voice",
		},
	},
	"eeg": {
		Status:  "healthy",
		Message: "EEG Analyzer API is running!",
		Endpoints: map[string]string{
			"upload_eeg":          "POST /api/eeg/upload",
			"classify_eeg":        "POST /api/eeg/classify",
			"get_polar_data":      "GET /api/eeg/get_polar_data/<mode>",
			"get_recurrence_data": "POST /api/eeg/get_recurrence_data",
		},
	},
	"drone": {
		Status:  "healthy",
		Message: "Drone Detection API is running!",
	},
}

func (s *Server) moduleHealth(module string) gin.HandlerFunc {
	h := moduleHealths[module]
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h)
	}
}

func (s *Server) generateDoppler(c *gin.Context) {
	var req struct {
		BaseFreq     *float64 `json:"base_freq"`
		Velocity     *float64 `json:"velocity"`
		Duration     *float64 `json:"duration"`
		SamplingRate *float64 `json:"sampling_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "No JSON data provided")
		return
	}

	get := func(p *float64, def float64) float64 {
		if p == nil {
			return def
		}
		return *p
	}
	base := get(req.BaseFreq, 120)
	velocity := get(req.Velocity, 60)
	duration := get(req.Duration, 6)
	rate := get(req.SamplingRate, 44100)

	if base < 80 || base > 1000 {
		fail(c, http.StatusBadRequest, "Base frequency must be between 80 and 1000 Hz")
		return
	}
	if velocity < 0 || velocity > 500 {
		fail(c, http.StatusBadRequest, "Vehicle velocity must be between 0 and 500 km/h")
		return
	}

	wf := waveform(base, duration, 400)
	wf.AnalysisSampleRate = api.Float64Ptr(rate)
	c.JSON(http.StatusOK, api.DopplerSound{
		Success:               true,
		AudioData:             wavDataURI(base, min(duration, 1)),
		WaveformVisualization: wf,
		GenerationParameters: api.GenerationParameters{
			BaseFrequency: base,
			Velocity:      velocity,
			Duration:      duration,
			SampleRate:    rate,
		},
	})
}

func (s *Server) analyzeVehicle(c *gin.Context) {
	fh, ok := formFile(c, "audio_file", "No audio file provided")
	if !ok {
		return
	}
	if e := ext(fh.Filename); !slices.Contains(dopplerFormats, e) {
		fail(c, http.StatusBadRequest, "Unsupported file type: "+e)
		return
	}
	rate, present, ok := targetRate(c, false)
	if !ok {
		return
	}
	if !present {
		rate = 44100
	}

	const source = 440.0
	wf := waveform(source, 6, 400)
	c.JSON(http.StatusOK, api.VehicleAnalysisResponse{
		Success: true,
		Message: "Vehicle sound analyzed",
		Analysis: api.VehicleAnalysis{
			IsVehicle:         true,
			EstimatedSpeed:    72.4,
			SourceFrequency:   source,
			ApproachFrequency: 466.2,
			RecedeFrequency:   415.8,
			ClosestPointTime:  3.0,
			Confidence:        0.87,
			SoundType:         "engine",
			Duration:          6,
			AnalysisMethod:    "doppler_shift",
			WaveformData:      &wf,
			SamplingInfo: &api.SamplingInfo{
				OriginalSampleRate: 44100,
				AnalysisSampleRate: float64(rate),
				WasResampled:       api.BoolPtr(rate != 44100),
				NyquistFrequency:   float64(rate) / 2,
			},
		},
	})
}

func (s *Server) spectrogram(c *gin.Context) {
	if _, ok := formFile(c, "audio_file", "No audio file provided"); !ok {
		return
	}
	c.JSON(http.StatusOK, api.SpectrogramResponse{
		Success:     true,
		Spectrogram: spectrogram(32, 60, 44100),
	})
}

func (s *Server) resampled(c *gin.Context) {
	if _, ok := formFile(c, "audio_file", "No audio file provided"); !ok {
		return
	}
	rate, _, ok := targetRate(c, true)
	if !ok {
		return
	}
	mode := api.ResampleMode(c.DefaultPostForm("mode", string(api.ModePlayback)))

	playback := rate
	upsampled := false
	if mode == api.ModePlayback && rate < fixtureRate {
		playback, upsampled = fixtureRate, true
	}
	c.JSON(http.StatusOK, api.ResampledAudio{
		Success:              true,
		AudioData:            wavDataURI(440, 0.25),
		OriginalSamplingRate: 44100,
		TargetSamplingRate:   float64(rate),
		PlaybackSamplingRate: float64(playback),
		WasUpsampled:         upsampled,
		WasResampled:         rate != 44100,
		Mode:                 mode,
	})
}

func (s *Server) analyzeVoice(c *gin.Context) {
	fh, ok := formFile(c, "audio_file", "No audio file provided")
	if !ok {
		return
	}
	if e := ext(fh.Filename); !slices.Contains(dopplerFormats, e) {
		fail(c, http.StatusBadRequest, "Unsupported file type: "+e)
		return
	}
	rate, present, ok := targetRate(c, false)
	if !ok {
		return
	}
	if !present {
		rate = 44100
	}

	const maxFreq = 3400.0
	aliasing := rate < 8000
	wf := waveform(220, 2, 400)
	wf.IsAliasing = api.BoolPtr(aliasing)
	wf.NyquistFrequency = api.Float64Ptr(float64(rate) / 2)
	wf.AnalysisSampleRate = api.Float64Ptr(float64(rate))

	c.JSON(http.StatusOK, api.VoiceAnalysisResponse{
		Success: true,
		Message: "Voice analyzed",
		Analysis: api.VoiceAnalysis{
			WaveformData: wf,
			SamplingInfo: api.SamplingInfo{
				OriginalSampleRate: 44100,
				AnalysisSampleRate: float64(rate),
				WasResampled:       api.BoolPtr(present),
				NyquistFrequency:   float64(rate) / 2,
				HasAliasing:        api.BoolPtr(aliasing),
				MaxFrequency:       api.Float64Ptr(maxFreq),
			},
			Duration:       2,
			AnalysisMethod: "aliasing_demonstration",
			Message:        fmt.Sprintf("Analyzed at %d Hz", rate),
		},
	})
}

func (s *Server) uploadEEG(c *gin.Context) {
	fh, err := c.FormFile("eeg_file")
	if err != nil {
		failPlain(c, http.StatusBadRequest, "No file provided")
		return
	}
	if fh.Filename == "" {
		failPlain(c, http.StatusBadRequest, "No file selected")
		return
	}
	if !slices.Contains(eegFormats, ext(fh.Filename)) {
		failPlain(c, http.StatusBadRequest, "Invalid file type")
		return
	}
	rate, err := strconv.ParseFloat(c.DefaultPostForm("sampling_rate", "250"), 64)
	if err != nil || rate <= 0 {
		rate = 250
	}

	f, err := fh.Open()
	if err != nil {
		failPlain(c, http.StatusInternalServerError, "Server error: "+err.Error())
		return
	}
	defer f.Close()

	rec, err := parseEEG(f, rate)
	if err != nil {
		s.logger.Info("eeg parse failed", zap.Error(err))
		failPlain(c, http.StatusBadRequest, "Failed to parse EEG file")
		return
	}

	s.mu.Lock()
	s.eeg = rec
	s.mu.Unlock()

	c.JSON(http.StatusOK, api.EEGUpload{
		Message: "EEG file uploaded successfully",
		Data: api.EEGData{
			Channels:     rec.channels,
			ChannelNames: rec.names,
			TimeData:     rec.time,
			SamplingRate: rec.rate,
			Duration:     rec.duration(),
		},
		Analysis: api.EEGBasicAnalysis{
			SignalQuality: rec.quality(),
			BandPowers:    rec.bandPowers(),
			ChannelsCount: len(rec.names),
			Duration:      rec.duration(),
			SamplingRate:  rec.rate,
		},
	})
}

// recording returns the held EEG upload or replies with the guard error.
func (s *Server) recording(c *gin.Context) (*eegRecording, bool) {
	s.mu.Lock()
	rec := s.eeg
	s.mu.Unlock()
	if rec == nil {
		failPlain(c, http.StatusBadRequest, noEEG)
		return nil, false
	}
	return rec, true
}

func (s *Server) classifyEEG(c *gin.Context) {
	rec, ok := s.recording(c)
	if !ok {
		return
	}
	var req struct {
		AnalysisType string `json:"analysis_type"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.AnalysisType == "" {
		req.AnalysisType = "basic"
	}

	powers := rec.bandPowers()
	dominant := make(map[string]float64, len(rec.names))
	insights := make([]string, 0, len(rec.names))
	for _, name := range rec.names {
		dominant[name] = 10
		best, bestPower := "", -1.0
		for _, band := range []string{"delta", "theta", "alpha", "beta", "gamma"} {
			if p := powers[band][name]; p > bestPower {
				best, bestPower = band, p
			}
		}
		insights = append(insights, fmt.Sprintf("Channel %s: Dominant %s activity", name, best))
	}

	q := rec.quality()
	c.JSON(http.StatusOK, api.EEGClassificationResponse{
		Success: true,
		Message: "EEG analysis completed successfully",
		Classification: api.EEGClassification{
			SignalQuality:       api.SignalQuality{Score: q, Assessment: assessment(q)},
			BandPowers:          powers,
			DominantFrequencies: dominant,
			ChannelCount:        len(rec.names),
			TotalDuration:       rec.duration(),
			AnalysisType:        req.AnalysisType,
			Insights:            insights,
		},
	})
}

func (s *Server) polarData(c *gin.Context) {
	rec, ok := s.recording(c)
	if !ok {
		return
	}
	t, err := strconv.ParseFloat(c.DefaultQuery("current_time", "0"), 64)
	if err != nil {
		t = 0
	}

	total := rec.samples()
	window := int(rec.rate * 2)
	var start, end int
	if api.PolarMode(c.Param("mode")) == api.PolarDynamic {
		start = max(0, int(t*rec.rate)-window/4)
		if start+window > total {
			start = max(0, total-window)
		}
		end = min(total, start+window)
	} else {
		end = min(total, int(rec.rate*10))
	}

	selected := rec.names
	if list := c.Query("channels"); list != "" {
		selected = strings.Split(list, ",")
	}

	out := make(map[string]api.PolarSeries, len(selected))
	for _, name := range selected {
		data, ok := rec.channel(name)
		if !ok {
			continue
		}
		out[name] = polar(data[start:min(end, len(data))])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) recurrenceData(c *gin.Context) {
	rec, ok := s.recording(c)
	if !ok {
		return
	}
	var req api.RecurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failPlain(c, http.StatusBadRequest, "No selection data provided")
		return
	}
	if req.Region1.ChannelName == "" || req.Region2.ChannelName == "" {
		failPlain(c, http.StatusBadRequest, "Two regions must be selected")
		return
	}
	d1, ok1 := rec.channel(req.Region1.ChannelName)
	d2, ok2 := rec.channel(req.Region2.ChannelName)
	if !ok1 || !ok2 {
		failPlain(c, http.StatusBadRequest, "Invalid channel name selected")
		return
	}

	slice := func(d []float64, r api.Region) ([]float64, []float64) {
		lo := max(0, min(r.StartIndex, len(d)))
		hi := max(lo, min(r.EndIndex, len(d)))
		if r.EndIndex <= 0 {
			hi = len(d)
		}
		return d[lo:hi], rec.time[lo:hi]
	}
	x, tx := slice(d1, req.Region1)
	y, ty := slice(d2, req.Region2)

	self := req.Region1.ChannelName == req.Region2.ChannelName
	metrics := recurrence(x, y, req.Threshold)
	if self {
		one := 1.0
		metrics.Autocorrelation = &one
	}
	c.JSON(http.StatusOK, api.Recurrence{
		Channel1:         api.RecurrenceChannel{Name: req.Region1.ChannelName, Data: x, Time: tx},
		Channel2:         api.RecurrenceChannel{Name: req.Region2.ChannelName, Data: y, Time: ty},
		Metrics:          metrics,
		IsSelfComparison: self,
	})
}

func (s *Server) channels(c *gin.Context) {
	s.mu.Lock()
	rec := s.eeg
	s.mu.Unlock()
	if rec == nil {
		failPlain(c, http.StatusBadRequest, "No EEG data loaded")
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": rec.names, "count": len(rec.names)})
}

func (s *Server) resetEEG(c *gin.Context) {
	s.mu.Lock()
	s.eeg = nil
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "EEG data reset successfully"})
}

func (s *Server) detectDrone(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		failPlain(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	if fh.Filename == "" {
		failPlain(c, http.StatusBadRequest, "No file selected")
		return
	}
	e := ext(fh.Filename)
	if !slices.Contains(droneFormats, e) {
		failPlain(c, http.StatusBadRequest, "Unsupported file format. Use MP3, WAV, OGG, M4A or FLAC")
		return
	}

	// The file name picks the fixture.
	name := strings.ToLower(fh.Filename)
	scores := map[string]float64{"drone": 0.05, "bird": 0.05, "noise": 0.6}
	top := []api.ClassScore{{Name: "Wind noise (microphone)", Score: 0.35}, {Name: "Silence", Score: 0.25}}
	prediction := "NOISE"
	switch {
	case strings.Contains(name, "drone"):
		scores = map[string]float64{"drone": 0.82, "bird": 0.03, "noise": 0.1}
		top = []api.ClassScore{{Name: "Aircraft", Score: 0.52}, {Name: "Helicopter", Score: 0.3}, {Name: "Wind noise (microphone)", Score: 0.1}}
		prediction = "DRONE"
	case strings.Contains(name, "bird"):
		scores = map[string]float64{"drone": 0.02, "bird": 0.76, "noise": 0.12}
		top = []api.ClassScore{{Name: "Bird vocalization, bird call, bird song", Score: 0.5}, {Name: "Chirp, tweet", Score: 0.26}}
		prediction = "BIRD"
	}

	confidences := make(map[string]float64, len(droneClasses.DroneClasses))
	for _, cls := range slices.Concat(droneClasses.DroneClasses, droneClasses.BirdClasses, droneClasses.NoiseClasses) {
		confidences[cls] = 0
		for _, t := range top {
			if t.Name == cls {
				confidences[cls] = t.Score
			}
		}
	}

	c.JSON(http.StatusOK, api.DroneDetection{
		Success:          true,
		Prediction:       prediction,
		ConfidenceScores: scores,
		Confidences:      confidences,
		TopClasses:       top,
		AudioInfo: api.AudioInfo{
			FileType:     strings.TrimPrefix(e, "."),
			FileSize:     fmt.Sprintf("%.2f MB", float64(fh.Size)/(1024*1024)),
			AnalysisTime: "0.12s",
		},
	})
}

var droneClasses = api.DroneClasses{
	DroneClasses: []string{"Aircraft", "Helicopter", "Propeller, airscrew", "Fixed-wing aircraft, airplane"},
	BirdClasses:  []string{"Bird", "Bird vocalization, bird call, bird song", "Chirp, tweet"},
	NoiseClasses: []string{"Wind noise (microphone)", "Silence", "Static"},
	OtherClasses: []string{"Speech", "Music"},
}

func (s *Server) droneClasses(c *gin.Context) {
	c.JSON(http.StatusOK, droneClasses)
}
