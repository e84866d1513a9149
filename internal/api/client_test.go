package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// startMockBackend serves handler on a local HTTP server and returns a client
// pointed at it.
func startMockBackend(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestGenerateDopplerSound(t *testing.T) {
	var got DopplerRequest
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate-doppler-sound" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"audio_data": "data:audio/wav;base64,UklGRg==",
			"waveform_visualization": map[string]any{
				"time":      []float64{0, 0.5, 1},
				"amplitude": []float64{0, 1, 0},
			},
			"generation_parameters": map[string]any{
				"base_frequency": 120, "velocity": 60, "duration": 6, "sample_rate": 48000,
			},
		})
	})

	resp, err := client.GenerateDopplerSound(context.Background(), DopplerRequest{
		BaseFreq: 120, Velocity: 60, Duration: 6, SamplingRate: 44100,
	})
	if err != nil {
		t.Fatalf("GenerateDopplerSound: %v", err)
	}

	if got.BaseFreq != 120 || got.Velocity != 60 || got.SamplingRate != 44100 {
		t.Errorf("request = %+v", got)
	}
	if len(resp.WaveformVisualization.Amplitude) != 3 {
		t.Errorf("amplitude len = %d, want 3", len(resp.WaveformVisualization.Amplitude))
	}
	if resp.GenerationParameters.SampleRate != 48000 {
		t.Errorf("sample_rate = %v, want 48000", resp.GenerationParameters.SampleRate)
	}
	if !strings.HasPrefix(resp.AudioData, "data:audio/wav;base64,") {
		t.Errorf("audio_data = %q", resp.AudioData)
	}
}

func TestAnalyzeVoiceSendsMultipart(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		f, hdr, err := r.FormFile("audio_file")
		if err != nil {
			t.Errorf("audio_file missing: %v", err)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)

		if hdr.Filename != "hello.wav" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		if string(body) != "RIFF" {
			t.Errorf("body = %q", body)
		}
		if rate := r.FormValue("target_sampling_rate"); rate != "4000" {
			t.Errorf("target_sampling_rate = %q, want 4000", rate)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"analysis": map[string]any{
				"waveform_data": map[string]any{
					"time": []float64{0, 1}, "amplitude": []float64{0, 0},
					"is_aliasing": true, "nyquist_frequency": 2000,
				},
				"sampling_info": map[string]any{
					"original_sample_rate": 44100, "analysis_sample_rate": 4000, "nyquist_frequency": 2000,
				},
				"duration": 1.5,
			},
		})
	})

	resp, err := client.AnalyzeVoice(context.Background(), FilePart{Name: "hello.wav", Body: strings.NewReader("RIFF")}, 4000)
	if err != nil {
		t.Fatalf("AnalyzeVoice: %v", err)
	}
	wf := resp.Analysis.WaveformData
	if wf.IsAliasing == nil || !*wf.IsAliasing {
		t.Errorf("is_aliasing = %v, want true", wf.IsAliasing)
	}
	if wf.NyquistFrequency == nil || *wf.NyquistFrequency != 2000 {
		t.Errorf("nyquist = %v, want 2000", wf.NyquistFrequency)
	}
}

func TestMultipartWithoutFile(t *testing.T) {
	client := New("http://127.0.0.1:1")
	_, err := client.AnalyzeVoice(context.Background(), FilePart{}, 8000)
	if !IsKind(err, KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestBackendErrorField(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Base frequency must be between 80 and 1000 Hz",
		})
	})

	_, err := client.GenerateDopplerSound(context.Background(), DopplerRequest{BaseFreq: 10})
	if !IsKind(err, KindBackend) {
		t.Fatalf("err = %v, want backend", err)
	}
	if msg := UserMessage(err); msg != "Base frequency must be between 80 and 1000 Hz" {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestSuccessFalseOnOK(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "x"})
	})

	_, err := client.GenerateDopplerSound(context.Background(), DopplerRequest{})
	if !IsKind(err, KindBackend) {
		t.Fatalf("err = %v, want backend", err)
	}
	if msg := UserMessage(err); !strings.Contains(msg, "x") {
		t.Errorf("UserMessage = %q, want it to contain %q", msg, "x")
	}
}

func TestNonJSONErrorUsesStatusText(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>boom</html>", http.StatusInternalServerError)
	})

	_, err := client.Health(context.Background())
	if msg := UserMessage(err); msg != "Internal Server Error" {
		t.Errorf("UserMessage = %q, want status text", msg)
	}
}

func TestMessageFieldFallback(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
	})

	_, err := client.Health(context.Background())
	if msg := UserMessage(err); msg != "method not allowed" {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestEmptyBodyIsParseError(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Health(context.Background())
	if !IsKind(err, KindParse) {
		t.Fatalf("err = %v, want parse", err)
	}
	if msg := UserMessage(err); msg != MsgUnknown {
		t.Errorf("UserMessage = %q, want %q", msg, MsgUnknown)
	}
}

func TestMalformedJSONIsParseError(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "healthy"`))
	})

	_, err := client.Health(context.Background())
	if !IsKind(err, KindParse) {
		t.Fatalf("err = %v, want parse", err)
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Health(context.Background())
	if !IsKind(err, KindNetwork) {
		t.Fatalf("err = %v, want network", err)
	}
	if msg := UserMessage(err); msg != MsgServerUnreachable {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestDetectDroneTimeout(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, WithDetectTimeout(50*time.Millisecond))

	_, err := client.DetectDrone(context.Background(), FilePart{Name: "drone.wav", Body: strings.NewReader("RIFF")})
	if !IsKind(err, KindNetwork) {
		t.Fatalf("err = %v, want network", err)
	}
	if msg := UserMessage(err); msg != MsgTimeout {
		t.Errorf("UserMessage = %q, want %q", msg, MsgTimeout)
	}
}

func TestDetectDroneDecodesTopClasses(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file field missing: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"prediction": "DRONE",
			"confidence_scores": {"drone": 0.8, "bird": 0.1, "noise": 0.1},
			"confidences": {"Aircraft": 0.5},
			"top_classes": [["Aircraft", 0.5], ["Helicopter", 0.3]],
			"audio_info": {"file_type": "WAV", "file_size": "4 bytes", "analysis_time": "12:00:00"}
		}`))
	})

	got, err := client.DetectDrone(context.Background(), FilePart{Name: "drone.wav", Body: strings.NewReader("RIFF")})
	if err != nil {
		t.Fatalf("DetectDrone: %v", err)
	}
	if got.Prediction != "DRONE" {
		t.Errorf("prediction = %q", got.Prediction)
	}
	if len(got.TopClasses) != 2 || got.TopClasses[1].Name != "Helicopter" || got.TopClasses[1].Score != 0.3 {
		t.Errorf("top_classes = %+v", got.TopClasses)
	}
	if got.AudioInfo.FileType != "WAV" {
		t.Errorf("file_type = %q", got.AudioInfo.FileType)
	}
}

func TestPolarDataQuery(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/eeg/get_polar_data/dynamic" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ch := r.URL.Query().Get("channels"); ch != "Fp1,Fp2" {
			t.Errorf("channels = %q", ch)
		}
		if ct := r.URL.Query().Get("current_time"); ct != "1.5" {
			t.Errorf("current_time = %q", ct)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"Fp1": map[string]any{"r": []float64{1, 2}, "theta": []float64{0, 360}},
		})
	})

	got, err := client.PolarData(context.Background(), PolarDynamic, []string{"Fp1", "Fp2"}, 1.5)
	if err != nil {
		t.Fatalf("PolarData: %v", err)
	}
	if len(got["Fp1"].Theta) != 2 {
		t.Errorf("Fp1 = %+v", got["Fp1"])
	}
}

func TestClassifyEEGRequiresUpload(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "No EEG data loaded. Please upload a file first.",
		})
	})

	_, err := client.ClassifyEEG(context.Background(), "")
	if msg := UserMessage(err); msg != "No EEG data loaded. Please upload a file first." {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestResampleDefaultsToPlayback(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if mode := r.FormValue("mode"); mode != "playback" {
			t.Errorf("mode = %q, want playback", mode)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "audio_data": "data:audio/wav;base64,AA==", "mode": "playback",
		})
	})

	got, err := client.ResampledVoice(context.Background(), FilePart{Name: "v.wav", Body: strings.NewReader("x")}, 4000, "")
	if err != nil {
		t.Fatalf("ResampledVoice: %v", err)
	}
	if got.Mode != ModePlayback {
		t.Errorf("mode = %q", got.Mode)
	}
}

func TestModuleHealth(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ecg/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy", "message": "ECG Analyzer API is running!", "model_loaded": false,
		})
	})

	got, err := client.ModuleHealth(context.Background(), "ecg")
	if err != nil {
		t.Fatalf("ModuleHealth: %v", err)
	}
	if got.Status != "healthy" || got.ModelLoaded == nil || *got.ModelLoaded {
		t.Errorf("health = %+v", got)
	}
}

func TestUploadECGSendsMultipart(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ecg/upload" {
			t.Errorf("path = %q", r.URL.Path)
		}
		f, fh, err := r.FormFile("ecg_file")
		if err != nil {
			t.Fatalf("ecg_file: %v", err)
		}
		defer f.Close()
		if fh.Filename != "leads.csv" {
			t.Errorf("filename = %q", fh.Filename)
		}
		if rate := r.FormValue("sampling_rate"); rate != "500" {
			t.Errorf("sampling_rate = %q", rate)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "ECG file processed successfully!",
			"data":    map[string]any{"lead_names": ECGLeads, "samples_per_lead": 4, "sampling_rate": 500},
			"analysis": map[string]any{
				"heart_rate": 72, "rr_interval": 833, "signal_quality": 85, "total_beats": 9,
			},
		})
	})

	got, err := client.UploadECG(context.Background(), FilePart{Name: "leads.csv", Body: strings.NewReader("I,II\n0,1\n")}, 500)
	if err != nil {
		t.Fatalf("UploadECG: %v", err)
	}
	if got.Analysis.HeartRate != 72 || got.Analysis.TotalBeats != 9 || len(got.Data.LeadNames) != 12 {
		t.Errorf("upload = %+v", got)
	}
}

func TestClassifyECGBody(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var req ECGClassifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.ECGData) != 12 || req.SamplingRate != 360 {
			t.Errorf("request = %d leads at %v Hz", len(req.ECGData), req.SamplingRate)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"predictions":       []map[string]any{{"condition": "AF", "probability": 0.8, "confidence": "High"}},
			"primary_diagnosis": "AF",
			"is_abnormal":       true,
			"message":           "Abnormal ECG",
		})
	})

	got, err := client.ClassifyECG(context.Background(), make([][]float64, 12), 360)
	if err != nil {
		t.Fatalf("ClassifyECG: %v", err)
	}
	if got.PrimaryDiagnosis != "AF" || !got.IsAbnormal || got.Predictions[0].Confidence != "High" {
		t.Errorf("classification = %+v", got)
	}
}

func TestECGPolarDataPath(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ecg/polar-data/fixed" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.URL.Query().Get("current_time"); ct != "2" {
			t.Errorf("current_time = %q", ct)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"II": map[string]any{"r": []float64{0.1, 1.2}, "theta": []float64{0, 1}},
		})
	})

	got, err := client.ECGPolarData(context.Background(), PolarFixed, 2)
	if err != nil {
		t.Fatalf("ECGPolarData: %v", err)
	}
	if len(got["II"].R) != 2 {
		t.Errorf("II = %+v", got["II"])
	}
}

func TestECGStatisticsFlattensRhythm(t *testing.T) {
	client := startMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"heart_rate": 75, "rr_interval": 800, "signal_quality": 90, "total_beats": 12,
			"duration": 10, "sampling_rate": 360, "leads_available": ECGLeads,
		})
	})

	got, err := client.ECGStatistics(context.Background())
	if err != nil {
		t.Fatalf("ECGStatistics: %v", err)
	}
	if got.HeartRate != 75 || got.RRInterval != 800 || got.Duration != 10 || len(got.LeadsAvailable) != 12 {
		t.Errorf("statistics = %+v", got)
	}
}
