// Package mcpserver exposes the analyzers as MCP tools over stdio so an agent
// can drive the backend without the TUI.
package mcpserver

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/MaiMahmoud182/DSP-task-1/internal/analyzer"
	"github.com/MaiMahmoud182/DSP-task-1/internal/api"
	"github.com/MaiMahmoud182/DSP-task-1/internal/chart"
)

// Server holds one controller per page. Tool calls share their sessions, so
// a second call against a busy analyzer is refused the same way the TUI
// refuses it.
type Server struct {
	deps    analyzer.Deps
	doppler *analyzer.Doppler
	voice   *analyzer.Voice
	drone   *analyzer.Drone
	eeg     *analyzer.EEG
	ecg     *analyzer.ECG
	mcp     *server.MCPServer
}

// New builds the server and registers every tool.
func New(deps analyzer.Deps, version string) *Server {
	s := &Server{
		deps:    deps,
		doppler: analyzer.NewDoppler(deps),
		voice:   analyzer.NewVoice(deps),
		drone:   analyzer.NewDrone(deps),
		eeg:     analyzer.NewEEG(deps),
		ecg:     analyzer.NewECG(deps),
		mcp: server.NewMCPServer(
			"dsplab",
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("backend_health",
		mcp.WithDescription("Check that the analysis backend and each of its modules are reachable"),
	), s.handleHealth)

	s.mcp.AddTool(mcp.NewTool("generate_doppler_sound",
		mcp.WithDescription("Synthesize the sound of a vehicle passing at a given speed"),
		mcp.WithNumber("base_freq", mcp.Description("Engine frequency in Hz (80-1000, default 120)")),
		mcp.WithNumber("velocity", mcp.Description("Vehicle speed in km/h (0-500, default 60)")),
		mcp.WithNumber("duration", mcp.Description("Length in seconds (1-10, default 6)")),
		mcp.WithNumber("sampling_rate", mcp.Description("Output sampling rate in Hz (default 44100)")),
		mcp.WithBoolean("chart", mcp.Description("Write a waveform PNG to the output directory")),
	), s.handleGenerate)

	s.mcp.AddTool(mcp.NewTool("analyze_vehicle_sound",
		mcp.WithDescription("Estimate vehicle speed from a recording using the Doppler shift"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a WAV, MP3, FLAC, AAC or OGG file")),
		mcp.WithNumber("target_rate", mcp.Description("Analysis sampling rate in Hz (100-48000, default 8000)")),
		mcp.WithBoolean("chart", mcp.Description("Write waveform and spectrogram PNGs to the output directory")),
	), s.handleVehicle)

	s.mcp.AddTool(mcp.NewTool("analyze_voice",
		mcp.WithDescription("Resample a voice clip and report whether it aliases"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to an audio file")),
		mcp.WithNumber("target_rate", mcp.Description("Analysis sampling rate in Hz (100-48000, default 8000)")),
		mcp.WithBoolean("chart", mcp.Description("Write a waveform PNG to the output directory")),
	), s.handleVoice)

	s.mcp.AddTool(mcp.NewTool("detect_drone",
		mcp.WithDescription("Classify an audio clip as drone, bird or noise"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a WAV, MP3, OGG, M4A or FLAC file")),
		mcp.WithBoolean("chart", mcp.Description("Write a confidence bar chart to the output directory")),
	), s.handleDrone)

	s.mcp.AddTool(mcp.NewTool("upload_eeg",
		mcp.WithDescription("Upload an EEG recording; later EEG tools work on it"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a CSV or TXT recording")),
		mcp.WithNumber("sampling_rate", mcp.Description("Sampling rate in Hz (100-1000, default 250)")),
	), s.handleEEGUpload)

	s.mcp.AddTool(mcp.NewTool("classify_eeg",
		mcp.WithDescription("Band powers, signal quality and insights for the uploaded EEG recording"),
		mcp.WithString("analysis_type", mcp.Description("Analysis type (default basic)")),
		mcp.WithBoolean("chart", mcp.Description("Write a polar plot of every channel to the output directory")),
	), s.handleEEGClassify)

	s.mcp.AddTool(mcp.NewTool("upload_ecg",
		mcp.WithDescription("Upload a 12-lead ECG recording; classify_ecg works on it"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a CSV or TXT recording, one column per lead")),
		mcp.WithNumber("sampling_rate", mcp.Description("Sampling rate in Hz (100-1000, default 360)")),
		mcp.WithBoolean("chart", mcp.Description("Write a cumulative polar plot of every lead to the output directory")),
	), s.handleECGUpload)

	s.mcp.AddTool(mcp.NewTool("classify_ecg",
		mcp.WithDescription("Classify the uploaded ECG recording"),
	), s.handleECGClassify)

	s.mcp.AddTool(mcp.NewTool("analyze_ecg",
		mcp.WithDescription("Beat statistics for an ECG file without keeping it on the backend"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a CSV or TXT recording, one column per lead")),
		mcp.WithNumber("sampling_rate", mcp.Description("Sampling rate in Hz (100-1000, default 360)")),
	), s.handleECGAnalyze)
}

func (s *Server) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h, err := s.deps.Client.Health(ctx)
	if err != nil {
		return failure(err), nil
	}
	text := fmt.Sprintf("Backend %s at %s", h.Status, s.deps.Client.BaseURL())
	if h.Version != "" {
		text += " (version " + h.Version + ")"
	}
	if h.Message != "" {
		text += "\n" + h.Message
	}
	for _, name := range api.Modules {
		mh, err := s.deps.Client.ModuleHealth(ctx, name)
		if err != nil {
			text += fmt.Sprintf("\n%s: %s", name, api.UserMessage(err))
			continue
		}
		text += fmt.Sprintf("\n%s: %s", name, mh.Status)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := s.doppler.Sliders.Config()
	cfg.BaseFrequency = request.GetFloat("base_freq", cfg.BaseFrequency)
	cfg.Velocity = request.GetFloat("velocity", cfg.Velocity)
	cfg.Duration = request.GetFloat("duration", cfg.Duration)
	cfg.SamplingRate = request.GetFloat("sampling_rate", cfg.SamplingRate)

	out, err := s.doppler.Generate(ctx, cfg)
	if err != nil {
		return failure(err), nil
	}

	var b strings.Builder
	writeFields(&b, s.doppler.GenDisplay)
	if path := s.doppler.Generator().AudioPath(); path != "" {
		fmt.Fprintf(&b, "Audio: %s\n", path)
	}
	if request.GetBool("chart", false) {
		fig, err := chart.Waveform(out.WaveformVisualization, "Generated Doppler sound")
		s.writeChart(&b, "doppler_waveform.png", fig, err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleVehicle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if r := s.selectFile(s.doppler.Vehicle.Select, path); r != nil {
		return r, nil
	}
	if rate := request.GetFloat("target_rate", 0); rate > 0 {
		s.doppler.Rate.Set(rate)
	}

	res, err := s.doppler.AnalyzeVehicle(ctx)
	if err != nil {
		return failure(err), nil
	}

	var b strings.Builder
	if !res.Analysis.IsVehicle {
		b.WriteString("No vehicle detected\n")
	}
	writeFields(&b, s.doppler.Vehicle.Display())
	if request.GetBool("chart", false) {
		if res.Analysis.WaveformData != nil {
			fig, err := chart.Waveform(*res.Analysis.WaveformData, "Vehicle sound")
			s.writeChart(&b, "vehicle_waveform.png", fig, err)
		}
		sg, err := s.doppler.Spectrogram(ctx)
		if err != nil {
			fmt.Fprintf(&b, "Spectrogram: %s\n", analyzer.Notify(err).Text)
		} else if img, err := chart.Spectrogram(sg, 4); err != nil {
			fmt.Fprintf(&b, "Spectrogram: %v\n", err)
		} else {
			s.writeImage(&b, "vehicle_spectrogram.png", img)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleVoice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if r := s.selectFile(s.voice.Select, path); r != nil {
		return r, nil
	}
	if rate := request.GetFloat("target_rate", 0); rate > 0 {
		s.voice.Rate.Set(rate)
	}

	res, err := s.voice.Analyze(ctx)
	if err != nil {
		return failure(err), nil
	}

	var b strings.Builder
	writeFields(&b, s.voice.Display())
	if request.GetBool("chart", false) {
		fig, err := chart.Waveform(res.Analysis.WaveformData, fmt.Sprintf("Voice at %.0f Hz", res.Analysis.SamplingInfo.AnalysisSampleRate))
		s.writeChart(&b, "voice_waveform.png", fig, err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleDrone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if r := s.selectFile(s.drone.Select, path); r != nil {
		return r, nil
	}

	res, err := s.drone.Detect(ctx)
	if err != nil {
		return failure(err), nil
	}

	var b strings.Builder
	writeFields(&b, s.drone.Display())
	if request.GetBool("chart", false) {
		fig, err := chart.Confidence(res)
		s.writeChart(&b, "drone_confidence.png", fig, err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleEEGUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if r := s.selectFile(s.eeg.Select, path); r != nil {
		return r, nil
	}
	if rate := request.GetFloat("sampling_rate", 0); rate > 0 {
		s.eeg.Rate.Set(rate)
	}

	if _, err := s.eeg.Upload(ctx); err != nil {
		return failure(err), nil
	}
	var b strings.Builder
	writeFields(&b, s.eeg.Display())
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleEEGClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.eeg.Classify(ctx, request.GetString("analysis_type", ""))
	if err != nil {
		return failure(err), nil
	}

	var b strings.Builder
	writeFields(&b, s.eeg.Display())
	for _, line := range c.Insights {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	if request.GetBool("chart", false) {
		polar, err := s.eeg.Polar(ctx, api.PolarDynamic, nil, 0)
		if err != nil {
			fmt.Fprintf(&b, "Polar: %s\n", analyzer.Notify(err).Text)
		} else {
			fig, err := chart.Polar(polar, "EEG polar")
			s.writeChart(&b, "eeg_polar.png", fig, err)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleECGUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if r := s.selectFile(s.ecg.Select, path); r != nil {
		return r, nil
	}
	if rate := request.GetFloat("sampling_rate", 0); rate > 0 {
		s.ecg.Rate.Set(rate)
	}

	if _, err := s.ecg.Upload(ctx); err != nil {
		return failure(err), nil
	}
	var b strings.Builder
	writeFields(&b, s.ecg.Display())
	if request.GetBool("chart", false) {
		polar, err := s.ecg.Polar(ctx, api.PolarCumulative, 0)
		if err != nil {
			fmt.Fprintf(&b, "Polar: %s\n", analyzer.Notify(err).Text)
		} else {
			fig, err := chart.Polar(polar, "ECG polar")
			s.writeChart(&b, "ecg_polar.png", fig, err)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleECGClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.ecg.Classify(ctx)
	if err != nil {
		return failure(err), nil
	}

	var b strings.Builder
	writeFields(&b, s.ecg.Display())
	for _, p := range c.Predictions {
		fmt.Fprintf(&b, "- %s: %.0f%%\n", p.Condition, p.Probability*100)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleECGAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if r := s.selectFile(s.ecg.Select, path); r != nil {
		return r, nil
	}
	if rate := request.GetFloat("sampling_rate", 0); rate > 0 {
		s.ecg.Rate.Set(rate)
	}

	if _, err := s.ecg.Inspect(ctx); err != nil {
		return failure(err), nil
	}
	var b strings.Builder
	writeFields(&b, s.ecg.Display())
	return mcp.NewToolResultText(b.String()), nil
}

// selectFile returns a tool error when the file is rejected, nil otherwise.
func (s *Server) selectFile(sel func(string) (analyzer.Notification, error), path string) *mcp.CallToolResult {
	n, err := sel(path)
	if err != nil {
		return mcp.NewToolResultError(n.Text)
	}
	return nil
}

func (s *Server) writeChart(b *strings.Builder, name string, fig chart.Figure, err error) {
	if err == nil {
		path := filepath.Join(s.deps.OutputDir, name)
		if err = chart.WritePNG(path, fig); err == nil {
			fmt.Fprintf(b, "Chart: %s\n", path)
			return
		}
	}
	s.logger().Warn("chart not written", zap.String("name", name), zap.Error(err))
	fmt.Fprintf(b, "Chart %s not written: %v\n", name, err)
}

func (s *Server) writeImage(b *strings.Builder, name string, img image.Image) {
	path := filepath.Join(s.deps.OutputDir, name)
	if err := chart.WriteImagePNG(path, img); err != nil {
		s.logger().Warn("image not written", zap.String("name", name), zap.Error(err))
		fmt.Fprintf(b, "Chart %s not written: %v\n", name, err)
		return
	}
	fmt.Fprintf(b, "Chart: %s\n", path)
}

func (s *Server) logger() *zap.Logger {
	if s.deps.Logger == nil {
		return zap.NewNop()
	}
	return s.deps.Logger
}

func writeFields(b *strings.Builder, d *analyzer.Display) {
	for _, f := range d.Fields() {
		fmt.Fprintf(b, "%s: %s\n", f.Label, f.Value)
	}
}

func failure(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(analyzer.Notify(err).Text)
}
