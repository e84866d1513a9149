// Package mockbackend serves deterministic fixtures for every analysis
// endpoint, with the same request validation and error shapes as the real
// backend. It backs integration tests and the "mock" subcommand.
package mockbackend

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server holds the state the real backend keeps between calls: the last
// uploaded EEG and ECG recordings.
type Server struct {
	logger *zap.Logger

	mu  sync.Mutex
	eeg *eegRecording
	ecg *ecgRecording

	// Delay is added before every response.
	Delay time.Duration
}

// New returns a Server.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{logger: logger}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(s.delay())

	r.GET("/api/health", s.health)

	r.GET("/api/doppler/health", s.moduleHealth("doppler"))
	r.GET("/api/voice/health", s.moduleHealth("voice"))
	r.POST("/api/generate-doppler-sound", s.generateDoppler)
	r.POST("/api/analyze-vehicle-sound", s.analyzeVehicle)
	r.POST("/api/get-spectrogram", s.spectrogram)
	r.POST("/api/get-resampled-audio", s.resampled)

	r.POST("/api/analyze-voice", s.analyzeVoice)
	r.POST("/api/get-resampled-voice", s.resampled)

	eeg := r.Group("/api/eeg")
	{
		eeg.GET("/health", s.moduleHealth("eeg"))
		eeg.POST("/upload", s.uploadEEG)
		eeg.POST("/classify", s.classifyEEG)
		eeg.GET("/get_polar_data/:mode", s.polarData)
		eeg.POST("/get_recurrence_data", s.recurrenceData)
		eeg.GET("/channels", s.channels)
		eeg.POST("/reset", s.resetEEG)
	}

	ecg := r.Group("/api/ecg")
	{
		ecg.GET("/health", s.ecgHealth)
		ecg.POST("/upload", s.uploadECG)
		ecg.POST("/classify", s.classifyECG)
		ecg.GET("/polar-data/:mode", s.ecgPolarData)
		ecg.POST("/analyze", s.analyzeECG)
		ecg.GET("/statistics", s.ecgStatistics)
	}

	drone := r.Group("/api/drone")
	{
		drone.GET("/health", s.moduleHealth("drone"))
		drone.POST("/detect", s.detectDrone)
		drone.POST("/analyze", s.detectDrone)
		drone.GET("/classes", s.droneClasses)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Endpoint not found"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock backend listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("mock request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) delay() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Delay <= 0 {
			return
		}
		select {
		case <-time.After(s.Delay):
		case <-c.Request.Context().Done():
			c.Abort()
		}
	}
}
