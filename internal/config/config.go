// Package config loads dsplab settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the analysis backend origin used when none is configured.
const DefaultBaseURL = "http://localhost:5000"

// Config holds every setting the front ends need.
type Config struct {
	BaseURL       string
	DataDir       string
	OutputDir     string
	DBPath        string
	LogFile       string
	LogLevel      string
	DetectTimeout time.Duration
	MockAddr      string
}

// Load reads .env (if present) and then the DSPLAB_* environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DSPLAB_DATA_DIR", defaultDataDir())

	timeout, err := time.ParseDuration(getEnv("DSPLAB_DETECT_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DSPLAB_DETECT_TIMEOUT: %w", err)
	}

	return Config{
		BaseURL:       getEnv("DSPLAB_BASE_URL", DefaultBaseURL),
		DataDir:       dataDir,
		OutputDir:     getEnv("DSPLAB_OUTPUT_DIR", filepath.Join(dataDir, "exports")),
		DBPath:        getEnv("DSPLAB_DB_PATH", filepath.Join(dataDir, "history.sqlite")),
		LogFile:       getEnv("DSPLAB_LOG_FILE", filepath.Join(dataDir, "dsplab.log")),
		LogLevel:      getEnv("DSPLAB_LOG_LEVEL", "info"),
		DetectTimeout: timeout,
		MockAddr:      getEnv("DSPLAB_MOCK_ADDR", ":5000"),
	}, nil
}

// EnsureDirs creates the data and output directories.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dsplab")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
