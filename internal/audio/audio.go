// Package audio turns the backend's base64 data URIs into files: a temp file
// for playback and a named file for downloads.
package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotDataURI is returned for strings without the data: scheme.
var ErrNotDataURI = errors.New("not a data URI")

// ParseDataURI decodes "data:<media type>;base64,<payload>". Only base64
// payloads are accepted; the backend never sends anything else.
func ParseDataURI(s string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing comma", ErrNotDataURI)
	}

	header, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	mediaType = header
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return mediaType, data, nil
}

// Extension returns a file extension for mediaType, defaulting to .wav.
func Extension(mediaType string) string {
	switch mediaType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".wav"
}

// WriteTemp decodes uri into a new temp file and returns its path. The
// caller owns the file and removes it when the audio is discarded.
func WriteTemp(uri string) (string, error) {
	mediaType, data, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "dsplab-*"+Extension(mediaType))
	if err != nil {
		return "", fmt.Errorf("create temp audio: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp audio: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp audio: %w", err)
	}
	return f.Name(), nil
}

// Save decodes uri into dir/name, adding an extension when name has none.
func Save(uri, dir, name string) (string, error) {
	mediaType, data, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if filepath.Ext(name) == "" {
		name += Extension(mediaType)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return path, nil
}
