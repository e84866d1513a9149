// Package upload validates user-selected files and numeric controls before
// anything is sent to the backend.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MaxUploadBytes is the 50MB ceiling applied to every upload.
const MaxUploadBytes int64 = 50 * 1024 * 1024

var (
	// ErrUnsupportedType rejects files outside a policy's allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge rejects files over the policy's size ceiling.
	ErrTooLarge = errors.New("file too large")
)

// Policy is the allow-list for one kind of input.
type Policy struct {
	Name       string
	Extensions []string // lower case, without the dot
	MIMETypes  []string
	MaxBytes   int64
}

// AudioPolicy matches the Doppler and voice endpoints.
var AudioPolicy = Policy{
	Name:       "audio",
	Extensions: []string{"wav", "mp3", "flac", "aac", "ogg"},
	MIMETypes: []string{
		"audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave",
		"audio/mpeg", "audio/mp3", "audio/flac", "audio/x-flac",
		"audio/aac", "audio/x-aac", "audio/ogg", "application/ogg",
	},
	MaxBytes: MaxUploadBytes,
}

// DronePolicy matches the drone detector, which takes m4a but not aac.
var DronePolicy = Policy{
	Name:       "audio",
	Extensions: []string{"wav", "mp3", "ogg", "m4a", "flac"},
	MIMETypes: []string{
		"audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave",
		"audio/mpeg", "audio/mp3", "audio/ogg", "application/ogg",
		"audio/mp4", "audio/x-m4a", "audio/flac", "audio/x-flac",
	},
	MaxBytes: MaxUploadBytes,
}

// EEGPolicy accepts the CSV/text exports the EEG parser understands.
var EEGPolicy = Policy{
	Name:       "EEG",
	Extensions: []string{"csv", "txt", "edf"},
	MIMETypes:  []string{"text/csv", "text/plain", "application/vnd.ms-excel"},
	MaxBytes:   MaxUploadBytes,
}

// ECGPolicy accepts 12-lead CSV exports.
var ECGPolicy = Policy{
	Name:       "ECG",
	Extensions: []string{"csv", "txt"},
	MIMETypes:  []string{"text/csv", "text/plain", "application/vnd.ms-excel"},
	MaxBytes:   MaxUploadBytes,
}

// RejectError is returned by Check. Its text is shown to the user as is.
type RejectError struct {
	Err  error
	Text string
}

func (e *RejectError) Error() string { return e.Text }

func (e *RejectError) Unwrap() error { return e.Err }

// Check validates a file's name, MIME type and size. A file is accepted
// when either its extension or its MIME type is on the allow-list, except
// that text/plain is refused outright unless the policy lists it.
func (p Policy) Check(name, mimeType string, size int64) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	base := baseMIME(mimeType)

	if base == mimeText && !p.allows(mimeText) {
		return p.unsupported()
	}
	if !slices.Contains(p.Extensions, ext) && !p.allows(base) {
		return p.unsupported()
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return &RejectError{
			Err:  ErrTooLarge,
			Text: fmt.Sprintf("File too large. Maximum size is %dMB", p.MaxBytes/(1024*1024)),
		}
	}
	return nil
}

const mimeText = "text/plain"

func (p Policy) allows(mimeType string) bool {
	return slices.Contains(p.MIMETypes, mimeType)
}

func (p Policy) unsupported() error {
	return &RejectError{
		Err: ErrUnsupportedType,
		Text: fmt.Sprintf("Please select a valid %s file (%s)",
			p.Name, strings.ToUpper(strings.Join(p.Extensions, ", "))),
	}
}

// File is a validated local file ready to be attached to a request.
type File struct {
	Path     string
	Name     string
	MIMEType string
	Size     int64
}

// Open stats path, detects its MIME type and validates it against p.
func Open(path string, p Policy) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mimeType, err := detectMIME(path)
	if err != nil {
		return nil, err
	}

	f := &File{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     info.Size(),
	}
	if err := p.Check(f.Name, f.MIMEType, f.Size); err != nil {
		return nil, err
	}
	return f, nil
}

// Reader opens the file for upload. The caller closes it.
func (f *File) Reader() (io.ReadCloser, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	return r, nil
}

// detectMIME sniffs the first 512 bytes. Plain text wins over the
// extension so a renamed text file is caught; otherwise the extension
// mapping is preferred and the sniffed type is the fallback.
func detectMIME(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	sniffed := baseMIME(http.DetectContentType(head[:n]))
	if sniffed == mimeText {
		return sniffed, nil
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return baseMIME(t), nil
	}
	return sniffed, nil
}

func baseMIME(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(t))
}
