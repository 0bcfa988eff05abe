package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	errs "imgsearch/pkg/errors"
)

// FileDigits is the zero-padded width of image file names
const FileDigits = 3

// Manager writes downloaded images into one query directory
type Manager struct {
	outputDir string
}

// NewManager creates a storage manager, creating outputDir when absent
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.Write(fmt.Sprintf("failed to create output directory %s", outputDir), err)
	}

	info, err := os.Stat(outputDir)
	if err != nil {
		return nil, errs.Write("failed to stat output directory", err)
	}
	if !info.IsDir() {
		return nil, errs.Write(fmt.Sprintf("%s is not a directory", outputDir), fs.ErrExist)
	}

	return &Manager{outputDir: outputDir}, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// FileName returns the image file name for a record index, e.g. 007.jpg
func FileName(index int, ext string) string {
	return fmt.Sprintf("%0*d%s", FileDigits, index, ext)
}

// SaveImage writes r to <outputDir>/<FileName(index, ext)> and returns the
// path and the number of bytes written. An existing file is replaced.
func (m *Manager) SaveImage(r io.Reader, index int, ext string) (string, int64, error) {
	filename := filepath.Join(m.outputDir, FileName(index, ext))

	// Unique temp name: a trusted cache may repeat an index
	out, err := os.CreateTemp(m.outputDir, FileName(index, ext)+".*.tmp")
	if err != nil {
		return "", 0, errs.Write("failed to create temporary file", err)
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Write("failed to save image data", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", 0, errs.Write("failed to close file", closeErr)
	}

	// CreateTemp uses 0600
	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Write("failed to set file mode", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Write("failed to rename temporary file", err)
	}

	return filename, written, nil
}

// ErrUnknownContentType is returned when no extension maps to a content type
var ErrUnknownContentType = errors.New("no file extension for content type")

// ExtensionFor derives a file extension (with leading dot) from a
// Content-Type header value. Parameters such as charset are ignored.
func ExtensionFor(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrUnknownContentType, contentType, err)
	}

	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return m.Extension(), nil
	}

	// The stdlib table depends on the host's mime.types, so it is only
	// consulted for image types mimetype does not know.
	if strings.HasPrefix(mediaType, "image/") {
		if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
			return exts[0], nil
		}
	}

	return "", fmt.Errorf("%w %q", ErrUnknownContentType, contentType)
}
