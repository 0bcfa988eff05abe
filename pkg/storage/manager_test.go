package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "imgsearch/pkg/errors"
)

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Selfie Stick")

	manager, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, manager.GetOutputDir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// existing directory is fine
	_, err = NewManager(dir)
	assert.NoError(t, err)
}

func TestNewManagerFailsOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := NewManager(path)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeWrite))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "000.png", FileName(0, ".png"))
	assert.Equal(t, "007.jpg", FileName(7, ".jpg"))
	assert.Equal(t, "042.gif", FileName(42, ".gif"))
	assert.Equal(t, "999.webp", FileName(999, ".webp"))
	assert.Equal(t, "1000.jpg", FileName(1000, ".jpg"))
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	data := []byte("test image data")
	path, n, err := manager.SaveImage(bytes.NewReader(data), 7, ".jpg")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "007.jpg"), path)
	assert.Equal(t, int64(len(data)), n)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)

	// re-running overwrites deterministically
	_, n, err = manager.SaveImage(bytes.NewReader([]byte("v2")), 7, ".jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestSaveImageUnwritable(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, _, err = manager.SaveImage(bytes.NewReader([]byte("x")), 1, ".png")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeWrite))
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"image/jpeg", ".jpg", false},
		{"image/png", ".png", false},
		{"image/gif", ".gif", false},
		{"image/webp", ".webp", false},
		{"IMAGE/PNG; charset=binary", ".png", false},
		{"", "", true},
		{"definitely/not-a-type", "", true},
		{"application/octet-stream", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			ext, err := ExtensionFor(tt.contentType)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownContentType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ext)
		})
	}
}

func TestSaveImageSameIndexConcurrently(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	payloads := []string{"aaaa", "bbbbbbbb"}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(data string) {
			defer wg.Done()
			_, _, err := manager.SaveImage(strings.NewReader(data), 3, ".jpg")
			assert.NoError(t, err)
		}(payloads[i%2])
	}
	wg.Wait()

	content, err := os.ReadFile(filepath.Join(dir, "003.jpg"))
	require.NoError(t, err)
	assert.Contains(t, payloads, string(content), "file holds one complete payload")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}
