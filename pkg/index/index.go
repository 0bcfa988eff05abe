package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errs "imgsearch/pkg/errors"
	"imgsearch/pkg/logger"
	"imgsearch/pkg/models"
)

// FileName is the cache file kept in every query directory
const FileName = "_search_results.json"

// Manager reads and writes the harvested record list of one query directory.
// A present file is trusted as-is: there is no version, checksum or expiry.
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager for <dir>/<fileName>; an empty fileName uses FileName
func NewManager(dir, fileName string, log logger.Logger) *Manager {
	if fileName == "" {
		fileName = FileName
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		path:   filepath.Join(dir, fileName),
		logger: log,
	}
}

// Path returns the cache file location
func (m *Manager) Path() string {
	return m.path
}

// Exists checks if the cache file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Load reads the cached records verbatim, including their indices
func (m *Manager) Load() ([]models.Record, error) {
	file, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var records []models.Record
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode index file %s: %w", m.path, err)
	}

	m.logger.InfoWithFields("Index loaded from cache", map[string]interface{}{
		"path":    m.path,
		"records": len(records),
	})

	return records, nil
}

// Save writes the records atomically through a temporary file
func (m *Manager) Save(records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.Write("failed to create temporary index file", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(records); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Write("failed to encode index", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Write("failed to sync index file", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Write("failed to close index file", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return errs.Write("failed to replace index file", err)
	}

	m.logger.DebugWithFields("Index saved", map[string]interface{}{
		"path":    m.path,
		"records": len(records),
	})

	return nil
}
