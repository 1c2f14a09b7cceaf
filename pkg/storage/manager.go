package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tempSuffix = ".tmp"

// Manager writes files into one directory atomically and remembers which
// names already exist there.
type Manager struct {
	outputDir string
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and indexes its files
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		saved:     make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), tempSuffix) {
			m.saved[entry.Name()] = true
		}
	}

	return nil
}

// Exists reports whether a file with the given name is present
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.saved[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(filepath.Join(m.outputDir, name)); err == nil {
		m.mu.Lock()
		m.saved[name] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// Save writes the contents of r to name through a temporary file and rename
func (m *Manager) Save(r io.Reader, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	filename := filepath.Join(m.outputDir, name)
	tempFile := filename + tempSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[name] = true
	m.mu.Unlock()

	return nil
}

// WriteJSON saves v as JSON indented with two spaces and returns the file path.
// Characters like & and < are written as is, without a trailing newline.
func (m *Manager) WriteJSON(name string, v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if err := m.Save(bytes.NewReader(data), name); err != nil {
		return "", err
	}
	return m.Path(name), nil
}

// Path returns the full path for name
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of known files
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
