package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.SavedCount() != 0 {
		t.Error("Expected initial count to be 0")
	}
	if manager.Exists("abc.jpg") {
		t.Error("Expected Exists to return false for non-existent file")
	}

	testData := []byte("image bytes")
	if err := manager.Save(bytes.NewReader(testData), "abc.jpg"); err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, "abc.jpg"))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}
	if !manager.Exists("abc.jpg") {
		t.Error("Expected Exists to return true for saved file")
	}

	// files created behind the manager's back are picked up on scan
	if err := os.WriteFile(filepath.Join(tempDir, "manual.json"), []byte("[]"), 0644); err != nil {
		t.Fatalf("Failed to create manual file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "partial.jpg.tmp"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	manager2, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create second manager: %v", err)
	}
	if manager2.SavedCount() != 2 {
		t.Errorf("Expected count to be 2 after scanning, got %d", manager2.SavedCount())
	}
	if !manager2.Exists("manual.json") {
		t.Error("Expected manually created file to be detected")
	}
}

func TestWriteJSON(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path, err := manager.WriteJSON("jack_images.json", []string{"a", "b"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"a\",\n  \"b\"\n]", string(data))

	_, err = os.Stat(path + tempSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteJSONKeepsMarkupCharacters(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path, err := manager.WriteJSON("q_tweets.json", map[string]string{"text": "cats & dogs <3 >_<"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"text\": \"cats & dogs <3 >_<\"\n}", string(data))
	assert.NotContains(t, string(data), `\u0026`)
}

func TestSaveRejectsPaths(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../escape.json", "dir/file.json"} {
		assert.Error(t, manager.Save(bytes.NewReader(nil), name), name)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("network dropped") }

func TestSaveCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	err = manager.Save(failingReader{}, "broken.jpg")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, manager.Exists("broken.jpg"))
}
