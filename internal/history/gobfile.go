package history

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// GobFile persists a Snapshot as a gob file written with temp file + rename
type GobFile struct {
	path string
}

// NewGobFile creates a persister for path
func NewGobFile(path string) *GobFile {
	return &GobFile{path: filepath.Clean(path)}
}

// usageData is the serializable representation of a Snapshot
type usageData struct {
	Counts map[string]int64
	Recent []string
}

// Load reads the snapshot. A missing file is a first run, not an error.
func (g *GobFile) Load(_ context.Context) (Snapshot, error) {
	file, err := os.Open(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{Counts: map[string]int64{}}, nil
		}
		return Snapshot{}, fmt.Errorf("failed to open usage file: %w", err)
	}
	defer file.Close() //nolint:errcheck // Deferred close on read-only file

	var data usageData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode usage file: %w", err)
	}
	if data.Counts == nil {
		data.Counts = map[string]int64{}
	}
	return Snapshot{Counts: data.Counts, Recent: data.Recent}, nil
}

// Save writes the snapshot atomically
func (g *GobFile) Save(_ context.Context, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0750); err != nil {
		return fmt.Errorf("failed to create usage directory: %w", err)
	}

	tempPath := g.path + ".tmp"
	// #nosec G304 -- fixed suffix on a cleaned, user-configured path
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := gob.NewEncoder(file).Encode(usageData{Counts: snap.Counts, Recent: snap.Recent}); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to encode usage data: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, g.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Delete removes the usage file; a missing file is not an error
func (g *GobFile) Delete(_ context.Context) error {
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove usage file: %w", err)
	}
	return nil
}
