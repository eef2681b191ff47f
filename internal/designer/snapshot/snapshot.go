// internal/designer/snapshot/snapshot.go

// Package snapshot mirrors the placed-item list to a single JSON slot
// on disk so a session can be restored after restart. It is strictly
// best-effort: write failures are logged and swallowed, and malformed
// or missing data loads as an empty list. The placement store is the
// source of truth; this is only a convenience copy.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Kalebtes2031/art-wall-designer-sub000/internal/designer/placement"
)

type FileStore struct {
	path string
	log  *logrus.Entry
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		log:  logrus.WithField("component", "snapshot"),
	}
}

// Save serializes and writes the full list. Never fails the caller.
func (f *FileStore) Save(items []placement.PlacedItem) {
	data, err := json.Marshal(items)
	if err != nil {
		f.log.WithError(err).Warn("Failed to serialize placement snapshot")
		return
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		f.log.WithError(err).Warn("Failed to create snapshot directory")
		return
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		f.log.WithError(err).Warn("Failed to write placement snapshot")
	}
}

// Load returns the stored list, or an empty list when the slot is
// missing or unreadable.
func (f *FileStore) Load() []placement.PlacedItem {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.WithError(err).Warn("Failed to read placement snapshot")
		}
		return nil
	}

	var items []placement.PlacedItem
	if err := json.Unmarshal(data, &items); err != nil {
		f.log.WithError(err).Warn("Discarding corrupt placement snapshot")
		return nil
	}
	return items
}

// Clear removes the slot (logout, checkout).
func (f *FileStore) Clear() {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.log.WithError(err).Warn("Failed to remove placement snapshot")
	}
}
