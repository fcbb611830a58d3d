// Package storage persists dashboard session state between runs. It is an
// optional collaborator: without a configured state directory the dashboard
// keeps preferences and the activity trail in memory only.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AlyssaVMeczkowska/care-radar/internal/activity"
	"github.com/AlyssaVMeczkowska/care-radar/internal/prefs"
)

const stateFileName = "session.json"

type SessionState struct {
	Preferences prefs.Preferences `json:"preferences"`
	Activity    []activity.Entry  `json:"activity"`
}

type Store struct {
	dir  string
	path string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir, path: filepath.Join(dir, stateFileName)}, nil
}

// Load reads the persisted state. A missing file is not an error; the second
// return reports whether anything was found.
func (s *Store) Load() (SessionState, bool, error) {
	var state SessionState
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state, false, nil
		}
		return state, false, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(blob, &state); err != nil {
		return SessionState{}, false, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return state, true, nil
}

func (s *Store) Save(state SessionState) error {
	return writeJSON(s.path, state)
}

func writeJSON(path string, value any) error {
	blob, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json for %s: %w", path, err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
