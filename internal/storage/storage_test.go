package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlyssaVMeczkowska/care-radar/internal/activity"
	"github.com/AlyssaVMeczkowska/care-radar/internal/prefs"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for fresh state dir")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	preferences := prefs.Defaults()
	preferences.AutoRefresh = false
	preferences.SavedQueries = []string{"overdue diabetic screenings"}

	state := SessionState{
		Preferences: preferences,
		Activity: []activity.Entry{
			{ID: 42, Kind: activity.KindSave, Description: "Saved query", Timestamp: time.Now().UTC()},
		},
	}
	if err := store.Save(state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatalf("expected persisted state to be found")
	}
	if loaded.Preferences.AutoRefresh {
		t.Fatalf("autoRefresh flag lost in round trip")
	}
	if len(loaded.Preferences.SavedQueries) != 1 || loaded.Preferences.SavedQueries[0] != "overdue diabetic screenings" {
		t.Fatalf("saved queries lost in round trip: %v", loaded.Preferences.SavedQueries)
	}
	if len(loaded.Activity) != 1 || loaded.Activity[0].ID != 42 {
		t.Fatalf("activity lost in round trip: %+v", loaded.Activity)
	}
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, _, err := store.Load(); err == nil {
		t.Fatalf("expected decode error for corrupt state file")
	}
}
