package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AlyssaVMeczkowska/care-radar/internal/activity"
	"github.com/AlyssaVMeczkowska/care-radar/internal/api"
	"github.com/AlyssaVMeczkowska/care-radar/internal/app"
	"github.com/AlyssaVMeczkowska/care-radar/internal/config"
	"github.com/AlyssaVMeczkowska/care-radar/internal/logging"
	"github.com/AlyssaVMeczkowska/care-radar/internal/prefs"
	"github.com/AlyssaVMeczkowska/care-radar/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// The TUI owns stdout, so all logging goes to a rolling file.
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger = logger.With(zap.String("session", uuid.NewString()))
	logger.Info("careradar starting",
		zap.String("apiBase", cfg.APIBase),
		zap.Duration("refreshEvery", cfg.RefreshEvery),
	)

	client := api.NewClient(cfg.APIBase, logger)

	prefStore := prefs.NewStore(prefs.Defaults())
	activityLog := activity.NewLog()

	var store *storage.Store
	if cfg.StateDir != "" {
		store, err = storage.NewStore(cfg.StateDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize state storage: %v\n", err)
			os.Exit(1)
		}
		state, found, err := store.Load()
		if err != nil {
			logger.Warn("persisted state unreadable, starting fresh", zap.Error(err))
		} else if found {
			prefStore = prefs.NewStore(state.Preferences)
			activityLog.Restore(state.Activity)
			logger.Info("session state restored",
				zap.Int("savedQueries", len(state.Preferences.SavedQueries)),
				zap.Int("activityEntries", len(state.Activity)),
			)
		}
	}

	model := app.NewModel(client, store, logger, prefStore, activityLog, app.Options{
		RefreshEvery: cfg.RefreshEvery,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Error("tui exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "tui exited with error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("careradar exiting")
}
