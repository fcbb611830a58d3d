package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIBase      string        // backend base URL, e.g. "http://localhost:8000"
	LogDir       string        // logs directory
	StateDir     string        // session-state directory (empty means session-only preferences)
	RefreshEvery time.Duration // radar auto-refresh cadence
}

func FromEnv() Config {
	apiBase := strings.TrimRight(os.Getenv("CARERADAR_API_BASE"), "/")
	if apiBase == "" {
		apiBase = "http://localhost:8000"
	}

	logDir := os.Getenv("CARERADAR_LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	stateDir := os.Getenv("CARERADAR_STATE_DIR")

	refreshEvery := 30 * time.Second
	if v := os.Getenv("CARERADAR_REFRESH_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			refreshEvery = time.Duration(n) * time.Second
		}
	}

	return Config{
		APIBase:      apiBase,
		LogDir:       logDir,
		StateDir:     stateDir,
		RefreshEvery: refreshEvery,
	}
}
