package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/internal/logging"
)

// Config holds all jsonlogicui CLI configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	DBPath    string `json:"db_path"`
	LogLevel  string `json:"log_level"`
	ExportDir string `json:"export_dir"`
	Engine    string `json:"engine"`
}

func defaultConfig() Config {
	return Config{
		DBPath:    filepath.Join(jsonlogicuiDir(), "library.db"),
		LogLevel:  "info",
		ExportDir: "diagrams",
		Engine:    evalbridge.DefaultEngine,
	}
}

func jsonlogicuiDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jsonlogicui"
	}
	return filepath.Join(home, ".jsonlogicui")
}

func settingsPath() string {
	return filepath.Join(jsonlogicuiDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("JSONLOGICUI_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("JSONLOGICUI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JSONLOGICUI_EXPORT_DIR"); v != "" {
		cfg.ExportDir = v
	}
	if v := os.Getenv("JSONLOGICUI_ENGINE"); v != "" {
		cfg.Engine = v
	}

	return cfg
}

// newLogger builds the CLI logger: text to stderr, wrapped so rule name,
// surface and format flow in from the context on every line.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
