package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	isolateEnv(t)
	cfg := defaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "diagrams", cfg.ExportDir)
	assert.Equal(t, "expr", cfg.Engine)
	assert.True(t, strings.HasSuffix(cfg.DBPath, filepath.Join(".jsonlogicui", "library.db")))
}

func TestLoadConfig_SettingsFile(t *testing.T) {
	home := isolateEnv(t)
	dir := filepath.Join(home, ".jsonlogicui")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	settings := `{"db_path": "/custom/rules.db", "engine": "cel"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(settings), 0o644))

	cfg := loadConfig()

	assert.Equal(t, "/custom/rules.db", cfg.DBPath)
	assert.Equal(t, "cel", cfg.Engine)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "diagrams", cfg.ExportDir)
}

func TestLoadConfig_EnvOverridesSettings(t *testing.T) {
	home := isolateEnv(t)
	dir := filepath.Join(home, ".jsonlogicui")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	settings := `{"db_path": "/from-settings.db", "log_level": "warn"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(settings), 0o644))

	t.Setenv("JSONLOGICUI_DB_PATH", "/from-env.db")
	t.Setenv("JSONLOGICUI_LOG_LEVEL", "debug")
	t.Setenv("JSONLOGICUI_EXPORT_DIR", "/exports")
	t.Setenv("JSONLOGICUI_ENGINE", "cel")

	cfg := loadConfig()

	assert.Equal(t, "/from-env.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/exports", cfg.ExportDir)
	assert.Equal(t, "cel", cfg.Engine)
}

func TestLoadConfig_BadSettingsIgnored(t *testing.T) {
	home := isolateEnv(t)
	dir := filepath.Join(home, ".jsonlogicui")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{nope"), 0o644))

	cfg := loadConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "expr", cfg.Engine)
}

func TestNewLogger_Levels(t *testing.T) {
	ctx := context.Background()

	assert.True(t, newLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger("info").Enabled(ctx, slog.LevelDebug))
	assert.True(t, newLogger("info").Enabled(ctx, slog.LevelInfo))
	assert.False(t, newLogger("error").Enabled(ctx, slog.LevelWarn))
	// Unknown levels fall back to info.
	assert.True(t, newLogger("chatty").Enabled(ctx, slog.LevelInfo))
}
