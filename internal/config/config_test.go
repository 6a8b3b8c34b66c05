package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "tentflow.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TENTFLOW_SERVER_HOST", "127.0.0.1")
	t.Setenv("TENTFLOW_SERVER_PORT", "9090")
	t.Setenv("TENTFLOW_DB_PATH", "/tmp/test.db")
	t.Setenv("TENTFLOW_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "/tmp/test.db", cfg.DB.Path)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("TENTFLOW_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\nlog:\n  level: warn\n"), 0o644))

	t.Setenv("TENTFLOW_CONFIG_PATH", path)
	t.Setenv("TENTFLOW_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Server.Port)
	// Environment wins over the file
	require.Equal(t, slog.LevelError, cfg.LogLevel())
}
