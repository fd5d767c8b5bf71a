package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reci/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reci.log")
	logger, closeFn, err := New(Options{Level: "info", Format: "json", Path: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("page loaded", "count", 10)
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "page loaded", entry["msg"])
	assert.Equal(t, float64(10), entry["count"])
}

func TestNewOffDiscards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reci.log")
	logger, closeFn, err := New(Options{Level: "off", Path: path})
	require.NoError(t, err)
	logger.Error("dropped")
	require.NoError(t, closeFn())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, _, err := New(Options{Level: "info", Format: "xml", Path: filepath.Join(t.TempDir(), "x.log")})
	assert.ErrorContains(t, err, "unsupported value")
}

func TestNewFromConfigLevelOverride(t *testing.T) {
	cfg := config.Default()
	cfg.StateDir = t.TempDir()

	logger, closeFn, err := NewFromConfig(&cfg, "debug")
	require.NoError(t, err)
	logger.Debug("verbose")
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(cfg.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "msg=verbose")
}
