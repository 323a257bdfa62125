package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/studydesk/internal/testutil"
)

func TestNewToolRegistry(t *testing.T) {
	tmpDir := t.TempDir()
	configFile = testutil.SetupTestConfig(t, tmpDir)
	t.Cleanup(func() { configFile = "" })

	cfg, err := loadConfig()
	require.NoError(t, err)

	registry, err := newToolRegistry(cfg, slog.Default())
	require.NoError(t, err)
	assert.Len(t, registry.List(), 5)

	got, err := registry.Call(context.Background(), "list_modules", nil)
	require.NoError(t, err)
	assert.Len(t, got["modules"], 4)
}

func TestNewToolRegistry_InvalidTimezone(t *testing.T) {
	tmpDir := t.TempDir()
	configFile = testutil.SetupTestConfig(t, tmpDir)
	t.Cleanup(func() { configFile = "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.Catalog.Timezone = "Mars/Olympus"

	_, err = newToolRegistry(cfg, slog.Default())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		wantDebug bool
	}{
		{name: "debug mode enabled", debugMode: true, wantDebug: true},
		{name: "debug mode disabled", debugMode: false, wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newLogger(tt.debugMode)
			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}
