package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 35, cfg.TurnSeconds)
	assert.Equal(t, time.Second, cfg.TickInterval)
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{
		"ADDR":            ":9000",
		"TURN_SECONDS":    "20",
		"TICK_INTERVAL":   "500ms",
		"ALLOWED_ORIGINS": "http://localhost:3000, https://draft.example.com",
		"LOG_FORMAT":      "json",
		"CLIENT_BURST":    "5",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 20, cfg.TurnSeconds)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, []string{"http://localhost:3000", "https://draft.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5, cfg.ClientBurst)
}

func TestApplyEnv_ReportsEveryBadValue(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{
		"TURN_SECONDS":  "soon",
		"TICK_INTERVAL": "1 second",
	}))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 35, cfg.TurnSeconds, "bad values leave defaults untouched")
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte("turn_seconds: 45\ntick_interval: 2s\nallowed_origins: [\"http://a\"]\n"), 0o600))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, 45, cfg.TurnSeconds)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.Equal(t, []string{"http://a"}, cfg.AllowedOrigins)
	assert.Equal(t, ":3002", cfg.Addr)

	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestValidate_RejectsNonPositiveDurations(t *testing.T) {
	cfg := Default()
	cfg.TurnSeconds = 0
	cfg.TickInterval = 0
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestLoad_FromEnvironment(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir())) // no .env here
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DRAFT_CONFIG", "")
	t.Setenv("TURN_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.TurnSeconds)
}
