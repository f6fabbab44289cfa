package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, "content", cfg.TMDB.RatingStrategy)
	assert.Equal(t, []string{"doubleclick.net", "google-analytics.com", "adnxs.com"}, cfg.AdBlock.Domains)
	assert.Equal(t, []string{"image", "sub_frame", "script"}, cfg.AdBlock.ResourceTypes)
	assert.Equal(t, 100.0, cfg.Detector.MinWidth)
	assert.Equal(t, 100.0, cfg.Detector.MinHeight)
	assert.Equal(t, DefaultSelectors, cfg.Detector.Selectors)
	assert.Equal(t, "movie", cfg.Detector.Widget)
	assert.False(t, cfg.IsConfigured())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
tmdb:
  api_key: abc123
  rating_strategy: vote
  enrich: true
  timeout: 5s
detector:
  min_width: 250
  selectors:
    - ".sponsored"
  widget: custom
  custom_message: Stretch your legs
storage:
  dir: ""
`)

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.TMDB.APIKey)
	assert.Equal(t, "vote", cfg.TMDB.RatingStrategy)
	assert.True(t, cfg.TMDB.Enrich)
	assert.Equal(t, 5*time.Second, cfg.TMDB.Timeout)
	assert.Equal(t, 250.0, cfg.Detector.MinWidth)
	assert.Equal(t, 100.0, cfg.Detector.MinHeight, "unset keys keep defaults")
	assert.Equal(t, []string{".sponsored"}, cfg.Detector.Selectors)
	assert.Equal(t, "custom", cfg.Detector.Widget)
	assert.Equal(t, "Stretch your legs", cfg.Detector.CustomMessage)
	assert.Empty(t, cfg.Storage.Dir)
	assert.True(t, cfg.IsConfigured())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "tmdb:\n  api_key: from-file\n")

	t.Setenv("TMDB_API_KEY", "from-env")
	t.Setenv("MOVIEMATE_SERVER_LISTEN", "127.0.0.1:9999")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TMDB.APIKey)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Listen)
}

func TestLoadConfigPrefixedEnvWins(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")

	t.Setenv("MOVIEMATE_TMDB_API_KEY", "prefixed")
	t.Setenv("TMDB_API_KEY", "plain")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.TMDB.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, "tmdb: [unterminated\n")

	_, err := LoadConfigFrom(path)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"WARNING", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in).String(), tt.in)
	}
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "moviemate.log")
	logger, err := SetupLogger(&LoggingConfig{File: path, Level: "info", MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("hello", "k", "v")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
