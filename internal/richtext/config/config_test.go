package config

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/ederrors"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.Trace)
	assert.True(t, cfg.LinkDetection)
	assert.Empty(t, cfg.LinkSchemes)
	assert.True(t, cfg.SanitizeImport)
	assert.True(t, cfg.MinifyImport)
	assert.Equal(t, DefaultMaxImportBytes, cfg.MaxImportBytes)
	assert.Equal(t, "paragraph", cfg.DefaultBlock)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.False(t, cfg.Metrics)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestReadConfigFromEnv(t *testing.T) {
	t.Setenv("RICHTEXT_TRACE", "true")
	t.Setenv("RICHTEXT_LINK_DETECTION", "false")
	t.Setenv("RICHTEXT_LINK_SCHEMES", "HTTP, https,,")
	t.Setenv("RICHTEXT_MINIFY_IMPORT", "0")
	t.Setenv("RICHTEXT_MAX_IMPORT_BYTES", "0")
	t.Setenv("RICHTEXT_DEFAULT_BLOCK", "heading-two")
	t.Setenv("RICHTEXT_HISTORY_LIMIT", "5")
	t.Setenv("RICHTEXT_METRICS", "1")

	cfg, err := ReadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Trace)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.False(t, cfg.LinkDetection)
	assert.Equal(t, []string{"http", "https"}, cfg.LinkSchemes)
	assert.True(t, cfg.SanitizeImport)
	assert.False(t, cfg.MinifyImport)
	assert.Equal(t, 0, cfg.MaxImportBytes)
	assert.Equal(t, "heading-two", cfg.DefaultBlock)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.True(t, cfg.Metrics)
}

func TestReadConfigEmptyValueKeepsDefault(t *testing.T) {
	t.Setenv("RICHTEXT_DEFAULT_BLOCK", "")

	cfg, err := ReadConfig()
	require.NoError(t, err)
	assert.Equal(t, "paragraph", cfg.DefaultBlock)
}

func TestReadConfigInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown block", "RICHTEXT_DEFAULT_BLOCK", "list-item"},
		{"negative limit", "RICHTEXT_HISTORY_LIMIT", "-3"},
		{"not a number", "RICHTEXT_MAX_IMPORT_BYTES", "1MB"},
		{"bad scheme", "RICHTEXT_LINK_SCHEMES", "http,svn+ssh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := ReadConfig()
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, ederrors.ErrInvalidConfig), "got %v", err)
		})
	}
}
