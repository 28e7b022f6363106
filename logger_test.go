package foodrecipe

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestLoggerService_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerService(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("Rated dish", "dish", 3)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"Rated dish"`)
	assert.Contains(t, buf.String(), `"dish":3`)
}
