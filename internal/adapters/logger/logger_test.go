package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoJournal/internal/ports"
)

var _ ports.Logger = (*LogrusLogger)(nil)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{" warn ", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}

func TestLogrusLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)
	ctx := context.Background()

	log.Debug(ctx, "hidden")
	assert.Zero(t, buf.Len(), "debug must be filtered at info level")

	log.Error(ctx, errors.New("boom"), "Failed to save trade", map[string]interface{}{"tradeID": 7})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Failed to save trade", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(7), entry["tradeID"])
}

func TestLogrusLogger_TextAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "text", &buf).With(map[string]interface{}{"component": "backup"})

	log.Warn(context.Background(), "Backup skipped", map[string]interface{}{"reason": "disabled"})

	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, `msg="Backup skipped"`)
	assert.Contains(t, out, "component=backup")
	assert.Contains(t, out, "reason=disabled")
}
