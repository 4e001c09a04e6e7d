package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestSetupWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWriter(&buf, "burgerhub", "test", "info")
	defer slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	logger.Info("order placed", "order_number", "1005")
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "order placed", entry["message"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "burgerhub", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "1005", entry["order_number"])
	assert.Contains(t, entry, "timestamp")
}

func TestSetupWriter_BridgesStdLog(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "burgerhub", "", "info")

	log.Printf("ERROR: something broke")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ERROR: something broke", entry["message"])
	assert.NotContains(t, entry, "env")
}
