package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: InfoLevel, Output: &buf}).With("assistant")

	l.Debug("hidden")
	l.Error(errors.New("timeout"), "completion failed", "operation", "chat", "attempt", 2)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "completion failed", entry["message"])
	assert.Equal(t, "timeout", entry["error"])
	assert.Equal(t, "assistant", entry["component"])
	assert.Equal(t, "chat", entry["operation"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("ignored", "k", "v")
	})
}
