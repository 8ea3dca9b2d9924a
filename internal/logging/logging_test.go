package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, false)
	l.Debug().Msg("hidden")
	l.Info().Int("leds", 650).Msg("led controller running")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "led controller running", line["message"])
	assert.Equal(t, float64(650), line["leds"])
	assert.Contains(t, line, "time")
}

func TestNewConsoleDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true, true)
	l.Debug().Str("effect", "random_plane").Msg("plane sweep")
	out := buf.String()
	assert.Contains(t, out, "plane sweep")
	assert.Contains(t, out, "random_plane")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
