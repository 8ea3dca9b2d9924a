package diagnostics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorst(t *testing.T) {
	assert.Equal(t, Info, Worst(nil))
	assert.Equal(t, Warn, Worst([]Diagnostic{{Severity: Info}, {Severity: Warn}}))
	assert.Equal(t, Err, Worst([]Diagnostic{{Severity: Warn}, {Severity: Err}, {Severity: Info}}))
}

func TestLogUsesSeverity(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	Diagnostic{Severity: Warn, Code: "CAL.MISSING", Summary: "leds missing", Evidence: map[string]any{"count": 3}}.Log(l)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "CAL.MISSING", line["code"])
	assert.Equal(t, "leds missing", line["message"])
	assert.EqualValues(t, 3, line["count"])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []Diagnostic{{Severity: Info, Code: "X", Summary: "ok"}}))
	var got []Diagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "X", got[0].Code)
}
