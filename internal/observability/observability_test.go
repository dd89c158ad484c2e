package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "")

	l.LogSettle("b1", "Gemini", errors.New("empty response"))

	var evt Event
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &evt))
	assert.Equal(t, EventTypeSettle, evt.Type)
	assert.Equal(t, "Gemini", evt.Target)
	assert.Equal(t, "b1", evt.BatchID)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestLogger_LLMEventsGoToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "llm.jsonl")
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, path)

	l.LogLLM("Grok", "generate", "goal", `{"prompt":"p"}`)
	l.LogStep("Grok", 1, 2, "started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestActivity(t *testing.T) {
	BeginActivity("compare", 2)
	assert.True(t, GetActivity().Running)

	RecordSettled(false)
	RecordSettled(true)

	a := GetActivity()
	assert.False(t, a.Running)
	assert.Equal(t, 2, a.Settled)
	assert.Equal(t, 1, a.Failed)

	line := ProgressLine(a, 0, 80)
	assert.Contains(t, line, "compare")
	assert.Contains(t, line, "2/2 settled, 1 failed")
}

func TestActivity_OverlappingBatchesAccumulate(t *testing.T) {
	BeginActivity("first", 2)
	RecordSettled(false)
	BeginActivity("second", 1)

	a := GetActivity()
	assert.True(t, a.Running)
	assert.Equal(t, 3, a.Total)
	assert.Equal(t, 1, a.Settled)

	RecordSettled(true)
	assert.True(t, GetActivity().Running)
	RecordSettled(false)

	a = GetActivity()
	assert.False(t, a.Running)
	assert.Equal(t, 3, a.Settled)
	assert.Equal(t, 1, a.Failed)

	BeginActivity("third", 1)
	a = GetActivity()
	assert.Equal(t, 1, a.Total)
	assert.Equal(t, 0, a.Settled)
}
