package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*SurveyLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = &buf
	return NewLogger(cfg), &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestSurveyLogger_KeyValuePairsBecomeAttributes(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.Info("session started", "session_id", "s1", "questions", 3)

	entry := decodeEntry(t, buf)
	assert.Equal(t, "session started", entry["msg"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.EqualValues(t, 3, entry["questions"])
}

func TestSurveyLogger_DanglingValueIsKept(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.Info("odd args", "session_id", "s1", "orphan")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "orphan", entry["!BADKEY"])
}

func TestSurveyLogger_ContextAndComponentAttached(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l = l.WithComponent("dialogue").WithSession("s9").WithContext("survey_id", 4)

	l.Warn("turn delayed", "duration", "2s")

	entry := decodeEntry(t, buf)
	assert.Equal(t, "dialogue", entry["component"])
	assert.Equal(t, "s9", entry["session_id"])
	assert.EqualValues(t, 4, entry["survey_id"])
	assert.Equal(t, "2s", entry["duration"])
}

func TestSurveyLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Debug("hidden", "k", "v")
	l.Info("hidden too")

	assert.Zero(t, buf.Len())

	l.Error("shown", "k", "v")
	assert.NotZero(t, buf.Len())
}

func TestSurveyLogger_LogTurn(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	l.LogTurn("s1", "wait_answer", "closing", "complete", 40*time.Millisecond)

	entry := decodeEntry(t, buf)
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "wait_answer", entry["phase_before"])
	assert.Equal(t, "closing", entry["phase_after"])
	assert.Equal(t, "complete", entry["outcome"])
}
