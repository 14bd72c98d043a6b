package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*RoundtableLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&LoggerConfig{
		Level:       level,
		Format:      "json",
		Output:      buf,
		CustomAttrs: map[string]interface{}{},
	})
	return logger, buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	line, err := buf.ReadBytes('\n')
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(line, &m))
	return m
}

func TestRoundtableLogger_KeyValueArgs(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelDebug)

	logger.Info("workbench.call.success", "tool", "jira_search", "attempt", 2)

	entry := decodeLine(t, buf)
	assert.Equal(t, "workbench.call.success", entry["msg"])
	assert.Equal(t, "jira_search", entry["tool"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestRoundtableLogger_LevelGate(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelWarn)

	logger.Info("team.turn")
	assert.Zero(t, buf.Len())

	logger.Warn("session.transcript.error", "error", "redis down")
	entry := decodeLine(t, buf)
	assert.Equal(t, "session.transcript.error", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestRoundtableLogger_WithHelpers(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	scoped := logger.WithComponent("team").WithSession("s-42").WithContext("task", "triage")
	scoped.Info("team.run.start")

	entry := decodeLine(t, buf)
	assert.Equal(t, "team", entry["component"])
	assert.Equal(t, "s-42", entry["session_id"])
	assert.Equal(t, "triage", entry["task"])

	// The parent logger is untouched.
	logger.Info("plain")
	entry = decodeLine(t, buf)
	assert.NotContains(t, entry, "component")
	assert.NotContains(t, entry, "session_id")
}

func TestRoundtableLogger_LogTurn(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogTurn("tester", 3, 120*time.Millisecond, true, nil)
	entry := decodeLine(t, buf)
	assert.Equal(t, "Turn completed", entry["msg"])
	assert.Equal(t, "tester", entry["participant"])
	assert.Equal(t, float64(3), entry["round"])
	assert.Equal(t, true, entry["success"])

	logger.LogTurn("tester", 4, time.Millisecond, false, errors.New("backend quota"))
	entry = decodeLine(t, buf)
	assert.Equal(t, "Turn failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "backend quota", entry["error"])
}

func TestRoundtableLogger_LogToolCall(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogToolCall("browser_navigate", 50*time.Millisecond, false, errors.New("timeout"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "Tool execution failed", entry["msg"])
	assert.Equal(t, "browser_navigate", entry["tool_name"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "timeout", entry["error"])
}

func TestRoundtableLogger_LogModelCall(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogModelCall("gemini-2.0-flash", 512, 2*time.Second, true, nil)

	entry := decodeLine(t, buf)
	assert.Equal(t, "Model call completed", entry["msg"])
	assert.Equal(t, "gemini-2.0-flash", entry["model"])
	assert.Equal(t, float64(512), entry["token_count"])
}

func TestRoundtableLogger_ErrorWithStack(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelError)

	logger.ErrorWithStack(errors.New("boom"), "session.run.panic", "session_id", "s-1")

	entry := decodeLine(t, buf)
	assert.Equal(t, "session.run.panic", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry["error_type"], "errorString")
	assert.NotEmpty(t, entry["stack_trace"])
	assert.Equal(t, "s-1", entry["session_id"])
}

func TestRoundtableLogger_StartTimer(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	done := logger.StartTimer("transcript.flush")
	done()

	entry := decodeLine(t, buf)
	assert.Equal(t, "Operation completed", entry["msg"])
	assert.Equal(t, "transcript.flush", entry["operation"])
	assert.Contains(t, entry, "duration")
}

func TestRoundtableLogger_LogPerformance(t *testing.T) {
	logger, buf := newBufferLogger(LogLevelInfo)

	logger.LogPerformance("session.run", 3*time.Second, map[string]interface{}{
		"messages": 12,
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "Performance metrics", entry["msg"])
	assert.Equal(t, "session.run", entry["operation"])
	assert.Equal(t, float64(12), entry["metric_messages"])
}

func TestSlogAdapter(t *testing.T) {
	buf := &bytes.Buffer{}
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(buf, nil)))

	adapter.Info("adapter.test", "key", "value")

	entry := decodeLine(t, buf)
	assert.Equal(t, "adapter.test", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestNoOpLogger(t *testing.T) {
	var logger Logger = NoOpLogger{}

	// Must accept any call without output or panic.
	logger.Debug("a")
	logger.Info("b", "k", 1)
	logger.Warn("c")
	logger.Error("d", "err", errors.New("x"))
}
