// pkg/logger/logger_test.go

package logger

import (
	"bytes"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Logger{
		console:  buf,
		out:      log.New(buf, "", 0),
		logLevel: level,
	}, buf
}

func TestLogger_ShouldLog_FiltersBelowLevel(t *testing.T) {
	l, _ := newBufferLogger(LevelWarn)

	assert.False(t, l.shouldLog(LevelDebug))
	assert.False(t, l.shouldLog(LevelInfo))
	assert.True(t, l.shouldLog(LevelWarn))
	assert.True(t, l.shouldLog(LevelError))
	assert.True(t, l.shouldLog(LevelFatal))
}

func TestLogger_ShouldLog_UnknownLevelLogsEverything(t *testing.T) {
	l, _ := newBufferLogger("VERBOSE")

	assert.True(t, l.shouldLog(LevelDebug))
}

func TestLogger_Log_RespectsLevel(t *testing.T) {
	l, buf := newBufferLogger(LevelWarn)

	l.Info("скрытое сообщение")
	l.Warn("видимое сообщение")

	out := buf.String()
	assert.NotContains(t, out, "скрытое сообщение")
	assert.Contains(t, out, "видимое сообщение")
	assert.Contains(t, out, "[WARN]")
}

func TestLogger_Alert_FormatsKind(t *testing.T) {
	l, buf := newBufferLogger(LevelInfo)

	detectedAt := time.Date(2024, 3, 4, 12, 30, 0, 0, time.UTC)
	l.Alert("resolved", detectedAt, 42, 120.5)

	out := buf.String()
	assert.Contains(t, out, "АЛЕРТ [RESOLVED]")
	assert.Contains(t, out, "2024-03-04 12:30")
	assert.Contains(t, out, "значение=42")
}

func TestNewLogger_CreatesLogDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "monitor.log")

	l, err := NewLogger(logPath, LevelInfo, false, RotationConfig{MaxSizeMB: 1})
	require.NoError(t, err)
	defer l.Close()

	require.NotNil(t, l.fileSink)
	assert.Equal(t, logPath, l.fileSink.Filename)
}
