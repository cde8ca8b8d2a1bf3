package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestInfoIncludesSubsystem(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Info("Auth", "login completed for %s", "alice")

	out := buf.String()
	assert.Contains(t, out, "subsystem=Auth")
	assert.Contains(t, out, "login completed for alice")
}

func TestDebugFilteredAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Debug("Auth", "noisy detail")
	assert.Empty(t, buf.String())
}

func TestErrorIncludesError(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelError, &buf)

	Error("Store", errors.New("connection refused"), "query failed")

	out := buf.String()
	assert.Contains(t, out, "connection refused")
	assert.True(t, strings.Contains(out, "query failed"))
}
