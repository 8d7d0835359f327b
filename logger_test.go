package devindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerIsSilent(t *testing.T) {
	logger := NewDefaultLogger()

	// No-op on every level
	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warn("warn %d", 3)
	logger.Error("error %d", 4)
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStdLogger(&buf)

	logger.Info("hello %s", "world")
	logger.Error("bad thing: %v", "oops")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "bad thing: oops")
}
