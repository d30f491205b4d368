package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuffer(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return buf
}

func TestVerboseDisabled_PrintsNothing(t *testing.T) {
	buf := withBuffer(t, false)

	Debug("hidden %d", 1)
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	assert.Empty(t, buf.String())
	assert.False(t, IsVerbose())
}

func TestVerboseEnabled_PrefixesLevels(t *testing.T) {
	buf := withBuffer(t, true)

	Debug("candidates=%d", 3)
	Info("identity found")
	Warn("low confidence")
	Section("Extraction")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] candidates=3\n")
	assert.Contains(t, out, "[INFO] identity found\n")
	assert.Contains(t, out, "[WARN] low confidence\n")
	assert.Contains(t, out, "=== Extraction ===")
	assert.True(t, IsVerbose())
}

func TestStage_LogsDuration(t *testing.T) {
	buf := withBuffer(t, true)

	done := Stage("normalise")
	done()

	assert.Contains(t, buf.String(), "stage normalise took")
}
