package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

func TestAnalyzeCmd_Text(t *testing.T) {
	path := writeReport(t, t.TempDir(), "informe.txt", criticalReport)

	out, err := runCLI(t, newTestServices(t), nil, "analyze", path)

	require.NoError(t, err)
	assert.Contains(t, out, "12.345.678-5")
	assert.Contains(t, out, "GLU")
	assert.Contains(t, out, string(domain.PriorityHigh))
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	path := writeReport(t, t.TempDir(), "informe.txt", criticalReport)

	out, err := runCLI(t, newTestServices(t), nil, "analyze", "--json", "--age", "70", "--sex", "F", path)
	require.NoError(t, err)

	var a domain.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, domain.PriorityHigh, a.Priority.Level)
	assert.NotEmpty(t, a.CriticalValues)
	assert.Greater(t, a.Priority.Breakdown.AgeFactorBonus, 0.0)
}

func TestAnalyzeCmd_Stdin(t *testing.T) {
	out, err := runCLI(t, newTestServices(t), strings.NewReader(normalReport),
		"analyze", "--json", "--mime", "text/plain", "-")
	require.NoError(t, err)

	var a domain.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, domain.PriorityLow, a.Priority.Level)
}

func TestAnalyzeCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeReport(t, dir, "informe.txt", normalReport)

	t.Run("unknown sex", func(t *testing.T) {
		_, err := runCLI(t, newTestServices(t), nil, "analyze", "--sex", "X", path)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := runCLI(t, newTestServices(t), nil, "analyze", filepath.Join(dir, "absent.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("no services", func(t *testing.T) {
		_, err := runCLI(t, nil, nil, "analyze", path)
		assert.Error(t, err)
	})
}

func TestMimeFromExt(t *testing.T) {
	assert.Equal(t, "application/pdf", mimeFromExt("a/INFORME.PDF"))
	assert.Equal(t, "text/plain", mimeFromExt("x.txt"))
	assert.Equal(t, "", mimeFromExt("x.bin"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
