package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/refdata"
)

func TestRefdataCmds(t *testing.T) {
	t.Run("validate built-in", func(t *testing.T) {
		out, err := runCLI(t, nil, nil, "refdata", "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "built-in tables: ok")
	})

	t.Run("validate broken dir", func(t *testing.T) {
		dir := t.TempDir()
		writeReport(t, dir, refdata.MarkersFile, "[[markers]\n")
		_, err := runCLI(t, nil, nil, "refdata", "validate", dir)
		assert.Error(t, err)
	})

	t.Run("export then validate", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "tables")
		out, err := runCLI(t, newTestServices(t), nil, "refdata", "export", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "Exported version")
		assert.FileExists(t, filepath.Join(dir, refdata.MarkersFile))
		assert.FileExists(t, filepath.Join(dir, refdata.ThresholdsFile))

		out, err = runCLI(t, nil, nil, "refdata", "validate", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "ok")
	})

	t.Run("import and status", func(t *testing.T) {
		dir := t.TempDir()
		_, err := runCLI(t, newTestServices(t), nil, "refdata", "export", dir)
		require.NoError(t, err)

		db := filepath.Join(t.TempDir(), "refdata.db")
		out, err := runCLI(t, newTestServices(t), nil, "refdata", "import", "--db", db, dir)
		require.NoError(t, err)
		assert.Contains(t, out, "Imported version")

		out, err = runCLI(t, newTestServices(t), nil, "refdata", "status", "--db", db)
		require.NoError(t, err)
		assert.Contains(t, out, "Reference Data")
		assert.Contains(t, out, "Imports ("+db+")")
		assert.Contains(t, out, dir)
	})
}
