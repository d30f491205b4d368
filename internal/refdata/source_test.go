package refdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

func TestDefault_Builds(t *testing.T) {
	data, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, data.Version)

	s, err := Build(data)
	require.NoError(t, err)
	assert.Equal(t, len(data.Markers), s.Vocabulary.Len())
	assert.Equal(t, len(data.Thresholds), s.Critical.Len())

	for _, name := range []string{"Glucosa", "GLICEMIA", "Hemoglobina", "Plaquetas", "Potasio", "Colesterol", "VDRL", "Células epiteliales"} {
		_, ok := s.Vocabulary.Lookup(name)
		assert.True(t, ok, name)
	}

	glu, ok := s.Marker("GLU")
	require.True(t, ok)
	assert.Equal(t, "mg/dL", glu.ExpectedUnit)
	assert.Equal(t, domain.SampleSerum, glu.PreferredSample)

	_, ok = s.Critical.Lookup("GLU", "mg/dL")
	assert.True(t, ok)
}

func TestDefault_ReturnsCopy(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	a.Markers[0].Name = "changed"

	b, err := Default()
	require.NoError(t, err)
	assert.NotEqual(t, "changed", b.Markers[0].Name)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("version = "), defaultThresholds)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = Decode(defaultMarkers, []byte("[[threshold]\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestDecode_VersionFallback(t *testing.T) {
	data, err := Decode([]byte(`[[marker]]
code = "GLU"
name = "Glucosa"
kind = "numeric"
`), []byte(`version = "t1"`))
	require.NoError(t, err)
	assert.Equal(t, "t1", data.Version)
	require.Len(t, data.Markers, 1)
	assert.Empty(t, data.Thresholds)
}

func TestEncode_RoundTrip(t *testing.T) {
	data, err := Default()
	require.NoError(t, err)

	markers, thresholds, err := Encode(data)
	require.NoError(t, err)

	back, err := Decode(markers, thresholds)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestEncode_Nil(t *testing.T) {
	_, _, err := Encode(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEmbeddedSource(t *testing.T) {
	src := EmbeddedSource{}
	assert.Equal(t, "embedded", src.Name())

	data, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, data.Markers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSource_MissingFilesFallBack(t *testing.T) {
	src := NewDirSource(t.TempDir())

	data, err := src.Load(context.Background())
	require.NoError(t, err)

	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def, data)
}

func TestDirSource_OverridesThresholds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ThresholdsFile), []byte(`
[[threshold]]
marker = "GLU"
unit = "mg/dL"
high = 400
urgency = "urgent"
significance = "custom"
`), 0o644))

	data, err := NewDirSource(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Thresholds, 1)
	assert.Equal(t, "custom", data.Thresholds[0].Significance)
	assert.Nil(t, data.Thresholds[0].Low)
	assert.NotEmpty(t, data.Markers)
}

func TestDirSource_SaveThenLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	src := NewDirSource(dir)
	ctx := context.Background()

	data, err := Default()
	require.NoError(t, err)
	data.Version = "saved-1"
	require.NoError(t, src.Save(ctx, data))

	for _, p := range src.Paths() {
		assert.FileExists(t, p)
		assert.NoFileExists(t, p+".tmp")
	}

	back, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "saved-1", back.Version)
	assert.Equal(t, data.Markers, back.Markers)
	assert.Equal(t, dir, src.Name())
}

func TestDirSource_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the file fails the read without being "not found".
	require.NoError(t, os.Mkdir(filepath.Join(dir, MarkersFile), 0o755))

	_, err := NewDirSource(dir).Load(context.Background())
	assert.Error(t, err)
}

func TestFallbackSource(t *testing.T) {
	ctx := context.Background()
	mine := validData()

	t.Run("primary has data", func(t *testing.T) {
		src := FallbackSource{
			Primary:  &stubSource{data: []*domain.ReferenceData{mine}, errs: []error{nil}},
			Fallback: EmbeddedSource{},
		}
		got, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Same(t, mine, got)
		assert.Equal(t, "stub", src.Name())
	})

	t.Run("primary empty", func(t *testing.T) {
		src := FallbackSource{
			Primary:  &stubSource{data: []*domain.ReferenceData{nil}, errs: []error{domain.ErrNotFound}},
			Fallback: EmbeddedSource{},
		}
		got, err := src.Load(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, mine.Version, got.Version)
		assert.NotEmpty(t, got.Markers)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		src := FallbackSource{
			Primary:  &stubSource{data: []*domain.ReferenceData{nil}, errs: []error{domain.ErrInvalidConfiguration}},
			Fallback: EmbeddedSource{},
		}
		_, err := src.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})
}
