// Package refdata loads, validates and hot-swaps the reference tables the
// pipeline is built from: the marker vocabulary and the critical threshold
// table.
package refdata

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
)

// File names inside a reference data directory.
const (
	MarkersFile    = "markers.toml"
	ThresholdsFile = "thresholds.toml"
)

//go:embed data/markers.toml
var defaultMarkers []byte

//go:embed data/thresholds.toml
var defaultThresholds []byte

// Ensure sources implement the ports.
var (
	_ driven.ReferenceSource = EmbeddedSource{}
	_ driven.ReferenceStore  = (*DirSource)(nil)
)

type markersFile struct {
	Version string                   `toml:"version"`
	Markers []domain.CanonicalMarker `toml:"marker"`
}

type thresholdsFile struct {
	Version    string                     `toml:"version,omitempty"`
	Thresholds []domain.CriticalThreshold `toml:"threshold"`
}

// Decode parses the two reference files. The data set version comes from
// the markers file, or from the thresholds file when the former has none.
func Decode(markers, thresholds []byte) (*domain.ReferenceData, error) {
	var mf markersFile
	if err := toml.Unmarshal(markers, &mf); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", MarkersFile, domain.ErrInvalidConfiguration, err)
	}
	var tf thresholdsFile
	if err := toml.Unmarshal(thresholds, &tf); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", ThresholdsFile, domain.ErrInvalidConfiguration, err)
	}

	version := mf.Version
	if version == "" {
		version = tf.Version
	}
	return &domain.ReferenceData{
		Version:    version,
		Markers:    mf.Markers,
		Thresholds: tf.Thresholds,
	}, nil
}

// Encode renders data as the two reference files.
func Encode(data *domain.ReferenceData) (markers, thresholds []byte, err error) {
	if data == nil {
		return nil, nil, fmt.Errorf("encode reference data: %w", domain.ErrInvalidInput)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf).SetIndentTables(true)
	if err := enc.Encode(markersFile{Version: data.Version, Markers: data.Markers}); err != nil {
		return nil, nil, fmt.Errorf("encode markers: %w", err)
	}
	markers = append([]byte(nil), buf.Bytes()...)

	buf.Reset()
	if err := enc.Encode(thresholdsFile{Version: data.Version, Thresholds: data.Thresholds}); err != nil {
		return nil, nil, fmt.Errorf("encode thresholds: %w", err)
	}
	thresholds = append([]byte(nil), buf.Bytes()...)

	return markers, thresholds, nil
}

// Default returns a fresh copy of the built-in reference data.
func Default() (*domain.ReferenceData, error) {
	return Decode(defaultMarkers, defaultThresholds)
}

// EmbeddedSource serves the reference data compiled into the binary.
type EmbeddedSource struct{}

// Name implements driven.ReferenceSource.
func (EmbeddedSource) Name() string {
	return "embedded"
}

// Load implements driven.ReferenceSource.
func (EmbeddedSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Default()
}

// DirSource reads markers.toml and thresholds.toml from a directory.
// A file missing from the directory falls back to the built-in default.
type DirSource struct {
	dir string
}

// NewDirSource creates a source for dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Name implements driven.ReferenceSource.
func (s *DirSource) Name() string {
	return s.dir
}

// Dir returns the directory the source reads.
func (s *DirSource) Dir() string {
	return s.dir
}

// Paths returns the two file paths the source reads.
func (s *DirSource) Paths() []string {
	return []string{
		filepath.Join(s.dir, MarkersFile),
		filepath.Join(s.dir, ThresholdsFile),
	}
}

// Load implements driven.ReferenceSource.
func (s *DirSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	markers, err := s.read(MarkersFile, defaultMarkers)
	if err != nil {
		return nil, err
	}
	thresholds, err := s.read(ThresholdsFile, defaultThresholds)
	if err != nil {
		return nil, err
	}
	return Decode(markers, thresholds)
}

func (s *DirSource) read(name string, fallback []byte) ([]byte, error) {
	path := filepath.Join(s.dir, name)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("refdata: %s not found, using built-in %s", path, name)
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// Save implements driven.ReferenceStore by writing both files.
func (s *DirSource) Save(ctx context.Context, data *domain.ReferenceData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	markers, thresholds, err := Encode(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}
	if err := writeFile(filepath.Join(s.dir, MarkersFile), markers); err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, ThresholdsFile), thresholds)
}

// writeFile replaces path through a rename so a watcher never reads a
// half-written file.
func writeFile(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// FallbackSource reads from Primary and switches to Fallback when Primary
// holds no data yet (domain.ErrNotFound), e.g. an empty database.
type FallbackSource struct {
	Primary  driven.ReferenceSource
	Fallback driven.ReferenceSource
}

// Name implements driven.ReferenceSource.
func (s FallbackSource) Name() string {
	return s.Primary.Name()
}

// Load implements driven.ReferenceSource.
func (s FallbackSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	data, err := s.Primary.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) && s.Fallback != nil {
		logger.Info("refdata: %s is empty, using %s", s.Primary.Name(), s.Fallback.Name())
		return s.Fallback.Load(ctx)
	}
	return data, err
}
