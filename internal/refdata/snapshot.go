package refdata

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/critical"
	"github.com/custodia-labs/labtriage/internal/markers"
)

// Snapshot is one validated, immutable generation of reference tables.
// Readers keep using the snapshot they obtained even after a reload.
type Snapshot struct {
	Data       *domain.ReferenceData
	Vocabulary *markers.Vocabulary
	Critical   *critical.Table
}

// Version returns the data set version.
func (s *Snapshot) Version() string {
	return s.Data.Version
}

// Marker resolves a marker code.
func (s *Snapshot) Marker(code string) (*domain.CanonicalMarker, bool) {
	return s.Vocabulary.Marker(code)
}

// Build validates data and indexes it.
func Build(data *domain.ReferenceData) (*Snapshot, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	vocab, err := markers.NewVocabulary(data.Markers)
	if err != nil {
		return nil, err
	}
	table, err := critical.NewTable(data.Thresholds)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Data: data, Vocabulary: vocab, Critical: table}, nil
}

// Validate reports every problem in data that indexing would not catch.
// All errors wrap domain.ErrInvalidConfiguration.
func Validate(data *domain.ReferenceData) error {
	if data == nil {
		return fmt.Errorf("%w: no reference data", domain.ErrInvalidConfiguration)
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidConfiguration}, args...)...))
	}

	if data.Version == "" {
		fail("missing version")
	}
	if len(data.Markers) == 0 {
		fail("no markers")
	}

	codes := make(map[string]bool, len(data.Markers))
	for i, m := range data.Markers {
		label := m.Code
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		codes[m.Code] = true

		if m.Name == "" {
			fail("marker %s has no name", label)
		}
		if m.Weight < 0 {
			fail("marker %s has negative weight %g", label, m.Weight)
		}
		if m.PlausibleMin > m.PlausibleMax {
			fail("marker %s plausible_min %g exceeds plausible_max %g", label, m.PlausibleMin, m.PlausibleMax)
		}
		switch m.Kind {
		case domain.KindNumeric, domain.KindQualitative, domain.KindCalculated, domain.KindMicroscopy:
		default:
			fail("marker %s has unknown kind %q", label, m.Kind)
		}
		switch m.PreferredSample {
		case domain.SampleUnknown, domain.SampleBlood, domain.SampleSerum, domain.SampleUrine:
		default:
			fail("marker %s has unknown sample %q", label, m.PreferredSample)
		}
	}

	for _, th := range data.Thresholds {
		if th.MarkerCode != "" && !codes[th.MarkerCode] {
			fail("threshold for unknown marker %s", th.MarkerCode)
		}
	}

	return errors.Join(errs...)
}
