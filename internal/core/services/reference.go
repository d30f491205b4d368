package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driving"
	"github.com/custodia-labs/labtriage/internal/metrics"
	"github.com/custodia-labs/labtriage/internal/refdata"
)

// Ensure ReferenceService implements the interface.
var _ driving.ReferenceService = (*ReferenceService)(nil)

// ReferenceService answers questions about the active reference tables.
type ReferenceService struct {
	refs *refdata.Manager
}

// NewReferenceService creates a reference service over refs.
func NewReferenceService(refs *refdata.Manager) *ReferenceService {
	return &ReferenceService{refs: refs}
}

// Version returns the active data set version.
func (s *ReferenceService) Version() string {
	return s.refs.Current().Version()
}

// Marker returns a copy of the marker with the given code.
func (s *ReferenceService) Marker(code string) (*domain.CanonicalMarker, error) {
	m, ok := s.refs.Current().Marker(code)
	if !ok {
		return nil, fmt.Errorf("marker %q: %w", code, domain.ErrNotFound)
	}
	return copyMarker(m), nil
}

// LookupAlias resolves a report surface name.
func (s *ReferenceService) LookupAlias(name string) (*domain.CanonicalMarker, error) {
	m, ok := s.refs.Current().Vocabulary.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("alias %q: %w", name, domain.ErrNotFound)
	}
	return copyMarker(m), nil
}

// Markers returns every marker ordered by code.
func (s *ReferenceService) Markers() []domain.CanonicalMarker {
	return s.refs.Current().Vocabulary.Markers()
}

// Thresholds returns every critical threshold.
func (s *ReferenceService) Thresholds() []domain.CriticalThreshold {
	return s.refs.Current().Critical.Thresholds()
}

// Reload re-reads the reference source.
func (s *ReferenceService) Reload(ctx context.Context) error {
	_, err := s.refs.Reload(ctx)
	metrics.RecordReload(err)
	return err
}

func copyMarker(m *domain.CanonicalMarker) *domain.CanonicalMarker {
	c := *m
	c.Aliases = append([]string(nil), m.Aliases...)
	return &c
}
