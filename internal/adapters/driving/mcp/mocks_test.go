package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	analysis *domain.Analysis
	err      error

	lastRaw     *domain.RawDocument
	lastPatient *domain.PatientContext
}

func (m *mockAnalysisService) Analyze(
	_ context.Context,
	raw *domain.RawDocument,
	patient *domain.PatientContext,
) (*domain.Analysis, error) {
	m.lastRaw = raw
	m.lastPatient = patient
	return m.analysis, m.err
}

func (m *mockAnalysisService) AnalyzeDecoded(
	_ context.Context,
	_ *domain.DecodedDocument,
	patient *domain.PatientContext,
) (*domain.Analysis, error) {
	m.lastPatient = patient
	return m.analysis, m.err
}

// mockReferenceService is a mock implementation of driving.ReferenceService.
type mockReferenceService struct {
	markers    []domain.CanonicalMarker
	thresholds []domain.CriticalThreshold
}

func (m *mockReferenceService) Version() string { return "test" }

func (m *mockReferenceService) Marker(code string) (*domain.CanonicalMarker, error) {
	for i := range m.markers {
		if m.markers[i].Code == code {
			return &m.markers[i], nil
		}
	}
	return nil, fmt.Errorf("marker %q: %w", code, domain.ErrNotFound)
}

func (m *mockReferenceService) LookupAlias(name string) (*domain.CanonicalMarker, error) {
	for i := range m.markers {
		for _, a := range m.markers[i].Aliases {
			if strings.EqualFold(a, name) {
				return &m.markers[i], nil
			}
		}
	}
	return nil, fmt.Errorf("alias %q: %w", name, domain.ErrNotFound)
}

func (m *mockReferenceService) Markers() []domain.CanonicalMarker { return m.markers }

func (m *mockReferenceService) Thresholds() []domain.CriticalThreshold { return m.thresholds }

func (m *mockReferenceService) Reload(context.Context) error { return nil }
