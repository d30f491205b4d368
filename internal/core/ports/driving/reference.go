package driving

import (
	"context"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// ReferenceService exposes the active reference tables.
type ReferenceService interface {
	// Version returns the active reference data version.
	Version() string

	// Marker returns one canonical marker by code.
	Marker(code string) (*domain.CanonicalMarker, error)

	// LookupAlias resolves a surface name to its canonical marker.
	LookupAlias(name string) (*domain.CanonicalMarker, error)

	// Markers returns all canonical markers sorted by code.
	Markers() []domain.CanonicalMarker

	// Thresholds returns all critical thresholds.
	Thresholds() []domain.CriticalThreshold

	// Reload reloads reference data from its source and swaps it in.
	// On error the previous tables stay active.
	Reload(ctx context.Context) error
}
