package driven

import (
	"context"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// MarkerLookup resolves canonical markers by code.
type MarkerLookup interface {
	// Marker returns the marker with the given code.
	Marker(code string) (*domain.CanonicalMarker, bool)
}

// ExtractionContext carries the read-only inputs shared by extraction
// strategies and post-processors for one document.
type ExtractionContext struct {
	// Document is the normalised document.
	Document *domain.NormalizedDocument

	// Markers resolves marker metadata for the active reference snapshot.
	Markers MarkerLookup

	// Sex selects sex-specific reference ranges; unknown uses the union.
	Sex domain.Sex
}

// ExtractionStrategy recovers result candidates for one document layout.
// Strategies are pure functions of their inputs and may run concurrently.
type ExtractionStrategy interface {
	// Name returns the strategy name recorded on every candidate.
	Name() string

	// Extract returns every candidate the strategy can recover.
	// Candidates are not merged; deduplication happens downstream.
	Extract(ctx context.Context, ec *ExtractionContext, occurrences []domain.MarkerOccurrence) ([]domain.ExtractedResult, error)
}
