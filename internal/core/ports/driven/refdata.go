package driven

import (
	"context"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// ReferenceSource loads marker and critical threshold reference data.
type ReferenceSource interface {
	// Name describes the source for logs (file path, database path).
	Name() string

	// Load reads the complete reference data set.
	Load(ctx context.Context) (*domain.ReferenceData, error)
}

// ReferenceStore is a ReferenceSource that can also persist data.
type ReferenceStore interface {
	ReferenceSource

	// Save replaces the stored reference data with data.
	Save(ctx context.Context, data *domain.ReferenceData) error
}
