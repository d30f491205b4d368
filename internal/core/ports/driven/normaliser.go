package driven

import (
	"context"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// Normaliser transforms decoded page text into cleaned, searchable form.
// Implementations are pure: identical input yields identical output.
type Normaliser interface {
	// Normalise cleans the decoded document.
	Normalise(ctx context.Context, doc *domain.DecodedDocument) (*domain.NormalizedDocument, error)
}
