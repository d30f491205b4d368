package driven

import (
	"context"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// PostProcessor filters or reduces extraction candidates.
// PostProcessors are chained in a pipeline (e.g., noise filter, dedup).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the candidates of the previous stage and returns
	// the candidates that survive.
	Process(ctx context.Context, ec *ExtractionContext, results []domain.ExtractedResult) ([]domain.ExtractedResult, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the candidates through all processors in order.
	Process(ctx context.Context, ec *ExtractionContext, results []domain.ExtractedResult) ([]domain.ExtractedResult, error)
}
