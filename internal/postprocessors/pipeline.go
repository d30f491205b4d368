// Package postprocessors reduces extraction candidates to accepted results.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PostProcessors and runs them in order.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the candidates through all processors in order.
// Each processor receives the survivors of the previous one.
func (p *Pipeline) Process(ctx context.Context, ec *driven.ExtractionContext, results []domain.ExtractedResult) ([]domain.ExtractedResult, error) {
	if ec == nil {
		return nil, fmt.Errorf("extraction context is nil: %w", domain.ErrInvalidInput)
	}

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := len(results)

		var err error
		results, err = processor.Process(ctx, ec, results)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
		logger.Debug("processor %s: %d -> %d candidates", processor.Name(), before, len(results))
	}

	return results, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, processor := range p.processors {
		names[i] = processor.Name()
	}
	return names
}
