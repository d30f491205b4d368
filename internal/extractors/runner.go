// Package extractors recovers result values, units, reference ranges and
// methods for matched markers.
//
// Each layout is handled by its own ExtractionStrategy. The Runner executes
// all strategies concurrently over the same read-only document and returns
// their candidates unmerged; deduplication happens in the post-processing
// pipeline. Confidence is always computed by Score.
package extractors

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// Strategy names, in tie-break order.
const (
	StrategyColumn      = "column"
	StrategyEmbedded    = "embedded"
	StrategyQualitative = "qualitative"
	StrategyMicroscopy  = "microscopy"
	StrategyMultiline   = "multiline"
)

// Base confidences per strategy; stricter layouts start higher.
const (
	baseColumn               = 70
	baseEmbedded             = 55
	baseQualitative          = 65
	baseQualitativeOnNumeric = 45
	baseMicroscopy           = 60
	baseMultiline            = 50
)

var strategyOrder = []string{
	StrategyColumn,
	StrategyEmbedded,
	StrategyQualitative,
	StrategyMicroscopy,
	StrategyMultiline,
}

// StrategyRank returns the tie-break rank of a strategy; lower wins.
// Unknown strategies rank last.
func StrategyRank(name string) int {
	for i, s := range strategyOrder {
		if s == name {
			return i
		}
	}
	return len(strategyOrder)
}

// DefaultStrategies returns every built-in strategy in tie-break order.
func DefaultStrategies() []driven.ExtractionStrategy {
	return []driven.ExtractionStrategy{
		NewColumnStrategy(),
		NewEmbeddedStrategy(),
		NewQualitativeStrategy(),
		NewMicroscopyStrategy(),
		NewMultilineStrategy(),
	}
}

// Runner executes extraction strategies.
type Runner struct {
	strategies []driven.ExtractionStrategy
}

// NewRunner creates a runner. With no strategies it uses DefaultStrategies.
func NewRunner(strategies ...driven.ExtractionStrategy) *Runner {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Runner{strategies: strategies}
}

// Strategies returns the strategy names in execution order.
func (r *Runner) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Run executes every strategy concurrently and returns all candidates,
// grouped by strategy in runner order and by source position within a
// strategy. The first strategy error cancels the others.
func (r *Runner) Run(ctx context.Context, ec *driven.ExtractionContext, occs []domain.MarkerOccurrence) ([]domain.ExtractedResult, error) {
	results := make([][]domain.ExtractedResult, len(r.strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range r.strategies {
		g.Go(func() error {
			out, err := s.Extract(gctx, ec, occs)
			if err != nil {
				return fmt.Errorf("strategy %s: %w", s.Name(), err)
			}
			sort.SliceStable(out, func(a, b int) bool {
				pa, pb := out[a].SourcePosition, out[b].SourcePosition
				if pa.Line != pb.Line {
					return pa.Line < pb.Line
				}
				return pa.Offset < pb.Offset
			})
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.ExtractedResult
	for _, out := range results {
		all = append(all, out...)
	}
	return all, nil
}
