// Package dedup keeps exactly one candidate per marker.
package dedup

import (
	"context"
	"sort"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/extractors"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
)

// Name is the processor name used in configuration.
const Name = "dedup"

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor groups candidates by marker and keeps the best of each group:
// higher confidence, then the marker's preferred sample, then the earlier
// source position, then the stricter strategy.
type Processor struct{}

// New creates a dedup processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process returns one candidate per marker, ordered by source position.
func (p *Processor) Process(_ context.Context, ec *driven.ExtractionContext, results []domain.ExtractedResult) ([]domain.ExtractedResult, error) {
	best := make(map[string]int, len(results))
	var order []string

	for i := range results {
		key := groupKey(&results[i])
		j, seen := best[key]
		if !seen {
			best[key] = i
			order = append(order, key)
			continue
		}
		if better(&results[i], &results[j], preferredSample(ec, results[i].MarkerCode)) {
			best[key] = i
		}
	}

	out := make([]domain.ExtractedResult, 0, len(order))
	for _, key := range order {
		out = append(out, results[best[key]])
	}
	if dropped := len(results) - len(out); dropped > 0 {
		logger.Debug("dedup: merged %d duplicate candidates", dropped)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if c := comparePosition(out[a].SourcePosition, out[b].SourcePosition); c != 0 {
			return c < 0
		}
		return out[a].MarkerCode < out[b].MarkerCode
	})
	return out, nil
}

// groupKey is the marker code, or the folded exam name for candidates
// without one.
func groupKey(r *domain.ExtractedResult) string {
	if r.MarkerCode != "" {
		return r.MarkerCode
	}
	return "name:" + labtext.FoldKey(r.ExamName)
}

func preferredSample(ec *driven.ExtractionContext, code string) domain.SampleType {
	if ec == nil || ec.Markers == nil {
		return domain.SampleUnknown
	}
	if m, ok := ec.Markers.Marker(code); ok {
		return m.PreferredSample
	}
	return domain.SampleUnknown
}

// sampleRank orders how well a candidate's sample fits the marker:
// exact 2, compatible 1, incompatible 0.
func sampleRank(s, want domain.SampleType) int {
	switch {
	case want == domain.SampleUnknown:
		return 1
	case s == want:
		return 2
	case s.CompatibleWith(want):
		return 1
	default:
		return 0
	}
}

// better reports whether a beats b.
func better(a, b *domain.ExtractedResult, want domain.SampleType) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if ra, rb := sampleRank(a.SampleType, want), sampleRank(b.SampleType, want); ra != rb {
		return ra > rb
	}
	if c := comparePosition(a.SourcePosition, b.SourcePosition); c != 0 {
		return c < 0
	}
	return extractors.StrategyRank(a.Strategy) < extractors.StrategyRank(b.Strategy)
}

func comparePosition(a, b domain.Position) int {
	switch {
	case a.Page != b.Page:
		return a.Page - b.Page
	case a.Line != b.Line:
		return a.Line - b.Line
	default:
		return a.Offset - b.Offset
	}
}
