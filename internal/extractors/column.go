package extractors

import (
	"context"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// Ensure ColumnStrategy implements the interface.
var _ driven.ExtractionStrategy = (*ColumnStrategy)(nil)

// ColumnStrategy reads column-aligned rows:
// NAME  VALUE  (UNIT)  [*]  RANGE  METHOD.
type ColumnStrategy struct{}

// NewColumnStrategy creates the column strategy.
func NewColumnStrategy() *ColumnStrategy {
	return &ColumnStrategy{}
}

// Name returns the strategy name.
func (s *ColumnStrategy) Name() string {
	return StrategyColumn
}

// Extract reads one candidate per occurrence whose line continues in columns.
func (s *ColumnStrategy) Extract(ctx context.Context, ec *driven.ExtractionContext, occs []domain.MarkerOccurrence) ([]domain.ExtractedResult, error) {
	var out []domain.ExtractedResult
	for _, t := range targets(ec, occs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.Contains(t.rest, columnGap) {
			continue
		}

		cells := t.cells()
		if len(cells) == 0 {
			continue
		}

		idx := 0
		vc, ok := parseValueCell(cells[0])
		if !ok && len(cells) > 1 && !startsWithDigit(cells[0].text) && !looksLikeRange(cells[0].text) {
			// First cell continues the name ("(AYUNAS)").
			idx = 1
			vc, ok = parseValueCell(cells[1])
		}
		if !ok {
			continue
		}

		unit, next := resolveUnit(vc, cells[idx+1:])
		v, unit, ok := Interpret(vc.number, unit, t.marker)
		if !ok {
			continue
		}

		res := t.candidate(StrategyColumn)
		res.RawValue = vc.raw
		res.NumericValue = domain.Float64Ptr(v)
		res.Unit = unit
		res.ResultKind = t.numericKind()

		readTrailing(&res, trailingCells(vc, next), ec.Sex)
		if res.Range == nil {
			res.Range, res.ReferenceRangeText = t.nextLineRange(ec)
		}

		f := t.numericFeatures(unit)
		f.RangeFound = res.Range != nil
		f.MethodFound = res.Method != ""
		res.Confidence = Score(baseColumn, f)
		out = append(out, res)
	}
	return out, nil
}
