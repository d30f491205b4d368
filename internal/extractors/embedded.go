package extractors

import (
	"context"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// Ensure EmbeddedStrategy implements the interface.
var _ driven.ExtractionStrategy = (*EmbeddedStrategy)(nil)

// EmbeddedStrategy reads values glued to the name, as left by layouts that
// strip whitespace: NAME<value>(UNIT)<trailing text>, "NAME: value unit".
type EmbeddedStrategy struct{}

// NewEmbeddedStrategy creates the embedded strategy.
func NewEmbeddedStrategy() *EmbeddedStrategy {
	return &EmbeddedStrategy{}
}

// Name returns the strategy name.
func (s *EmbeddedStrategy) Name() string {
	return StrategyEmbedded
}

// Extract reads a value that follows the name with at most a colon and
// single spaces in between.
func (s *EmbeddedStrategy) Extract(ctx context.Context, ec *driven.ExtractionContext, occs []domain.MarkerOccurrence) ([]domain.ExtractedResult, error) {
	var out []domain.ExtractedResult
	for _, t := range targets(ec, occs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lead := 0
		for lead < len(t.rest) && (t.rest[lead] == ' ' || t.rest[lead] == ':') {
			lead++
		}
		if lead == len(t.rest) || strings.Contains(t.rest[:lead], columnGap) {
			continue
		}

		body := cell{
			text: strings.ReplaceAll(t.rest[lead:], abnormalToken, ""),
			raw:  strings.ReplaceAll(t.restRaw[lead:], abnormalToken, ""),
		}
		if len(body.raw) != len(body.text) {
			body.raw = body.text
		}

		vc, ok := parseValueCell(body)
		if !ok {
			continue
		}
		v, unit, ok := Interpret(vc.number, vc.unit, t.marker)
		if !ok {
			continue
		}

		res := t.candidate(StrategyEmbedded)
		res.RawValue = vc.raw
		res.NumericValue = domain.Float64Ptr(v)
		res.Unit = unit
		res.ResultKind = t.numericKind()

		readTrailing(&res, splitCells(vc.rest.text, vc.rest.raw), ec.Sex)
		if res.Range == nil {
			res.Range, res.ReferenceRangeText = t.nextLineRange(ec)
		}

		f := t.numericFeatures(unit)
		f.RangeFound = res.Range != nil
		f.MethodFound = res.Method != ""
		res.Confidence = Score(baseEmbedded, f)
		out = append(out, res)
	}
	return out, nil
}
