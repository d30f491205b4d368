package extractors

import (
	"context"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// Ensure MultilineStrategy implements the interface.
var _ driven.ExtractionStrategy = (*MultilineStrategy)(nil)

// MultilineStrategy reads results whose label and value sit on adjacent
// lines:
//
//	GLUCOSA (mg/dL)
//	95      70 - 110
type MultilineStrategy struct{}

// NewMultilineStrategy creates the multi-line strategy.
func NewMultilineStrategy() *MultilineStrategy {
	return &MultilineStrategy{}
}

// Name returns the strategy name.
func (s *MultilineStrategy) Name() string {
	return StrategyMultiline
}

// Extract reads the value from the line after a label line that carries
// nothing but the name and optionally a unit or a parenthetical.
func (s *MultilineStrategy) Extract(ctx context.Context, ec *driven.ExtractionContext, occs []domain.MarkerOccurrence) ([]domain.ExtractedResult, error) {
	var out []domain.ExtractedResult
	for _, t := range targets(ec, occs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		headUnit, ok := labelOnly(t.rest)
		if !ok {
			continue
		}

		nextIdx := t.line.Index + 1
		if !t.lineFree(ec, nextIdx) {
			continue
		}
		next := ec.Document.Lines[nextIdx]
		raw := next.Folded
		if aligned(next) {
			raw = next.Text
		}
		cells := splitCells(next.Folded, raw)
		if len(cells) == 0 {
			continue
		}

		abnormal := t.abnormal || strings.Contains(next.Folded, abnormalToken)
		res := t.candidate(StrategyMultiline)
		res.HasAbnormalMarker = abnormal

		var f Features
		if _, n, ok := matchQualitative(cells[0].text); ok {
			res.RawValue = cells[0].raw[:n]
			res.ResultKind = domain.KindQualitative
			f = t.features()
			readTrailing(&res, cells[1:], ec.Sex)
		} else {
			vc, ok := parseValueCell(cells[0])
			if !ok {
				continue
			}
			unit, rest := resolveUnit(vc, cells[1:])
			if unit == "" {
				unit = headUnit
			}
			v, unit, ok := Interpret(vc.number, unit, t.marker)
			if !ok {
				continue
			}
			res.RawValue = vc.raw
			res.NumericValue = domain.Float64Ptr(v)
			res.Unit = unit
			res.ResultKind = t.numericKind()
			f = t.numericFeatures(unit)
			readTrailing(&res, trailingCells(vc, rest), ec.Sex)
		}

		if res.Range == nil {
			res.Range, res.ReferenceRangeText = lineRange(ec, t, nextIdx+1)
		}

		f.AbnormalMarker = abnormal
		f.RangeFound = res.Range != nil
		f.MethodFound = res.Method != ""
		res.Confidence = Score(baseMultiline, f)
		out = append(out, res)
	}
	return out, nil
}

// labelOnly reports whether the text after a name holds no value: nothing,
// a unit, or a parenthetical. It returns the unit when one is present.
func labelOnly(rest string) (string, bool) {
	head := strings.TrimSpace(strings.Trim(strings.ReplaceAll(rest, abnormalToken, ""), " :"))
	if head == "" {
		return "", true
	}
	if display, ok := LookupUnit(head); ok {
		return display, true
	}
	if strings.HasPrefix(head, "(") && strings.HasSuffix(head, ")") {
		return "", true
	}
	return "", false
}
