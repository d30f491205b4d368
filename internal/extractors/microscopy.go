package extractors

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

var (
	countRangeRe  = regexp.MustCompile(`^(\d+)\s*(?:-|–|\bA\b)\s*(\d+)`)
	countLessRe   = regexp.MustCompile(`^(?:<|MENOS\s+DE)\s*(\d+)`)
	countMoreRe   = regexp.MustCompile(`^(?:>|MAS\s+DE)\s*(\d+)`)
	countSingleRe = regexp.MustCompile(`^(\d+)\b`)
)

// Ensure MicroscopyStrategy implements the interface.
var _ driven.ExtractionStrategy = (*MicroscopyStrategy)(nil)

// MicroscopyStrategy reads counts per microscope field, usually printed
// as a range ("0-2 /campo").
type MicroscopyStrategy struct{}

// NewMicroscopyStrategy creates the microscopy strategy.
func NewMicroscopyStrategy() *MicroscopyStrategy {
	return &MicroscopyStrategy{}
}

// Name returns the strategy name.
func (s *MicroscopyStrategy) Name() string {
	return StrategyMicroscopy
}

// parseCount reads a field count at the start of folded s. Ranges yield
// their upper bound. Bare numbers are accepted only when single is set.
func parseCount(s string, single bool) (float64, int, bool) {
	if m := countRangeRe.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			return 0, 0, false
		}
		return float64(hi), len(m[0]), true
	}
	for _, re := range []*regexp.Regexp{countLessRe, countMoreRe} {
		if m := re.FindStringSubmatch(s); m != nil {
			v, _ := strconv.Atoi(m[1])
			return float64(v), len(m[0]), true
		}
	}
	if single {
		if m := countSingleRe.FindStringSubmatch(s); m != nil {
			v, _ := strconv.Atoi(m[1])
			return float64(v), len(m[0]), true
		}
	}
	return 0, 0, false
}

// Extract reads counts for microscopy markers and for any line that
// reports per-field counts.
func (s *MicroscopyStrategy) Extract(ctx context.Context, ec *driven.ExtractionContext, occs []domain.MarkerOccurrence) ([]domain.ExtractedResult, error) {
	var out []domain.ExtractedResult
	for _, t := range targets(ec, occs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		microscopic := t.marker.Kind == domain.KindMicroscopy
		if !microscopic && !strings.Contains(t.rest, "CAMPO") {
			continue
		}

		cells := t.cells()
		if len(cells) == 0 {
			continue
		}

		idx := 0
		v, n, ok := parseCount(cells[0].text, microscopic)
		if !ok && len(cells) > 1 && !startsWithDigit(cells[0].text) {
			idx = 1
			v, n, ok = parseCount(cells[1].text, microscopic)
		}
		if !ok || !t.marker.IsPlausible(v) {
			continue
		}

		c := cells[idx]
		trailing := cells[idx+1:]
		unit := ""
		if display, _, ok := unitPrefix(c.text[n:]); ok {
			unit = display
		} else if strings.Contains(c.text, "CAMPO") {
			unit = "/campo"
		} else if len(trailing) > 0 {
			if display, ok := LookupUnit(trailing[0].text); ok {
				unit = display
				trailing = trailing[1:]
			}
		}

		res := t.candidate(StrategyMicroscopy)
		res.RawValue = strings.TrimSpace(c.raw[:n])
		res.NumericValue = domain.Float64Ptr(v)
		res.Unit = unit
		res.ResultKind = domain.KindMicroscopy

		readTrailing(&res, trailing, ec.Sex)
		if res.Range == nil {
			res.Range, res.ReferenceRangeText = t.nextLineRange(ec)
		}

		f := t.numericFeatures(unit)
		f.RangeFound = res.Range != nil
		f.MethodFound = res.Method != ""
		res.Confidence = Score(baseMicroscopy, f)
		out = append(out, res)
	}
	return out, nil
}
