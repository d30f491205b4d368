package extractors

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// qualitativeTerms are folded result words, matched longest first.
var qualitativeTerms = sortedByLength([]string{
	"NO REACTIVO", "REACTIVO", "NEGATIVO", "POSITIVO", "POSITIVO DEBIL",
	"NO SE OBSERVAN", "NO SE OBSERVA", "AUSENTE", "AUSENTES", "PRESENTE", "PRESENTES",
	"CLARO", "LIGERAMENTE TURBIO", "TURBIO", "TRANSPARENTE",
	"AMARILLO", "AMARILLO CLARO", "AMARILLO INTENSO", "AMBAR", "ROJIZO",
	"ESCASO", "ESCASOS", "ESCASAS", "REGULAR", "REGULAR CANTIDAD", "ABUNDANTE", "ABUNDANTES",
	"TRAZAS", "NORMAL", "INDETERMINADO",
})

func sortedByLength(terms []string) []string {
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	return terms
}

// matchQualitative returns the qualitative term at the start of folded s
// and its length. The term must end at a word boundary.
func matchQualitative(s string) (string, int, bool) {
	for _, term := range qualitativeTerms {
		if !strings.HasPrefix(s, term) {
			continue
		}
		if len(s) > len(term) && isWordChar(s[len(term)]) {
			continue
		}
		return term, len(term), true
	}
	return "", 0, false
}

func isWordChar(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || isDigitByte(b) || b >= 0x80
}

// Ensure QualitativeStrategy implements the interface.
var _ driven.ExtractionStrategy = (*QualitativeStrategy)(nil)

// QualitativeStrategy extracts word results ("NO REACTIVO", "CLARO").
type QualitativeStrategy struct{}

// NewQualitativeStrategy creates the qualitative strategy.
func NewQualitativeStrategy() *QualitativeStrategy {
	return &QualitativeStrategy{}
}

// Name returns the strategy name.
func (s *QualitativeStrategy) Name() string {
	return StrategyQualitative
}

// Extract finds a qualitative word after each marker name, either glued by
// ":" or in the next column. A later qualitative column is read as the
// expected result.
func (s *QualitativeStrategy) Extract(ctx context.Context, ec *driven.ExtractionContext, occs []domain.MarkerOccurrence) ([]domain.ExtractedResult, error) {
	var out []domain.ExtractedResult
	for _, t := range targets(ec, occs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells := t.cells()
		if len(cells) == 0 {
			continue
		}
		idx := 0
		_, n, ok := matchQualitative(cells[0].text)
		if !ok && len(cells) > 1 && !startsWithDigit(cells[0].text) {
			// First cell continues the name ("(SUERO)").
			idx = 1
			_, n, ok = matchQualitative(cells[1].text)
		}
		if !ok {
			continue
		}

		base := float64(baseQualitative)
		if t.marker.Kind != domain.KindQualitative {
			base = baseQualitativeOnNumeric
		}

		res := t.candidate(StrategyQualitative)
		res.RawValue = cells[idx].raw[:n]
		res.ResultKind = domain.KindQualitative

		f := t.features()
		readTrailing(&res, cells[idx+1:], ec.Sex)
		if res.Range == nil {
			res.Range, res.ReferenceRangeText = t.nextLineRange(ec)
		}
		f.RangeFound = res.Range != nil
		f.MethodFound = res.Method != ""
		res.Confidence = Score(base, f)
		out = append(out, res)
	}
	return out, nil
}
