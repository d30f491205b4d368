package extractors

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
)

const numPattern = `(\d+(?:[.,]\d+)*)`

var (
	rangePrefixRe = regexp.MustCompile(`^(?:VALOR(?:ES)?\s+(?:DE\s+)?REFERENCIA|V\.\s?R\.|VR|RANGO(?:\s+DE\s+REFERENCIA)?|REF(?:ERENCIA)?\.?|INTERVALO(?:\s+DE\s+REFERENCIA)?)\s*:?\s*`)
	intervalRe    = regexp.MustCompile(`^` + numPattern + `\s*(?:-|–|—|\bA\b|\bAL\b)\s*` + numPattern)
	upperLimitRe  = regexp.MustCompile(`^(?:<=?|≤|HASTA|MENOR\s+(?:A|DE|QUE)|INFERIOR\s+A|MENOS\s+DE)\s*` + numPattern)
	lowerLimitRe  = regexp.MustCompile(`^(?:>=?|≥|MAYOR\s+(?:A|DE|QUE)|SUPERIOR\s+A|SOBRE|MAS\s+DE)\s*` + numPattern)
	sexLabelRe    = regexp.MustCompile(`\b(HOMBRES?|MUJERES?|VARON(?:ES)?|MASCULINO|FEMENINO|H|M)\s*:`)
)

// ParseReferenceRange parses a printed reference range: "74 - 106",
// "< 200", "hasta 5,0", "> 40", "mayor a 60", "No reactivo", and
// sex-specific forms ("H: 13-17 M: 12-16", "Hombres: ... Mujeres: ...").
// Sex-specific ranges resolve to the patient's sex when known, else to the
// union of both. It reports false when text holds no range.
func ParseReferenceRange(text string, sex domain.Sex) (*domain.ReferenceRange, bool) {
	folded := cleanRangeText(labtext.Fold(text))
	if folded == "" {
		return nil, false
	}

	r, ok := parseSexSpecific(folded, sex)
	if !ok {
		r, ok = parseSimpleRange(folded)
	}
	if !ok {
		return nil, false
	}
	r.Text = strings.TrimSpace(text)
	return r, true
}

func cleanRangeText(s string) string {
	s = stripBrackets(strings.TrimSpace(s))
	s = strings.TrimSpace(rangePrefixRe.ReplaceAllString(s, ""))
	return stripBrackets(s)
}

func stripBrackets(s string) string {
	for len(s) > 1 && (s[0] == '(' && s[len(s)-1] == ')' || s[0] == '[' && s[len(s)-1] == ']') {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func rangeNumber(s string) (float64, bool) {
	n, ok := ParseNumber(s)
	return n.Value, ok
}

// parseSimpleRange parses one range without sex labels.
func parseSimpleRange(s string) (*domain.ReferenceRange, bool) {
	s = strings.TrimSpace(strings.TrimLeft(s, "("))

	if m := intervalRe.FindStringSubmatchIndex(s); m != nil {
		lo, ok1 := rangeNumber(s[m[2]:m[3]])
		hi, ok2 := rangeNumber(s[m[4]:m[5]])
		if !ok1 || !ok2 || lo > hi {
			return nil, false
		}
		return &domain.ReferenceRange{
			Kind: domain.RangeInterval,
			Min:  domain.Float64Ptr(lo),
			Max:  domain.Float64Ptr(hi),
			Unit: trailingUnit(s[m[1]:]),
		}, true
	}

	if m := upperLimitRe.FindStringSubmatchIndex(s); m != nil {
		hi, ok := rangeNumber(s[m[2]:m[3]])
		if !ok {
			return nil, false
		}
		return &domain.ReferenceRange{
			Kind: domain.RangeUpperLimit,
			Max:  domain.Float64Ptr(hi),
			Unit: trailingUnit(s[m[1]:]),
		}, true
	}

	if m := lowerLimitRe.FindStringSubmatchIndex(s); m != nil {
		lo, ok := rangeNumber(s[m[2]:m[3]])
		if !ok {
			return nil, false
		}
		return &domain.ReferenceRange{
			Kind: domain.RangeLowerLimit,
			Min:  domain.Float64Ptr(lo),
			Unit: trailingUnit(s[m[1]:]),
		}, true
	}

	if term, n, ok := matchQualitative(s); ok && strings.TrimSpace(strings.Trim(s[n:], ".)")) == "" {
		return &domain.ReferenceRange{Kind: domain.RangeExact, ExpectedText: term}, true
	}

	return nil, false
}

func trailingUnit(s string) string {
	s = strings.TrimLeft(s, " )")
	if display, _, ok := unitPrefix(s); ok {
		return display
	}
	return ""
}

// parseSexSpecific splits s at sex labels and parses each segment.
func parseSexSpecific(s string, sex domain.Sex) (*domain.ReferenceRange, bool) {
	labels := sexLabelRe.FindAllStringSubmatchIndex(s, -1)
	if len(labels) < 2 {
		return nil, false
	}

	var male, female *domain.ReferenceRange
	for i, m := range labels {
		end := len(s)
		if i+1 < len(labels) {
			end = labels[i+1][0]
		}
		segment := strings.Trim(strings.TrimSpace(s[m[1]:end]), ";,/")
		r, ok := parseSimpleRange(segment)
		if !ok {
			continue
		}
		switch labelSex(s[m[2]:m[3]]) {
		case domain.SexMale:
			if male == nil {
				male = r
			}
		case domain.SexFemale:
			if female == nil {
				female = r
			}
		}
	}

	if male == nil || female == nil {
		return nil, false
	}
	male.GenderSpecific = true
	female.GenderSpecific = true

	switch sex {
	case domain.SexMale:
		return male, true
	case domain.SexFemale:
		return female, true
	default:
		return unionRange(male, female), true
	}
}

func labelSex(label string) domain.Sex {
	switch label[0] {
	case 'H', 'V':
		return domain.SexMale
	case 'M':
		if strings.HasPrefix(label, "MASC") {
			return domain.SexMale
		}
		return domain.SexFemale
	case 'F':
		return domain.SexFemale
	}
	return domain.SexUnknown
}

// unionRange widens a to cover b. Ranges of different kinds keep a.
func unionRange(a, b *domain.ReferenceRange) *domain.ReferenceRange {
	out := *a
	if a.Kind != b.Kind {
		return &out
	}
	if a.Min != nil && b.Min != nil {
		out.Min = domain.Float64Ptr(min(*a.Min, *b.Min))
	}
	if a.Max != nil && b.Max != nil {
		out.Max = domain.Float64Ptr(max(*a.Max, *b.Max))
	}
	if out.Unit == "" {
		out.Unit = b.Unit
	}
	return &out
}

// looksLikeRange reports whether a text fragment is a reference range
// rather than a result value.
func looksLikeRange(s string) bool {
	_, ok := ParseReferenceRange(s, domain.SexUnknown)
	return ok
}
