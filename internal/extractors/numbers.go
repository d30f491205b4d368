package extractors

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// maxValue bounds any accepted result value.
const maxValue = 1e7

var (
	numberRe         = regexp.MustCompile(`^(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?)$`)
	thousandsGroupRe = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	leadingNumberRe  = regexp.MustCompile(`^[<>≤≥]?\s*(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?)`)
)

// Number is a parsed Chilean-format number. A lone dotted three-digit group
// ("250.000") is ambiguous: Value holds the decimal reading and Thousands
// the thousands reading.
type Number struct {
	Value     float64
	Thousands float64
	Ambiguous bool
}

// ParseNumber parses "1.234,5", "4,5", "4.5", "250.000" and "95".
// Both separators present: dots group thousands and the comma is decimal.
// A comma alone is decimal. Several dotted groups are thousands.
func ParseNumber(s string) (Number, bool) {
	s = strings.TrimSpace(s)
	if !numberRe.MatchString(s) {
		return Number{}, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), 64)
		return Number{Value: v}, err == nil
	case hasComma:
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		return Number{Value: v}, err == nil
	case hasDot && thousandsGroupRe.MatchString(s):
		t, err := strconv.ParseFloat(strings.ReplaceAll(s, ".", ""), 64)
		if err != nil {
			return Number{}, false
		}
		if strings.Count(s, ".") > 1 {
			return Number{Value: t}, true
		}
		d, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}, false
		}
		return Number{Value: d, Thousands: t, Ambiguous: true}, true
	default:
		v, err := strconv.ParseFloat(s, 64)
		return Number{Value: v}, err == nil
	}
}

// ParseLeadingNumber parses the number at the start of s, allowing a
// comparator prefix ("<0,5"). It returns the number, the matched text and
// the remainder.
func ParseLeadingNumber(s string) (Number, string, string, bool) {
	m := leadingNumberRe.FindStringSubmatchIndex(s)
	if m == nil {
		return Number{}, "", s, false
	}
	rest := s[m[1]:]
	// "12A" or "1.2.3" are not numbers.
	if rest != "" && (isDigitByte(rest[0]) || rest[0] == '.' && len(rest) > 1 && isDigitByte(rest[1])) {
		return Number{}, "", s, false
	}
	n, ok := ParseNumber(s[m[2]:m[3]])
	if !ok {
		return Number{}, "", s, false
	}
	return n, s[m[0]:m[1]], rest, true
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

// Interpret chooses the reading of n for marker m and unit, and rejects
// values that are negative, above the global bound or implausible for the
// marker. The thousands reading of an ambiguous number is used only when
// the decimal reading is implausible and the thousands reading is not.
// Counts are reported in the marker's expected unit; absolute cell counts
// are rescaled to it. It returns the value and the unit it is expressed in.
func Interpret(n Number, unit string, m *domain.CanonicalMarker) (float64, string, bool) {
	readings := []float64{n.Value}
	if n.Ambiguous {
		readings = append(readings, n.Thousands)
	}

	if m == nil || !m.HasPlausibleBounds() {
		v := readings[0]
		return v, unit, v >= 0 && v <= maxValue
	}

	for _, v := range readings {
		if v > maxValue {
			continue
		}
		if m.IsPlausible(v) {
			return v, countUnit(unit, m), true
		}
	}

	if isCount(unit) && isCount(m.ExpectedUnit) {
		for _, v := range readings {
			for _, div := range []float64{1e3, 1e6} {
				if scaled := v / div; v <= maxValue && m.IsPlausible(scaled) {
					return scaled, m.ExpectedUnit, true
				}
			}
		}
	}

	return 0, unit, false
}

func isCount(unit string) bool {
	return UnitClass(unit) == classCount
}

// countUnit returns the marker's expected unit for count notations, which
// differ only in scale.
func countUnit(unit string, m *domain.CanonicalMarker) string {
	if isCount(unit) && isCount(m.ExpectedUnit) {
		return m.ExpectedUnit
	}
	return unit
}
