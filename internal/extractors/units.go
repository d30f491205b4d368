package extractors

import (
	"strings"

	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
)

// Unit classes group interchangeable notations. Units in the same class
// never conflict with each other.
const (
	classCount  = "count"
	classMolar  = "molar"
	classIU     = "iu"
	classField  = "per_field"
	classRate   = "rate"
	classEnzyme = "enzyme"
)

type unitInfo struct {
	display string
	class   string
}

// units is keyed by the folded, space-free notation.
var units = map[string]unitInfo{
	"MG/DL":    {"mg/dL", "mg/dL"},
	"MGR/DL":   {"mg/dL", "mg/dL"},
	"MG%":      {"mg/dL", "mg/dL"},
	"G/DL":     {"g/dL", "g/dL"},
	"GR/DL":    {"g/dL", "g/dL"},
	"G/L":      {"g/L", "g/L"},
	"MG/L":     {"mg/L", "mg/L"},
	"UG/DL":    {"ug/dL", "ug/dL"},
	"NG/DL":    {"ng/dL", "ng/dL"},
	"NG/ML":    {"ng/mL", "ng/mL"},
	"PG/ML":    {"pg/mL", "pg/mL"},
	"%":        {"%", "%"},
	"MMOL/L":   {"mmol/L", classMolar},
	"MEQ/L":    {"mEq/L", classMolar},
	"MOSM/KG":  {"mOsm/kg", "mOsm/kg"},
	"U/L":      {"U/L", classEnzyme},
	"UI/L":     {"U/L", classEnzyme},
	"UUI/ML":   {"uUI/mL", classIU},
	"UIU/ML":   {"uUI/mL", classIU},
	"MUI/L":    {"mUI/L", classIU},
	"MU/L":     {"mUI/L", classIU},
	"FL":       {"fL", "fL"},
	"PG":       {"pg", "pg"},
	"MM/H":     {"mm/h", classRate},
	"MM/HR":    {"mm/h", classRate},
	"MM/HORA":  {"mm/h", classRate},
	"MM/1AHR":  {"mm/h", classRate},
	"SEG":      {"s", "s"},
	"X10^3/UL": {"x10³/uL", classCount},
	"X10³/UL":  {"x10³/uL", classCount},
	"10^3/UL":  {"x10³/uL", classCount},
	"10³/UL":   {"x10³/uL", classCount},
	"X10E3/UL": {"x10³/uL", classCount},
	"K/UL":     {"x10³/uL", classCount},
	"MIL/UL":   {"x10³/uL", classCount},
	"MIL/MM3":  {"x10³/uL", classCount},
	"X10^6/UL": {"x10⁶/uL", classCount},
	"X10⁶/UL":  {"x10⁶/uL", classCount},
	"10^6/UL":  {"x10⁶/uL", classCount},
	"10⁶/UL":   {"x10⁶/uL", classCount},
	"X10E6/UL": {"x10⁶/uL", classCount},
	"M/UL":     {"x10⁶/uL", classCount},
	"MILL/UL":  {"x10⁶/uL", classCount},
	"MILL/MM3": {"x10⁶/uL", classCount},
	"/MM3":     {"/mm3", classCount},
	"XMM3":     {"/mm3", classCount},
	"MM3":      {"/mm3", classCount},
	"/UL":      {"/uL", classCount},
	"CEL/UL":   {"/uL", classCount},
	"/CAMPO":   {"/campo", classField},
	"XCAMPO":   {"/campo", classField},
	"PORCAMPO": {"/campo", classField},
	"/C":       {"/campo", classField},
	"/HPF":     {"/campo", classField},
}

// maxUnitTokens bounds how many words a unit notation may span.
const maxUnitTokens = 3

func unitKey(s string) string {
	s = labtext.Fold(strings.TrimSpace(s))
	s = strings.Trim(s, "()[].:")
	return strings.Join(strings.Fields(s), "")
}

// LookupUnit returns the display form of a known unit notation.
func LookupUnit(s string) (string, bool) {
	u, ok := units[unitKey(s)]
	return u.display, ok
}

// CanonicalUnit returns the display form of a known unit, or the trimmed
// input for unknown ones.
func CanonicalUnit(s string) string {
	if display, ok := LookupUnit(s); ok {
		return display
	}
	return strings.TrimSpace(s)
}

// UnitClass returns the class of a unit. Unknown units are their own class.
func UnitClass(s string) string {
	if u, ok := units[unitKey(s)]; ok {
		return u.class
	}
	return unitKey(s)
}

// SameUnit reports whether two unit notations are interchangeable.
// An empty unit matches anything.
func SameUnit(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return UnitClass(a) == UnitClass(b)
}

// unitPrefix finds a known unit at the start of s, trying the longest run
// of words first and never crossing a column gap. It returns the display
// unit and the number of bytes consumed.
func unitPrefix(s string) (string, int, bool) {
	lead := len(s) - len(strings.TrimLeft(s, " "))
	body := s[lead:]
	if i := strings.Index(body, "  "); i >= 0 {
		body = body[:i]
	}

	// Word end offsets inside body.
	var ends []int
	for i := 0; i < len(body) && len(ends) < maxUnitTokens; {
		for i < len(body) && body[i] == ' ' {
			i++
		}
		if i >= len(body) {
			break
		}
		for i < len(body) && body[i] != ' ' {
			i++
		}
		ends = append(ends, i)
	}

	for k := len(ends); k > 0; k-- {
		if display, ok := LookupUnit(body[:ends[k-1]]); ok {
			return display, lead + ends[k-1], true
		}
	}
	return "", 0, false
}
