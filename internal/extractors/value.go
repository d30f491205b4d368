package extractors

import (
	"strings"
)

// valueCell is a numeric value read from the start of a cell.
type valueCell struct {
	number Number

	// raw is the value as printed, comparator included.
	raw string

	// unit is the display unit found right after the value, if any.
	unit string

	// rest is what follows the value and unit in the same cell.
	rest cell
}

// parseValueCell reads "95", "4,5 g/dL", "<0,5 (mg/L)" or "250.000/mm3"
// from the start of a cell. Interval text ("0-2") is not a value.
func parseValueCell(c cell) (valueCell, bool) {
	if intervalRe.MatchString(c.text) {
		return valueCell{}, false
	}
	n, matched, after, ok := ParseLeadingNumber(c.text)
	if !ok {
		return valueCell{}, false
	}

	vc := valueCell{number: n, raw: strings.TrimSpace(c.raw[:len(matched)])}
	offset := len(matched)

	trimmed := strings.TrimLeft(after, " ")
	switch {
	case strings.HasPrefix(trimmed, "("):
		if end := strings.IndexByte(trimmed, ')'); end > 0 {
			if display, ok := LookupUnit(trimmed[:end+1]); ok {
				vc.unit = display
				offset += len(after) - len(trimmed) + end + 1
			}
		}
	default:
		if display, consumed, ok := unitPrefix(after); ok {
			vc.unit = display
			offset += consumed
		}
	}

	vc.rest = cell{
		text: strings.TrimSpace(c.text[offset:]),
		raw:  strings.TrimSpace(c.raw[offset:]),
	}
	return vc, true
}

// resolveUnit takes the unit from the value cell or, failing that, from a
// following cell holding only a unit. It returns the unit and the cells
// left to read.
func resolveUnit(vc valueCell, next []cell) (string, []cell) {
	if vc.unit != "" || len(next) == 0 {
		return vc.unit, next
	}
	if display, ok := LookupUnit(next[0].text); ok {
		return display, next[1:]
	}
	return "", next
}

// trailingCells returns the value cell's remainder followed by next.
func trailingCells(vc valueCell, next []cell) []cell {
	if vc.rest.text == "" {
		return next
	}
	return append([]cell{vc.rest}, next...)
}
