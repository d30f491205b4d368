package markers

import (
	"github.com/custodia-labs/labtriage/internal/core/domain"
)

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z' || b >= 0x80
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isWordByte(b byte) bool {
	return isLetter(b) || isDigit(b)
}

// joins reports whether a and b would read as one token: two letters or
// two digits. A letter followed by a digit is a boundary, which keeps
// concatenated "NAME123" layouts matchable.
func joins(a, b byte) bool {
	return isLetter(a) && isLetter(b) || isDigit(a) && isDigit(b)
}

// Match finds every alias occurrence in the folded lines of doc. At each
// word start the longest alias wins and the scan resumes after it, so a
// position yields at most one occurrence. The same marker may occur many
// times. Results are ordered by line, then offset.
func (v *Vocabulary) Match(doc *domain.NormalizedDocument) []domain.MarkerOccurrence {
	if doc == nil {
		return nil
	}

	var out []domain.MarkerOccurrence
	for _, line := range doc.Lines {
		out = append(out, v.MatchLine(line.Index, line.Folded)...)
	}
	return out
}

// MatchLine finds alias occurrences in one folded line.
func (v *Vocabulary) MatchLine(index int, folded string) []domain.MarkerOccurrence {
	var out []domain.MarkerOccurrence
	for pos := 0; pos < len(folded); {
		if pos > 0 && isWordByte(folded[pos-1]) {
			pos++
			continue
		}
		a, ok := v.matchAt(folded, pos)
		if !ok {
			pos++
			continue
		}
		out = append(out, domain.MarkerOccurrence{
			MarkerCode: a.code,
			Alias:      a.key,
			Line:       index,
			Start:      pos,
			End:        pos + len(a.key),
		})
		pos += len(a.key)
	}
	return out
}

func (v *Vocabulary) matchAt(s string, pos int) (alias, bool) {
	for _, a := range v.byFirst[s[pos]] {
		end := pos + len(a.key)
		if end > len(s) || s[pos:end] != a.key {
			continue
		}
		if end < len(s) && joins(a.key[len(a.key)-1], s[end]) {
			continue
		}
		return a, true
	}
	return alias{}, false
}
