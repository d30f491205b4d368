package labtext

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// AbnormalMarker is the canonical token laboratories use to flag a value
// outside its reference range.
const AbnormalMarker = "[*]"

// columnGap is the canonical separator between table columns.
const columnGap = "  "

var (
	abnormalMarkerRe = regexp.MustCompile(`[\[(]\s*\*\s*[\])]`)
	spacedRUTRe      = regexp.MustCompile(`\b(\d{1,2})[ \t]*[.,][ \t]*(\d{3})[ \t]*[.,][ \t]*(\d{3})[ \t]*[-‐–][ \t]*([0-9kK])\b`)
	multiSpaceRe     = regexp.MustCompile(`[ ]{2,}`)
	blankRunRe       = regexp.MustCompile(`\n{3,}`)
)

// mojibake maps UTF-8 accented letters that were decoded as Windows-1252
// back to the intended letter.
var mojibake = strings.NewReplacer(
	"Ã¡", "á", "Ã©", "é", "Ã\u00ad", "í", "Ã³", "ó", "Ãº", "ú",
	"Ã±", "ñ", "Ã‘", "Ñ", "Ã\u0081", "Á", "Ã‰", "É", "Ã\u008d", "Í",
	"Ã“", "Ó", "Ãš", "Ú", "Ã¼", "ü", "Ãœ", "Ü",
	"Â°", "°", "Âµ", "µ", "Âº", "º", "Âª", "ª", "Â\u00a0", " ",
)

// RepairEncoding undoes UTF-8-read-as-Windows-1252 corruption of Spanish
// accented letters. Clean text is returned unchanged.
func RepairEncoding(s string) string {
	if !strings.ContainsAny(s, "ÃÂ") {
		return s
	}

	// Whole-text round trip first: encode back to the bytes the text was
	// mis-decoded from and accept them if they form valid UTF-8.
	if raw, err := charmap.Windows1252.NewEncoder().String(s); err == nil && utf8.ValidString(raw) {
		return raw
	}

	// Mixed text (some runes outside Windows-1252) falls back to the table.
	return mojibake.Replace(s)
}

// CleanPage applies the per-page cleanup rules: encoding repair, Unicode
// composition, control character removal, column gap canonicalisation,
// RUT separator repair and abnormal marker canonicalisation.
func CleanPage(page string) string {
	page = RepairEncoding(page)
	page = norm.NFC.String(page)
	page = strings.ReplaceAll(page, "\r\n", "\n")
	page = strings.ReplaceAll(page, "\r", "\n")

	page = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return r
		case r == '\u00a0', r == '\u2007', r == '\u202f':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, page)

	lines := strings.Split(page, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}
	page = strings.Join(lines, "\n")
	page = blankRunRe.ReplaceAllString(page, "\n\n")

	return strings.Trim(page, "\n")
}

func cleanLine(line string) string {
	line = strings.ReplaceAll(line, "\t", columnGap)
	line = multiSpaceRe.ReplaceAllString(line, columnGap)
	line = abnormalMarkerRe.ReplaceAllString(line, AbnormalMarker)
	line = spacedRUTRe.ReplaceAllStringFunc(line, func(m string) string {
		parts := spacedRUTRe.FindStringSubmatch(m)
		return parts[1] + "." + parts[2] + "." + parts[3] + "-" + strings.ToUpper(parts[4])
	})
	return strings.TrimSpace(line)
}
