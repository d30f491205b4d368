package labtext

import (
	"regexp"
	"strings"
)

// fieldLabelRe matches header and footer field labels on folded text.
var fieldLabelRe = regexp.MustCompile(
	`\b(PACIENTE|NOMBRE|R\.?U\.?[TN]\.?|FECHA|EDAD|SEXO|MEDICO|DR\.|PROCEDENCIA|ORDEN|FOLIO|PAGINA|PREVISION|TOMA DE MUESTRA|RECEPCION|VALIDADO POR|SOLICITANTE)\b`,
)

var digitsRe = regexp.MustCompile(`\d+`)

// boilerplateKey is the near-exact comparison key for a line: folded,
// digits removed (page numbers, print times), whitespace collapsed.
func boilerplateKey(line string) string {
	folded := Fold(line)
	folded = digitsRe.ReplaceAllString(folded, "#")
	return strings.Join(strings.Fields(folded), " ")
}

// isFieldLine reports whether a line carries a header/footer field label.
func isFieldLine(line string) bool {
	return fieldLabelRe.MatchString(Fold(line))
}

// StripBoilerplate removes header and footer lines reprinted on every page.
// A line is boilerplate when it carries a known field label and its
// near-exact key appears on every page. The first page keeps its copy so
// the patient header is still available once. It returns the cleaned pages
// and the number of removed lines.
func StripBoilerplate(pages []string) ([]string, int) {
	if len(pages) < 2 {
		return pages, 0
	}

	// Count on how many pages each field-line key appears.
	pageCount := make(map[string]int)
	for _, page := range pages {
		seen := make(map[string]bool)
		for _, line := range strings.Split(page, "\n") {
			if !isFieldLine(line) {
				continue
			}
			key := boilerplateKey(line)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			pageCount[key]++
		}
	}

	repeated := make(map[string]bool)
	for key, n := range pageCount {
		if n == len(pages) {
			repeated[key] = true
		}
	}
	if len(repeated) == 0 {
		return pages, 0
	}

	out := make([]string, len(pages))
	out[0] = pages[0]
	removed := 0
	for i := 1; i < len(pages); i++ {
		lines := strings.Split(pages[i], "\n")
		kept := lines[:0]
		for _, line := range lines {
			if isFieldLine(line) && repeated[boilerplateKey(line)] {
				removed++
				continue
			}
			kept = append(kept, line)
		}
		out[i] = strings.Trim(strings.Join(kept, "\n"), "\n")
	}

	return out, removed
}
