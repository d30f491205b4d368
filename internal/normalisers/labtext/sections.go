package labtext

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

var (
	sectionPrefix = `^(?:EXAMEN(?:ES)?\s+DE\s+|TIPO\s+DE\s+MUESTRA\s*:?\s*|MUESTRA\s*:?\s*|PERFIL\s+)?`

	urineSectionRe = regexp.MustCompile(sectionPrefix + `(ORINA|SEDIMENTO|UROANALISIS|UROCULTIVO)\b`)
	bloodSectionRe = regexp.MustCompile(sectionPrefix + `(HEMOGRAMA|HEMATOLOGIA|SANGRE TOTAL|SERIE ROJA|SERIE BLANCA|RECUENTO DIFERENCIAL|FORMULA LEUCOCITARIA)\b`)
	serumSectionRe = regexp.MustCompile(sectionPrefix + `(BIOQUIMICA|QUIMICA SANGUINEA|BIOQUIMICO|LIPIDICO|HEPATICO|ELECTROLITOS|HORMONAS|TIROIDEO|SUERO|PLASMA|INMUNOLOGIA|SEROLOGIA)\b`)

	hasDigitRe = regexp.MustCompile(`\d`)
)

// maxHeaderLen bounds section header lines; longer lines are results or prose.
const maxHeaderLen = 48

// DetectSection returns the specimen a folded line announces as a section
// header, or SampleUnknown if the line is not a header.
func DetectSection(folded string) domain.SampleType {
	line := strings.TrimSpace(strings.Trim(folded, "-=_*: "))
	if line == "" || len(line) > maxHeaderLen || hasDigitRe.MatchString(line) {
		return domain.SampleUnknown
	}

	switch {
	case urineSectionRe.MatchString(line):
		return domain.SampleUrine
	case bloodSectionRe.MatchString(line):
		return domain.SampleBlood
	case serumSectionRe.MatchString(line):
		return domain.SampleSerum
	}
	return domain.SampleUnknown
}
