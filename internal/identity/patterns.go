package identity

import "regexp"

// Pattern names.
const (
	PatternLabeled  = "labeled"
	PatternDotted   = "dotted"
	PatternUndotted = "undotted"
	PatternSpaced   = "spaced"
)

// pattern is one entry of the ranked identity pattern library. Group is the
// submatch holding the number.
type pattern struct {
	name  string
	base  float64
	re    *regexp.Regexp
	group int
}

// patterns run against folded text, most specific first. A span claimed by
// an earlier pattern is not matched again by a later one.
var patterns = []pattern{
	{
		name:  PatternLabeled,
		base:  90,
		re:    regexp.MustCompile(`\b(?:R\.?\s?U\.?\s?[TN]\.?|C\.\s?I\.|CEDULA(?:\s+DE\s+IDENTIDAD)?|IDENTIFICACION|ID)\s*(?:N[°ºO]?\.?\s*)?[:#]?\s*(\d{1,2}\.?\d{3}\.?\d{3}\s?-\s?[0-9K])\b`),
		group: 1,
	},
	{
		name: PatternDotted,
		base: 75,
		re:   regexp.MustCompile(`\b\d{1,2}\.\d{3}\.\d{3}-[0-9K]\b`),
	},
	{
		name: PatternUndotted,
		base: 65,
		re:   regexp.MustCompile(`\b\d{7,8}-[0-9K]\b`),
	},
	{
		name: PatternSpaced,
		base: 50,
		re:   regexp.MustCompile(`\b\d{1,2}[ .,]\d{3}[ .,]\d{3}\s?[- ]?\s?[0-9K]\b`),
	},
}

var (
	identityVocabulary  = regexp.MustCompile(`\b(PACIENTE|RUT|RUN|R\.U\.T|IDENTIFICACION|CEDULA|NOMBRE|C\.I\.)`)
	unrelatedVocabulary = regexp.MustCompile(`\b(TELEFONO|FONO|DIRECCION|FECHA|FOLIO|ORDEN|CELULAR)\b`)
)
