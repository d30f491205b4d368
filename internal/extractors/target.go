package extractors

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
)

const (
	abnormalToken = labtext.AbnormalMarker
	columnGap     = "  "

	// maxSnippet bounds the context snippet stored on a result.
	maxSnippet = 160
)

var (
	methodRe = regexp.MustCompile(`\b(METODO|ENZIMATIC|COLORIMETRI|ESPECTROFOTOMETRI|HPLC|ELECTRODO|ISE|CITOMETRIA|IMPEDANCIA|QUIMIOLUMINISCENCIA|ELECTROQUIMIOLUMINISCENCIA|INMUNOTURBIDIMETRI|TURBIDIMETRI|NEFELOMETRI|CALCULADO|AUTOMATIZADO|MICROSCOPI|TIRA REACTIVA|WESTERGREN|FLOCULACION|ELISA|JAFFE|HEXOQUINASA|OXIDASA)`)
	calculatedRe = regexp.MustCompile(`\bCALCULAD[OA]\b`)
)

func isMethod(folded string) bool {
	return methodRe.MatchString(folded)
}

func startsWithDigit(s string) bool {
	return s != "" && isDigitByte(s[0])
}

// cell is one column of a line. Text is folded; Raw is the same span of
// the cleaned line when the two views align, else the folded text.
type cell struct {
	text string
	raw  string
}

// target is one marker occurrence prepared for extraction.
type target struct {
	occ    domain.MarkerOccurrence
	marker *domain.CanonicalMarker
	line   domain.Line

	// rest is the folded text after the alias, up to the next occurrence
	// on the same line; restRaw is the aligned cleaned text.
	rest    string
	restRaw string

	// abnormal is set when rest carries the abnormal marker token.
	abnormal bool

	// occupied holds the indexes of lines with at least one occurrence.
	occupied map[int]bool
}

// targets prepares occurrences for extraction, dropping those whose marker
// is unknown to the lookup.
func targets(ec *driven.ExtractionContext, occs []domain.MarkerOccurrence) []target {
	if ec == nil || ec.Document == nil || ec.Markers == nil {
		return nil
	}

	occupied := make(map[int]bool, len(occs))
	for _, o := range occs {
		occupied[o.Line] = true
	}

	out := make([]target, 0, len(occs))
	for i, o := range occs {
		if o.Line < 0 || o.Line >= len(ec.Document.Lines) {
			continue
		}
		m, ok := ec.Markers.Marker(o.MarkerCode)
		if !ok {
			continue
		}
		line := ec.Document.Lines[o.Line]

		end := len(line.Folded)
		if i+1 < len(occs) && occs[i+1].Line == o.Line && occs[i+1].Start >= o.End {
			end = occs[i+1].Start
		}
		if o.End > end {
			continue
		}

		rest := line.Folded[o.End:end]
		restRaw := rest
		if aligned(line) {
			restRaw = line.Text[o.End:end]
		}

		out = append(out, target{
			occ:      o,
			marker:   m,
			line:     line,
			rest:     rest,
			restRaw:  restRaw,
			abnormal: strings.Contains(rest, abnormalToken),
			occupied: occupied,
		})
	}
	return out
}

// aligned reports whether byte offsets in the folded view are valid in the
// cleaned text.
func aligned(line domain.Line) bool {
	return len(line.Text) == len(line.Folded)
}

// cells splits the text after the alias into columns, dropping the
// abnormal marker token and leading colons.
func (t target) cells() []cell {
	return splitCells(t.rest, t.restRaw)
}

func splitCells(folded, raw string) []cell {
	fparts := strings.Split(folded, columnGap)
	rparts := strings.Split(raw, columnGap)
	if len(rparts) != len(fparts) {
		rparts = fparts
	}

	var out []cell
	for i := range fparts {
		f := trimCell(fparts[i])
		r := trimCell(rparts[i])
		if f == "" {
			continue
		}
		if len(r) != len(f) {
			r = f
		}
		out = append(out, cell{text: f, raw: r})
	}
	return out
}

func trimCell(s string) string {
	s = strings.ReplaceAll(s, abnormalToken, "")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ":")
	return strings.TrimSpace(s)
}

// candidate returns a result prefilled with the fields every strategy shares.
func (t target) candidate(strategy string) domain.ExtractedResult {
	kind := t.marker.Kind
	if kind == "" {
		kind = domain.KindNumeric
	}
	return domain.ExtractedResult{
		MarkerCode:        t.marker.Code,
		ExamName:          t.examName(),
		SampleType:        t.line.Sample,
		HasAbnormalMarker: t.abnormal,
		SourcePosition: domain.Position{
			Page:   t.line.Page,
			Line:   t.line.Index,
			Offset: t.occ.Start,
		},
		ContextSnippet: snippet(t.line.Text),
		ResultKind:     kind,
		Strategy:       strategy,
	}
}

func (t target) examName() string {
	if aligned(t.line) {
		return t.line.Text[t.occ.Start:t.occ.End]
	}
	return t.occ.Alias
}

// features returns the signals every strategy observes the same way.
func (t target) features() Features {
	return Features{
		AbnormalMarker: t.abnormal,
		SampleMismatch: !t.line.Sample.CompatibleWith(t.marker.PreferredSample),
	}
}

// numericFeatures adds the unit and plausibility signals of a numeric value.
func (t target) numericFeatures(unit string) Features {
	f := t.features()
	_, f.RecognisedUnit = LookupUnit(unit)
	f.PlausibleValue = t.marker.HasPlausibleBounds()
	f.UnitConflict = f.RecognisedUnit && t.marker.ExpectedUnit != "" && !SameUnit(unit, t.marker.ExpectedUnit)
	return f
}

// numericKind returns the kind of a numeric candidate for the marker.
func (t target) numericKind() domain.ResultKind {
	if t.marker.Kind == domain.KindCalculated || calculatedRe.MatchString(t.rest) {
		return domain.KindCalculated
	}
	return domain.KindNumeric
}

// lineFree reports whether line idx exists, is non-empty and holds no
// marker occurrence.
func (t target) lineFree(ec *driven.ExtractionContext, idx int) bool {
	lines := ec.Document.Lines
	return idx >= 0 && idx < len(lines) && !t.occupied[idx] && strings.TrimSpace(lines[idx].Folded) != ""
}

// nextLineRange looks for the reference range on the line following the
// result when the result line carries none.
func (t target) nextLineRange(ec *driven.ExtractionContext) (*domain.ReferenceRange, string) {
	return lineRange(ec, t, t.line.Index+1)
}

func lineRange(ec *driven.ExtractionContext, t target, idx int) (*domain.ReferenceRange, string) {
	if !t.lineFree(ec, idx) {
		return nil, ""
	}
	line := ec.Document.Lines[idx]
	if r, ok := ParseReferenceRange(line.Text, ec.Sex); ok {
		return r, strings.TrimSpace(line.Text)
	}
	return nil, ""
}

// readTrailing fills range and method from the cells that follow a value.
// Adjacent cells carrying sex labels are read as one range.
func readTrailing(res *domain.ExtractedResult, cells []cell, sex domain.Sex) {
	for i := 0; i < len(cells); i++ {
		c := cells[i]
		if res.Range == nil {
			text, raw := c.text, c.raw
			if sexLabelRe.MatchString(c.text) {
				for i+1 < len(cells) && sexLabelRe.MatchString(cells[i+1].text) {
					i++
					text += columnGap + cells[i].text
					raw += columnGap + cells[i].raw
				}
			}
			if r, ok := ParseReferenceRange(text, sex); ok {
				r.Text = raw
				res.Range = r
				res.ReferenceRangeText = raw
				continue
			}
		}
		if res.Method == "" && isMethod(c.text) {
			res.Method = c.raw
			if res.Range == nil {
				splitMethodRange(res, c, sex)
			}
		}
	}
}

// splitMethodRange moves a range printed after the method name
// ("Jaffe 0,7 - 1,3") from the method into the result's range.
func splitMethodRange(res *domain.ExtractedResult, c cell, sex domain.Sex) {
	raw := c.raw
	if len(raw) != len(c.text) {
		raw = c.text
	}
	for i := 1; i < len(c.text); i++ {
		if c.text[i-1] != ' ' || c.text[i] == ' ' {
			continue
		}
		r, ok := ParseReferenceRange(c.text[i:], sex)
		if !ok {
			continue
		}
		if !isMethod(c.text[:i]) {
			return
		}
		r.Text = strings.TrimSpace(raw[i:])
		res.Range = r
		res.ReferenceRangeText = r.Text
		res.Method = strings.TrimSpace(raw[:i])
		return
	}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxSnippet {
		return s
	}
	cut := maxSnippet
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
