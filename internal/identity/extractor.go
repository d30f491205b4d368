// Package identity finds the patient's RUT in a normalised lab report.
//
// A ranked pattern library produces candidates; each candidate is scored
// from its pattern, its surrounding vocabulary and its check digit, then
// duplicates are merged and one best match is selected.
package identity

import (
	"sort"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

const (
	// contextWindow is the number of bytes before a match inspected for vocabulary.
	contextWindow = 40

	// headerFraction is the share of the text treated as the report header.
	headerFraction = 0.15

	// strongConfidence is the preferred minimum for a selected valid candidate.
	strongConfidence = 70

	identityBonus    = 10
	validBonus       = 20
	invalidPenalty   = 30
	unrelatedPenalty = 20
)

// Features are the context signals that adjust a pattern's base confidence.
type Features struct {
	IdentityContext  bool
	UnrelatedContext bool
	ChecksumValid    bool
}

// Score combines a base pattern confidence with context features and clamps
// the result to 0-100.
func Score(base float64, f Features) float64 {
	score := base
	if f.IdentityContext {
		score += identityBonus
	}
	if f.ChecksumValid {
		score += validBonus
	} else {
		score -= invalidPenalty
	}
	if f.UnrelatedContext {
		score -= unrelatedPenalty
	}
	return min(max(score, 0), 100)
}

// Result holds every merged candidate and the selected best match.
type Result struct {
	Candidates []domain.IdentityCandidate
	Best       *domain.IdentityCandidate
}

// Extractor finds identity candidates. It holds no state and is safe for
// concurrent use.
type Extractor struct{}

// NewExtractor creates an identity extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

type span struct{ start, end int }

// Extract returns the merged candidates found in doc, ordered by confidence
// then position, and the best match (nil when there are none).
func (e *Extractor) Extract(doc *domain.NormalizedDocument) Result {
	if doc == nil || len(doc.Lines) == 0 {
		return Result{}
	}

	text := doc.Folded
	headerEnd := int(float64(len(text)) * headerFraction)

	var found []domain.IdentityCandidate
	offset := 0
	for _, line := range doc.Lines {
		var claimed []span
		for _, p := range patterns {
			for _, m := range p.re.FindAllStringSubmatchIndex(line.Folded, -1) {
				start, end := m[2*p.group], m[2*p.group+1]
				if start < 0 || overlaps(claimed, start, end) {
					continue
				}
				claimed = append(claimed, span{m[0], m[1]})

				pos := offset + start
				raw := line.Folded[start:end]
				rut := domain.NormalizeRUT(raw)
				valid := rut.IsValid()

				before := text[max(0, offset+m[0]-contextWindow) : offset+m[0]]
				conf := Score(p.base, Features{
					IdentityContext:  identityVocabulary.MatchString(before),
					UnrelatedContext: unrelatedVocabulary.MatchString(before),
					ChecksumValid:    valid,
				})

				found = append(found, domain.IdentityCandidate{
					RawValue:       raw,
					FormattedValue: rut.Formatted(),
					IsValid:        valid,
					Confidence:     conf,
					SourceContext:  sourceContext(p.name, line.Folded, pos, headerEnd),
					Position:       pos,
					Pattern:        p.name,
				})
			}
		}
		offset += len(line.Folded) + 1
	}

	candidates := Merge(found)
	return Result{Candidates: candidates, Best: Select(candidates)}
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

func sourceContext(patternName, line string, pos, headerEnd int) domain.SourceContext {
	switch {
	case patternName == PatternLabeled:
		return domain.ContextForm
	case pos < headerEnd:
		return domain.ContextHeader
	case strings.Contains(line, "  "):
		return domain.ContextTable
	default:
		return domain.ContextBody
	}
}

// Merge collapses candidates with the same normalised value, keeping the
// highest confidence (earliest position on ties). The result is ordered by
// confidence descending, then position.
func Merge(candidates []domain.IdentityCandidate) []domain.IdentityCandidate {
	best := make(map[domain.RUT]int)
	var out []domain.IdentityCandidate
	for _, c := range candidates {
		key := domain.NormalizeRUT(c.FormattedValue)
		i, ok := best[key]
		if !ok {
			best[key] = len(out)
			out = append(out, c)
			continue
		}
		if c.Confidence > out[i].Confidence ||
			(c.Confidence == out[i].Confidence && c.Position < out[i].Position) {
			out[i] = c
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// Select picks the best match from candidates ordered by Merge: the
// highest-confidence valid candidate above the strong threshold, else the
// highest-confidence valid candidate, else the highest-confidence candidate.
func Select(candidates []domain.IdentityCandidate) *domain.IdentityCandidate {
	if len(candidates) == 0 {
		return nil
	}

	pick := func(ok func(domain.IdentityCandidate) bool) *domain.IdentityCandidate {
		for i := range candidates {
			if ok(candidates[i]) {
				c := candidates[i]
				return &c
			}
		}
		return nil
	}

	if c := pick(func(c domain.IdentityCandidate) bool { return c.IsValid && c.Confidence > strongConfidence }); c != nil {
		return c
	}
	if c := pick(func(c domain.IdentityCandidate) bool { return c.IsValid }); c != nil {
		return c
	}
	c := candidates[0]
	return &c
}
