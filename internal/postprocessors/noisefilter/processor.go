// Package noisefilter drops extraction candidates that are fragments of
// text rather than results.
package noisefilter

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
)

// Name is the processor name used in configuration.
const Name = "noise_filter"

// DefaultMinConfidence is the default confidence floor.
const DefaultMinConfidence = 40.0

// minNameLength is the shortest exam name accepted, in characters.
const minNameLength = 3

var (
	gluedDigitRe    = regexp.MustCompile(`\p{L}\d+$`)
	danglingCommaRe = regexp.MustCompile(`,\s*$`)
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor drops candidates with truncated names, missing values, text
// values for numeric markers, or confidence below a floor.
type Processor struct {
	minConfidence float64
}

// Option configures the noise filter.
type Option func(*Processor)

// WithMinConfidence sets the confidence floor, clamped to 0..100.
func WithMinConfidence(v float64) Option {
	return func(p *Processor) {
		p.minConfidence = max(0, min(100, v))
	}
}

// New creates a noise filter with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{minConfidence: DefaultMinConfidence}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// MinConfidence returns the confidence floor.
func (p *Processor) MinConfidence() float64 {
	return p.minConfidence
}

// Process returns the candidates that pass every check, in input order.
func (p *Processor) Process(_ context.Context, ec *driven.ExtractionContext, results []domain.ExtractedResult) ([]domain.ExtractedResult, error) {
	out := make([]domain.ExtractedResult, 0, len(results))
	for _, r := range results {
		if reason := p.reject(ec, &r); reason != "" {
			logger.Debug("noise_filter: dropped %s %q (%s): %s", r.MarkerCode, r.RawValue, r.Strategy, reason)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// reject returns why r is noise, or "" when it is kept.
func (p *Processor) reject(ec *driven.ExtractionContext, r *domain.ExtractedResult) string {
	name := strings.TrimSpace(r.ExamName)
	switch {
	case utf8.RuneCountInString(name) < minNameLength:
		return "exam name too short"
	case danglingCommaRe.MatchString(name):
		return "exam name ends in a comma"
	case gluedDigitRe.MatchString(name) && !knownName(ec, r.MarkerCode, name):
		return "exam name has a number glued to it"
	case !r.HasValue():
		return "no value"
	case r.ResultKind.IsNumeric() && r.NumericValue == nil:
		return "text value for a numeric result"
	case r.Confidence < p.minConfidence:
		return "below confidence floor"
	}
	return ""
}

// knownName reports whether name is the display name, code or an alias of
// the marker, so names such as "Vitamina B12" are not taken as fragments.
func knownName(ec *driven.ExtractionContext, code, name string) bool {
	if ec == nil || ec.Markers == nil {
		return false
	}
	m, ok := ec.Markers.Marker(code)
	if !ok {
		return false
	}
	key := labtext.FoldKey(name)
	if key == labtext.FoldKey(m.Name) || key == labtext.FoldKey(m.Code) {
		return true
	}
	for _, alias := range m.Aliases {
		if key == labtext.FoldKey(alias) {
			return true
		}
	}
	return false
}
