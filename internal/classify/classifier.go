// Package classify assigns a severity tier to each accepted result.
//
// A result is abnormal when it lies outside its reference range. Marker
// overrides, when present, decide the tier of an abnormal result; other
// markers are bucketed by relative deviation. Results without a usable
// range are normal. Critical thresholds are applied afterwards by the
// critical package and always win.
package classify

import (
	"math"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/extractors"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
)

// Classifier computes severity classifications. It is immutable and safe
// for concurrent use.
type Classifier struct {
	overrides map[string]Override
}

// Option configures the classifier.
type Option func(*Classifier)

// WithOverrides replaces the marker override table.
func WithOverrides(overrides map[string]Override) Option {
	return func(c *Classifier) {
		c.overrides = make(map[string]Override, len(overrides))
		for code, o := range overrides {
			c.overrides[code] = o
		}
	}
}

// New creates a classifier with the default override table.
func New(opts ...Option) *Classifier {
	c := &Classifier{overrides: DefaultOverrides()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Override returns the override for a marker code.
func (c *Classifier) Override(code string) (Override, bool) {
	o, ok := c.overrides[code]
	return o, ok
}

// Classify returns the classification of r. m may be nil.
func (c *Classifier) Classify(r *domain.ExtractedResult, m *domain.CanonicalMarker) domain.SeverityClassification {
	if r.Range == nil {
		return classification(domain.SeverityNormal, 0, domain.DirectionNone, domain.BasisNoRange)
	}

	if r.NumericValue == nil {
		return qualitative(r)
	}
	if r.Range.Kind == domain.RangeExact {
		return classification(domain.SeverityNormal, 0, domain.DirectionNone, domain.BasisNoRange)
	}

	v := *r.NumericValue
	dev, dir := Deviation(v, r.Range)
	if dev <= 0 {
		return classification(domain.SeverityNormal, 0, domain.DirectionNone, domain.BasisDeviation)
	}

	if o, ok := c.overrides[r.MarkerCode]; ok && c.unitMatches(r, m, o) {
		if sev, ok := o.severity(v, dir); ok {
			return classification(sev, dev, dir, domain.BasisOverride)
		}
	}
	return classification(Bucket(dev), dev, dir, domain.BasisDeviation)
}

func (c *Classifier) unitMatches(r *domain.ExtractedResult, m *domain.CanonicalMarker, o Override) bool {
	unit, ok := r.ImpliedUnit(m)
	return ok && extractors.SameUnit(unit, o.Unit)
}

// qualitative compares a word result with the expected word of an exact
// range. A mismatch is a mild abnormality.
func qualitative(r *domain.ExtractedResult) domain.SeverityClassification {
	if r.Range.Kind != domain.RangeExact || r.Range.ExpectedText == "" {
		return classification(domain.SeverityNormal, 0, domain.DirectionNone, domain.BasisNoRange)
	}
	if labtext.FoldKey(r.RawValue) == labtext.FoldKey(r.Range.ExpectedText) {
		return classification(domain.SeverityNormal, 0, domain.DirectionNone, domain.BasisQualitative)
	}
	return classification(domain.SeverityMild, 0, domain.DirectionNone, domain.BasisQualitative)
}

func classification(sev domain.Severity, dev float64, dir domain.Direction, basis domain.ClassificationBasis) domain.SeverityClassification {
	return domain.SeverityClassification{
		Severity:         sev,
		IsAbnormal:       sev != domain.SeverityNormal,
		DeviationPercent: math.Round(dev*1000) / 10,
		PriorityWeight:   sev.PriorityWeight(),
		Direction:        dir,
		Basis:            basis,
	}
}
