// Package critical checks results against hard clinical cutoffs.
//
// Critical thresholds are independent of the reference range printed on
// the report. A value at or beyond a cutoff is critical even when no range
// was parsed, and its classification is escalated to severe.
package critical

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/extractors"
)

type key struct {
	code string
	unit string
}

// Table is an immutable set of critical thresholds keyed by marker code and
// unit. It is safe for concurrent use.
type Table struct {
	byKey    map[key]domain.CriticalThreshold
	byMarker map[string][]domain.CriticalThreshold
	size     int
}

// NewTable validates thresholds and indexes them. A threshold needs a
// marker code, at least one cutoff, a known urgency, and low below high.
// Two thresholds for the same marker and unit are rejected.
func NewTable(thresholds []domain.CriticalThreshold) (*Table, error) {
	t := &Table{
		byKey:    make(map[key]domain.CriticalThreshold, len(thresholds)),
		byMarker: make(map[string][]domain.CriticalThreshold),
	}

	for i, th := range thresholds {
		if err := validate(th); err != nil {
			return nil, fmt.Errorf("threshold %d: %w", i, err)
		}
		th.Unit = extractors.CanonicalUnit(th.Unit)
		k := key{code: th.MarkerCode, unit: th.Unit}
		if _, dup := t.byKey[k]; dup {
			return nil, fmt.Errorf("threshold %d: duplicate threshold for %s %s: %w", i, th.MarkerCode, th.Unit, domain.ErrInvalidConfiguration)
		}
		t.byKey[k] = th
		t.byMarker[th.MarkerCode] = append(t.byMarker[th.MarkerCode], th)
		t.size++
	}
	return t, nil
}

func validate(th domain.CriticalThreshold) error {
	switch {
	case th.MarkerCode == "":
		return fmt.Errorf("empty marker code: %w", domain.ErrInvalidConfiguration)
	case th.High == nil && th.Low == nil:
		return fmt.Errorf("%s has no cutoff: %w", th.MarkerCode, domain.ErrInvalidConfiguration)
	case !th.Urgency.Valid():
		return fmt.Errorf("%s has unknown urgency %q: %w", th.MarkerCode, th.Urgency, domain.ErrInvalidConfiguration)
	case th.High != nil && th.Low != nil && *th.Low >= *th.High:
		return fmt.Errorf("%s low cutoff is not below high cutoff: %w", th.MarkerCode, domain.ErrInvalidConfiguration)
	}
	return nil
}

// Len returns the number of thresholds.
func (t *Table) Len() int {
	return t.size
}

// Thresholds returns every threshold ordered by marker code and unit.
func (t *Table) Thresholds() []domain.CriticalThreshold {
	out := make([]domain.CriticalThreshold, 0, t.size)
	for _, ths := range t.byMarker {
		out = append(out, ths...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MarkerCode != out[j].MarkerCode {
			return out[i].MarkerCode < out[j].MarkerCode
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}

// Lookup returns the threshold for a marker in the given unit. An exact
// unit match wins; otherwise a threshold in an interchangeable unit is used.
func (t *Table) Lookup(code, unit string) (domain.CriticalThreshold, bool) {
	unit = extractors.CanonicalUnit(unit)
	if th, ok := t.byKey[key{code: code, unit: unit}]; ok {
		return th, true
	}
	for _, th := range t.byMarker[code] {
		if extractors.SameUnit(unit, th.Unit) {
			return th, true
		}
	}
	return domain.CriticalThreshold{}, false
}

// Check reports whether r crosses a critical threshold. An empty result
// unit is taken to be the marker's expected unit unless the result is a
// microscopy count or comes from another specimen. m may be nil.
func (t *Table) Check(r *domain.ExtractedResult, m *domain.CanonicalMarker) (domain.CriticalValue, bool) {
	if r == nil || r.NumericValue == nil {
		return domain.CriticalValue{}, false
	}

	unit, ok := r.ImpliedUnit(m)
	if !ok {
		return domain.CriticalValue{}, false
	}
	th, ok := t.Lookup(r.MarkerCode, unit)
	if !ok {
		return domain.CriticalValue{}, false
	}

	v := *r.NumericValue
	var dir domain.Direction
	switch {
	case th.High != nil && v >= *th.High:
		dir = domain.DirectionHigh
	case th.Low != nil && v <= *th.Low:
		dir = domain.DirectionLow
	default:
		return domain.CriticalValue{}, false
	}

	name := displayName(r, m)
	return domain.CriticalValue{
		Marker:     r.MarkerCode,
		MarkerName: name,
		Threshold:  th,
		Value:      v,
		Unit:       unit,
		Direction:  dir,
		AlertText:  AlertText(th, name, v, unit),
	}, true
}

// Escalate marks a classification critical: severe, abnormal, and on the
// side of the crossed cutoff.
func Escalate(c domain.SeverityClassification, cv domain.CriticalValue) domain.SeverityClassification {
	c.IsCriticalValue = true
	c.IsAbnormal = true
	c.Severity = domain.SeveritySevere
	c.PriorityWeight = domain.SeveritySevere.PriorityWeight()
	c.Direction = cv.Direction
	c.Basis = domain.BasisCritical
	return c
}

// Scan checks every result and returns only the critical ones, in input
// order. lookup may be nil.
func (t *Table) Scan(results []domain.ExtractedResult, lookup func(code string) (*domain.CanonicalMarker, bool)) []domain.CriticalValue {
	var out []domain.CriticalValue
	for i := range results {
		var m *domain.CanonicalMarker
		if lookup != nil {
			m, _ = lookup(results[i].MarkerCode)
		}
		if cv, ok := t.Check(&results[i], m); ok {
			out = append(out, cv)
		}
	}
	return out
}

// AlertText formats "[URGENCY] name value unit: significance".
func AlertText(th domain.CriticalThreshold, name string, v float64, unit string) string {
	value := strconv.FormatFloat(v, 'f', -1, 64)
	if unit != "" {
		value += " " + unit
	}
	text := fmt.Sprintf("[%s] %s %s", th.Urgency.Label(), name, value)
	if th.Significance != "" {
		text += ": " + th.Significance
	}
	return text
}

func displayName(r *domain.ExtractedResult, m *domain.CanonicalMarker) string {
	switch {
	case m != nil && m.Name != "":
		return m.Name
	case r.ExamName != "":
		return r.ExamName
	default:
		return r.MarkerCode
	}
}
