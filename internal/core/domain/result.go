package domain

// RangeKind is the shape of a reference range.
type RangeKind string

const (
	// RangeInterval is "min - max".
	RangeInterval RangeKind = "range"

	// RangeUpperLimit is "< max" or "hasta max".
	RangeUpperLimit RangeKind = "upper_limit"

	// RangeLowerLimit is "> min" or "mayor a min".
	RangeLowerLimit RangeKind = "lower_limit"

	// RangeExact is a single expected value, usually qualitative ("negativo").
	RangeExact RangeKind = "exact"
)

// ReferenceRange is the normal interval printed next to a result.
type ReferenceRange struct {
	Kind RangeKind `json:"kind"`
	Min  *float64  `json:"minValue,omitempty"`
	Max  *float64  `json:"maxValue,omitempty"`
	Unit string    `json:"unit,omitempty"`

	// GenderSpecific is set when the source printed separate ranges by sex.
	GenderSpecific bool `json:"genderSpecific,omitempty"`

	// ExpectedText holds the expected word for exact qualitative ranges.
	ExpectedText string `json:"expectedText,omitempty"`

	// Text is the range as printed.
	Text string `json:"text"`
}

// ExtractedResult is one measurement recovered from the report text.
// Zero or more exist per marker before deduplication; exactly one after.
type ExtractedResult struct {
	// MarkerCode is the canonical marker code.
	MarkerCode string `json:"markerCode"`

	// ExamName is the surface name as it appears in the source.
	ExamName string `json:"examName"`

	// RawValue is the value as printed ("269", "4,5", "NO REACTIVO", "0-2").
	RawValue string `json:"rawValue"`

	// NumericValue is the parsed number, nil for qualitative results.
	// Microscopy ranges carry their upper bound.
	NumericValue *float64 `json:"numericValue,omitempty"`

	Unit               string          `json:"unit,omitempty"`
	ReferenceRangeText string          `json:"referenceRangeText,omitempty"`
	Range              *ReferenceRange `json:"referenceRange,omitempty"`
	Method             string          `json:"method,omitempty"`
	SampleType         SampleType      `json:"sampleType,omitempty"`

	// HasAbnormalMarker is set when the laboratory's own [*] flag was found.
	HasAbnormalMarker bool `json:"hasAbnormalMarker"`

	// Confidence is in the range 0-100.
	Confidence float64 `json:"confidence"`

	SourcePosition Position   `json:"sourcePosition"`
	ContextSnippet string     `json:"contextSnippet"`
	ResultKind     ResultKind `json:"resultKind"`

	// Strategy names the extraction strategy that produced the result.
	Strategy string `json:"strategy"`

	// NeedsReview flags low-confidence results for manual review.
	NeedsReview bool `json:"needsReview"`
}

// HasValue reports whether a result value was recovered.
func (r *ExtractedResult) HasValue() bool {
	return r.RawValue != "" || r.NumericValue != nil
}

// ImpliedUnit returns the unit r was measured in. A result printed
// without a unit is taken to be in m's expected unit, except microscopy
// counts and results read from a specimen m is not measured in; for those
// ok is false.
func (r *ExtractedResult) ImpliedUnit(m *CanonicalMarker) (unit string, ok bool) {
	if r.Unit != "" || m == nil {
		return r.Unit, true
	}
	if r.ResultKind == KindMicroscopy || !r.SampleType.CompatibleWith(m.PreferredSample) {
		return "", false
	}
	return m.ExpectedUnit, true
}

// AssessedResult is an accepted result together with its classification.
type AssessedResult struct {
	ExtractedResult
	Classification SeverityClassification `json:"classification"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
