package domain

// ResultKind classifies how a lab result is expressed.
type ResultKind string

const (
	// KindNumeric is a point numeric value.
	KindNumeric ResultKind = "numeric"

	// KindQualitative is a word result ("no reactivo", "claro").
	KindQualitative ResultKind = "qualitative"

	// KindCalculated is a numeric value derived by the laboratory (e.g., LDL).
	KindCalculated ResultKind = "calculated"

	// KindMicroscopy is a count range per field ("0-2 /campo").
	KindMicroscopy ResultKind = "microscopy"
)

// IsNumeric reports whether results of this kind carry a number.
func (k ResultKind) IsNumeric() bool {
	return k == KindNumeric || k == KindCalculated || k == KindMicroscopy
}

// CanonicalMarker is the code-identified representation of a lab test.
// Markers are loaded once from reference data and never mutated.
type CanonicalMarker struct {
	// Code is the system code (e.g., "GLU").
	Code string `json:"code" toml:"code"`

	// Name is the display name.
	Name string `json:"name" toml:"name"`

	// Category groups markers (metabolic, lipid, hematology...).
	Category string `json:"category" toml:"category"`

	// Weight is the clinical priority weight; 1.0 is neutral and
	// values above 1 mark outsized clinical consequence.
	Weight float64 `json:"weight" toml:"weight"`

	// ExpectedUnit is the unit the laboratory normally reports.
	ExpectedUnit string `json:"expectedUnit" toml:"unit"`

	// Kind is the expected result kind.
	Kind ResultKind `json:"kind" toml:"kind"`

	// PreferredSample is the only specimen the marker is valid from, if any.
	PreferredSample SampleType `json:"preferredSample,omitempty" toml:"sample,omitempty"`

	// PlausibleMin and PlausibleMax bound clinically possible values.
	// Both zero means no plausibility bounds.
	PlausibleMin float64 `json:"plausibleMin,omitempty" toml:"plausible_min,omitempty"`
	PlausibleMax float64 `json:"plausibleMax,omitempty" toml:"plausible_max,omitempty"`

	// Aliases are the Spanish surface forms found in reports.
	Aliases []string `json:"aliases" toml:"aliases"`
}

// HasPlausibleBounds reports whether plausibility bounds are configured.
func (m *CanonicalMarker) HasPlausibleBounds() bool {
	return m.PlausibleMax > m.PlausibleMin
}

// IsPlausible reports whether v is a clinically possible value for the marker.
func (m *CanonicalMarker) IsPlausible(v float64) bool {
	if v < 0 {
		return false
	}
	if !m.HasPlausibleBounds() {
		return true
	}
	return v >= m.PlausibleMin && v <= m.PlausibleMax
}

// MarkerOccurrence is one place in the folded text where a marker alias matched.
type MarkerOccurrence struct {
	// MarkerCode is the canonical marker the alias maps to.
	MarkerCode string

	// Alias is the folded alias that matched.
	Alias string

	// Line is the index into NormalizedDocument.Lines.
	Line int

	// Start and End are byte offsets of the alias in the folded line.
	Start int
	End   int
}
