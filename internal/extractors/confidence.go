package extractors

// Confidence adjustments. Every candidate's confidence is derived from its
// strategy base through Score and nowhere else.
const (
	abnormalMarkerBonus = 10
	recognisedUnitBonus = 8
	plausibleValueBonus = 7
	rangeFoundBonus     = 5
	methodFoundBonus    = 3

	sampleMismatchPenalty = 25
	unitConflictPenalty   = 10
)

// Features are the context signals observed around one candidate.
type Features struct {
	// AbnormalMarker is set when the laboratory's [*] flag is present.
	AbnormalMarker bool

	// RecognisedUnit is set when the unit is in the unit table.
	RecognisedUnit bool

	// PlausibleValue is set when the value was checked against the
	// marker's plausibility bounds.
	PlausibleValue bool

	// RangeFound is set when a reference range was parsed.
	RangeFound bool

	// MethodFound is set when an analytic method was recovered.
	MethodFound bool

	// SampleMismatch is set when the section specimen contradicts the
	// marker's preferred sample.
	SampleMismatch bool

	// UnitConflict is set when a recognised unit differs from the
	// marker's expected unit.
	UnitConflict bool
}

// Score applies the feature rules to a strategy base confidence and clamps
// the result to 0-100.
func Score(base float64, f Features) float64 {
	score := base
	if f.AbnormalMarker {
		score += abnormalMarkerBonus
	}
	if f.RecognisedUnit {
		score += recognisedUnitBonus
	}
	if f.PlausibleValue {
		score += plausibleValueBonus
	}
	if f.RangeFound {
		score += rangeFoundBonus
	}
	if f.MethodFound {
		score += methodFoundBonus
	}
	if f.SampleMismatch {
		score -= sampleMismatchPenalty
	}
	if f.UnitConflict {
		score -= unitConflictPenalty
	}
	return min(max(score, 0), 100)
}
