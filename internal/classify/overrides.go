package classify

import (
	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// Bands are absolute cutoffs on one side of normal. High bands trigger at
// or above each cutoff, low bands at or below.
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
}

// Override replaces deviation bucketing for a marker whose severity does
// not scale with distance from the range. A nil side falls back to the
// deviation buckets.
type Override struct {
	// Unit the cutoffs are expressed in.
	Unit string

	High *Bands
	Low  *Bands
}

// DefaultOverrides returns the built-in marker cutoffs.
func DefaultOverrides() map[string]Override {
	return map[string]Override{
		// Fasting glucose: impaired fasting, diabetes, marked hyperglycaemia.
		"GLU": {
			Unit: "mg/dL",
			High: &Bands{Mild: 100, Moderate: 126, Severe: 200},
			Low:  &Bands{Mild: 70, Moderate: 54, Severe: 40},
		},
		"HBA1C": {
			Unit: "%",
			High: &Bands{Mild: 5.7, Moderate: 6.5, Severe: 9.0},
		},
		"TSH": {
			Unit: "uUI/mL",
			High: &Bands{Mild: 4.5, Moderate: 10, Severe: 20},
			Low:  &Bands{Mild: 0.4, Moderate: 0.1, Severe: 0.01},
		},
		"K": {
			Unit: "mEq/L",
			High: &Bands{Mild: 5.1, Moderate: 5.5, Severe: 6.0},
			Low:  &Bands{Mild: 3.5, Moderate: 3.0, Severe: 2.5},
		},
		"NA": {
			Unit: "mEq/L",
			High: &Bands{Mild: 146, Moderate: 150, Severe: 155},
			Low:  &Bands{Mild: 135, Moderate: 130, Severe: 125},
		},
		"HB": {
			Unit: "g/dL",
			Low:  &Bands{Mild: 12, Moderate: 10, Severe: 8},
		},
		"PLT": {
			Unit: "x10³/uL",
			High: &Bands{Mild: 450, Moderate: 600, Severe: 1000},
			Low:  &Bands{Mild: 150, Moderate: 100, Severe: 50},
		},
		"CREA": {
			Unit: "mg/dL",
			High: &Bands{Mild: 1.3, Moderate: 2.0, Severe: 4.0},
		},
	}
}

// severity returns the band v falls in on side dir, and false when the
// override has no bands on that side. A value past the reference range
// that reaches no band is mild.
func (o Override) severity(v float64, dir domain.Direction) (domain.Severity, bool) {
	switch dir {
	case domain.DirectionHigh:
		if o.High == nil {
			return "", false
		}
		switch {
		case v >= o.High.Severe:
			return domain.SeveritySevere, true
		case v >= o.High.Moderate:
			return domain.SeverityModerate, true
		default:
			return domain.SeverityMild, true
		}
	case domain.DirectionLow:
		if o.Low == nil {
			return "", false
		}
		switch {
		case v <= o.Low.Severe:
			return domain.SeveritySevere, true
		case v <= o.Low.Moderate:
			return domain.SeverityModerate, true
		default:
			return domain.SeverityMild, true
		}
	}
	return "", false
}
