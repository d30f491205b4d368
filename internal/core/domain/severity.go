package domain

// Severity is the clinical severity tier of one result.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities from normal (0) to severe (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// PriorityWeight is the fixed integer weight of the tier.
func (s Severity) PriorityWeight() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 3
	case SeveritySevere:
		return 5
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	if a == "" {
		return SeverityNormal
	}
	return a
}

// Direction tells on which side of the reference a value fell.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionHigh Direction = "high"
	DirectionLow  Direction = "low"
)

// ClassificationBasis records which rule decided a severity.
type ClassificationBasis string

const (
	BasisNoRange     ClassificationBasis = "no_range"
	BasisDeviation   ClassificationBasis = "deviation"
	BasisOverride    ClassificationBasis = "marker_override"
	BasisQualitative ClassificationBasis = "qualitative"
	BasisCritical    ClassificationBasis = "critical_threshold"
)

// SeverityClassification is a deterministic function of the value,
// its reference range, its marker and the critical threshold table.
type SeverityClassification struct {
	Severity         Severity            `json:"severity"`
	IsAbnormal       bool                `json:"isAbnormal"`
	IsCriticalValue  bool                `json:"isCriticalValue"`
	DeviationPercent float64             `json:"deviationPercent"`
	PriorityWeight   int                 `json:"priorityWeight"`
	Direction        Direction           `json:"direction,omitempty"`
	Basis            ClassificationBasis `json:"basis"`
}
