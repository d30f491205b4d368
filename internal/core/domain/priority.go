package domain

// PriorityLevel is the discrete triage level.
type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "HIGH"
	PriorityMedium PriorityLevel = "MEDIUM"
	PriorityLow    PriorityLevel = "LOW"
)

// ScoreBreakdown itemises the components of a priority score.
type ScoreBreakdown struct {
	SeverityScore      float64 `json:"severityScore"`
	CriticalValueBonus float64 `json:"criticalValueBonus"`
	MarkerWeightBonus  float64 `json:"markerWeightBonus"`
	AgeFactorBonus     float64 `json:"ageFactorBonus"`
	MultiplicityBonus  float64 `json:"multiplicityBonus"`
}

// PriorityScore is computed once per document and is immutable.
type PriorityScore struct {
	TotalScore float64        `json:"totalScore"`
	Level      PriorityLevel  `json:"priorityLevel"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Reasoning  []string       `json:"reasoning"`
}
