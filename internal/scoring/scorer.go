// Package scoring turns a document's classified results into one priority
// score, level and reasoning trail.
package scoring

import (
	"fmt"
	"math"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// Score components.
const (
	CriticalValueBonus   = 30
	MultiplicityStep     = 5
	MaxMultiplicityBonus = 20

	HighThreshold   = 80
	MediumThreshold = 30
)

// SeverityScore returns the fixed score of a severity tier.
func SeverityScore(s domain.Severity) float64 {
	switch s {
	case domain.SeverityMild:
		return 10
	case domain.SeverityModerate:
		return 25
	case domain.SeveritySevere:
		return 50
	default:
		return 0
	}
}

// AgeFactor returns the age multiplier: 1.0 up to 40, 1.2 for 41-65,
// 1.4 for 66-80 and 1.6 from 81. Unknown age is 1.0.
func AgeFactor(age int) float64 {
	switch {
	case age >= 81:
		return 1.6
	case age >= 66:
		return 1.4
	case age >= 41:
		return 1.2
	default:
		return 1.0
	}
}

// Level maps a total score to a priority level.
func Level(total float64) domain.PriorityLevel {
	switch {
	case total >= HighThreshold:
		return domain.PriorityHigh
	case total >= MediumThreshold:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// WeightFunc returns the clinical weight of a marker; 1 is neutral.
type WeightFunc func(code string) float64

// Scorer computes priority scores. It holds no state.
type Scorer struct {
	weight WeightFunc
}

// New creates a scorer. A nil weight func treats every marker as neutral.
func New(weight WeightFunc) *Scorer {
	return &Scorer{weight: weight}
}

func (s *Scorer) weightOf(code string) float64 {
	if s.weight == nil {
		return 1
	}
	if w := s.weight(code); w > 0 {
		return w
	}
	return 1
}

// Score computes the priority score of one document. Only abnormal results
// contribute. patient may be nil.
func (s *Scorer) Score(results []domain.AssessedResult, patient *domain.PatientContext) domain.PriorityScore {
	var b domain.ScoreBreakdown
	var reasons []string
	abnormal := 0

	for i := range results {
		r := &results[i]
		c := r.Classification
		if !c.IsAbnormal {
			continue
		}
		abnormal++

		name := r.ExamName
		if name == "" {
			name = r.MarkerCode
		}

		sev := SeverityScore(c.Severity)
		b.SeverityScore += sev
		reasons = append(reasons, fmt.Sprintf("%s: %s result (+%s)", name, c.Severity, format(sev)))

		if c.IsCriticalValue {
			b.CriticalValueBonus += CriticalValueBonus
			reasons = append(reasons, fmt.Sprintf("%s: critical value (+%d)", name, CriticalValueBonus))
		}

		if w := s.weightOf(r.MarkerCode); w != 1 {
			bonus := sev * (w - 1)
			b.MarkerWeightBonus += bonus
			reasons = append(reasons, fmt.Sprintf("%s: clinical weight %s (%s)", name, format(w), signed(bonus)))
		}
	}

	if abnormal > 1 {
		b.MultiplicityBonus = math.Min(float64((abnormal-1)*MultiplicityStep), MaxMultiplicityBonus)
		reasons = append(reasons, fmt.Sprintf("%d abnormal markers (+%s)", abnormal, format(b.MultiplicityBonus)))
	}

	base := b.SeverityScore + b.CriticalValueBonus + b.MarkerWeightBonus + b.MultiplicityBonus
	if age := patient.AgeOrZero(); age > 0 {
		if factor := AgeFactor(age); factor > 1 && base > 0 {
			b.AgeFactorBonus = base * (factor - 1)
			reasons = append(reasons, fmt.Sprintf("patient age %d: factor %s (+%s)", age, format(factor), format(round(b.AgeFactorBonus))))
		}
	}

	b = domain.ScoreBreakdown{
		SeverityScore:      round(b.SeverityScore),
		CriticalValueBonus: round(b.CriticalValueBonus),
		MarkerWeightBonus:  round(b.MarkerWeightBonus),
		AgeFactorBonus:     round(b.AgeFactorBonus),
		MultiplicityBonus:  round(b.MultiplicityBonus),
	}
	total := round(base + b.AgeFactorBonus)
	level := Level(total)

	if abnormal == 0 {
		reasons = append(reasons, "no abnormal results")
	}
	reasons = append(reasons, fmt.Sprintf("total %s: %s priority", format(total), level))

	return domain.PriorityScore{
		TotalScore: total,
		Level:      level,
		Breakdown:  b,
		Reasoning:  reasons,
	}
}

// RecommendedAction returns the follow-up text for a scored document.
func RecommendedAction(level domain.PriorityLevel, totalMarkers, criticalCount int) string {
	switch {
	case totalMarkers == 0:
		return "No actionable lab data found; route the report to manual review."
	case criticalCount > 0:
		return "Critical values present: contact the patient and the treating physician immediately."
	case level == domain.PriorityHigh:
		return "Contact the patient within 24 hours for clinical follow-up."
	case level == domain.PriorityMedium:
		return "Schedule a follow-up appointment to review abnormal results."
	default:
		return "No urgent action required; routine review."
	}
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}

func format(v float64) string {
	return fmt.Sprintf("%g", round(v))
}

func signed(v float64) string {
	if v >= 0 {
		return "+" + format(v)
	}
	return format(v)
}
