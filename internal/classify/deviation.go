package classify

import (
	"math"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// Fallback bucket limits on deviation from the reference range.
const (
	mildLimit     = 0.20
	moderateLimit = 0.50
)

// Deviation returns how far v lies outside r, as a fraction of the range
// size, and on which side. Inside the range it returns 0.
//
// Intervals divide by their width, upper limits by the limit and lower
// limits by the limit. Degenerate sizes divide by max(|bound|, 1).
func Deviation(v float64, r *domain.ReferenceRange) (float64, domain.Direction) {
	if r == nil {
		return 0, domain.DirectionNone
	}

	switch r.Kind {
	case domain.RangeInterval:
		if r.Min == nil || r.Max == nil {
			return 0, domain.DirectionNone
		}
		size := *r.Max - *r.Min
		if size <= 0 {
			size = degenerate(*r.Max)
		}
		if v > *r.Max {
			return (v - *r.Max) / size, domain.DirectionHigh
		}
		if v < *r.Min {
			return (*r.Min - v) / size, domain.DirectionLow
		}
	case domain.RangeUpperLimit:
		if r.Max != nil && v > *r.Max {
			return (v - *r.Max) / positive(*r.Max), domain.DirectionHigh
		}
	case domain.RangeLowerLimit:
		if r.Min != nil && v < *r.Min {
			return (*r.Min - v) / positive(*r.Min), domain.DirectionLow
		}
	}
	return 0, domain.DirectionNone
}

func degenerate(bound float64) float64 {
	return math.Max(math.Abs(bound), 1)
}

func positive(bound float64) float64 {
	if bound > 0 {
		return bound
	}
	return degenerate(bound)
}

// Bucket maps a positive deviation to a severity tier.
func Bucket(deviation float64) domain.Severity {
	switch {
	case deviation <= 0:
		return domain.SeverityNormal
	case deviation <= mildLimit:
		return domain.SeverityMild
	case deviation <= moderateLimit:
		return domain.SeverityModerate
	default:
		return domain.SeveritySevere
	}
}
