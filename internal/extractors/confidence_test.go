package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		base float64
		f    Features
		want float64
	}{
		{"no features", 50, Features{}, 50},
		{"abnormal marker", 50, Features{AbnormalMarker: true}, 60},
		{"recognised unit", 50, Features{RecognisedUnit: true}, 58},
		{"plausible value", 50, Features{PlausibleValue: true}, 57},
		{"range found", 50, Features{RangeFound: true}, 55},
		{"method found", 50, Features{MethodFound: true}, 53},
		{"sample mismatch", 50, Features{SampleMismatch: true}, 25},
		{"unit conflict", 50, Features{UnitConflict: true}, 40},
		{"clamped high", 70, Features{AbnormalMarker: true, RecognisedUnit: true, PlausibleValue: true, RangeFound: true, MethodFound: true}, 100},
		{"clamped low", 10, Features{SampleMismatch: true, UnitConflict: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.base, tt.f))
		})
	}
}
