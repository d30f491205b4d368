package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity_RankAndWeight(t *testing.T) {
	tests := []struct {
		severity Severity
		rank     int
		weight   int
	}{
		{SeverityNormal, 0, 0},
		{SeverityMild, 1, 1},
		{SeverityModerate, 2, 3},
		{SeveritySevere, 3, 5},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.rank, tt.severity.Rank())
			assert.Equal(t, tt.weight, tt.severity.PriorityWeight())
		})
	}
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeveritySevere, MaxSeverity(SeverityMild, SeveritySevere))
	assert.Equal(t, SeverityModerate, MaxSeverity(SeverityModerate, SeverityMild))
	assert.Equal(t, SeverityNormal, MaxSeverity("", SeverityNormal))
}

func TestUrgency(t *testing.T) {
	assert.Equal(t, "IMMEDIATE", UrgencyImmediate.Label())
	assert.True(t, UrgencyPriority.Valid())
	assert.False(t, Urgency("whenever").Valid())
}

func TestSampleType_CompatibleWith(t *testing.T) {
	assert.True(t, SampleBlood.CompatibleWith(SampleSerum))
	assert.True(t, SampleUnknown.CompatibleWith(SampleBlood))
	assert.True(t, SampleUrine.CompatibleWith(SampleUnknown))
	assert.False(t, SampleUrine.CompatibleWith(SampleBlood))
	assert.False(t, SampleSerum.CompatibleWith(SampleUrine))
}

func TestCanonicalMarker_IsPlausible(t *testing.T) {
	m := CanonicalMarker{Code: "GLU", PlausibleMin: 10, PlausibleMax: 2000}
	assert.True(t, m.IsPlausible(269))
	assert.False(t, m.IsPlausible(5))
	assert.False(t, m.IsPlausible(-1))

	unbounded := CanonicalMarker{Code: "X"}
	assert.True(t, unbounded.IsPlausible(1e6))
	assert.False(t, unbounded.IsPlausible(-0.5))
}

func TestResultKind_IsNumeric(t *testing.T) {
	assert.True(t, KindNumeric.IsNumeric())
	assert.True(t, KindCalculated.IsNumeric())
	assert.True(t, KindMicroscopy.IsNumeric())
	assert.False(t, KindQualitative.IsNumeric())
}
