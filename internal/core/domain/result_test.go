package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractedResult_ImpliedUnit(t *testing.T) {
	wbc := &CanonicalMarker{Code: "WBC", ExpectedUnit: "x10³/uL", PreferredSample: SampleBlood}

	tests := []struct {
		name   string
		r      ExtractedResult
		m      *CanonicalMarker
		unit   string
		wantOK bool
	}{
		{"printed unit kept", ExtractedResult{Unit: "/campo", SampleType: SampleUrine}, wbc, "/campo", true},
		{"missing unit in blood", ExtractedResult{SampleType: SampleBlood}, wbc, "x10³/uL", true},
		{"missing unit in serum", ExtractedResult{SampleType: SampleSerum}, wbc, "x10³/uL", true},
		{"missing unit without section", ExtractedResult{}, wbc, "x10³/uL", true},
		{"missing unit in urine", ExtractedResult{SampleType: SampleUrine}, wbc, "", false},
		{"microscopy count", ExtractedResult{ResultKind: KindMicroscopy}, wbc, "", false},
		{"no marker", ExtractedResult{}, nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, ok := tt.r.ImpliedUnit(tt.m)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.unit, unit)
		})
	}
}
