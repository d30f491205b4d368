package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

func bounds(r *domain.ReferenceRange) (lo, hi *float64) {
	return r.Min, r.Max
}

func TestParseReferenceRange(t *testing.T) {
	f := domain.Float64Ptr
	tests := []struct {
		in   string
		kind domain.RangeKind
		min  *float64
		max  *float64
		unit string
	}{
		{"74 - 106", domain.RangeInterval, f(74), f(106), ""},
		{"74-106 mg/dL", domain.RangeInterval, f(74), f(106), "mg/dL"},
		{"(3,5 - 5,1)", domain.RangeInterval, f(3.5), f(5.1), ""},
		{"3,5 a 5,1", domain.RangeInterval, f(3.5), f(5.1), ""},
		{"Valor de referencia: 70 - 110", domain.RangeInterval, f(70), f(110), ""},
		{"< 200", domain.RangeUpperLimit, nil, f(200), ""},
		{"Hasta 5,0", domain.RangeUpperLimit, nil, f(5), ""},
		{"Menor a 150 mg/dL", domain.RangeUpperLimit, nil, f(150), "mg/dL"},
		{"> 40", domain.RangeLowerLimit, f(40), nil, ""},
		{"Mayor a 60", domain.RangeLowerLimit, f(60), nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, ok := ParseReferenceRange(tt.in, domain.SexUnknown)
			require.True(t, ok)
			assert.Equal(t, tt.kind, r.Kind)
			lo, hi := bounds(r)
			assert.Equal(t, tt.min, lo)
			assert.Equal(t, tt.max, hi)
			assert.Equal(t, tt.unit, r.Unit)
			assert.Equal(t, tt.in, r.Text)
		})
	}
}

func TestParseReferenceRange_Qualitative(t *testing.T) {
	r, ok := ParseReferenceRange("No reactivo", domain.SexUnknown)
	require.True(t, ok)
	assert.Equal(t, domain.RangeExact, r.Kind)
	assert.Equal(t, "NO REACTIVO", r.ExpectedText)
}

func TestParseReferenceRange_SexSpecific(t *testing.T) {
	text := "H: 13,5 - 17,5  M: 12,0 - 15,5"

	r, ok := ParseReferenceRange(text, domain.SexMale)
	require.True(t, ok)
	assert.True(t, r.GenderSpecific)
	assert.Equal(t, 13.5, *r.Min)
	assert.Equal(t, 17.5, *r.Max)

	r, ok = ParseReferenceRange(text, domain.SexFemale)
	require.True(t, ok)
	assert.Equal(t, 12.0, *r.Min)
	assert.Equal(t, 15.5, *r.Max)

	r, ok = ParseReferenceRange(text, domain.SexUnknown)
	require.True(t, ok)
	assert.Equal(t, 12.0, *r.Min)
	assert.Equal(t, 17.5, *r.Max)

	r, ok = ParseReferenceRange("Hombres: 0,7 - 1,3 Mujeres: 0,6 - 1,1", domain.SexUnknown)
	require.True(t, ok)
	assert.Equal(t, 0.6, *r.Min)
	assert.Equal(t, 1.3, *r.Max)
}

func TestParseReferenceRange_NotARange(t *testing.T) {
	for _, in := range []string{"95", "", "GLUCOSA", "106 - 74", "mg/dL"} {
		_, ok := ParseReferenceRange(in, domain.SexUnknown)
		assert.False(t, ok, in)
	}
}
