package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupUnit(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mg/dL", "mg/dL"},
		{"MG/DL", "mg/dL"},
		{"(g/dL)", "g/dL"},
		{"µUI/mL", "uUI/mL"},
		{"x10^3/µL", "x10³/uL"},
		{"mEq/L", "mEq/L"},
		{"por campo", "/campo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := LookupUnit(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := LookupUnit("ayunas")
	assert.False(t, ok)
}

func TestSameUnit(t *testing.T) {
	assert.True(t, SameUnit("mmol/L", "mEq/L"))
	assert.True(t, SameUnit("/mm3", "x10³/uL"))
	assert.True(t, SameUnit("", "mg/dL"))
	assert.False(t, SameUnit("mg/dL", "g/dL"))
	assert.False(t, SameUnit("g/L", "mg/dL"))
}

func TestUnitPrefix(t *testing.T) {
	display, n, ok := unitPrefix("  MG/DL  70-110")
	require.True(t, ok)
	assert.Equal(t, "mg/dL", display)
	assert.Equal(t, 7, n)

	display, n, ok = unitPrefix("POR CAMPO RESTO")
	require.True(t, ok)
	assert.Equal(t, "/campo", display)
	assert.Equal(t, 9, n)

	_, _, ok = unitPrefix("AYUNAS")
	assert.False(t, ok)
}

func TestCanonicalUnit(t *testing.T) {
	assert.Equal(t, "mEq/L", CanonicalUnit("MEQ/L"))
	assert.Equal(t, "furlongs", CanonicalUnit(" furlongs "))
	assert.Equal(t, "", CanonicalUnit(""))
}
