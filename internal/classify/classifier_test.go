package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

func interval(lo, hi float64) *domain.ReferenceRange {
	return &domain.ReferenceRange{Kind: domain.RangeInterval, Min: domain.Float64Ptr(lo), Max: domain.Float64Ptr(hi)}
}

func numeric(code string, v float64, unit string, r *domain.ReferenceRange) *domain.ExtractedResult {
	return &domain.ExtractedResult{
		MarkerCode:   code,
		RawValue:     "x",
		NumericValue: domain.Float64Ptr(v),
		Unit:         unit,
		Range:        r,
		ResultKind:   domain.KindNumeric,
	}
}

func TestDeviation(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		r    *domain.ReferenceRange
		dev  float64
		dir  domain.Direction
	}{
		{"inside", 90, interval(74, 106), 0, domain.DirectionNone},
		{"at max", 106, interval(74, 106), 0, domain.DirectionNone},
		{"above", 269, interval(74, 106), 163.0 / 32, domain.DirectionHigh},
		{"below", 60, interval(74, 106), 14.0 / 32, domain.DirectionLow},
		{"degenerate interval", 6, interval(5, 5), 0.2, domain.DirectionHigh},
		{"upper limit", 250, &domain.ReferenceRange{Kind: domain.RangeUpperLimit, Max: domain.Float64Ptr(200)}, 0.25, domain.DirectionHigh},
		{"upper limit zero", 1, &domain.ReferenceRange{Kind: domain.RangeUpperLimit, Max: domain.Float64Ptr(0)}, 1, domain.DirectionHigh},
		{"lower limit", 30, &domain.ReferenceRange{Kind: domain.RangeLowerLimit, Min: domain.Float64Ptr(40)}, 0.25, domain.DirectionLow},
		{"lower limit met", 45, &domain.ReferenceRange{Kind: domain.RangeLowerLimit, Min: domain.Float64Ptr(40)}, 0, domain.DirectionNone},
		{"nil range", 10, nil, 0, domain.DirectionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, dir := Deviation(tt.v, tt.r)
			assert.InDelta(t, tt.dev, dev, 1e-9)
			assert.Equal(t, tt.dir, dir)
		})
	}
}

func TestBucket(t *testing.T) {
	assert.Equal(t, domain.SeverityNormal, Bucket(0))
	assert.Equal(t, domain.SeverityMild, Bucket(0.1))
	assert.Equal(t, domain.SeverityMild, Bucket(0.2))
	assert.Equal(t, domain.SeverityModerate, Bucket(0.21))
	assert.Equal(t, domain.SeverityModerate, Bucket(0.5))
	assert.Equal(t, domain.SeveritySevere, Bucket(0.51))
}

func TestClassify_SevereGlucose(t *testing.T) {
	c := New().Classify(numeric("GLU", 269, "mg/dL", interval(74, 106)), nil)

	assert.Equal(t, domain.SeveritySevere, c.Severity)
	assert.True(t, c.IsAbnormal)
	assert.Equal(t, 5, c.PriorityWeight)
	assert.Equal(t, domain.DirectionHigh, c.Direction)
	assert.Equal(t, domain.BasisOverride, c.Basis)
	assert.Equal(t, 509.4, c.DeviationPercent)
}

func TestClassify_NormalCholesterol(t *testing.T) {
	c := New().Classify(numeric("CHOL", 95, "mg/dL", interval(0, 200)), nil)

	assert.Equal(t, domain.SeverityNormal, c.Severity)
	assert.False(t, c.IsAbnormal)
	assert.Equal(t, 0, c.PriorityWeight)
	assert.Equal(t, float64(0), c.DeviationPercent)
}

func TestClassify_Overrides(t *testing.T) {
	tests := []struct {
		name  string
		r     *domain.ExtractedResult
		want  domain.Severity
		basis domain.ClassificationBasis
	}{
		{"glucose just above range", numeric("GLU", 110, "mg/dL", interval(70, 106)), domain.SeverityMild, domain.BasisOverride},
		{"glucose diabetic", numeric("GLU", 130, "mg/dL", interval(70, 106)), domain.SeverityModerate, domain.BasisOverride},
		{"glucose low", numeric("GLU", 50, "mg/dL", interval(70, 106)), domain.SeverityModerate, domain.BasisOverride},
		{"glucose in range ignores bands", numeric("GLU", 104, "mg/dL", interval(70, 110)), domain.SeverityNormal, domain.BasisDeviation},
		{"unit mismatch falls back", numeric("GLU", 8, "mmol/L", interval(3.9, 5.5)), domain.SeveritySevere, domain.BasisDeviation},
		{"empty unit uses override", numeric("HBA1C", 7.0, "", interval(4, 6)), domain.SeverityModerate, domain.BasisOverride},
		{"side without bands falls back", numeric("HB", 19, "g/dL", interval(12, 16)), domain.SeveritySevere, domain.BasisDeviation},
		{"low hemoglobin", numeric("HB", 9, "g/dL", interval(12, 16)), domain.SeverityModerate, domain.BasisOverride},
		{"no override", numeric("CHOL", 210, "mg/dL", &domain.ReferenceRange{Kind: domain.RangeUpperLimit, Max: domain.Float64Ptr(200)}), domain.SeverityMild, domain.BasisDeviation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New().Classify(tt.r, nil)
			assert.Equal(t, tt.want, c.Severity)
			assert.Equal(t, tt.basis, c.Basis)
			assert.Equal(t, tt.want != domain.SeverityNormal, c.IsAbnormal)
		})
	}
}

func TestClassify_MissingUnit(t *testing.T) {
	hb := &domain.CanonicalMarker{Code: "HB", ExpectedUnit: "g/dL", PreferredSample: domain.SampleBlood}

	blood := numeric("HB", 11, "", interval(12, 16))
	blood.SampleType = domain.SampleBlood
	urine := numeric("HB", 11, "", interval(12, 16))
	urine.SampleType = domain.SampleUrine
	count := numeric("HB", 11, "", interval(12, 16))
	count.ResultKind = domain.KindMicroscopy

	tests := []struct {
		name  string
		r     *domain.ExtractedResult
		want  domain.Severity
		basis domain.ClassificationBasis
	}{
		{"expected unit in preferred specimen", blood, domain.SeverityMild, domain.BasisOverride},
		{"other specimen", urine, domain.SeverityModerate, domain.BasisDeviation},
		{"microscopy count", count, domain.SeverityModerate, domain.BasisDeviation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New().Classify(tt.r, hb)
			assert.Equal(t, tt.want, c.Severity)
			assert.Equal(t, tt.basis, c.Basis)
		})
	}
}

func TestClassify_WithoutOverrides(t *testing.T) {
	c := New(WithOverrides(nil)).Classify(numeric("GLU", 110, "mg/dL", interval(70, 106)), nil)
	assert.Equal(t, domain.SeverityMild, c.Severity)
	assert.Equal(t, domain.BasisDeviation, c.Basis)

	_, ok := New(WithOverrides(nil)).Override("GLU")
	assert.False(t, ok)
}

func TestClassify_NoRange(t *testing.T) {
	c := New().Classify(numeric("GLU", 400, "mg/dL", nil), nil)
	assert.Equal(t, domain.SeverityNormal, c.Severity)
	assert.False(t, c.IsAbnormal)
	assert.Equal(t, domain.BasisNoRange, c.Basis)
}

func TestClassify_Qualitative(t *testing.T) {
	expected := &domain.ReferenceRange{Kind: domain.RangeExact, ExpectedText: "NO REACTIVO"}
	result := func(raw string) *domain.ExtractedResult {
		return &domain.ExtractedResult{MarkerCode: "VDRL", RawValue: raw, Range: expected, ResultKind: domain.KindQualitative}
	}

	c := New().Classify(result("No reactivo"), nil)
	assert.Equal(t, domain.SeverityNormal, c.Severity)
	assert.Equal(t, domain.BasisQualitative, c.Basis)

	c = New().Classify(result("Reactivo"), nil)
	assert.Equal(t, domain.SeverityMild, c.Severity)
	assert.True(t, c.IsAbnormal)
	assert.Equal(t, 1, c.PriorityWeight)
}
