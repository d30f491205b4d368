package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSex(t *testing.T) {
	tests := []struct {
		in   string
		want Sex
	}{
		{"M", SexMale},
		{"masculino", SexMale},
		{"Hombre", SexMale},
		{"F", SexFemale},
		{"femenino", SexFemale},
		{"", SexUnknown},
		{"x", SexUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSex(tt.in), tt.in)
	}
}

func TestPatientContext_NilSafe(t *testing.T) {
	var p *PatientContext
	assert.Equal(t, 0, p.AgeOrZero())
	assert.Equal(t, SexUnknown, p.SexOrUnknown())

	age := 85
	p = &PatientContext{Age: &age, Sex: SexFemale}
	assert.Equal(t, 85, p.AgeOrZero())
	assert.Equal(t, SexFemale, p.SexOrUnknown())
}

func TestDecodedDocument_PageCount(t *testing.T) {
	assert.Equal(t, 0, (&DecodedDocument{}).PageCount())
	assert.Equal(t, 1, (&DecodedDocument{FullText: "x"}).PageCount())
	assert.Equal(t, 2, (&DecodedDocument{Pages: []string{"a", "b"}}).PageCount())
}

func TestAnalysis_HasIssue(t *testing.T) {
	a := Analysis{Issues: []Issue{{Kind: IssueNoIdentity}}}
	assert.True(t, a.HasIssue(IssueNoIdentity))
	assert.False(t, a.HasIssue(IssueNoMarkers))
}
