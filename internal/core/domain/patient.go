package domain

import "strings"

// Sex is the patient's sex as used by sex-specific reference ranges.
type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// ParseSex accepts English and Spanish spellings and initials.
// Unrecognised input yields SexUnknown.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "h", "hombre", "masculino":
		return SexMale
	case "f", "female", "mujer", "femenino":
		return SexFemale
	default:
		return SexUnknown
	}
}

// PatientContext is optional demographic data supplied by the caller.
// A nil context, or a nil Age, simply omits the age adjustment.
type PatientContext struct {
	Age *int `json:"age,omitempty"`
	Sex Sex  `json:"sex,omitempty"`
}

// AgeOrZero returns the age, or 0 when unknown.
func (p *PatientContext) AgeOrZero() int {
	if p == nil || p.Age == nil {
		return 0
	}
	return *p.Age
}

// SexOrUnknown returns the sex, tolerating a nil context.
func (p *PatientContext) SexOrUnknown() Sex {
	if p == nil {
		return SexUnknown
	}
	return p.Sex
}
