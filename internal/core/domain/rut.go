package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// RUT represents a Chilean national identity number (Rol Unico Tributario).
// The canonical form holds the body digits followed by the check digit,
// with no separators: "123456785" for 12.345.678-5.
// The check digit is 0-9 or K, computed with the modulo 11 algorithm.
type RUT string

var rutRegex = regexp.MustCompile(`^\d{7,8}[0-9K]$`)

// NormalizeRUT strips dots, hyphens and whitespace and uppercases the
// check digit. It does not validate.
func NormalizeRUT(s string) RUT {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'k' || r == 'K':
			b.WriteByte('K')
		}
	}
	return RUT(b.String())
}

// ParseRUT validates and parses a RUT in any common notation.
func ParseRUT(s string) (RUT, error) {
	rut := NormalizeRUT(s)
	if !rutRegex.MatchString(string(rut)) {
		return "", fmt.Errorf("%w: RUT must have 7-8 body digits and a check digit", ErrInvalidInput)
	}
	if !rut.IsValid() {
		return "", fmt.Errorf("%w: invalid RUT check digit", ErrInvalidInput)
	}
	return rut, nil
}

// RUTCheckDigit computes the check digit for a RUT body.
func RUTCheckDigit(body string) (byte, error) {
	if body == "" {
		return 0, fmt.Errorf("%w: empty RUT body", ErrInvalidInput)
	}

	sum := 0
	multiplier := 2
	for i := len(body) - 1; i >= 0; i-- {
		c := body[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: non-digit in RUT body", ErrInvalidInput)
		}
		sum += int(c-'0') * multiplier
		multiplier++
		if multiplier > 7 {
			multiplier = 2
		}
	}

	switch check := 11 - sum%11; check {
	case 11:
		return '0', nil
	case 10:
		return 'K', nil
	default:
		return byte('0' + check), nil
	}
}

// String returns the canonical representation.
func (r RUT) String() string {
	return string(r)
}

// Body returns the digits before the check digit.
func (r RUT) Body() string {
	if len(r) < 2 {
		return ""
	}
	return string(r[:len(r)-1])
}

// CheckDigit returns the trailing check digit.
func (r RUT) CheckDigit() byte {
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

// IsValid validates the format and the modulo 11 check digit.
func (r RUT) IsValid() bool {
	if !rutRegex.MatchString(string(r)) {
		return false
	}
	want, err := RUTCheckDigit(r.Body())
	if err != nil {
		return false
	}
	return r.CheckDigit() == want
}

// Formatted returns the dotted display form, e.g. "12.345.678-5".
func (r RUT) Formatted() string {
	body := r.Body()
	if body == "" {
		return string(r)
	}

	var groups []string
	for len(body) > 3 {
		groups = append([]string{body[len(body)-3:]}, groups...)
		body = body[:len(body)-3]
	}
	groups = append([]string{body}, groups...)

	return strings.Join(groups, ".") + "-" + string(r.CheckDigit())
}

// Masked returns a masked version for logs (last four characters visible).
func (r RUT) Masked() string {
	if len(r) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

// IsZero checks if the RUT is empty.
func (r RUT) IsZero() bool {
	return r == ""
}
