// Package markers maps Spanish surface names of lab tests to canonical
// markers and finds them in normalised text.
package markers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
)

// Ensure Vocabulary implements the lookup port.
var _ driven.MarkerLookup = (*Vocabulary)(nil)

// minAliasLen rejects aliases short enough to collide with check digits
// and units.
const minAliasLen = 2

var parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)`)

// AliasKey returns the lookup key for a surface name: folded, whitespace
// collapsed.
func AliasKey(s string) string {
	return labtext.FoldKey(s)
}

// StripParenthetical removes parenthesised fragments ("Glucosa (ayunas)").
func StripParenthetical(s string) string {
	return strings.TrimSpace(parentheticalRe.ReplaceAllString(s, ""))
}

type alias struct {
	key  string
	code string
}

// Vocabulary is the immutable alias lookup built from reference data.
// It is safe for concurrent use; returned markers must not be modified.
type Vocabulary struct {
	markers map[string]*domain.CanonicalMarker
	codes   []string
	aliases map[string]string

	// byFirst indexes aliases by first byte, longest first.
	byFirst map[byte][]alias
}

// NewVocabulary builds the lookup. Every marker's code, name and aliases are
// indexed together with their parenthetical-stripped variants. Codes
// shorter than two characters are not indexed. An explicit alias claimed
// by two markers is a configuration error.
func NewVocabulary(markers []domain.CanonicalMarker) (*Vocabulary, error) {
	v := &Vocabulary{
		markers: make(map[string]*domain.CanonicalMarker, len(markers)),
		aliases: make(map[string]string),
		byFirst: make(map[byte][]alias),
	}

	derived := make(map[string]string)
	ambiguous := make(map[string]bool)

	for i := range markers {
		m := markers[i]
		m.Aliases = append([]string(nil), m.Aliases...)
		if m.Code == "" {
			return nil, fmt.Errorf("%w: marker %d has no code", domain.ErrInvalidConfiguration, i)
		}
		if _, dup := v.markers[m.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate marker code %q", domain.ErrInvalidConfiguration, m.Code)
		}
		v.markers[m.Code] = &m
		v.codes = append(v.codes, m.Code)

		surfaces := append([]string{m.Code, m.Name}, m.Aliases...)
		for j, s := range surfaces {
			key := AliasKey(s)
			if key == "" {
				continue
			}
			if len(key) < minAliasLen {
				if j == 0 {
					// Single-letter codes ("K") are not searchable.
					continue
				}
				return nil, fmt.Errorf("%w: alias %q of %s is too short", domain.ErrInvalidConfiguration, s, m.Code)
			}
			if owner, ok := v.aliases[key]; ok && owner != m.Code {
				return nil, fmt.Errorf("%w: alias %q claimed by %s and %s", domain.ErrInvalidConfiguration, key, owner, m.Code)
			}
			v.aliases[key] = m.Code

			stripped := AliasKey(StripParenthetical(s))
			if stripped == key || len(stripped) < minAliasLen {
				continue
			}
			if owner, ok := derived[stripped]; ok && owner != m.Code {
				ambiguous[stripped] = true
			}
			derived[stripped] = m.Code
		}
	}

	// Derived variants never override an explicit alias and are dropped
	// when two markers produce the same one.
	for key, code := range derived {
		if _, explicit := v.aliases[key]; explicit {
			continue
		}
		if ambiguous[key] {
			logger.Debug("markers: dropping ambiguous alias %q", key)
			continue
		}
		v.aliases[key] = code
	}

	for key, code := range v.aliases {
		v.byFirst[key[0]] = append(v.byFirst[key[0]], alias{key: key, code: code})
	}
	for b := range v.byFirst {
		list := v.byFirst[b]
		sort.Slice(list, func(i, j int) bool {
			if len(list[i].key) != len(list[j].key) {
				return len(list[i].key) > len(list[j].key)
			}
			return list[i].key < list[j].key
		})
	}
	sort.Strings(v.codes)

	return v, nil
}

// Marker returns the marker with the given code.
func (v *Vocabulary) Marker(code string) (*domain.CanonicalMarker, bool) {
	if m, ok := v.markers[code]; ok {
		return m, true
	}
	m, ok := v.markers[strings.ToUpper(strings.TrimSpace(code))]
	return m, ok
}

// Lookup resolves a surface name to its marker, trying the name as given
// and with parentheticals stripped.
func (v *Vocabulary) Lookup(name string) (*domain.CanonicalMarker, bool) {
	for _, key := range []string{AliasKey(name), AliasKey(StripParenthetical(name))} {
		if code, ok := v.aliases[key]; ok {
			return v.markers[code], true
		}
	}
	return nil, false
}

// Markers returns all markers ordered by code.
func (v *Vocabulary) Markers() []domain.CanonicalMarker {
	out := make([]domain.CanonicalMarker, 0, len(v.codes))
	for _, code := range v.codes {
		out = append(out, *v.markers[code])
	}
	return out
}

// Len returns the number of markers.
func (v *Vocabulary) Len() int {
	return len(v.codes)
}

// AliasCount returns the number of indexed alias keys.
func (v *Vocabulary) AliasCount() int {
	return len(v.aliases)
}
