package domain

// SourceContext describes where in the document an identity number was found.
type SourceContext string

const (
	// ContextHeader is the report header (first part of the text).
	ContextHeader SourceContext = "header"

	// ContextForm is a labelled form field such as "RUT: ...".
	ContextForm SourceContext = "form"

	// ContextTable is a column-aligned table row.
	ContextTable SourceContext = "table"

	// ContextBody is running text.
	ContextBody SourceContext = "body"
)

// IdentityCandidate is one possible patient identity number.
// Invariant: IsValid implies FormattedValue passes the RUT checksum.
type IdentityCandidate struct {
	// RawValue is the text as matched in the folded view.
	RawValue string `json:"rawValue"`

	// FormattedValue is the canonical dotted form (12.345.678-5).
	FormattedValue string `json:"formattedValue"`

	// IsValid reports whether the check digit validates.
	IsValid bool `json:"isValid"`

	// Confidence is in the range 0-100.
	Confidence float64 `json:"confidence"`

	// SourceContext tells where the match came from.
	SourceContext SourceContext `json:"sourceContext"`

	// Position is the byte offset of the match in the folded text.
	Position int `json:"position"`

	// Pattern names the pattern that produced the candidate.
	Pattern string `json:"pattern"`
}
