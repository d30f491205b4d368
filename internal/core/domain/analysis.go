package domain

// IssueKind identifies a non-fatal pipeline condition.
type IssueKind string

const (
	// IssueNoIdentity means no RUT could be recovered.
	IssueNoIdentity IssueKind = "no_identity"

	// IssueInvalidIdentity means only identities failing the checksum were found.
	IssueInvalidIdentity IssueKind = "invalid_identity"

	// IssueNoMarkers means no lab result survived extraction.
	IssueNoMarkers IssueKind = "no_markers"

	// IssueLowConfidence means one or more results need manual review.
	IssueLowConfidence IssueKind = "low_confidence"
)

// Issue is a non-fatal condition surfaced to the caller.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Detail string    `json:"detail"`
}

// Summary condenses an analysis for triage lists.
type Summary struct {
	TotalMarkers      int      `json:"totalMarkers"`
	AbnormalCount     int      `json:"abnormalCount"`
	CriticalCount     int      `json:"criticalCount"`
	HighestSeverity   Severity `json:"highestSeverity"`
	RecommendedAction string   `json:"recommendedActionText"`
}

// Analysis is the single aggregate the pipeline returns.
// It is the sole contract consumed by presentation and storage layers.
type Analysis struct {
	// ID is derived from the normalised text, so identical input yields
	// an identical ID.
	ID string `json:"id"`

	URI       string `json:"uri,omitempty"`
	PageCount int    `json:"pageCount"`

	Identity       *IdentityCandidate `json:"identity"`
	Results        []AssessedResult   `json:"results"`
	CriticalValues []CriticalValue    `json:"criticalValues"`
	Priority       PriorityScore      `json:"priorityScore"`
	Summary        Summary            `json:"summary"`

	// OverallConfidence is the mean result confidence, penalised when
	// no identity was found.
	OverallConfidence float64 `json:"overallConfidence"`

	Issues []Issue `json:"issues,omitempty"`

	// ReferenceVersion identifies the reference tables used.
	ReferenceVersion string `json:"referenceVersion,omitempty"`
}

// HasIssue reports whether an issue of the given kind was raised.
func (a *Analysis) HasIssue(kind IssueKind) bool {
	for _, issue := range a.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}
