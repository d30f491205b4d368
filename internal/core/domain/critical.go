package domain

import "strings"

// Urgency is the follow-up urgency attached to a critical threshold.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyPriority  Urgency = "priority"
)

// Label returns the alert label for the urgency.
func (u Urgency) Label() string {
	return strings.ToUpper(string(u))
}

// Valid reports whether u is a known urgency.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyImmediate, UrgencyUrgent, UrgencyPriority:
		return true
	}
	return false
}

// CriticalThreshold is a hard, clinically mandated cutoff for one marker
// and unit. It always takes precedence over the document's reference range.
type CriticalThreshold struct {
	MarkerCode   string   `json:"marker" toml:"marker"`
	Unit         string   `json:"unit" toml:"unit"`
	High         *float64 `json:"high,omitempty" toml:"high,omitempty"`
	Low          *float64 `json:"low,omitempty" toml:"low,omitempty"`
	Urgency      Urgency  `json:"urgency" toml:"urgency"`
	Significance string   `json:"significance" toml:"significance"`
}

// CriticalValue is a result that crossed a critical threshold.
type CriticalValue struct {
	Marker     string            `json:"marker"`
	MarkerName string            `json:"markerName"`
	Threshold  CriticalThreshold `json:"threshold"`
	Value      float64           `json:"value"`
	Unit       string            `json:"unit"`
	Direction  Direction         `json:"direction"`
	AlertText  string            `json:"alertText"`
}
