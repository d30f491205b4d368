package domain

// ReferenceData is the versioned configuration the pipeline is built from:
// the marker vocabulary and the critical threshold table.
type ReferenceData struct {
	// Version identifies the data set (e.g., "2024.06").
	Version string `json:"version" toml:"version"`

	Markers    []CanonicalMarker   `json:"markers" toml:"marker"`
	Thresholds []CriticalThreshold `json:"thresholds" toml:"threshold"`
}

// MarkerByCode returns the marker with the given code.
func (d *ReferenceData) MarkerByCode(code string) (*CanonicalMarker, bool) {
	for i := range d.Markers {
		if d.Markers[i].Code == code {
			return &d.Markers[i], true
		}
	}
	return nil, false
}
