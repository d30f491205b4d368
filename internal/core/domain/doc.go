// Package domain defines the core business entities for labtriage.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes handed over by an upload or file read
//   - DecodedDocument: Full text and page texts produced by a decoder
//   - NormalizedDocument: Cleaned pages plus a folded search view
//   - CanonicalMarker: A lab test in the reference vocabulary
//   - ExtractedResult: One measurement recovered from report text
//   - SeverityClassification, CriticalValue, PriorityScore: triage output
//   - Analysis: The aggregate returned to every consumer
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
