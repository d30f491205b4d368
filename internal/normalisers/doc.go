// Package normalisers provides implementations of the Normaliser interface.
// A normaliser takes decoder output (page text) and produces the cleaned,
// line-indexed NormalizedDocument every later pipeline stage reads.
//
// The labtext normaliser is wired into the AnalysisService at startup.
package normalisers
