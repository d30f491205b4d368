// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentDecoder: Turns uploaded bytes into page text
//   - DecoderRegistry: Selects the decoder for a MIME type
//   - Normaliser: Cleans decoded text into a NormalizedDocument
//   - ExtractionStrategy: One layout-specific value extractor
//   - PostProcessorPipeline: Noise filtering and deduplication of candidates
//   - ReferenceSource: Loads marker and threshold reference data
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - ReferenceStore: Persists reference data (SQLite). Without it,
//     reference data is read from TOML files only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, decoder, or normaliser package
package driven
