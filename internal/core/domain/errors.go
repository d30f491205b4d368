package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown MIME type or processor name.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrDecodingFailure indicates the source document could not be read.
	// Corrupt, truncated and password-protected files all map here.
	// It is fatal: no pipeline stage runs after it.
	ErrDecodingFailure = errors.New("document decoding failed")

	// ErrEncryptedDocument indicates a password-protected source document.
	// Always returned wrapped together with ErrDecodingFailure.
	ErrEncryptedDocument = errors.New("document is encrypted")

	// ErrInvalidConfiguration indicates missing or corrupt reference data.
	// Raised at startup or reload; a running pipeline keeps its last good tables.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
