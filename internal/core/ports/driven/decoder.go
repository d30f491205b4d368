package driven

import (
	"context"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// DocumentDecoder turns raw document bytes into page text.
// Each decoder handles specific MIME types (e.g., PDF, plain text).
type DocumentDecoder interface {
	// SupportedMIMETypes returns the MIME types this decoder handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific decoders should return 50-89.
	// Fallback decoders should return 1-9.
	Priority() int

	// Decode extracts the text of every page.
	// Unreadable input must return an error wrapping domain.ErrDecodingFailure.
	Decode(ctx context.Context, raw *domain.RawDocument) (*domain.DecodedDocument, error)
}

// DecoderRegistry selects the appropriate decoder for a document.
type DecoderRegistry interface {
	// Decode decodes a raw document using the best matching decoder.
	Decode(ctx context.Context, raw *domain.RawDocument) (*domain.DecodedDocument, error)

	// Register adds a decoder to the registry.
	Register(decoder DocumentDecoder)

	// SupportedMIMETypes returns all MIME types that can be decoded.
	SupportedMIMETypes() []string
}
