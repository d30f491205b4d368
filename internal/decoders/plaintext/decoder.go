// Package plaintext decodes text exports of laboratory reports.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.DocumentDecoder = (*Decoder)(nil)

// Decoder splits text content into pages on form feeds or on the
// document's page boundaries.
type Decoder struct{}

// New creates a plain text decoder.
func New() *Decoder {
	return &Decoder{}
}

// SupportedMIMETypes returns the MIME types this decoder handles.
func (d *Decoder) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Priority returns the decoder priority.
func (d *Decoder) Priority() int {
	return 5
}

// Decode returns the content split into pages. Content that is not valid
// UTF-8 is read as Windows-1252, the usual encoding of legacy lab exports.
func (d *Decoder) Decode(ctx context.Context, raw *domain.RawDocument) (*domain.DecodedDocument, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := string(raw.Content)
	if !utf8.ValidString(text) {
		decoded, err := charmap.Windows1252.NewDecoder().String(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDecodingFailure, err)
		}
		text = decoded
	}

	var pages []string
	switch {
	case len(raw.PageBoundaries) > 0 && utf8.Valid(raw.Content):
		pages = splitAt(text, raw.PageBoundaries)
	default:
		pages = strings.Split(text, "\f")
	}

	return &domain.DecodedDocument{
		URI:      raw.URI,
		FullText: strings.Join(pages, "\n"),
		Pages:    pages,
	}, nil
}

// splitAt cuts text at the given page start offsets. Offsets outside the
// text or out of order are ignored.
func splitAt(text string, starts []int) []string {
	var pages []string
	prev := 0
	for _, off := range starts {
		if off <= prev || off >= len(text) {
			continue
		}
		pages = append(pages, text[prev:off])
		prev = off
	}
	return append(pages, text[prev:])
}
