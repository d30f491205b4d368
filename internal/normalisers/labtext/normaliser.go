// Package labtext provides the normaliser for decoded laboratory report text.
package labtext

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithBoilerplateStripping toggles removal of repeated page headers and footers.
func WithBoilerplateStripping(enabled bool) Option {
	return func(n *Normaliser) {
		n.stripBoilerplate = enabled
	}
}

// Normaliser turns decoded page text into a NormalizedDocument.
type Normaliser struct {
	stripBoilerplate bool
}

// New creates a lab report normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{stripBoilerplate: true}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalise cleans every page, strips repeated boilerplate, and indexes the
// result line by line with a folded search view and the specimen section
// each line belongs to.
func (n *Normaliser) Normalise(ctx context.Context, doc *domain.DecodedDocument) (*domain.NormalizedDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := doc.Pages
	if len(pages) == 0 {
		pages = strings.Split(doc.FullText, "\f")
	}

	cleaned := make([]string, len(pages))
	for i, page := range pages {
		cleaned[i] = CleanPage(page)
	}

	removed := 0
	if n.stripBoilerplate {
		cleaned, removed = StripBoilerplate(cleaned)
		if removed > 0 {
			logger.Debug("normaliser: removed %d repeated boilerplate lines", removed)
		}
	}

	out := &domain.NormalizedDocument{
		URI:                doc.URI,
		Pages:              make([]domain.NormalizedPage, 0, len(cleaned)),
		RemovedBoilerplate: removed,
	}

	var full, folded []string
	section := domain.SampleUnknown
	for i, text := range cleaned {
		page := domain.NormalizedPage{Number: i + 1, Text: text}
		for _, raw := range strings.Split(text, "\n") {
			f := Fold(raw)
			if s := DetectSection(f); s != domain.SampleUnknown {
				section = s
			}
			out.Lines = append(out.Lines, domain.Line{
				Index:  len(out.Lines),
				Page:   page.Number,
				Text:   raw,
				Folded: f,
				Sample: section,
			})
			if raw != "" {
				page.Blocks = append(page.Blocks, raw)
			}
			full = append(full, raw)
			folded = append(folded, f)
		}
		out.Pages = append(out.Pages, page)
	}

	out.FullText = strings.Join(full, "\n")
	out.Folded = strings.Join(folded, "\n")

	return out, nil
}
