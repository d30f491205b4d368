// Package decoders turns uploaded report bytes into page text.
// Decoders register by MIME type; the Registry picks the highest priority
// decoder for a document.
package decoders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.DecoderRegistry = (*Registry)(nil)

// Registry selects decoders by MIME type and priority.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.DocumentDecoder
}

// NewRegistry creates a registry holding the given decoders.
func NewRegistry(decoders ...driven.DocumentDecoder) *Registry {
	r := &Registry{byMIME: make(map[string][]driven.DocumentDecoder)}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// Register adds a decoder for each MIME type it supports.
func (r *Registry) Register(decoder driven.DocumentDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mime := range decoder.SupportedMIMETypes() {
		list := append(r.byMIME[mime], decoder)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mime] = list
	}
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

// Decode decodes raw with the best decoder for its MIME type. An empty
// MIME type is sniffed from the content.
func (r *Registry) Decode(ctx context.Context, raw *domain.RawDocument) (*domain.DecodedDocument, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	mime := baseMIME(raw.MIMEType)
	if mime == "" {
		mime = DetectMIMEType(raw.Content)
	}

	r.mu.RLock()
	candidates := r.byMIME[mime]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mime)
	}

	logger.Debug("decoders: %s as %s (%d candidates)", raw.URI, mime, len(candidates))
	return candidates[0].Decode(ctx, raw)
}

// DetectMIMEType sniffs PDF and text content.
func DetectMIMEType(content []byte) string {
	if bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), []byte("%PDF-")) {
		return "application/pdf"
	}
	return baseMIME(http.DetectContentType(content))
}

func baseMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
