package decoders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

type stubDecoder struct {
	name     string
	mimes    []string
	priority int
}

func (s *stubDecoder) SupportedMIMETypes() []string { return s.mimes }
func (s *stubDecoder) Priority() int                { return s.priority }
func (s *stubDecoder) Decode(_ context.Context, raw *domain.RawDocument) (*domain.DecodedDocument, error) {
	return &domain.DecodedDocument{URI: raw.URI, FullText: s.name}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry(
		&stubDecoder{name: "fallback", mimes: []string{"text/plain"}, priority: 1},
		&stubDecoder{name: "preferred", mimes: []string{"text/plain"}, priority: 50},
	)

	doc, err := r.Decode(context.Background(), &domain.RawDocument{URI: "a.txt", MIMEType: "text/plain; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "preferred", doc.FullText)
}

func TestRegistry_SniffsMIMEType(t *testing.T) {
	r := NewRegistry(
		&stubDecoder{name: "pdf", mimes: []string{"application/pdf"}, priority: 50},
		&stubDecoder{name: "text", mimes: []string{"text/plain"}, priority: 5},
	)

	doc, err := r.Decode(context.Background(), &domain.RawDocument{Content: []byte("%PDF-1.7\n...")})
	require.NoError(t, err)
	assert.Equal(t, "pdf", doc.FullText)

	doc, err = r.Decode(context.Background(), &domain.RawDocument{Content: []byte("GLUCOSA 95 mg/dL")})
	require.NoError(t, err)
	assert.Equal(t, "text", doc.FullText)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Decode(context.Background(), &domain.RawDocument{MIMEType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewRegistry().Decode(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_SupportedMIMETypes(t *testing.T) {
	r := NewRegistry(
		&stubDecoder{mimes: []string{"text/plain"}},
		&stubDecoder{mimes: []string{"application/pdf"}},
	)
	assert.Equal(t, []string{"application/pdf", "text/plain"}, r.SupportedMIMETypes())
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectMIMEType([]byte("\n%PDF-1.4")))
	assert.Equal(t, "text/plain", DetectMIMEType([]byte("Hemoglobina 13,5")))
}
