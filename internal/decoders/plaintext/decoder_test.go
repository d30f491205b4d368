package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

func TestDecoderMetadata(t *testing.T) {
	d := New()
	assert.Equal(t, []string{"text/plain"}, d.SupportedMIMETypes())
	assert.Equal(t, 5, d.Priority())
}

func TestDecode_FormFeeds(t *testing.T) {
	raw := &domain.RawDocument{URI: "r.txt", Content: []byte("page one\fpage two")}

	doc, err := New().Decode(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "r.txt", doc.URI)
	assert.Equal(t, []string{"page one", "page two"}, doc.Pages)
	assert.Equal(t, "page one\npage two", doc.FullText)
}

func TestDecode_PageBoundaries(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("AAAABBBBCC"), PageBoundaries: []int{0, 4, 8, 99}}

	doc, err := New().Decode(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAA", "BBBB", "CC"}, doc.Pages)
}

func TestDecode_Windows1252(t *testing.T) {
	raw := &domain.RawDocument{Content: []byte("Creatinina \xe1cido \xfarico")}

	doc, err := New().Decode(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Creatinina ácido úrico", doc.FullText)
}

func TestDecode_NilDocument(t *testing.T) {
	_, err := New().Decode(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
