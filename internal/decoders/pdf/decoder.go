// Package pdf decodes PDF laboratory reports into page text.
//
// pdfcpu validates the file and reports its page count; ledongthuc/pdf
// extracts the text of each page row by row, keeping wide horizontal gaps
// as column separators so tabular results stay aligned.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
)

// Ensure Decoder implements the interface.
var _ driven.DocumentDecoder = (*Decoder)(nil)

const (
	// wordGapRatio is the gap, relative to font size, that separates words.
	wordGapRatio = 0.2

	// columnGapRatio is the gap, relative to font size, that separates columns.
	columnGapRatio = 1.2
)

// Decoder extracts page text from PDF documents.
type Decoder struct {
	validate bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithValidation toggles pdfcpu structural validation before extraction.
func WithValidation(enabled bool) Option {
	return func(d *Decoder) {
		d.validate = enabled
	}
}

// New creates a PDF decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{validate: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SupportedMIMETypes returns the MIME types this decoder handles.
func (d *Decoder) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the decoder priority.
func (d *Decoder) Priority() int {
	return 50
}

// Decode extracts the text of every page.
func (d *Decoder) Decode(ctx context.Context, raw *domain.RawDocument) (*domain.DecodedDocument, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: empty PDF", domain.ErrDecodingFailure)
	}

	expected := 0
	if d.validate {
		n, err := api.PageCount(bytes.NewReader(raw.Content), model.NewDefaultConfiguration())
		if err != nil {
			return nil, classifyError(err)
		}
		expected = n
	}

	reader, err := lpdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, classifyError(err)
	}

	total := reader.NumPage()
	if expected > 0 && expected != total {
		logger.Warn("pdf: %s page count mismatch (pdfcpu %d, reader %d)", raw.URI, expected, total)
	}

	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageText(page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrDecodingFailure, i, err)
		}
		pages = append(pages, text)
	}

	return &domain.DecodedDocument{
		URI:      raw.URI,
		FullText: strings.Join(pages, "\n"),
		Pages:    pages,
	}, nil
}

// pageText rebuilds the page line by line from positioned text runs.
func pageText(page lpdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	// PDF y grows upward; read from the top of the page.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position > rows[j].Position
	})

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, joinRow(row.Content))
	}
	return strings.Join(lines, "\n"), nil
}

// joinRow concatenates the runs of one row, inserting a space for word gaps
// and two spaces for column gaps.
func joinRow(runs []lpdf.Text) string {
	sorted := make([]lpdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	end := 0.0
	for i, t := range sorted {
		if t.S == "" {
			continue
		}
		if i > 0 {
			gap := t.X - end
			size := t.FontSize
			if size <= 0 {
				size = 10
			}
			switch {
			case gap > size*columnGapRatio:
				b.WriteString("  ")
			case gap > size*wordGapRatio:
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
	return b.String()
}

// classifyError maps parser errors to domain errors.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return fmt.Errorf("%w: %v", domain.ErrEncryptedDocument, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrDecodingFailure, err)
}
