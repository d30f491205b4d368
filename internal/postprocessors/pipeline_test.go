package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
)

// mockProcessor is a test processor that returns predefined results.
type mockProcessor struct {
	name    string
	results []domain.ExtractedResult
	err     error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, _ *driven.ExtractionContext, results []domain.ExtractedResult) ([]domain.ExtractedResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.results != nil {
		return m.results, nil
	}
	return results, nil
}

func candidate(code string, confidence float64) domain.ExtractedResult {
	return domain.ExtractedResult{
		MarkerCode:   code,
		ExamName:     "Glucosa",
		RawValue:     "95",
		NumericValue: domain.Float64Ptr(95),
		ResultKind:   domain.KindNumeric,
		Confidence:   confidence,
		Strategy:     "column",
	}
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	require.NotNil(t, p)
	assert.Equal(t, 0, p.Len())
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockProcessor{name: "test"})

	assert.Equal(t, 1, p.Len())
	assert.Equal(t, []string{"test"}, p.Names())
}

func TestPipeline_Process_NilContext(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	in := []domain.ExtractedResult{candidate("GLU", 80)}

	out, err := NewPipeline().Process(context.Background(), &driven.ExtractionContext{}, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPipeline_Process_MultipleProcessors(t *testing.T) {
	second := []domain.ExtractedResult{candidate("GLU", 80), candidate("HB", 70)}

	p := NewPipeline(
		&mockProcessor{name: "first", results: []domain.ExtractedResult{candidate("GLU", 80)}},
		&mockProcessor{name: "second", results: second},
		&mockProcessor{name: "passthrough"},
	)

	out, err := p.Process(context.Background(), &driven.ExtractionContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, second, out)
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	expectedErr := errors.New("processor failed")
	p := NewPipeline(&mockProcessor{name: "failing", err: expectedErr})

	_, err := p.Process(context.Background(), &driven.ExtractionContext{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Contains(t, err.Error(), "processor failing")
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(&mockProcessor{name: "a"}).Process(ctx, &driven.ExtractionContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultPipeline(t *testing.T) {
	p := NewDefaultPipeline(50)
	assert.Equal(t, DefaultProcessors, p.Names())

	in := []domain.ExtractedResult{
		candidate("GLU", 45),
		candidate("GLU", 90),
		candidate("GLU", 60),
	}
	out, err := p.Process(context.Background(), &driven.ExtractionContext{}, in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, float64(90), out[0].Confidence)
}
