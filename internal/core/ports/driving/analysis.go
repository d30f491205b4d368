package driving

import (
	"context"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// AnalysisService runs the lab report pipeline on one document.
// Implementations are safe for concurrent use; each call owns its document.
type AnalysisService interface {
	// Analyze decodes raw bytes and runs the full pipeline.
	// Only decoding failures and a cancelled context are returned as errors;
	// everything else is reported through Analysis.Issues and confidences.
	Analyze(ctx context.Context, raw *domain.RawDocument, patient *domain.PatientContext) (*domain.Analysis, error)

	// AnalyzeDecoded runs the pipeline on text already decoded upstream.
	AnalyzeDecoded(ctx context.Context, doc *domain.DecodedDocument, patient *domain.PatientContext) (*domain.Analysis, error)
}
