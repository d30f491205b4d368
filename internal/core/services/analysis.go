package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/labtriage/internal/classify"
	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/core/ports/driving"
	"github.com/custodia-labs/labtriage/internal/critical"
	"github.com/custodia-labs/labtriage/internal/extractors"
	"github.com/custodia-labs/labtriage/internal/identity"
	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/metrics"
	"github.com/custodia-labs/labtriage/internal/refdata"
	"github.com/custodia-labs/labtriage/internal/scoring"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// noIdentityPenalty is subtracted from the overall confidence when no
// valid RUT was recovered.
const noIdentityPenalty = 15.0

// analysisNamespace scopes analysis IDs.
var analysisNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("labtriage.analysis"))

// AnalysisOption configures an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithRunner replaces the default extraction strategies.
func WithRunner(r *extractors.Runner) AnalysisOption {
	return func(s *AnalysisService) {
		s.runner = r
	}
}

// WithClassifier replaces the default severity classifier.
func WithClassifier(c *classify.Classifier) AnalysisOption {
	return func(s *AnalysisService) {
		s.classifier = c
	}
}

// WithReviewConfidence sets the confidence below which results are
// flagged for manual review.
func WithReviewConfidence(v float64) AnalysisOption {
	return func(s *AnalysisService) {
		s.reviewConfidence = v
	}
}

// AnalysisService runs the lab report pipeline. Each call reads the
// reference snapshot once, so a concurrent reload never mixes tables
// within one analysis.
type AnalysisService struct {
	decoders   driven.DecoderRegistry
	normaliser driven.Normaliser
	refs       *refdata.Manager
	pipeline   driven.PostProcessorPipeline

	runner           *extractors.Runner
	identity         *identity.Extractor
	classifier       *classify.Classifier
	reviewConfidence float64
}

// NewAnalysisService creates the pipeline service. decoders may be nil
// when callers only use AnalyzeDecoded.
func NewAnalysisService(
	decoders driven.DecoderRegistry,
	normaliser driven.Normaliser,
	refs *refdata.Manager,
	pipeline driven.PostProcessorPipeline,
	opts ...AnalysisOption,
) *AnalysisService {
	s := &AnalysisService{
		decoders:         decoders,
		normaliser:       normaliser,
		refs:             refs,
		pipeline:         pipeline,
		runner:           extractors.NewRunner(),
		identity:         identity.NewExtractor(),
		classifier:       classify.New(),
		reviewConfidence: domain.DefaultReviewConfidence,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze decodes raw and runs the pipeline.
func (s *AnalysisService) Analyze(ctx context.Context, raw *domain.RawDocument, patient *domain.PatientContext) (*domain.Analysis, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if s.decoders == nil {
		return nil, fmt.Errorf("%w: no decoders configured", domain.ErrUnsupportedType)
	}

	done := stage("decode")
	doc, err := s.decoders.Decode(ctx, raw)
	done()
	if err != nil {
		recordFailure(err)
		return nil, err
	}
	return s.AnalyzeDecoded(ctx, doc, patient)
}

// AnalyzeDecoded runs the pipeline on decoded text.
func (s *AnalysisService) AnalyzeDecoded(ctx context.Context, doc *domain.DecodedDocument, patient *domain.PatientContext) (*domain.Analysis, error) {
	a, err := s.analyze(ctx, doc, patient)
	if err != nil {
		recordFailure(err)
		return nil, err
	}

	outcome := metrics.OutcomeOK
	if len(a.Issues) > 0 {
		outcome = metrics.OutcomeIssues
	}
	metrics.RecordDocument(outcome)
	metrics.RecordAnalysis(a)
	return a, nil
}

func (s *AnalysisService) analyze(ctx context.Context, doc *domain.DecodedDocument, patient *domain.PatientContext) (*domain.Analysis, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	snap := s.refs.Current()

	logger.Section("analyze " + doc.URI)

	done := stage("normalise")
	norm, err := s.normaliser.Normalise(ctx, doc)
	done()
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}

	done = stage("identity")
	ident := s.identity.Extract(norm)
	done()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = stage("markers")
	occs := snap.Vocabulary.Match(norm)
	done()
	logger.Debug("found %d marker occurrences", len(occs))

	ec := &driven.ExtractionContext{
		Document: norm,
		Markers:  snap.Vocabulary,
		Sex:      patient.SexOrUnknown(),
	}

	done = stage("extract")
	candidates, err := s.runner.Run(ctx, ec, occs)
	done()
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	metrics.RecordCandidates(candidates)

	done = stage("postprocess")
	accepted, err := s.pipeline.Process(ctx, ec, candidates)
	done()
	if err != nil {
		return nil, fmt.Errorf("postprocess: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = stage("classify")
	results, criticals := s.assess(snap, accepted)
	done()

	done = stage("score")
	scorer := scoring.New(func(code string) float64 {
		if m, ok := snap.Marker(code); ok {
			return m.Weight
		}
		return 1
	})
	priority := scorer.Score(results, patient)
	done()

	a := &domain.Analysis{
		ID:               analysisID(norm),
		URI:              doc.URI,
		PageCount:        doc.PageCount(),
		Identity:         ident.Best,
		Results:          results,
		CriticalValues:   criticals,
		Priority:         priority,
		ReferenceVersion: snap.Version(),
	}
	a.Summary = summarise(results, criticals, priority.Level)
	a.OverallConfidence = overallConfidence(results, ident.Best)
	a.Issues = s.issues(a)

	logger.Debug("analysis %s: %d results, %d critical, priority %s (%.1f)",
		a.ID, len(results), len(criticals), priority.Level, priority.TotalScore)
	return a, nil
}

// assess classifies every accepted result and applies critical thresholds.
func (s *AnalysisService) assess(snap *refdata.Snapshot, accepted []domain.ExtractedResult) ([]domain.AssessedResult, []domain.CriticalValue) {
	results := make([]domain.AssessedResult, 0, len(accepted))
	var criticals []domain.CriticalValue

	for i := range accepted {
		r := accepted[i]
		if r.Confidence < s.reviewConfidence {
			r.NeedsReview = true
		}

		m, _ := snap.Marker(r.MarkerCode)
		c := s.classifier.Classify(&r, m)
		if cv, ok := snap.Critical.Check(&r, m); ok {
			c = critical.Escalate(c, cv)
			criticals = append(criticals, cv)
			logger.Debug("critical value: %s", cv.AlertText)
		}
		results = append(results, domain.AssessedResult{ExtractedResult: r, Classification: c})
	}
	return results, criticals
}

func (s *AnalysisService) issues(a *domain.Analysis) []domain.Issue {
	var issues []domain.Issue

	switch {
	case a.Identity == nil:
		issues = append(issues, domain.Issue{Kind: domain.IssueNoIdentity, Detail: "no RUT found in the report"})
	case !a.Identity.IsValid:
		issues = append(issues, domain.Issue{
			Kind:   domain.IssueInvalidIdentity,
			Detail: fmt.Sprintf("RUT %s fails the check digit", a.Identity.FormattedValue),
		})
	}

	if len(a.Results) == 0 {
		issues = append(issues, domain.Issue{Kind: domain.IssueNoMarkers, Detail: "no lab results could be extracted"})
	}

	review := 0
	for i := range a.Results {
		if a.Results[i].NeedsReview {
			review++
		}
	}
	if review > 0 {
		issues = append(issues, domain.Issue{
			Kind:   domain.IssueLowConfidence,
			Detail: fmt.Sprintf("%d results below confidence %g need review", review, s.reviewConfidence),
		})
	}
	return issues
}

func summarise(results []domain.AssessedResult, criticals []domain.CriticalValue, level domain.PriorityLevel) domain.Summary {
	sum := domain.Summary{
		TotalMarkers:    len(results),
		CriticalCount:   len(criticals),
		HighestSeverity: domain.SeverityNormal,
	}
	for i := range results {
		c := results[i].Classification
		if c.IsAbnormal {
			sum.AbnormalCount++
		}
		sum.HighestSeverity = domain.MaxSeverity(sum.HighestSeverity, c.Severity)
	}
	sum.RecommendedAction = scoring.RecommendedAction(level, sum.TotalMarkers, sum.CriticalCount)
	return sum
}

// overallConfidence is the mean result confidence, less a penalty when no
// valid identity was found, clamped to 0-100.
func overallConfidence(results []domain.AssessedResult, ident *domain.IdentityCandidate) float64 {
	if len(results) == 0 {
		return 0
	}
	var total float64
	for i := range results {
		total += results[i].Confidence
	}
	conf := total / float64(len(results))
	if ident == nil || !ident.IsValid {
		conf -= noIdentityPenalty
	}
	conf = math.Max(0, math.Min(100, conf))
	return math.Round(conf*10) / 10
}

// analysisID derives a stable ID from the normalised text.
func analysisID(doc *domain.NormalizedDocument) string {
	return uuid.NewSHA1(analysisNamespace, []byte(doc.FullText)).String()
}

// stage logs and records the duration of one pipeline stage.
func stage(name string) func() {
	start := time.Now()
	logDone := logger.Stage(name)
	return func() {
		logDone()
		metrics.RecordStage(name, time.Since(start))
	}
}

func recordFailure(err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.RecordDocument(metrics.OutcomeCancelled)
	case errors.Is(err, domain.ErrDecodingFailure), errors.Is(err, domain.ErrEncryptedDocument), errors.Is(err, domain.ErrUnsupportedType):
		metrics.RecordDocument(metrics.OutcomeDecodeFail)
	default:
		metrics.RecordDocument(metrics.OutcomeError)
	}
}
