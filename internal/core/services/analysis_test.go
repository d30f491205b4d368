package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labtriage/internal/core/domain"
	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/decoders"
	"github.com/custodia-labs/labtriage/internal/decoders/plaintext"
	"github.com/custodia-labs/labtriage/internal/normalisers/labtext"
	"github.com/custodia-labs/labtriage/internal/postprocessors"
	"github.com/custodia-labs/labtriage/internal/refdata"
)

const (
	criticalReport = "PACIENTE: JUAN PEREZ  RUT: 12.345.678-5\n" +
		"BIOQUIMICA\n" +
		"GLUCOSA  269  mg/dL  [*]  74 - 106  Enzimatico\n"

	normalReport = "PACIENTE: ANA SOTO  RUT: 12.345.678-5\n" +
		"Colesterol total  150  mg/dL  0 - 200\n"
)

func newAnalysisService(t *testing.T, opts ...AnalysisOption) *AnalysisService {
	t.Helper()
	refs, err := refdata.NewManager(context.Background(), nil)
	require.NoError(t, err)
	return NewAnalysisService(
		decoders.NewRegistry(plaintext.New()),
		labtext.New(),
		refs,
		postprocessors.NewDefaultPipeline(domain.DefaultMinConfidence),
		opts...,
	)
}

func analyzeText(t *testing.T, svc *AnalysisService, text string, patient *domain.PatientContext) *domain.Analysis {
	t.Helper()
	a, err := svc.Analyze(context.Background(), &domain.RawDocument{
		URI:      "report.txt",
		MIMEType: "text/plain",
		Content:  []byte(text),
	}, patient)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func resultFor(a *domain.Analysis, code string) *domain.AssessedResult {
	for i := range a.Results {
		if a.Results[i].MarkerCode == code {
			return &a.Results[i]
		}
	}
	return nil
}

func hasIssue(a *domain.Analysis, kind domain.IssueKind) bool {
	for _, is := range a.Issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}

func intPtr(v int) *int { return &v }

func TestAnalysisService_CriticalGlucose(t *testing.T) {
	svc := newAnalysisService(t)
	a := analyzeText(t, svc, criticalReport, nil)

	require.NotNil(t, a.Identity)
	assert.True(t, a.Identity.IsValid)
	assert.Equal(t, "12.345.678-5", a.Identity.FormattedValue)

	glu := resultFor(a, "GLU")
	require.NotNil(t, glu)
	require.NotNil(t, glu.NumericValue)
	assert.InDelta(t, 269, *glu.NumericValue, 0.001)
	assert.True(t, glu.HasAbnormalMarker)
	assert.Equal(t, domain.SeveritySevere, glu.Classification.Severity)
	assert.True(t, glu.Classification.IsCriticalValue)
	assert.True(t, glu.Classification.IsAbnormal)

	require.Len(t, a.CriticalValues, 1)
	cv := a.CriticalValues[0]
	assert.Equal(t, "GLU", cv.Marker)
	assert.Equal(t, domain.UrgencyImmediate, cv.Threshold.Urgency)
	assert.NotEmpty(t, cv.AlertText)

	assert.Equal(t, domain.PriorityHigh, a.Priority.Level)
	assert.Equal(t, 1, a.Summary.CriticalCount)
	assert.Equal(t, domain.SeveritySevere, a.Summary.HighestSeverity)
	assert.NotEmpty(t, a.Summary.RecommendedAction)
	assert.Equal(t, 1, a.PageCount)
	assert.Equal(t, "report.txt", a.URI)
	assert.NotEmpty(t, a.ReferenceVersion)
	assert.False(t, hasIssue(a, domain.IssueNoIdentity))
}

func TestAnalysisService_ElderlyPatientRaisesScore(t *testing.T) {
	svc := newAnalysisService(t)
	young := analyzeText(t, svc, criticalReport, &domain.PatientContext{Age: intPtr(30)})
	old := analyzeText(t, svc, criticalReport, &domain.PatientContext{Age: intPtr(85)})

	assert.Equal(t, domain.PriorityHigh, old.Priority.Level)
	assert.Greater(t, old.Priority.TotalScore, young.Priority.TotalScore)
	assert.Greater(t, old.Priority.Breakdown.AgeFactorBonus, 0.0)
}

func TestAnalysisService_NormalReport(t *testing.T) {
	svc := newAnalysisService(t)
	a := analyzeText(t, svc, normalReport, nil)

	chol := resultFor(a, "CHOL")
	require.NotNil(t, chol)
	assert.Equal(t, domain.SeverityNormal, chol.Classification.Severity)
	assert.False(t, chol.Classification.IsAbnormal)

	assert.Empty(t, a.CriticalValues)
	assert.Equal(t, domain.PriorityLow, a.Priority.Level)
	assert.Equal(t, 0, a.Summary.AbnormalCount)
	assert.Equal(t, domain.SeverityNormal, a.Summary.HighestSeverity)
	assert.Greater(t, a.OverallConfidence, 0.0)
}

func TestAnalysisService_NoMarkers(t *testing.T) {
	svc := newAnalysisService(t)
	a := analyzeText(t, svc, "Informe sin resultados\nRUT: 12.345.678-5\n", nil)

	assert.Empty(t, a.Results)
	assert.True(t, hasIssue(a, domain.IssueNoMarkers))
	assert.Equal(t, 0.0, a.OverallConfidence)
	assert.Equal(t, domain.PriorityLow, a.Priority.Level)
}

func TestAnalysisService_IdentityIssues(t *testing.T) {
	svc := newAnalysisService(t)

	t.Run("missing", func(t *testing.T) {
		a := analyzeText(t, svc, "GLUCOSA  95  mg/dL  74 - 106\n", nil)
		assert.Nil(t, a.Identity)
		assert.True(t, hasIssue(a, domain.IssueNoIdentity))
		assert.False(t, hasIssue(a, domain.IssueInvalidIdentity))
	})

	t.Run("bad check digit", func(t *testing.T) {
		a := analyzeText(t, svc, "RUT: 12.345.678-9\nGLUCOSA  95  mg/dL  74 - 106\n", nil)
		require.NotNil(t, a.Identity)
		assert.False(t, a.Identity.IsValid)
		assert.True(t, hasIssue(a, domain.IssueInvalidIdentity))
	})

	t.Run("penalty", func(t *testing.T) {
		with := analyzeText(t, svc, "RUT: 12.345.678-5\nGLUCOSA  95  mg/dL  74 - 106\n", nil)
		without := analyzeText(t, svc, "GLUCOSA  95  mg/dL  74 - 106\n", nil)
		require.NotEmpty(t, with.Results)
		require.NotEmpty(t, without.Results)
		assert.InDelta(t, with.OverallConfidence-noIdentityPenalty, without.OverallConfidence, 0.11)
	})
}

func TestAnalysisService_DuplicatesCollapse(t *testing.T) {
	svc := newAnalysisService(t)
	text := "RUT: 12.345.678-5\n" +
		"GLUCOSA  269  mg/dL  74 - 106\n" +
		"Glucosa: 95 mg/dL (VR 70-110)\n"
	a := analyzeText(t, svc, text, nil)

	count := 0
	for i := range a.Results {
		if a.Results[i].MarkerCode == "GLU" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	glu := resultFor(a, "GLU")
	require.NotNil(t, glu)
	assert.InDelta(t, 269, *glu.NumericValue, 0.001)
}

func TestAnalysisService_Deterministic(t *testing.T) {
	svc := newAnalysisService(t)
	a := analyzeText(t, svc, criticalReport, nil)
	b := analyzeText(t, svc, criticalReport, nil)

	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.ID)

	c := analyzeText(t, svc, normalReport, nil)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestAnalysisService_ReviewThreshold(t *testing.T) {
	svc := newAnalysisService(t, WithReviewConfidence(101))
	a := analyzeText(t, svc, criticalReport, nil)

	require.NotEmpty(t, a.Results)
	for i := range a.Results {
		assert.True(t, a.Results[i].NeedsReview)
	}
	assert.True(t, hasIssue(a, domain.IssueLowConfidence))

	lenient := newAnalysisService(t, WithReviewConfidence(0))
	b := analyzeText(t, lenient, criticalReport, nil)
	assert.False(t, hasIssue(b, domain.IssueLowConfidence))
}

func TestAnalysisService_AnalyzeDecoded(t *testing.T) {
	svc := newAnalysisService(t)
	a, err := svc.AnalyzeDecoded(context.Background(), &domain.DecodedDocument{
		URI:      "two-pages",
		FullText: "RUT: 12.345.678-5\n\fGLUCOSA  95  mg/dL  74 - 106\n",
		Pages:    []string{"RUT: 12.345.678-5\n", "GLUCOSA  95  mg/dL  74 - 106\n"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, a.PageCount)
	assert.NotNil(t, resultFor(a, "GLU"))
}

func TestAnalysisService_UrineLeukocyteCountNotCritical(t *testing.T) {
	svc := newAnalysisService(t)
	a := analyzeText(t, svc, "ORINA COMPLETA\nLeucocitos  0 - 2  x campo\n", nil)

	wbc := resultFor(a, "WBC")
	require.NotNil(t, wbc)
	assert.Equal(t, "/campo", wbc.Unit)
	assert.Equal(t, domain.SampleUrine, wbc.SampleType)
	assert.False(t, wbc.Classification.IsCriticalValue)
	assert.Equal(t, domain.SeverityNormal, wbc.Classification.Severity)

	assert.Empty(t, a.CriticalValues)
	assert.Equal(t, 0, a.Summary.CriticalCount)
	assert.Equal(t, domain.PriorityLow, a.Priority.Level)
}

func TestAnalysisService_MultiPageMixedSections(t *testing.T) {
	pages := []string{
		"PACIENTE: ROSA DIAZ  RUT: 12.345.678-5\n" +
			"BIOQUIMICA\n" +
			"GLUCOSA  269  mg/dL  [*]  74 - 106  Enzimatico\n" +
			"CREATININA  0,9  mg/dL  0,7 - 1,3  Jaffe\n",
		"HEMOGRAMA\n" +
			"Hemoglobina  10,5  g/dL  [*]  12 - 16\n" +
			"ORINA COMPLETA\n" +
			"Leucocitos  0 - 2  x campo\n",
	}
	svc := newAnalysisService(t)
	a, err := svc.AnalyzeDecoded(context.Background(), &domain.DecodedDocument{
		URI:      "mixed.pdf",
		FullText: strings.Join(pages, "\f"),
		Pages:    pages,
	}, &domain.PatientContext{Age: intPtr(85)})
	require.NoError(t, err)

	assert.Equal(t, 2, a.PageCount)
	for _, code := range []string{"GLU", "CREA", "HB", "WBC"} {
		require.NotNil(t, resultFor(a, code), code)
	}

	assert.True(t, resultFor(a, "GLU").Classification.IsCriticalValue)
	assert.False(t, resultFor(a, "CREA").Classification.IsAbnormal)
	assert.True(t, resultFor(a, "HB").Classification.IsAbnormal)
	assert.False(t, resultFor(a, "HB").Classification.IsCriticalValue)
	wbc := resultFor(a, "WBC")
	assert.Equal(t, domain.SampleUrine, wbc.SampleType)
	assert.False(t, wbc.Classification.IsAbnormal)

	var critical []string
	for _, cv := range a.CriticalValues {
		critical = append(critical, cv.Marker)
	}
	assert.Equal(t, []string{"GLU"}, critical)
	assert.Equal(t, 2, a.Summary.AbnormalCount)
	assert.Equal(t, 1, a.Summary.CriticalCount)

	assert.Equal(t, domain.PriorityHigh, a.Priority.Level)
	assert.Greater(t, a.Priority.Breakdown.AgeFactorBonus, 0.0)
	assert.Greater(t, a.Priority.Breakdown.CriticalValueBonus, 0.0)
}

func TestAnalysisService_Errors(t *testing.T) {
	svc := newAnalysisService(t)

	t.Run("nil raw", func(t *testing.T) {
		_, err := svc.Analyze(context.Background(), nil, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("nil decoded", func(t *testing.T) {
		_, err := svc.AnalyzeDecoded(context.Background(), nil, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := svc.Analyze(context.Background(), &domain.RawDocument{
			MIMEType: "image/png",
			Content:  []byte{0x89, 'P', 'N', 'G'},
		}, nil)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("decode failure", func(t *testing.T) {
		failing := NewAnalysisService(failingRegistry{}, labtext.New(), svc.refs,
			postprocessors.NewDefaultPipeline(domain.DefaultMinConfidence))
		_, err := failing.Analyze(context.Background(), &domain.RawDocument{MIMEType: "application/pdf"}, nil)
		assert.ErrorIs(t, err, domain.ErrDecodingFailure)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Analyze(ctx, &domain.RawDocument{MIMEType: "text/plain", Content: []byte(criticalReport)}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAnalysisService_LargeReport(t *testing.T) {
	svc := newAnalysisService(t)
	var b strings.Builder
	b.WriteString("RUT: 12.345.678-5\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "Linea de relleno %d sin datos\n", i)
	}
	b.WriteString("Potasio  6,8  mEq/L  3,5 - 5,1\n")

	a := analyzeText(t, svc, b.String(), nil)
	k := resultFor(a, "K")
	require.NotNil(t, k)
	assert.InDelta(t, 6.8, *k.NumericValue, 0.001)
	assert.True(t, k.Classification.IsCriticalValue)
}

type failingRegistry struct{}

func (failingRegistry) Decode(context.Context, *domain.RawDocument) (*domain.DecodedDocument, error) {
	return nil, fmt.Errorf("%w: corrupt xref table", domain.ErrDecodingFailure)
}

func (failingRegistry) Register(driven.DocumentDecoder) {}

func (failingRegistry) SupportedMIMETypes() []string { return nil }
