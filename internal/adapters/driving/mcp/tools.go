package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// AnalyzeInput is the input schema for the analyze_lab_report tool.
type AnalyzeInput struct {
	Text          string `json:"text,omitempty" jsonschema:"plain text of the lab report"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64 encoded report bytes, e.g. a PDF"`
	MIMEType      string `json:"mime_type,omitempty" jsonschema:"MIME type of content_base64; sniffed when empty"`
	Name          string `json:"name,omitempty" jsonschema:"file name or other label for the report"`
	Age           *int   `json:"age,omitempty" jsonschema:"patient age in years"`
	Sex           string `json:"sex,omitempty" jsonschema:"patient sex: male or female"`
}

// AnalyzeOutput is the output schema for the analyze_lab_report tool.
type AnalyzeOutput struct {
	ID                string         `json:"id"`
	RUT               string         `json:"rut,omitempty"`
	RUTValid          bool           `json:"rut_valid"`
	PriorityLevel     string         `json:"priority_level"`
	PriorityScore     float64        `json:"priority_score"`
	RecommendedAction string         `json:"recommended_action"`
	OverallConfidence float64        `json:"overall_confidence"`
	CriticalAlerts    []string       `json:"critical_alerts,omitempty"`
	Results           []ResultOutput `json:"results"`
	Issues            []string       `json:"issues,omitempty"`
	ReferenceVersion  string         `json:"reference_version"`
}

// ResultOutput is one assessed lab result.
type ResultOutput struct {
	Marker      string   `json:"marker"`
	ExamName    string   `json:"exam_name"`
	Value       string   `json:"value"`
	Numeric     *float64 `json:"numeric,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	Severity    string   `json:"severity"`
	Direction   string   `json:"direction,omitempty"`
	Critical    bool     `json:"critical"`
	Confidence  float64  `json:"confidence"`
	NeedsReview bool     `json:"needs_review"`
}

// LookupInput is the input schema for the lookup_marker tool.
type LookupInput struct {
	Query string `json:"query" jsonschema:"marker code (GLU) or report name (Glicemia)"`
}

// LookupOutput is the output schema for the lookup_marker tool.
type LookupOutput struct {
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	Category   string       `json:"category"`
	Unit       string       `json:"unit"`
	Kind       string       `json:"kind"`
	Weight     float64      `json:"weight"`
	Aliases    []string     `json:"aliases"`
	Thresholds []LookupBand `json:"thresholds,omitempty"`
}

// LookupBand is one critical threshold of a marker.
type LookupBand struct {
	Unit    string   `json:"unit"`
	High    *float64 `json:"high,omitempty"`
	Low     *float64 `json:"low,omitempty"`
	Urgency string   `json:"urgency"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_lab_report",
		Description: "Extract results from a Chilean lab report and triage it by clinical priority",
	}, s.handleAnalyze)

	if s.ports.Reference != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "lookup_marker",
			Description: "Look up a lab marker by code or report name, with its critical thresholds",
		}, s.handleLookup)
	}
}

// handleAnalyze handles the analyze_lab_report tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("rate limit: %w", err)
	}

	raw, err := rawFromInput(input)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	var patient *domain.PatientContext
	if input.Age != nil || input.Sex != "" {
		patient = &domain.PatientContext{Age: input.Age, Sex: domain.ParseSex(input.Sex)}
	}

	a, err := s.ports.Analysis.Analyze(ctx, raw, patient)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	return nil, toAnalyzeOutput(a), nil
}

// handleLookup handles the lookup_marker tool invocation.
func (s *Server) handleLookup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LookupInput,
) (*mcp.CallToolResult, LookupOutput, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, LookupOutput{}, fmt.Errorf("rate limit: %w", err)
	}

	query := strings.TrimSpace(input.Query)
	m, err := s.ports.Reference.Marker(strings.ToUpper(query))
	if err != nil {
		m, err = s.ports.Reference.LookupAlias(query)
	}
	if err != nil {
		return nil, LookupOutput{}, err
	}

	out := LookupOutput{
		Code:     m.Code,
		Name:     m.Name,
		Category: m.Category,
		Unit:     m.ExpectedUnit,
		Kind:     string(m.Kind),
		Weight:   m.Weight,
		Aliases:  m.Aliases,
	}
	for _, th := range s.ports.Reference.Thresholds() {
		if th.MarkerCode != m.Code {
			continue
		}
		out.Thresholds = append(out.Thresholds, LookupBand{
			Unit:    th.Unit,
			High:    th.High,
			Low:     th.Low,
			Urgency: string(th.Urgency),
		})
	}
	return nil, out, nil
}

func rawFromInput(input AnalyzeInput) (*domain.RawDocument, error) {
	name := input.Name
	if name == "" {
		name = "mcp"
	}

	switch {
	case input.ContentBase64 != "":
		content, err := base64.StdEncoding.DecodeString(input.ContentBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: content_base64: %v", domain.ErrInvalidInput, err)
		}
		return &domain.RawDocument{URI: name, MIMEType: input.MIMEType, Content: content}, nil
	case strings.TrimSpace(input.Text) != "":
		return &domain.RawDocument{URI: name, MIMEType: "text/plain", Content: []byte(input.Text)}, nil
	default:
		return nil, ErrEmptyReport
	}
}

func toAnalyzeOutput(a *domain.Analysis) AnalyzeOutput {
	out := AnalyzeOutput{
		ID:                a.ID,
		PriorityLevel:     string(a.Priority.Level),
		PriorityScore:     a.Priority.TotalScore,
		RecommendedAction: a.Summary.RecommendedAction,
		OverallConfidence: a.OverallConfidence,
		Results:           make([]ResultOutput, 0, len(a.Results)),
		ReferenceVersion:  a.ReferenceVersion,
	}
	if a.Identity != nil {
		out.RUT = a.Identity.FormattedValue
		out.RUTValid = a.Identity.IsValid
	}
	for _, cv := range a.CriticalValues {
		out.CriticalAlerts = append(out.CriticalAlerts, cv.AlertText)
	}
	for i := range a.Results {
		r := &a.Results[i]
		out.Results = append(out.Results, ResultOutput{
			Marker:      r.MarkerCode,
			ExamName:    r.ExamName,
			Value:       r.RawValue,
			Numeric:     r.NumericValue,
			Unit:        r.Unit,
			Reference:   r.ReferenceRangeText,
			Severity:    string(r.Classification.Severity),
			Direction:   string(r.Classification.Direction),
			Critical:    r.Classification.IsCriticalValue,
			Confidence:  r.Confidence,
			NeedsReview: r.NeedsReview,
		})
	}
	for _, is := range a.Issues {
		out.Issues = append(out.Issues, fmt.Sprintf("%s: %s", is.Kind, is.Detail))
	}
	return out
}
