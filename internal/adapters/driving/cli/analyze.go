package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyse one lab report",
	Long: `Extract the results of a lab report, classify each one against its
reference range and the critical thresholds, and print the triage priority.

Reads PDF or plain text. Use "-" to read from stdin.

Examples:
  labtriage analyze informe.pdf
  labtriage analyze --age 72 --sex F informe.pdf
  labtriage analyze --json informe.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	addPatientFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "print the analysis as JSON")
	analyzeCmd.Flags().String("mime", "", "MIME type of the input (sniffed when empty)")
	rootCmd.AddCommand(analyzeCmd)
}

func addPatientFlags(cmd *cobra.Command) {
	cmd.Flags().Int("age", -1, "patient age in years")
	cmd.Flags().String("sex", "", "patient sex (M/F)")
}

func patientFromFlags(cmd *cobra.Command) (*domain.PatientContext, error) {
	age, err := cmd.Flags().GetInt("age")
	if err != nil {
		return nil, err
	}
	sexText, err := cmd.Flags().GetString("sex")
	if err != nil {
		return nil, err
	}
	if age < 0 && sexText == "" {
		return nil, nil
	}

	p := &domain.PatientContext{Sex: domain.ParseSex(sexText)}
	if sexText != "" && p.Sex == domain.SexUnknown {
		return nil, fmt.Errorf("%w: sex %q", domain.ErrInvalidInput, sexText)
	}
	if age >= 0 {
		p.Age = &age
	}
	return p, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	analysis, err := requireAnalysis()
	if err != nil {
		return err
	}
	patient, err := patientFromFlags(cmd)
	if err != nil {
		return err
	}
	mimeType, err := cmd.Flags().GetString("mime")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	raw, err := readReport(cmd.InOrStdin(), args[0], mimeType)
	if err != nil {
		return err
	}

	a, err := analysis.Analyze(cmd.Context(), raw, patient)
	if err != nil {
		return fmt.Errorf("analysing %s: %w", args[0], err)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), a)
	}
	renderAnalysis(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), a)
	return nil
}

// readReport reads path, or stdin for "-".
func readReport(stdin io.Reader, path, mimeType string) (*domain.RawDocument, error) {
	var (
		content []byte
		err     error
	)
	switch {
	case path == "-" && stdin == nil:
		return nil, fmt.Errorf("%w: stdin is not available here", domain.ErrInvalidInput)
	case path == "-":
		content, err = io.ReadAll(stdin)
	default:
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if mimeType == "" {
		mimeType = mimeFromExt(path)
	}
	return &domain.RawDocument{URI: path, MIMEType: mimeType, Content: content}, nil
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".txt", ".text":
		return "text/plain"
	default:
		return ""
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderAnalysis prints the human-readable triage report.
func renderAnalysis(w io.Writer, st *Styles, a *domain.Analysis) {
	fmt.Fprintln(w, st.Title.Render("Lab report "+a.URI))

	rut := "not found"
	if a.Identity != nil {
		rut = a.Identity.FormattedValue
		if !a.Identity.IsValid {
			rut += " (invalid check digit)"
		}
	}
	fmt.Fprintf(w, "RUT:        %s\n", rut)
	fmt.Fprintf(w, "Pages:      %d\n", a.PageCount)
	fmt.Fprintf(w, "Priority:   %s  %s\n",
		st.Priority(a.Priority.Level, string(a.Priority.Level)),
		st.Muted.Render(fmt.Sprintf("score %.1f", a.Priority.TotalScore)))
	fmt.Fprintf(w, "Action:     %s\n", a.Summary.RecommendedAction)
	fmt.Fprintf(w, "Confidence: %.1f\n", a.OverallConfidence)
	fmt.Fprintln(w)

	if len(a.CriticalValues) > 0 {
		var alerts []string
		for _, cv := range a.CriticalValues {
			alerts = append(alerts, st.Alert.Render(cv.AlertText))
		}
		fmt.Fprintln(w, st.Box.Render(strings.Join(alerts, "\n")))
		fmt.Fprintln(w)
	}

	if len(a.Results) > 0 {
		fmt.Fprintln(w, st.Header.Render("Results"))
		for i := range a.Results {
			renderResult(w, st, &a.Results[i])
		}
		fmt.Fprintln(w)
	}

	for _, is := range a.Issues {
		fmt.Fprintf(w, "%s %s\n", st.Muted.Render("!"), is.Detail)
	}
	fmt.Fprintln(w, st.Muted.Render("reference data "+a.ReferenceVersion+", id "+a.ID))
}

func renderResult(w io.Writer, st *Styles, r *domain.AssessedResult) {
	value := r.RawValue
	if r.Unit != "" {
		value += " " + r.Unit
	}
	sev := fmt.Sprintf("%-8s", r.Classification.Severity)
	line := fmt.Sprintf("  %-7s %-28s %-20s %s", r.MarkerCode, truncate(r.ExamName, 28), value, st.Severity(r.Classification.Severity, sev))
	if r.ReferenceRangeText != "" {
		line += " " + st.Muted.Render("ref "+r.ReferenceRangeText)
	}
	if r.NeedsReview {
		line += " " + st.Muted.Render(fmt.Sprintf("[review %.0f%%]", r.Confidence))
	}
	fmt.Fprintln(w, line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
