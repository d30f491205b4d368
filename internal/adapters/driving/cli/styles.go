package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/labtriage/internal/core/domain"
)

// Theme defines the colour palette of the triage report.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Normal marks results inside their range.
	Normal lipgloss.Color

	// Mild, Moderate and Severe colour abnormal results.
	Mild     lipgloss.Color
	Moderate lipgloss.Color
	Severe   lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:  lipgloss.Color("#7C3AED"), // Purple
		Muted:    lipgloss.Color("#6C7086"), // Medium gray
		Normal:   lipgloss.Color("#A6E3A1"), // Green
		Mild:     lipgloss.Color("#F9E2AF"), // Yellow
		Moderate: lipgloss.Color("#FAB387"), // Orange
		Severe:   lipgloss.Color("#F38BA8"), // Red
		Border:   lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles for report output.
type Styles struct {
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Header   lipgloss.Style
	Alert    lipgloss.Style
	Box      lipgloss.Style
	severity map[domain.Severity]lipgloss.Style
	priority map[domain.PriorityLevel]lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme yields unstyled
// output for pipes and files.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		plain := lipgloss.NewStyle()
		return &Styles{
			Title:    plain,
			Muted:    plain,
			Header:   plain,
			Alert:    plain,
			Box:      plain,
			severity: map[domain.Severity]lipgloss.Style{},
			priority: map[domain.PriorityLevel]lipgloss.Style{},
		}
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Header: lipgloss.NewStyle().
			Bold(true).
			Underline(true),

		Alert: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Severe),

		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		severity: map[domain.Severity]lipgloss.Style{
			domain.SeverityNormal:   lipgloss.NewStyle().Foreground(theme.Normal),
			domain.SeverityMild:     lipgloss.NewStyle().Foreground(theme.Mild),
			domain.SeverityModerate: lipgloss.NewStyle().Foreground(theme.Moderate),
			domain.SeveritySevere:   lipgloss.NewStyle().Bold(true).Foreground(theme.Severe),
		},
		priority: map[domain.PriorityLevel]lipgloss.Style{
			domain.PriorityLow:    lipgloss.NewStyle().Bold(true).Foreground(theme.Normal),
			domain.PriorityMedium: lipgloss.NewStyle().Bold(true).Foreground(theme.Moderate),
			domain.PriorityHigh:   lipgloss.NewStyle().Bold(true).Foreground(theme.Severe),
		},
	}
}

// Severity renders text in the colour of sev.
func (s *Styles) Severity(sev domain.Severity, text string) string {
	if st, ok := s.severity[sev]; ok {
		return st.Render(text)
	}
	return text
}

// Priority renders text in the colour of level.
func (s *Styles) Priority(level domain.PriorityLevel, text string) string {
	if st, ok := s.priority[level]; ok {
		return st.Render(text)
	}
	return text
}

// stylesFor returns coloured styles when w is a terminal.
func stylesFor(w io.Writer) *Styles {
	if isTerminal(w) {
		return NewStyles(DefaultTheme())
	}
	return NewStyles(nil)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
