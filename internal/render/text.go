package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/cv-matcher/internal/matching"
)

const (
	colorAccent = "#58a6ff"
	colorMuted  = "#8b949e"
	colorFailed = "#f85149"
)

const summaryDisabled = "(fit summaries disabled)"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent))
	scoreStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Italic(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorFailed))
	summaryStyle = lipgloss.NewStyle().PaddingLeft(3)
)

func writeText(w io.Writer, r *matching.Ranking) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Top %d of %d candidates", r.Len(), r.Considered)))
	b.WriteString("\n\n")

	for _, res := range r.Results {
		fmt.Fprintf(&b, "%d. %s  %s\n", res.Rank, res.ID, scoreStyle.Render(fmt.Sprintf("%.4f", res.Score)))

		var summary string
		switch {
		case res.Summary.Err != nil:
			summary = failedStyle.Render(res.Summary.String())
		case res.Summary.Empty():
			summary = mutedStyle.Render(summaryDisabled)
		default:
			summary = res.Summary.String()
		}
		b.WriteString(summaryStyle.Render(summary))
		b.WriteString("\n\n")
	}

	if len(r.Excluded) > 0 {
		b.WriteString(mutedStyle.Render("Excluded (no text): " + strings.Join(r.Excluded, ", ")))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
