package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/blendgen/core"
)

var (
	faint      = lipgloss.NewStyle().Faint(true)
	checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202"))
)

// renderMarkdown formats md for the terminal, falling back to the raw text.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func renderCode(code string) string {
	return renderMarkdown("```python\n" + strings.TrimRight(code, "\n") + "\n```")
}

// renderRecommendation shows the recognized labels as a table.
func renderRecommendation(rec *core.Recommendation) string {
	if rec == nil || rec.Len() == 0 {
		return faint.Render("The model did not return any recognizable recommendations.")
	}
	var b strings.Builder
	b.WriteString("| Setting | Recommendation |\n|---|---|\n")
	for _, label := range core.Labels {
		var v string
		switch label {
		case core.LabelMetallic:
			if rec.Metallic == nil {
				continue
			}
			v = strconv.FormatFloat(*rec.Metallic, 'g', -1, 64)
		case core.LabelSpecialEffects:
			if rec.SpecialEffects == nil {
				continue
			}
			v = strings.Join(rec.SpecialEffects, ", ")
		default:
			var ok bool
			if v, ok = rec.Get(label); !ok {
				continue
			}
		}
		fmt.Fprintf(&b, "| %s | %s |\n", label, strings.ReplaceAll(v, "|", "\\|"))
	}
	return renderMarkdown(b.String())
}
