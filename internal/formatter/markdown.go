package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/ReportLens/internal/report"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct {
	now func() time.Time
}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{now: time.Now}
}

func (f *markdownFormatter) Format(result *Result) ([]byte, error) {
	var b strings.Builder
	analysis := analysisOf(result)

	fmt.Fprintf(&b, "# Health Report: %s\n\n", result.Report.Name)
	fmt.Fprintf(&b, "Generated: %s\n\n", f.now().Format("2006-01-02 15:04:05"))

	if analysis.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(analysis.Summary + "\n\n")
	}

	f.writeClassification(&b, analysis.Classification)

	if len(analysis.Entities) > 0 {
		f.writeEntities(&b, analysis.Entities)
	}
	if len(analysis.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for i, rec := range analysis.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
		b.WriteString("\n")
	}
	if len(result.Answers) > 0 {
		f.writeAnswers(&b, result.Answers)
	}

	b.WriteString("---\n")
	b.WriteString("*Report generated by ReportLens*\n")

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeClassification(b *strings.Builder, c report.Classification) {
	b.WriteString("## Classification\n\n")
	b.WriteString("| Type | Confidence |\n")
	b.WriteString("|------|------------|\n")
	fmt.Fprintf(b, "| %s | %s %s |\n\n", escapeCell(c.Label), createConfidenceBar(c.Confidence), report.FormatConfidence(c.Confidence))
}

func (f *markdownFormatter) writeEntities(b *strings.Builder, entities []report.Entity) {
	b.WriteString("## Detected Entities\n\n")
	b.WriteString("| # | Entity | Label | Confidence |\n")
	b.WriteString("|---|--------|-------|------------|\n")
	for i, e := range entities {
		fmt.Fprintf(b, "| %d | %s | %s | %s |\n", i+1, escapeCell(e.Text), escapeCell(e.Label), report.FormatConfidence(e.Confidence))
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeAnswers(b *strings.Builder, answers []Answer) {
	b.WriteString("## Questions\n\n")
	for _, a := range answers {
		fmt.Fprintf(b, "### %s\n\n", a.Question)
		if a.Error != "" {
			fmt.Fprintf(b, "**Error**: %s\n\n", a.Error)
			continue
		}
		if a.Response == nil {
			continue
		}
		b.WriteString(a.Response.Answer + "\n\n")
		if a.Response.Confidence != nil {
			fmt.Fprintf(b, "**Confidence**: %s\n\n", report.FormatConfidence(*a.Response.Confidence))
		}
		if a.Response.RelevantText != "" {
			b.WriteString("**Relevant Section**:\n\n")
			b.WriteString("> " + strings.ReplaceAll(a.Response.RelevantText, "\n", "\n> ") + "\n\n")
		}
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
