package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/go-termfmt"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = true
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(result *Result) ([]byte, error) {
	var b strings.Builder
	analysis := analysisOf(result)

	f.writeHeader(&b, result.Report.Name)
	f.writeSummary(&b, analysis)
	f.writeClassification(&b, analysis.Classification)

	if len(analysis.Entities) > 0 {
		f.writeEntities(&b, analysis.Entities)
	}
	if len(analysis.Recommendations) > 0 {
		f.writeRecommendations(&b, analysis.Recommendations)
	}
	if len(result.Answers) > 0 {
		f.writeAnswers(&b, result.Answers)
	}

	return []byte(b.String()), nil
}

// writeHeader writes the report name in a box
func (f *terminalFormatter) writeHeader(b *strings.Builder, name string) {
	header := "Health Report: " + name
	width := len([]rune(header))

	b.WriteString("╔" + strings.Repeat("═", width+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", width+2) + "╝\n\n")
}

func (f *terminalFormatter) writeSummary(b *strings.Builder, analysis *report.Analysis) {
	if analysis.Summary == "" {
		return
	}
	b.WriteString(termfmt.GetEmoji("summary", f.opts) + " Summary\n")
	b.WriteString(analysis.Summary + "\n\n")
}

func (f *terminalFormatter) writeClassification(b *strings.Builder, c report.Classification) {
	b.WriteString(termfmt.GetEmoji("statistics", f.opts) + " Classification\n")

	items := []termfmt.TreeItem{
		{Label: "Type", Value: c.Label},
		{Label: "Confidence", Value: termfmt.CreateConfidenceBar(c.Confidence, f.opts) + " " + report.FormatConfidence(c.Confidence), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeEntities keeps the service's order
func (f *terminalFormatter) writeEntities(b *strings.Builder, entities []report.Entity) {
	b.WriteString(termfmt.GetEmoji("insights", f.opts) + " Detected Entities\n")

	items := make([]termfmt.TreeItem, 0, len(entities))
	for i, e := range entities {
		items = append(items, termfmt.TreeItem{
			Label: entityLine(e),
			Last:  i == len(entities)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

func (f *terminalFormatter) writeRecommendations(b *strings.Builder, recommendations []string) {
	b.WriteString(termfmt.GetEmoji("recommendations", f.opts) + " Recommendations\n")
	for _, rec := range recommendations {
		b.WriteString("• " + rec + "\n")
	}
	b.WriteString("\n")
}

func (f *terminalFormatter) writeAnswers(b *strings.Builder, answers []Answer) {
	b.WriteString(termfmt.GetEmoji("ai", f.opts) + " Questions\n")

	items := make([]termfmt.TreeItem, 0, len(answers))
	for i, a := range answers {
		item := termfmt.TreeItem{Label: a.Question, Last: i == len(answers)-1}
		switch {
		case a.Error != "":
			item.Children = []termfmt.TreeItem{{Label: "Error", Value: a.Error, Last: true}}
		case a.Response != nil:
			item.Children = answerItems(a.Response)
		}
		items = append(items, item)
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
}

func answerItems(resp *report.ChatResponse) []termfmt.TreeItem {
	children := []termfmt.TreeItem{{Label: "Answer", Value: resp.Answer}}
	if resp.Confidence != nil {
		children = append(children, termfmt.TreeItem{Label: "Confidence", Value: report.FormatConfidence(*resp.Confidence)})
	}
	if resp.RelevantText != "" {
		children = append(children, termfmt.TreeItem{Label: "Relevant Section", Value: fmt.Sprintf("%q", resp.RelevantText)})
	}
	children[len(children)-1].Last = true
	return children
}
