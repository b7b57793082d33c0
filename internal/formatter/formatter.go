package formatter

import (
	"strings"

	"github.com/yildizm/ReportLens/internal/report"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(result *Result) ([]byte, error)
}

// Result is everything `reportlens analyze` learned about one report
type Result struct {
	Report  report.UploadedReport
	Answers []Answer
}

// Answer pairs a question with its outcome. Exactly one of Response and Error is set.
type Answer struct {
	Question string
	Response *report.ChatResponse
	Error    string
}

// Get returns the formatter registered for format, falling back to terminal output
func Get(format string, color bool) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return NewJSON()
	case "markdown", "md":
		return NewMarkdown()
	case "csv":
		return NewCSV()
	default:
		return NewTerminal(color)
	}
}
