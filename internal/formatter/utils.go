package formatter

import (
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/go-termfmt"
)

// createConfidenceBar creates ASCII confidence bar using go-termfmt
func createConfidenceBar(confidence float64) string {
	opts := termfmt.DefaultOptions()
	opts.Color = false
	return termfmt.CreateConfidenceBar(confidence, opts)
}

// entityLine renders "text (label) - Confidence: NN.NN%"
func entityLine(e report.Entity) string {
	return e.Text + " (" + e.Label + ") - Confidence: " + report.FormatConfidence(e.Confidence)
}

func analysisOf(result *Result) *report.Analysis {
	if result == nil || result.Report.Analysis == nil {
		return &report.Analysis{}
	}
	return result.Report.Analysis
}
