package formatter

import (
	"encoding/json"
	"time"

	"github.com/yildizm/ReportLens/internal/report"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(result *Result) ([]byte, error) {
	analysis := analysisOf(result)

	output := &JSONOutput{
		ID:              result.Report.ID,
		Name:            result.Report.Name,
		UploadedAt:      result.Report.UploadedAt,
		Summary:         analysis.Summary,
		Classification:  analysis.Classification,
		Entities:        analysis.Entities,
		Recommendations: analysis.Recommendations,
		Answers:         createAnswerOutputs(result.Answers),
	}
	if output.Entities == nil {
		output.Entities = []report.Entity{}
	}
	if output.Recommendations == nil {
		output.Recommendations = []string{}
	}

	return json.MarshalIndent(output, "", "  ")
}

// JSONOutput is the machine-readable shape of one analysed report
type JSONOutput struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	UploadedAt      time.Time             `json:"uploaded_at"`
	Summary         string                `json:"summary"`
	Classification  report.Classification `json:"classification"`
	Entities        []report.Entity       `json:"entities"`
	Recommendations []string              `json:"recommendations"`
	Answers         []*AnswerOutput       `json:"answers,omitempty"`
}

// AnswerOutput represents one question and its outcome
type AnswerOutput struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	RelevantText string   `json:"relevant_text,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func createAnswerOutputs(answers []Answer) []*AnswerOutput {
	if len(answers) == 0 {
		return nil
	}

	outputs := make([]*AnswerOutput, 0, len(answers))
	for _, a := range answers {
		output := &AnswerOutput{Question: a.Question, Error: a.Error}
		if a.Response != nil {
			output.Answer = a.Response.Answer
			output.Confidence = a.Response.Confidence
			output.RelevantText = a.Response.RelevantText
		}
		outputs = append(outputs, output)
	}
	return outputs
}
