package report

import (
	"fmt"
	"time"
)

// Classification is the document-level label assigned by the analysis service
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Entity is a medically relevant term extracted from the report text
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Progress describes the current processing stage
type Progress struct {
	Status  string  `json:"status"`
	Percent float64 `json:"percent"`
}

// Analysis is the structured result of server-side report processing
type Analysis struct {
	IsMedicalReport bool           `json:"is_medical_report"`
	Error           string         `json:"error,omitempty"`
	Summary         string         `json:"summary"`
	Classification  Classification `json:"classification"`
	Entities        []Entity       `json:"entities"`
	Recommendations []string       `json:"recommendations"`
	Text            string         `json:"text"`
	Progress        Progress       `json:"progress"`
}

// AnalyzeResponse is the body returned by the analyze-report endpoint
type AnalyzeResponse struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

// ChatRequest is the body sent to the chat-with-report endpoint
type ChatRequest struct {
	Text     string `json:"text"`
	Question string `json:"question"`
}

// ChatResponse is a single answer to a question about the report.
// Confidence is nil when the service did not score the answer.
type ChatResponse struct {
	Answer       string   `json:"answer"`
	Confidence   *float64 `json:"confidence,omitempty"`
	RelevantText string   `json:"relevant_text,omitempty"`
}

// ChatResult is the body returned by the chat-with-report endpoint
type ChatResult struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Response *ChatResponse `json:"response,omitempty"`
}

// UploadedReport is what the containing view receives after a successful upload
type UploadedReport struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Analysis   *Analysis `json:"analysis"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// FormatConfidence renders a 0-1 confidence score as a percentage with two decimals
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}
