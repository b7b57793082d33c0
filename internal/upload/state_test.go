package upload

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"
	"testing"

	"github.com/yildizm/ReportLens/internal/report"
)

func smallFile() *report.SelectedFile {
	return &report.SelectedFile{Path: "/tmp/labs.pdf", Name: "labs.pdf", Size: 2048}
}

func medicalAnalysis() *report.Analysis {
	return &report.Analysis{
		IsMedicalReport: true,
		Summary:         "Normal blood panel",
		Classification:  report.Classification{Label: "lab_report", Confidence: 0.93},
		Entities: []report.Entity{
			{Text: "hemoglobin", Label: "TEST", Confidence: 0.99},
		},
		Recommendations: []string{"Repeat in 6 months"},
		Text:            "Hemoglobin 13.2 g/dL",
		Progress:        report.Progress{Status: "Complete", Percent: 100},
	}
}

// uploading returns a state that has an upload in flight
func uploading(t *testing.T) (State, *UploadRequest) {
	t.Helper()
	s, req, notice := New().Select(smallFile()).Submit()
	if notice != nil || req == nil {
		t.Fatalf("Expected upload request, got notice %v", notice)
	}
	return s, req
}

func succeeded(t *testing.T) State {
	t.Helper()
	s, req := uploading(t)
	s, _ = s.UploadCompleted(req.Generation, &report.AnalyzeResponse{Success: true, Analysis: medicalAnalysis()})
	if s.Status != StatusSuccess {
		t.Fatalf("Expected success, got %s", s.Status)
	}
	return s
}

func TestSubmit_NoFile(t *testing.T) {
	initial := New()
	next, req, notice := initial.Submit()

	if req != nil {
		t.Error("Expected no upload request without a file")
	}
	if notice == nil || notice.Kind != KindNoFile {
		t.Fatalf("Expected KindNoFile notice, got %v", notice)
	}
	if notice.Message() != MsgNoFile {
		t.Errorf("Expected prompt %q, got %q", MsgNoFile, notice.Message())
	}
	if !reflect.DeepEqual(initial, next) {
		t.Error("Expected state to be unchanged")
	}
}

func TestSubmit_FileTooLarge(t *testing.T) {
	file := &report.SelectedFile{Name: "scan.pdf", Size: MaxFileSize + 1}
	s, req, notice := New().Select(file).Submit()

	if req != nil {
		t.Fatal("Expected no network request for oversized file")
	}
	if notice != nil {
		t.Errorf("Expected no notice, got %v", notice)
	}
	if s.Status != StatusError {
		t.Errorf("Expected error status, got %s", s.Status)
	}
	if s.ErrorMessage() != "File too large. Please upload a smaller file (max 10MB)." {
		t.Errorf("Unexpected message: %q", s.ErrorMessage())
	}
}

func TestSubmit_ExactlyMaxSizeAllowed(t *testing.T) {
	file := &report.SelectedFile{Name: "scan.pdf", Size: MaxFileSize}
	s, req, _ := New().Select(file).Submit()

	if req == nil {
		t.Fatal("Expected upload request for file at the size limit")
	}
	if s.Status != StatusUploading {
		t.Errorf("Expected uploading, got %s", s.Status)
	}
	if s.Progress.Status != ProgressStarting || s.Progress.Percent != 0 {
		t.Errorf("Unexpected initial progress: %+v", s.Progress)
	}
}

func TestTransferPercent(t *testing.T) {
	tests := []struct {
		loaded, total int64
		expected      float64
	}{
		{0, 100, 0},
		{50, 100, 2.5},
		{100, 100, 5},
		{150, 100, 5},
		{10, 0, 0},
		{-1, 100, 0},
	}

	for _, tt := range tests {
		got := TransferPercent(tt.loaded, tt.total)
		if got != tt.expected {
			t.Errorf("TransferPercent(%d, %d) = %v, want %v", tt.loaded, tt.total, got, tt.expected)
		}
		if got < 0 || got > UploadBandPercent {
			t.Errorf("TransferPercent(%d, %d) = %v out of [0,5]", tt.loaded, tt.total, got)
		}
	}
}

func TestUploadProgress(t *testing.T) {
	s, req := uploading(t)

	s = s.UploadProgress(req.Generation, 25, 100)
	if s.Progress.Status != ProgressUploading || s.Progress.Percent != 1.25 {
		t.Errorf("Unexpected progress: %+v", s.Progress)
	}

	stale := s.UploadProgress(req.Generation-1, 100, 100)
	if stale.Progress.Percent != 1.25 {
		t.Error("Expected stale progress event to be ignored")
	}
}

func TestUploadCompleted_Medical(t *testing.T) {
	s, req := uploading(t)
	analysis := medicalAnalysis()

	s, note := s.UploadCompleted(req.Generation, &report.AnalyzeResponse{Success: true, Analysis: analysis})

	if s.Status != StatusSuccess {
		t.Fatalf("Expected success, got %s", s.Status)
	}
	if s.Analysis != analysis {
		t.Error("Expected analysis to be stored unchanged")
	}
	if s.Progress != analysis.Progress {
		t.Errorf("Expected server progress, got %+v", s.Progress)
	}
	if note == nil {
		t.Fatal("Expected upload notification")
	}
	if note.Name != "labs.pdf" || note.Analysis != analysis {
		t.Errorf("Unexpected notification: %+v", note)
	}

	// a duplicate delivery of the same response must not notify twice
	again, second := s.UploadCompleted(req.Generation+1, &report.AnalyzeResponse{Success: true, Analysis: analysis})
	if second != nil {
		t.Error("Expected no notification for a response of another generation")
	}
	if !reflect.DeepEqual(again, s) {
		t.Error("Expected state unchanged")
	}
}

func TestUploadCompleted_NotMedical(t *testing.T) {
	s, req := uploading(t)

	s, note := s.UploadCompleted(req.Generation, &report.AnalyzeResponse{
		Success:  true,
		Analysis: &report.Analysis{IsMedicalReport: false, Error: "not a report"},
	})

	if note != nil {
		t.Error("Expected no notification for non-medical document")
	}
	if s.Status != StatusError {
		t.Errorf("Expected error status, got %s", s.Status)
	}
	if s.ErrorMessage() != "not a report" {
		t.Errorf("Expected %q, got %q", "not a report", s.ErrorMessage())
	}
	if s.Analysis != nil {
		t.Error("Expected no analysis")
	}
}

func TestUploadCompleted_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		resp     *report.AnalyzeResponse
		expected string
	}{
		{"server message", &report.AnalyzeResponse{Success: false, Error: "PDF is encrypted"}, "PDF is encrypted"},
		{"empty message", &report.AnalyzeResponse{Success: false}, msgRejectedFallback},
		{"missing analysis", &report.AnalyzeResponse{Success: true}, msgMissingAnalysis},
		{"nil response", nil, msgRejectedFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, req := uploading(t)
			s, note := s.UploadCompleted(req.Generation, tt.resp)

			if note != nil {
				t.Error("Expected no notification")
			}
			if s.Status != StatusError || s.Err.Kind != KindRejected {
				t.Errorf("Expected rejected error, got %s / %v", s.Status, s.Err)
			}
			if s.ErrorMessage() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, s.ErrorMessage())
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestUploadFailed(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected string
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout, MsgTimeout},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTimeout, MsgTimeout},
		{"net timeout", timeoutErr{}, KindTimeout, MsgTimeout},
		{"connection refused", errors.New("dial tcp: connection refused"), KindTransport, "dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, req := uploading(t)
			s = s.UploadFailed(req.Generation, tt.err)

			if s.Status != StatusError {
				t.Errorf("Expected error status, got %s", s.Status)
			}
			if s.Err.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, s.Err.Kind)
			}
			if s.ErrorMessage() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, s.ErrorMessage())
			}
			if !errors.Is(s.Err, tt.err) {
				t.Error("Expected cause to be preserved")
			}
		})
	}
}

func TestSelect_ResetsFromError(t *testing.T) {
	s, req := uploading(t)
	s = s.UploadFailed(req.Generation, errors.New("boom"))

	s = s.Select(&report.SelectedFile{Name: "other.pdf", Size: 10})

	if s.Status != StatusIdle {
		t.Errorf("Expected idle, got %s", s.Status)
	}
	if s.Err != nil {
		t.Error("Expected error to be cleared")
	}
	if s.Analysis != nil {
		t.Error("Expected analysis to be cleared")
	}
	if s.File.Name != "other.pdf" {
		t.Errorf("Expected new file, got %s", s.File.Name)
	}
}

func TestSelect_DiscardsStaleResponse(t *testing.T) {
	s, req := uploading(t)
	s = s.Select(&report.SelectedFile{Name: "newer.pdf", Size: 10})

	s, note := s.UploadCompleted(req.Generation, &report.AnalyzeResponse{Success: true, Analysis: medicalAnalysis()})

	if note != nil {
		t.Error("Expected stale response not to notify")
	}
	if s.Status != StatusIdle || s.Analysis != nil {
		t.Errorf("Expected stale response to be ignored, got %s", s.Status)
	}

	s = s.UploadFailed(req.Generation, context.DeadlineExceeded)
	if s.Err != nil {
		t.Error("Expected stale failure to be ignored")
	}
}

func TestAsk_NoAnalysisIsNoop(t *testing.T) {
	s := New().Select(smallFile())

	next, req := s.Ask("what is my hemoglobin?")
	if req != nil {
		t.Error("Expected no chat request without analysis")
	}
	if !reflect.DeepEqual(s, next) {
		t.Error("Expected state unchanged")
	}
}

func TestAsk_BlankQuestionIsNoop(t *testing.T) {
	s := succeeded(t)

	if _, req := s.Ask("   "); req != nil {
		t.Error("Expected no chat request for blank question")
	}
}

func TestAsk_SendsReportText(t *testing.T) {
	s := succeeded(t)

	_, req := s.Ask("Is my hemoglobin normal?")
	if req == nil {
		t.Fatal("Expected chat request")
	}
	if req.Body.Text != "Hemoglobin 13.2 g/dL" {
		t.Errorf("Expected report text, got %q", req.Body.Text)
	}
	if req.Body.Question != "Is my hemoglobin normal?" {
		t.Errorf("Unexpected question %q", req.Body.Question)
	}
}

func TestAnswered(t *testing.T) {
	s := succeeded(t)
	_, req := s.Ask("Is it normal?")

	confidence := 0.87
	s = s.Answered(req.Generation, &report.ChatResult{
		Success:  true,
		Response: &report.ChatResponse{Answer: "X", Confidence: &confidence},
	})

	if s.Chat == nil || s.Chat.Answer != "X" {
		t.Fatalf("Expected answer X, got %+v", s.Chat)
	}
	if report.FormatConfidence(*s.Chat.Confidence) != "87.00%" {
		t.Errorf("Expected 87.00%%, got %s", report.FormatConfidence(*s.Chat.Confidence))
	}

	// a failed follow-up keeps the previous answer
	s = s.Answered(req.Generation, &report.ChatResult{Success: false})
	if s.Chat == nil || s.Chat.Answer != "X" {
		t.Error("Expected previous answer to be kept")
	}
	if s.ErrorMessage() != MsgQuestionFailed {
		t.Errorf("Expected %q, got %q", MsgQuestionFailed, s.ErrorMessage())
	}
	if s.Status != StatusSuccess {
		t.Errorf("Expected status to stay success, got %s", s.Status)
	}
}

func TestAskFailed(t *testing.T) {
	s := succeeded(t)
	_, req := s.Ask("Is it normal?")

	s = s.AskFailed(req.Generation, errors.New("connection reset"))
	if s.ErrorMessage() != MsgQuestionFailed {
		t.Errorf("Expected %q, got %q", MsgQuestionFailed, s.ErrorMessage())
	}
	if s.Analysis == nil {
		t.Error("Expected analysis to be kept")
	}
}

func TestInvariant_AnalysisOnlyOnSuccess(t *testing.T) {
	s := succeeded(t)

	// resubmitting clears the previous analysis until the new response lands
	s, req, _ := s.Submit()
	if s.Analysis != nil || s.Chat != nil {
		t.Error("Expected analysis and chat to be cleared on resubmit")
	}

	s = s.UploadFailed(req.Generation, errors.New("boom"))
	if s.Analysis != nil {
		t.Error("Expected no analysis in error state")
	}
}

func TestFailureIs(t *testing.T) {
	f := newFailure(KindTimeout, "", context.DeadlineExceeded)
	if !errors.Is(f, &Failure{Kind: KindTimeout}) {
		t.Error("Expected failures of the same kind to match")
	}
	if errors.Is(f, &Failure{Kind: KindTransport}) {
		t.Error("Expected failures of different kinds not to match")
	}
}
