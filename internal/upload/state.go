package upload

import (
	"math"
	"strings"

	"github.com/yildizm/ReportLens/internal/report"
)

const (
	// MaxFileSize is the largest file accepted for upload
	MaxFileSize = 10 * 1024 * 1024

	// UploadBandPercent is the share of the progress bar given to the raw transfer;
	// the rest belongs to server-side processing reported in the response
	UploadBandPercent = 5.0
)

// Progress labels set by the client
const (
	ProgressStarting  = "Starting upload"
	ProgressUploading = "Uploading file"
)

// Status drives which regions of the view render
type Status int

const (
	StatusIdle Status = iota
	StatusUploading
	StatusSuccess
	StatusError
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusUploading:
		return "uploading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the complete view state of the upload component. Transitions never
// mutate a State; they return a new value.
//
// Analysis is non-nil only when Status is StatusSuccess.
type State struct {
	Status   Status
	File     *report.SelectedFile
	Progress report.Progress
	Analysis *report.Analysis
	Chat     *report.ChatResponse
	Err      *Failure

	// Generation identifies the current selection/submission. Responses tagged
	// with an older generation are ignored.
	Generation uint64
}

// UploadRequest asks the driver to upload File and report back with Generation
type UploadRequest struct {
	Generation uint64
	File       report.SelectedFile
}

// ChatRequest asks the driver to send a question about the current report
type ChatRequest struct {
	Generation uint64
	Body       report.ChatRequest
}

// Notification is the payload of the onUpload callback
type Notification struct {
	Name     string
	Analysis *report.Analysis
}

// New returns the initial idle state
func New() State {
	return State{Status: StatusIdle}
}

// Select replaces the selected file and returns to idle. An in-flight request
// is not cancelled here but its response will be discarded.
func (s State) Select(file *report.SelectedFile) State {
	return State{
		Status:     StatusIdle,
		File:       file,
		Generation: s.Generation + 1,
	}
}

// Submit validates the selection and starts an upload. When no file is selected
// the state is unchanged and the returned notice should be shown as a prompt.
func (s State) Submit() (next State, req *UploadRequest, notice *Failure) {
	if s.File == nil {
		return s, nil, newFailure(KindNoFile, "", nil)
	}

	if s.File.Size > MaxFileSize {
		next = s
		next.Status = StatusError
		next.Analysis = nil
		next.Chat = nil
		next.Err = newFailure(KindFileTooLarge, "", nil)
		return next, nil, nil
	}

	next = s
	next.Status = StatusUploading
	next.Analysis = nil
	next.Chat = nil
	next.Err = nil
	next.Progress = report.Progress{Status: ProgressStarting, Percent: 0}
	next.Generation = s.Generation + 1

	return next, &UploadRequest{Generation: next.Generation, File: *s.File}, nil
}

// UploadProgress records transfer progress, compressed into the first
// UploadBandPercent of the bar
func (s State) UploadProgress(generation uint64, loaded, total int64) State {
	if generation != s.Generation || s.Status != StatusUploading {
		return s
	}

	s.Progress = report.Progress{
		Status:  ProgressUploading,
		Percent: TransferPercent(loaded, total),
	}
	return s
}

// TransferPercent computes min(loaded/total*5, 5), clamped at zero
func TransferPercent(loaded, total int64) float64 {
	if total <= 0 || loaded <= 0 {
		return 0
	}
	return math.Min(float64(loaded)/float64(total)*UploadBandPercent, UploadBandPercent)
}

// UploadFailed handles a transport-level failure of the upload call
func (s State) UploadFailed(generation uint64, err error) State {
	if generation != s.Generation {
		return s
	}

	if IsTimeout(err) {
		return s.fail(newFailure(KindTimeout, "", err))
	}

	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return s.fail(newFailure(KindTransport, detail, err))
}

// UploadCompleted applies the service response. A notification is returned
// only when the document was accepted as a medical report.
func (s State) UploadCompleted(generation uint64, resp *report.AnalyzeResponse) (State, *Notification) {
	if generation != s.Generation {
		return s, nil
	}

	if resp == nil || !resp.Success {
		detail := msgRejectedFallback
		if resp != nil && resp.Error != "" {
			detail = resp.Error
		}
		return s.fail(newFailure(KindRejected, detail, nil)), nil
	}

	if resp.Analysis == nil {
		return s.fail(newFailure(KindRejected, msgMissingAnalysis, nil)), nil
	}

	if !resp.Analysis.IsMedicalReport {
		return s.fail(newFailure(KindNotMedical, resp.Analysis.Error, nil)), nil
	}

	s.Status = StatusSuccess
	s.Analysis = resp.Analysis
	s.Progress = resp.Analysis.Progress
	s.Err = nil

	name := ""
	if s.File != nil {
		name = s.File.Name
	}
	return s, &Notification{Name: name, Analysis: resp.Analysis}
}

// Ask builds a question request. Blank questions and a missing analysis are no-ops.
func (s State) Ask(question string) (State, *ChatRequest) {
	if strings.TrimSpace(question) == "" || s.Analysis == nil {
		return s, nil
	}

	return s, &ChatRequest{
		Generation: s.Generation,
		Body: report.ChatRequest{
			Text:     s.Analysis.Text,
			Question: question,
		},
	}
}

// Answered applies a chat response. On failure the previous answer is kept.
func (s State) Answered(generation uint64, resp *report.ChatResult) State {
	if generation != s.Generation {
		return s
	}

	if resp == nil || !resp.Success || resp.Response == nil {
		detail := ""
		if resp != nil {
			detail = resp.Error
		}
		s.Err = newFailure(KindQuestionFailed, detail, nil)
		return s
	}

	s.Chat = resp.Response
	return s
}

// AskFailed handles a transport-level failure of the chat call
func (s State) AskFailed(generation uint64, err error) State {
	if generation != s.Generation {
		return s
	}

	s.Err = newFailure(KindQuestionFailed, "", err)
	return s
}

// ErrorMessage returns the current error text, or "" when there is none
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Message()
}

// CanSubmit reports whether the submit action is enabled
func (s State) CanSubmit() bool {
	return s.File != nil
}

// CanAsk reports whether the question box is shown
func (s State) CanAsk() bool {
	return s.Analysis != nil
}

func (s State) fail(f *Failure) State {
	s.Status = StatusError
	s.Analysis = nil
	s.Chat = nil
	s.Err = f
	return s
}
