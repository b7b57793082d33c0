package upload

import (
	"context"
	"errors"
)

// Kind enumerates every failure the upload and question flows can surface
type Kind int

const (
	// KindNoFile is the prompt shown when submitting without a selection
	KindNoFile Kind = iota + 1

	// KindFileTooLarge rejects files above MaxFileSize before any request is made
	KindFileTooLarge

	// KindTimeout reports an upload that hit the client timeout
	KindTimeout

	// KindTransport passes through any other transport failure
	KindTransport

	// KindRejected carries the server's top-level error message
	KindRejected

	// KindNotMedical carries the server's reason for rejecting a non-medical document
	KindNotMedical

	// KindQuestionFailed collapses every question-flow failure
	KindQuestionFailed
)

// Fixed display texts
const (
	MsgNoFile         = "Please select a file to upload."
	MsgFileTooLarge   = "File too large. Please upload a smaller file (max 10MB)."
	MsgTimeout        = "Request timed out. The file might be too large or the server is busy."
	MsgQuestionFailed = "Failed to process question"

	// used when the server rejects without saying why
	msgRejectedFallback = "Report analysis failed"
	msgMissingAnalysis  = "Server response did not include an analysis"
)

// String returns the kind name used in log fields
func (k Kind) String() string {
	switch k {
	case KindNoFile:
		return "no_file"
	case KindFileTooLarge:
		return "file_too_large"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindNotMedical:
		return "not_medical"
	case KindQuestionFailed:
		return "question_failed"
	default:
		return "unknown"
	}
}

// Failure is the single current error slot of the view state
type Failure struct {
	Kind Kind

	// Detail holds the server- or transport-supplied text for kinds without fixed text
	Detail string

	// Cause is kept for diagnostics only; it never changes the display text
	Cause error
}

// Message returns the text shown to the user
func (f *Failure) Message() string {
	switch f.Kind {
	case KindNoFile:
		return MsgNoFile
	case KindFileTooLarge:
		return MsgFileTooLarge
	case KindTimeout:
		return MsgTimeout
	case KindQuestionFailed:
		return MsgQuestionFailed
	default:
		return f.Detail
	}
}

// Error implements the error interface
func (f *Failure) Error() string {
	return f.Message()
}

// Unwrap returns the underlying cause
func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is matches failures of the same kind
func (f *Failure) Is(target error) bool {
	if t, ok := target.(*Failure); ok {
		return f.Kind == t.Kind
	}
	return false
}

// IsTimeout reports whether err is a client-side timeout
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}

func newFailure(kind Kind, detail string, cause error) *Failure {
	return &Failure{Kind: kind, Detail: detail, Cause: cause}
}
