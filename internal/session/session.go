// Package session drives the upload state machine synchronously against the
// analysis service. The CLI commands use it; the TUI drives the same state
// machine through bubbletea messages instead.
package session

import (
	"context"
	"sync"

	"github.com/yildizm/ReportLens/internal/client"
	"github.com/yildizm/ReportLens/internal/logger"
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/ReportLens/internal/upload"
)

// Service is the part of the analysis client a session needs
type Service interface {
	AnalyzeReport(ctx context.Context, file *report.SelectedFile, onProgress client.ProgressFunc) (*report.AnalyzeResponse, error)
	AskQuestion(ctx context.Context, chat report.ChatRequest) (*report.ChatResult, error)
}

// UploadHandler receives every accepted medical report exactly once
type UploadHandler func(upload.Notification)

// ProgressHandler receives progress snapshots while uploading
type ProgressHandler func(report.Progress)

// Session owns one upload state and serializes transitions on it
type Session struct {
	mu       sync.Mutex
	state    upload.State
	service  Service
	onUpload UploadHandler
	log      *logger.Logger
}

// New creates a session in the idle state
func New(service Service, onUpload UploadHandler, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		state:    upload.New(),
		service:  service,
		onUpload: onUpload,
		log:      log.WithComponent("session"),
	}
}

// State returns a snapshot of the current state
func (s *Session) State() upload.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select replaces the selected file
func (s *Session) Select(file *report.SelectedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Select(file)
	s.log.Debug("selected %s (%s)", file.Name, file.HumanSize())
}

// SelectPath opens path and selects it
func (s *Session) SelectPath(path string) error {
	file, err := report.OpenSelectedFile(path)
	if err != nil {
		s.log.Warn("cannot select %s: %v", path, err)
		return err
	}
	s.Select(file)
	return nil
}

// Upload submits the selected file and blocks until the service answers.
// The returned error is the *upload.Failure shown to the user, if any.
func (s *Session) Upload(ctx context.Context, onProgress ProgressHandler) (*report.Analysis, error) {
	s.mu.Lock()
	next, req, notice := s.state.Submit()
	s.state = next
	s.mu.Unlock()

	if notice != nil {
		s.log.Warn("%s", notice.Message())
		return nil, notice
	}
	if req == nil {
		s.log.ErrorWithFields("upload rejected before sending", []logger.Field{
			logger.F("kind", next.Err.Kind.String()),
		})
		return nil, next.Err
	}

	s.log.Info("uploading %s", req.File.Name)
	if onProgress != nil {
		onProgress(next.Progress)
	}

	resp, err := s.service.AnalyzeReport(ctx, &req.File, func(loaded, total int64) {
		s.mu.Lock()
		s.state = s.state.UploadProgress(req.Generation, loaded, total)
		progress := s.state.Progress
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(progress)
		}
	})

	s.mu.Lock()
	var notification *upload.Notification
	if err != nil {
		s.state = s.state.UploadFailed(req.Generation, err)
	} else {
		s.state, notification = s.state.UploadCompleted(req.Generation, resp)
	}
	state := s.state
	s.mu.Unlock()

	if state.Generation != req.Generation {
		// superseded by a newer selection while in flight
		return nil, nil
	}

	if state.Err != nil {
		s.log.ErrorWithFields("report upload failed", []logger.Field{
			logger.F("file", req.File.Name),
			logger.F("kind", state.Err.Kind.String()),
			logger.Error(state.Err.Unwrap()),
		})
		return nil, state.Err
	}

	if onProgress != nil {
		onProgress(state.Progress)
	}
	if notification != nil && s.onUpload != nil {
		s.onUpload(*notification)
	}
	return state.Analysis, nil
}

// Ask sends a question about the current analysis. It returns (nil, nil)
// when the question is blank or there is no analysis yet.
func (s *Session) Ask(ctx context.Context, question string) (*report.ChatResponse, error) {
	s.mu.Lock()
	next, req := s.state.Ask(question)
	s.state = next
	s.mu.Unlock()

	if req == nil {
		s.log.Debug("question ignored: no analysis or empty question")
		return nil, nil
	}

	result, err := s.service.AskQuestion(ctx, req.Body)

	s.mu.Lock()
	if err != nil {
		s.state = s.state.AskFailed(req.Generation, err)
	} else {
		s.state = s.state.Answered(req.Generation, result)
	}
	state := s.state
	s.mu.Unlock()

	if state.Generation != req.Generation {
		return nil, nil
	}

	if err != nil || result == nil || !result.Success || result.Response == nil {
		fields := []logger.Field{logger.F("question", question)}
		if err != nil {
			fields = append(fields, logger.Error(err))
		} else if result != nil && result.Error != "" {
			fields = append(fields, logger.F("service_error", result.Error))
		}
		s.log.ErrorWithFields("question failed", fields)
		return nil, state.Err
	}

	return state.Chat, nil
}
