package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/ReportLens/internal/session"
	"github.com/yildizm/ReportLens/internal/upload"
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// uploadProgressMsg carries one transfer progress event. events is the stream
// it came from so Update can keep listening.
type uploadProgressMsg struct {
	generation uint64
	loaded     int64
	total      int64
	events     <-chan tea.Msg
}

type uploadDoneMsg struct {
	generation uint64
	resp       *report.AnalyzeResponse
	err        error
}

type answerMsg struct {
	generation uint64
	result     *report.ChatResult
	err        error
}

// uploadCommand runs the analyze-report call in the background and streams
// progress and the final result back as messages
func uploadCommand(ctx context.Context, svc session.Service, req *upload.UploadRequest) tea.Cmd {
	events := make(chan tea.Msg, 32)
	file := req.File
	generation := req.Generation

	go func() {
		defer close(events)
		resp, err := svc.AnalyzeReport(ctx, &file, func(loaded, total int64) {
			msg := uploadProgressMsg{generation: generation, loaded: loaded, total: total, events: events}
			select {
			case events <- msg:
			default:
				// the view only needs the latest snapshot
			}
		})
		events <- uploadDoneMsg{generation: generation, resp: resp, err: err}
	}()

	return waitForUpload(events)
}

func waitForUpload(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

// askCommand runs the chat-with-report call
func askCommand(ctx context.Context, svc session.Service, req *upload.ChatRequest) tea.Cmd {
	body := req.Body
	generation := req.Generation
	return func() tea.Msg {
		result, err := svc.AskQuestion(ctx, body)
		return answerMsg{generation: generation, result: result, err: err}
	}
}
