// fake_service.go - In-process stand-in for the report analysis service
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yildizm/ReportLens/internal/report"
)

// ReceivedUpload records one multipart upload seen by the fake service
type ReceivedUpload struct {
	FileName string
	Size     int64
	Body     []byte
}

// FakeService serves the analyze-report and chat-with-report endpoints with
// canned responses and records every request it receives
type FakeService struct {
	AnalyzeStatus   int
	AnalyzeResponse *report.AnalyzeResponse
	ChatStatus      int
	ChatResult      *report.ChatResult

	// Delay is applied before every response
	Delay time.Duration

	mu       sync.Mutex
	uploads  []ReceivedUpload
	chats    []report.ChatRequest
	echo     *echo.Echo
	server   *httptest.Server
	released chan struct{}
}

// NewFakeService creates a fake service that accepts every upload as a medical report
func NewFakeService() *FakeService {
	f := &FakeService{
		AnalyzeStatus:   http.StatusOK,
		AnalyzeResponse: &report.AnalyzeResponse{Success: true, Analysis: SampleAnalysis()},
		ChatStatus:      http.StatusOK,
		ChatResult: &report.ChatResult{
			Success:  true,
			Response: &report.ChatResponse{Answer: "Your hemoglobin is within the normal range."},
		},
		released: make(chan struct{}),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/", f.handleRoot)
	e.POST("/api/analyze-report", f.handleAnalyze)
	e.POST("/api/chat-with-report", f.handleChat)
	f.echo = e

	return f
}

// Start launches the fake service on a loopback port and returns its URL
func (f *FakeService) Start() string {
	f.server = httptest.NewServer(f.echo)
	return f.server.URL
}

// Close stops the fake service and releases delayed handlers
func (f *FakeService) Close() {
	f.mu.Lock()
	select {
	case <-f.released:
	default:
		close(f.released)
	}
	f.mu.Unlock()

	if f.server != nil {
		f.server.Close()
	}
}

// Uploads returns the uploads received so far
func (f *FakeService) Uploads() []ReceivedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ReceivedUpload, len(f.uploads))
	copy(out, f.uploads)
	return out
}

// Chats returns the chat requests received so far
func (f *FakeService) Chats() []report.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]report.ChatRequest, len(f.chats))
	copy(out, f.chats)
	return out
}

func (f *FakeService) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (f *FakeService) handleAnalyze(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, &report.AnalyzeResponse{Success: false, Error: "no file provided"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &report.AnalyzeResponse{Success: false, Error: "failed to open upload"})
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &report.AnalyzeResponse{Success: false, Error: "failed to read upload"})
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, ReceivedUpload{FileName: file.Filename, Size: file.Size, Body: data})
	f.mu.Unlock()

	f.wait(c)
	return c.JSON(f.AnalyzeStatus, f.AnalyzeResponse)
}

func (f *FakeService) handleChat(c echo.Context) error {
	var req report.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, &report.ChatResult{Success: false, Error: "invalid JSON body"})
	}

	f.mu.Lock()
	f.chats = append(f.chats, req)
	f.mu.Unlock()

	f.wait(c)
	return c.JSON(f.ChatStatus, f.ChatResult)
}

func (f *FakeService) wait(c echo.Context) {
	if f.Delay <= 0 {
		return
	}
	select {
	case <-time.After(f.Delay):
	case <-c.Request().Context().Done():
	case <-f.released:
	}
}

// SampleAnalysis returns a complete medical report analysis
func SampleAnalysis() *report.Analysis {
	return &report.Analysis{
		IsMedicalReport: true,
		Summary:         "Complete blood count within normal limits.",
		Classification:  report.Classification{Label: "lab_report", Confidence: 0.9312},
		Entities: []report.Entity{
			{Text: "hemoglobin", Label: "TEST", Confidence: 0.99},
			{Text: "13.2 g/dL", Label: "VALUE", Confidence: 0.95},
			{Text: "anemia", Label: "CONDITION", Confidence: 0.4},
		},
		Recommendations: []string{
			"Repeat the panel in 6 months",
			"Discuss iron supplementation with your physician",
		},
		Text:     "Hemoglobin 13.2 g/dL. No signs of anemia.",
		Progress: report.Progress{Status: "Analysis complete", Percent: 100},
	}
}
