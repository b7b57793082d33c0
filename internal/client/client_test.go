package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/ReportLens/internal/testutil"
	"github.com/yildizm/ReportLens/internal/upload"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	config := DefaultConfig()
	config.BaseURL = baseURL
	c, err := New(config)
	require.NoError(t, err)
	return c
}

func selectFile(t *testing.T, size int) *report.SelectedFile {
	t.Helper()
	path := testutil.WritePDF(t, t.TempDir(), "labs.pdf", size)
	file, err := report.OpenSelectedFile(path)
	require.NoError(t, err)
	return file
}

func TestNew_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.BaseURL = ""

	_, err := New(config)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &Error{Type: ErrTypeConfiguration}))

	config = DefaultConfig()
	config.UploadTimeout = 0
	_, err = New(config)
	assert.Error(t, err)
}

func TestAnalyzeReport_Success(t *testing.T) {
	fake := testutil.NewFakeService()
	c := newTestClient(t, fake.Start())
	defer fake.Close()

	file := selectFile(t, 64*1024)

	var mu sync.Mutex
	var calls int
	var lastLoaded, lastTotal int64
	resp, err := c.AnalyzeReport(context.Background(), file, func(loaded, total int64) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		assert.GreaterOrEqual(t, loaded, lastLoaded, "progress must not go backwards")
		lastLoaded, lastTotal = loaded, total
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, testutil.SampleAnalysis(), resp.Analysis)

	mu.Lock()
	assert.Positive(t, calls)
	assert.Equal(t, lastTotal, lastLoaded, "final progress event covers the whole body")
	mu.Unlock()

	uploads := fake.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "labs.pdf", uploads[0].FileName)
	assert.Equal(t, int64(64*1024), uploads[0].Size)
}

func TestAnalyzeReport_ServerRejection(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AnalyzeStatus = http.StatusUnprocessableEntity
	fake.AnalyzeResponse = &report.AnalyzeResponse{Success: false, Error: "PDF is encrypted"}
	c := newTestClient(t, fake.Start())
	defer fake.Close()

	resp, err := c.AnalyzeReport(context.Background(), selectFile(t, 128), nil)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "PDF is encrypted", resp.Error)
}

func TestAnalyzeReport_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.AnalyzeReport(context.Background(), selectFile(t, 128), nil)
	require.Error(t, err)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrTypeProvider, ce.Type)
	assert.Equal(t, http.StatusBadGateway, ce.StatusCode)
	assert.Equal(t, "Request failed with status code 502", err.Error())
}

func TestAnalyzeReport_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.AnalyzeReport(context.Background(), selectFile(t, 128), nil)
	assert.True(t, errors.Is(err, &Error{Type: ErrTypeDecode}))
}

func TestAnalyzeReport_Timeout(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Delay = 5 * time.Second
	url := fake.Start()
	defer fake.Close()

	config := DefaultConfig()
	config.BaseURL = url
	config.UploadTimeout = 50 * time.Millisecond
	c, err := New(config)
	require.NoError(t, err)

	_, err = c.AnalyzeReport(context.Background(), selectFile(t, 128), nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.True(t, upload.IsTimeout(err), "state machine must classify client timeouts")
}

func TestAnalyzeReport_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url)
	_, err := c.AnalyzeReport(context.Background(), selectFile(t, 128), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &Error{Type: ErrTypeNetwork}))
	assert.False(t, upload.IsTimeout(err))
}

func TestAnalyzeReport_MissingFile(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.AnalyzeReport(context.Background(), &report.SelectedFile{Path: "/does/not/exist.pdf", Name: "exist.pdf"}, nil)
	assert.True(t, errors.Is(err, &Error{Type: ErrTypeInternal}))
}

func TestAskQuestion(t *testing.T) {
	fake := testutil.NewFakeService()
	confidence := 0.87
	fake.ChatResult = &report.ChatResult{
		Success: true,
		Response: &report.ChatResponse{
			Answer:       "X",
			Confidence:   &confidence,
			RelevantText: "Hemoglobin 13.2 g/dL",
		},
	}
	c := newTestClient(t, fake.Start())
	defer fake.Close()

	result, err := c.AskQuestion(context.Background(), report.ChatRequest{Text: "full text", Question: "Q?"})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "X", result.Response.Answer)
	require.NotNil(t, result.Response.Confidence)
	assert.Equal(t, "87.00%", report.FormatConfidence(*result.Response.Confidence))

	chats := fake.Chats()
	require.Len(t, chats, 1)
	assert.Equal(t, report.ChatRequest{Text: "full text", Question: "Q?"}, chats[0])
}

func TestHealthCheck(t *testing.T) {
	fake := testutil.NewFakeService()
	c := newTestClient(t, fake.Start())
	defer fake.Close()

	assert.NoError(t, c.HealthCheck(context.Background()))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c = newTestClient(t, server.URL)
	assert.Error(t, c.HealthCheck(context.Background()))
}
