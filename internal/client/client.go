package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"

	"github.com/yildizm/ReportLens/internal/report"
)

// ProgressFunc receives the number of request body bytes sent so far
type ProgressFunc func(loaded, total int64)

// Client talks to the report analysis service
type Client struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
}

// New creates a new analysis service client
func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeConfiguration, "invalid base URL", config.BaseURL, err)
	}

	return &Client{
		config:  config,
		client:  &http.Client{},
		baseURL: baseURL,
	}, nil
}

// BaseURL returns the service root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// AnalyzeReport uploads a PDF as the multipart field "file" and waits for the
// service to finish processing it. A response with success=false is returned
// as a value, not an error.
func (c *Client) AnalyzeReport(ctx context.Context, file *report.SelectedFile, onProgress ProgressFunc) (*report.AnalyzeResponse, error) {
	endpoint := c.baseURL.JoinPath(c.config.AnalyzePath).String()

	body, contentType, err := buildMultipart(file)
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, "failed to read report file", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.UploadTimeout)
	defer cancel()

	total := int64(body.Len())
	reader := &progressReader{r: body, total: total, onProgress: onProgress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, "failed to create request", endpoint, err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)

	var result report.AnalyzeResponse
	if err := c.do(ctx, req, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AskQuestion sends a question about the report text to the chat endpoint
func (c *Client) AskQuestion(ctx context.Context, chat report.ChatRequest) (*report.ChatResult, error) {
	endpoint := c.baseURL.JoinPath(c.config.ChatPath).String()

	jsonData, err := json.Marshal(chat)
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, "failed to marshal request", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ChatTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, NewErrorWithCause(ErrTypeInternal, "failed to create request", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result report.ChatResult
	if err := c.do(ctx, req, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// HealthCheck verifies the service answers HTTP requests
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := c.baseURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return NewErrorWithCause(ErrTypeInternal, "failed to create health check request", endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(ctx, "health check failed", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		e := NewError(ErrTypeProvider, fmt.Sprintf("health check failed with status %d", resp.StatusCode), endpoint)
		e.StatusCode = resp.StatusCode
		return e
	}
	return nil
}

// do executes req and decodes the JSON body into out. Non-2xx responses whose
// body still decodes are handed back so the service's own error text surfaces.
func (c *Client) do(ctx context.Context, req *http.Request, endpoint string, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return transportError(ctx, "request failed", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, "failed to read response", endpoint, err)
	}

	decodeErr := json.Unmarshal(data, out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil {
			return nil
		}
		e := NewError(ErrTypeProvider, fmt.Sprintf("Request failed with status code %d", resp.StatusCode), endpoint)
		e.StatusCode = resp.StatusCode
		return e
	}

	if decodeErr != nil {
		return NewErrorWithCause(ErrTypeDecode, "failed to decode response", endpoint, decodeErr)
	}
	return nil
}

// transportError classifies a failed round trip as timeout or network error
func transportError(ctx context.Context, message, endpoint string, err error) *Error {
	if ctx.Err() == context.DeadlineExceeded {
		return NewErrorWithCause(ErrTypeTimeout, "request timed out", endpoint, err)
	}
	if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
		return NewErrorWithCause(ErrTypeTimeout, "request timed out", endpoint, err)
	}
	return NewErrorWithCause(ErrTypeNetwork, message, endpoint, err)
}

// buildMultipart reads the file into a multipart/form-data body
func buildMultipart(file *report.SelectedFile) (*bytes.Buffer, string, error) {
	// #nosec G304 - path comes from report.OpenSelectedFile
	src, err := os.Open(file.Path)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = src.Close() }()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

// progressReader reports bytes consumed by the HTTP transport
type progressReader struct {
	r          io.Reader
	loaded     int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.loaded, p.total)
		}
	}
	return n, err
}
