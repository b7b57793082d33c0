package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yildizm/ReportLens/internal/client"
	"github.com/yildizm/ReportLens/internal/config"
	"github.com/yildizm/ReportLens/internal/formatter"
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/ReportLens/internal/testutil"
	"github.com/yildizm/ReportLens/internal/upload"
)

// withConfig installs cfg as the global configuration for the test
func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	oldConfig := globalConfig
	oldOutputFmt := outputFmt
	globalConfig = cfg
	outputFmt = ""
	t.Cleanup(func() {
		globalConfig = oldConfig
		outputFmt = oldOutputFmt
	})
}

// startService starts a fake analysis service, configured by setup before it
// accepts requests, and returns a client for it
func startService(t *testing.T, setup func(*testutil.FakeService)) (*testutil.FakeService, *client.Client) {
	t.Helper()
	fake := testutil.NewFakeService()
	if setup != nil {
		setup(fake)
	}
	url := fake.Start()
	t.Cleanup(fake.Close)

	cfg := client.DefaultConfig()
	cfg.BaseURL = url
	cfg.UploadTimeout = 5 * time.Second
	cfg.ChatTimeout = 5 * time.Second

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	return fake, c
}

func TestShouldUseTUIMode(t *testing.T) {
	tests := []struct {
		name           string
		noTUI          bool
		outputFormat   string
		verbose        bool
		questions      []string
		outputFile     string
		expectedResult bool
	}{
		{
			name:           "should use TUI - all conditions met",
			outputFormat:   "text",
			expectedResult: true,
		},
		{
			name:           "should not use TUI - no-tui flag set",
			noTUI:          true,
			outputFormat:   "text",
			expectedResult: false,
		},
		{
			name:           "should not use TUI - json output",
			outputFormat:   "json",
			expectedResult: false,
		},
		{
			name:           "should not use TUI - verbose mode",
			outputFormat:   "text",
			verbose:        true,
			expectedResult: false,
		},
		{
			name:           "should not use TUI - scripted questions",
			outputFormat:   "text",
			questions:      []string{"Is this normal?"},
			expectedResult: false,
		},
		{
			name:           "should not use TUI - output file",
			outputFormat:   "text",
			outputFile:     "out.txt",
			expectedResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfig(t, config.DefaultConfig())

			oldNoTUI, oldVerbose := analyzeNoTUI, verbose
			oldQuestions, oldOutputFile := analyzeQuestions, analyzeOutputFile
			defer func() {
				analyzeNoTUI, verbose = oldNoTUI, oldVerbose
				analyzeQuestions, analyzeOutputFile = oldQuestions, oldOutputFile
			}()

			analyzeNoTUI = tt.noTUI
			verbose = tt.verbose
			outputFmt = tt.outputFormat
			analyzeQuestions = tt.questions
			analyzeOutputFile = tt.outputFile

			if result := shouldUseTUIMode(); result != tt.expectedResult {
				t.Errorf("shouldUseTUIMode() = %v, want %v", result, tt.expectedResult)
			}
		})
	}
}

func TestRunCLIAnalysis(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.DefaultFormat = "json"
	withConfig(t, cfg)

	fake, svc := startService(t, nil)
	path := testutil.WritePDF(t, t.TempDir(), "labs.pdf", 4096)

	var progress bytes.Buffer
	output, err := runCLIAnalysis(context.Background(), svc, path, []string{"Is my hemoglobin normal?"}, &progress)
	if err != nil {
		t.Fatalf("runCLIAnalysis() error = %v", err)
	}

	var result formatter.JSONOutput
	if err := json.Unmarshal(output, &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}

	if result.Name != "labs.pdf" {
		t.Errorf("Expected name labs.pdf, got %s", result.Name)
	}
	if result.ID == "" {
		t.Error("Expected a library id")
	}
	if result.Classification.Label != "lab_report" {
		t.Errorf("Expected lab_report classification, got %s", result.Classification.Label)
	}
	if len(result.Answers) != 1 || result.Answers[0].Answer == "" {
		t.Fatalf("Expected one answer, got %+v", result.Answers)
	}

	if uploads := fake.Uploads(); len(uploads) != 1 || uploads[0].FileName != "labs.pdf" {
		t.Errorf("Expected one upload of labs.pdf, got %+v", uploads)
	}
	chats := fake.Chats()
	if len(chats) != 1 || chats[0].Text != testutil.SampleAnalysis().Text {
		t.Errorf("Chat should carry the extracted text, got %+v", chats)
	}

	if !strings.Contains(progress.String(), "Analysis complete... (100%)") {
		t.Errorf("Expected final progress line, got %q", progress.String())
	}
}

func TestRunCLIAnalysisFailures(t *testing.T) {
	withConfig(t, config.DefaultConfig())

	t.Run("too large", func(t *testing.T) {
		fake, svc := startService(t, nil)
		path := testutil.WritePDF(t, t.TempDir(), "big.pdf", upload.MaxFileSize+1)

		_, err := runCLIAnalysis(context.Background(), svc, path, nil, nil)
		if !errors.Is(err, &upload.Failure{Kind: upload.KindFileTooLarge}) {
			t.Fatalf("Expected file too large failure, got %v", err)
		}
		if len(fake.Uploads()) != 0 {
			t.Error("Oversized file must not be uploaded")
		}
	})

	t.Run("rejected", func(t *testing.T) {
		_, svc := startService(t, func(f *testutil.FakeService) {
			f.AnalyzeStatus = http.StatusBadRequest
			f.AnalyzeResponse = &report.AnalyzeResponse{Success: false, Error: "Unsupported file"}
		})
		path := testutil.WritePDF(t, t.TempDir(), "labs.pdf", 1024)

		var progress bytes.Buffer
		_, err := runCLIAnalysis(context.Background(), svc, path, nil, &progress)
		if err == nil || !strings.Contains(err.Error(), "Unsupported file") {
			t.Fatalf("Expected server message, got %v", err)
		}
		if progress.Len() == 0 || !strings.HasSuffix(progress.String(), "\n") {
			t.Errorf("Progress line should be terminated before the error, got %q", progress.String())
		}
	})

	t.Run("not medical", func(t *testing.T) {
		analysis := testutil.SampleAnalysis()
		analysis.IsMedicalReport = false
		analysis.Error = "Not a medical document"
		_, svc := startService(t, func(f *testutil.FakeService) {
			f.AnalyzeResponse = &report.AnalyzeResponse{Success: true, Analysis: analysis}
		})
		path := testutil.WritePDF(t, t.TempDir(), "invoice.pdf", 1024)

		_, err := runCLIAnalysis(context.Background(), svc, path, nil, nil)
		if !errors.Is(err, &upload.Failure{Kind: upload.KindNotMedical}) {
			t.Fatalf("Expected not medical failure, got %v", err)
		}
	})
}

func TestRunCLIAnalysisQuestionFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.DefaultFormat = "json"
	withConfig(t, cfg)

	fake, svc := startService(t, func(f *testutil.FakeService) {
		f.ChatResult = &report.ChatResult{Success: false, Error: "model unavailable"}
	})
	path := testutil.WritePDF(t, t.TempDir(), "labs.pdf", 1024)

	output, err := runCLIAnalysis(context.Background(), svc, path, []string{"why?", "  "}, nil)
	if err != nil {
		t.Fatalf("Question failures should not fail the command: %v", err)
	}

	var result formatter.JSONOutput
	if err := json.Unmarshal(output, &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("Expected 2 answers, got %d", len(result.Answers))
	}
	if result.Answers[0].Error != upload.MsgQuestionFailed {
		t.Errorf("Expected %q, got %q", upload.MsgQuestionFailed, result.Answers[0].Error)
	}
	if result.Answers[1].Error != "empty question" {
		t.Errorf("Blank question should not be sent, got %q", result.Answers[1].Error)
	}
	if len(fake.Chats()) != 1 {
		t.Errorf("Expected 1 chat request, got %d", len(fake.Chats()))
	}
}

func TestProgressPrinterFinish(t *testing.T) {
	withConfig(t, config.DefaultConfig())

	var out bytes.Buffer
	printer := newProgressPrinter(&out)
	printer.Finish()
	if out.Len() != 0 {
		t.Errorf("Finish without progress should print nothing, got %q", out.String())
	}

	handler := printer.Handler()
	handler(report.Progress{Status: upload.ProgressUploading, Percent: 2.5})
	if strings.Contains(out.String(), "\n") {
		t.Fatalf("Progress should stay on one line, got %q", out.String())
	}
	printer.Finish()
	printer.Finish()
	if !strings.HasSuffix(out.String(), "Uploading file... (2.5%)\n") || strings.Count(out.String(), "\n") != 1 {
		t.Errorf("Expected a single terminating newline, got %q", out.String())
	}

	disabled := newProgressPrinter(nil)
	if disabled.Handler() != nil {
		t.Error("Expected no handler without a writer")
	}
	disabled.Finish()
}

func TestHandleOutputDestination(t *testing.T) {
	withConfig(t, config.DefaultConfig())
	oldOutputFile := analyzeOutputFile
	defer func() { analyzeOutputFile = oldOutputFile }()

	t.Run("stdout", func(t *testing.T) {
		analyzeOutputFile = ""
		var out bytes.Buffer
		if err := handleOutputDestination(&out, []byte("report")); err != nil {
			t.Fatalf("handleOutputDestination() error = %v", err)
		}
		if out.String() != "report" {
			t.Errorf("Expected output on stdout, got %q", out.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		analyzeOutputFile = filepath.Join(t.TempDir(), "report.json")
		var out bytes.Buffer
		if err := handleOutputDestination(&out, []byte(`{"ok":true}`)); err != nil {
			t.Fatalf("handleOutputDestination() error = %v", err)
		}
		data, err := os.ReadFile(analyzeOutputFile)
		if err != nil {
			t.Fatalf("Failed to read output file: %v", err)
		}
		if string(data) != `{"ok":true}` {
			t.Errorf("Unexpected file content %q", data)
		}
		if out.Len() != 0 {
			t.Error("Nothing should be written to stdout")
		}
	})

	t.Run("directory", func(t *testing.T) {
		analyzeOutputFile = t.TempDir()
		if err := handleOutputDestination(&bytes.Buffer{}, []byte("x")); err == nil {
			t.Error("Expected error for directory output path")
		}
	})
}

func TestValidateFilePath(t *testing.T) {
	dir := t.TempDir()
	file := testutil.WritePDF(t, dir, "labs.pdf", 10)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing file", file, false},
		{"empty", "", true},
		{"missing", filepath.Join(dir, "missing.pdf"), true},
		{"directory", dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFilePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestCreateProgressBar(t *testing.T) {
	oldNoEmoji := noEmoji
	defer func() { noEmoji = oldNoEmoji }()

	noEmoji = true
	tests := []struct {
		percent float64
		want    string
	}{
		{0, "[--------------------]"},
		{5, "[#-------------------]"},
		{50, "[##########----------]"},
		{100, "[####################]"},
		{150, "[####################]"},
		{-3, "[--------------------]"},
	}

	for _, tt := range tests {
		if got := CreateProgressBar(tt.percent); got != tt.want {
			t.Errorf("CreateProgressBar(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}
