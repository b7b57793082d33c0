package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yildizm/ReportLens/internal/formatter"
	"github.com/yildizm/ReportLens/internal/library"
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/ReportLens/internal/session"
	"github.com/yildizm/ReportLens/internal/ui/components"
	"github.com/yildizm/ReportLens/internal/upload"
)

var (
	analyzeQuestions  []string
	analyzeNoTUI      bool
	analyzeOutputFile string
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Analyze a PDF health report",
		Long: `Upload a PDF health report to the analysis service and show the result.

Files larger than 10MB are rejected before upload. Each --ask flag sends one
follow-up question about the analyzed report; answers are included in the output.

Examples:
  reportlens analyze labs.pdf
  reportlens analyze labs.pdf --ask "Is my hemoglobin normal?"
  reportlens analyze --output json --output-file labs.json labs.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringArrayVarP(&analyzeQuestions, "ask", "a", nil, "question to ask about the report (repeatable)")
	cmd.Flags().BoolVar(&analyzeNoTUI, "no-tui", false, "disable terminal UI, output to stdout")
	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := validateFilePath(path); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	svc, err := newServiceClient()
	if err != nil {
		return err
	}

	if shouldUseTUIMode() {
		return runTUI(svc, path)
	}

	output, err := runCLIAnalysis(cmd.Context(), svc, path, analyzeQuestions, os.Stderr)
	if err != nil {
		return err
	}
	return handleOutputDestination(cmd.OutOrStdout(), output)
}

// shouldUseTUIMode picks the interactive view only for plain text output
// without scripted questions
func shouldUseTUIMode() bool {
	return !analyzeNoTUI && getOutputFormat() == "text" && !isVerbose() &&
		len(analyzeQuestions) == 0 && analyzeOutputFile == ""
}

// runCLIAnalysis uploads path, asks every question and returns the formatted result.
// Progress goes to progressOut when enabled in the configuration.
func runCLIAnalysis(ctx context.Context, svc session.Service, path string, questions []string, progressOut io.Writer) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	lib := library.New()
	var uploadErr error
	sess := session.New(svc, func(n upload.Notification) {
		if _, err := lib.OnUpload(&n); err != nil {
			uploadErr = err
		}
	}, newLogger("analyze"))

	if err := sess.SelectPath(path); err != nil {
		return nil, err
	}

	printer := newProgressPrinter(progressOut)
	_, err := sess.Upload(ctx, printer.Handler())
	printer.Finish()
	if err != nil {
		return nil, describeFailure(err)
	}
	if uploadErr != nil {
		return nil, fmt.Errorf("failed to record report: %w", uploadErr)
	}

	reports := lib.List()
	if len(reports) == 0 {
		return nil, fmt.Errorf("upload of %s was superseded", filepath.Base(path))
	}

	result := &formatter.Result{Report: reports[0]}
	for _, question := range questions {
		result.Answers = append(result.Answers, askQuestion(ctx, sess, question))
	}

	output, err := formatter.Get(getOutputFormat(), useColor()).Format(result)
	if err != nil {
		return nil, fmt.Errorf("failed to format output: %w", err)
	}
	return output, nil
}

func askQuestion(ctx context.Context, sess *session.Session, question string) formatter.Answer {
	answer := formatter.Answer{Question: question}
	if strings.TrimSpace(question) == "" {
		answer.Error = "empty question"
		return answer
	}

	resp, err := sess.Ask(ctx, question)
	switch {
	case err != nil:
		answer.Error = err.Error()
	case resp == nil:
		answer.Error = upload.MsgQuestionFailed
	default:
		answer.Response = resp
	}
	return answer
}

// describeFailure prefixes upload failures with their emoji
func describeFailure(err error) error {
	var failure *upload.Failure
	if errors.As(err, &failure) {
		return fmt.Errorf("%s %w", GetFailureEmoji(failure.Kind), failure)
	}
	return err
}

// progressPrinter renders upload progress on a single rewritten line
type progressPrinter struct {
	w    io.Writer
	open bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	if w == nil || !GetGlobalConfig().Output.ShowProgress {
		return &progressPrinter{}
	}
	return &progressPrinter{w: w}
}

// Handler returns the session callback, or nil when progress is disabled
func (p *progressPrinter) Handler() session.ProgressHandler {
	if p.w == nil {
		return nil
	}

	return func(pr report.Progress) {
		line := fmt.Sprintf("%s %s... (%s%%)", CreateProgressBar(pr.Percent), pr.Status, components.FormatPercent(pr.Percent))
		fmt.Fprintf(p.w, "\r%s", line)
		p.open = true
	}
}

// Finish terminates the progress line so later output starts on a fresh line
func (p *progressPrinter) Finish() {
	if p.open {
		fmt.Fprintln(p.w)
		p.open = false
	}
}

// handleOutputDestination writes output to file or stdout
func handleOutputDestination(stdout io.Writer, output []byte) error {
	if analyzeOutputFile != "" {
		if err := validateOutputFilePath(analyzeOutputFile); err != nil {
			return fmt.Errorf("invalid output file path: %w", err)
		}

		if err := writeOutputBytesToFile(output, analyzeOutputFile); err != nil {
			return fmt.Errorf("failed to write output to file: %w", err)
		}

		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Output saved to: %s\n", analyzeOutputFile)
		}
		return nil
	}

	_, err := stdout.Write(output)
	return err
}

func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	return nil
}

func validateOutputFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}
	if info, err := os.Stat(filepath.Clean(path)); err == nil && info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	return nil
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	// #nosec G304 - path is validated by caller
	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// Sync to ensure data is written
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
