package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yildizm/ReportLens/internal/logger"
	"github.com/yildizm/ReportLens/internal/session"
	"github.com/yildizm/ReportLens/internal/ui"
)

var tuiLogFile string

func newTUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [file.pdf]",
		Short: "Open the interactive report upload view",
		Long: `Open the interactive terminal UI. Choose a PDF, upload it, read the analysis
and ask questions about it. Every accepted report stays in the session's
report list until you quit.

The terminal is owned by the UI while it runs, so logs are written to a file
(see --log-file).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServiceClient()
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runTUI(svc, path)
		},
	}

	cmd.Flags().StringVar(&tuiLogFile, "log-file", "", "log file for the interactive UI (default: reportlens-tui.log in the temp dir)")

	return cmd
}

// runTUI starts the interactive view with logging redirected to a file
func runTUI(svc session.Service, initialPath string) error {
	logPath := tuiLogFile
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "reportlens-tui.log")
	}

	// #nosec G304 - user supplied log destination
	logFile, err := os.OpenFile(filepath.Clean(logPath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		if err := logFile.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	return ui.Run(ui.Options{
		Service:     svc,
		Logger:      logger.NewWithWriter("tui", verboseFlag{}, logFile),
		InitialPath: initialPath,
	})
}
