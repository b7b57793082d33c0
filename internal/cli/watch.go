package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/yildizm/ReportLens/internal/formatter"
	"github.com/yildizm/ReportLens/internal/library"
	"github.com/yildizm/ReportLens/internal/logger"
	"github.com/yildizm/ReportLens/internal/session"
	"github.com/yildizm/ReportLens/internal/upload"
)

var watchDebounce time.Duration

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyze PDF reports as they appear in a directory",
		Long: `Monitor a directory and analyze every PDF report written to it.

Uses file system notifications to detect new or rewritten files. A file is
uploaded once no write has been seen for the debounce interval, so partially
copied files are not sent. Press Ctrl+C to stop watching.

Examples:
  reportlens watch ~/Downloads
  reportlens watch --debounce 2s --output json ./inbox`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before a file is uploaded (default from config)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	if !cmd.Flag("debounce").Changed {
		watchDebounce = GetGlobalConfig().Watch.Debounce
	}

	svc, err := newServiceClient()
	if err != nil {
		return err
	}

	watcher, err := setupDirWatcher(dir)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher)

	rw := newReportWatcher(svc, library.New(), watchDebounce, cmd.OutOrStdout(), newLogger("watch"))
	defer rw.Stop()

	return runWatchLoop(cmd.Context(), watcher, rw)
}

// reportWatcher debounces file events and uploads each settled PDF
type reportWatcher struct {
	svc      session.Service
	lib      *library.Library
	debounce time.Duration
	out      io.Writer
	log      *logger.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
	stop    sync.Once
}

func newReportWatcher(svc session.Service, lib *library.Library, debounce time.Duration, out io.Writer, log *logger.Logger) *reportWatcher {
	return &reportWatcher{
		svc:      svc,
		lib:      lib,
		debounce: debounce,
		out:      out,
		log:      log,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string, 16),
		done:     make(chan struct{}),
	}
}

// schedule (re)starts the debounce timer for path
func (w *reportWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

// Stop cancels every pending upload
func (w *reportWatcher) Stop() {
	w.stop.Do(func() { close(w.done) })

	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// process uploads one settled file and prints the result
func (w *reportWatcher) process(ctx context.Context, path string) error {
	sess := session.New(w.svc, func(n upload.Notification) {
		entry, err := w.lib.OnUpload(&n)
		if err != nil {
			w.log.Error("failed to record %s: %v", n.Name, err)
			return
		}
		w.log.Info("report %s added as %s", entry.Name, entry.ID)
	}, w.log)

	if err := sess.SelectPath(path); err != nil {
		return err
	}

	fmt.Fprintf(w.out, "%s Uploading %s\n", GetEmoji("upload"), filepath.Base(path))
	analysis, err := sess.Upload(ctx, nil)
	if err != nil {
		return describeFailure(err)
	}
	if analysis == nil {
		return nil
	}

	reports := w.lib.List()
	latest := reports[len(reports)-1]

	output, err := formatter.Get(getOutputFormat(), useColor()).Format(&formatter.Result{Report: latest})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.out.Write(output)
	return err
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

// createWatcher creates and configures a new file system watcher
func createWatcher(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		cleanupWatcher(watcher)
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return watcher, nil
}

// setupDirWatcher validates dir and starts watching it
func setupDirWatcher(dir string) (*fsnotify.Watcher, error) {
	if err := validateWatchDirPath(dir); err != nil {
		return nil, fmt.Errorf("invalid directory: %w", err)
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Watching directory: %s\n", dir)
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop...\n\n")
	}

	return createWatcher(filepath.Clean(dir))
}

// watchSignals stop the watch loop and cancel any upload in flight
var watchSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// runWatchLoop runs the main watch loop until ctx ends or a stop signal arrives
func runWatchLoop(ctx context.Context, watcher *fsnotify.Watcher, rw *reportWatcher) error {
	if ctx == nil {
		ctx = context.Background()
	}
	parent := ctx
	ctx, stop := signal.NotifyContext(parent, watchSignals...)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			if parent.Err() == nil && isVerbose() {
				fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, stopping...\n")
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			handleWatchEvent(event, rw)

		case path := <-rw.ready:
			if err := rw.process(ctx, path); err != nil {
				fmt.Fprintf(os.Stderr, "%s %s: %v\n", GetEmoji("error"), filepath.Base(path), err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}
		}
	}
}

// handleWatchEvent schedules created or written PDF files for upload
func handleWatchEvent(event fsnotify.Event, rw *reportWatcher) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !isReportFile(event.Name) {
		return
	}
	rw.schedule(event.Name)
}

func isReportFile(path string) bool {
	base := filepath.Base(path)
	// editors and downloaders write hidden temp files next to the target
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".pdf")
}

// validateWatchDirPath validates that a path is a directory that can be watched
func validateWatchDirPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty directory path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", cleanPath)
	}

	return nil
}
