package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/ReportLens/internal/emoji"
	"github.com/yildizm/ReportLens/internal/library"
	"github.com/yildizm/ReportLens/internal/logger"
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/ReportLens/internal/session"
	"github.com/yildizm/ReportLens/internal/ui/components"
	"github.com/yildizm/ReportLens/internal/upload"
)

// focusArea is the region receiving key input
type focusArea int

const (
	focusFile focusArea = iota
	focusQuestion
	focusReports
)

// viewMode selects the screen
type viewMode int

const (
	viewMain viewMode = iota
	viewReport
	viewHelp
)

const (
	defaultWidth  = 80
	maxMainWidth  = 90
	sideListWidth = 34
	barWidth      = 40
)

// Options configures the TUI
type Options struct {
	Service     session.Service
	Library     *library.Library
	Logger      *logger.Logger
	InitialPath string
}

// Model is the bubbletea model of the report upload view
type Model struct {
	svc session.Service
	lib *library.Library
	log *logger.Logger

	state  upload.State
	notice string

	fileInput     textinput.Model
	questionInput textinput.Model
	focus         focusArea
	view          viewMode
	reports       *components.List
	viewing       *report.UploadedReport

	ctx          context.Context
	cancelAll    context.CancelFunc
	cancelUpload context.CancelFunc
	cancelAsk    context.CancelFunc

	spinner *components.Spinner
	bar     *components.ProgressBar
	styles  *Styles

	width    int
	height   int
	quitting bool
}

// NewModel creates the upload view model
func NewModel(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	lib := opts.Library
	if lib == nil {
		lib = library.New()
	}

	fileInput := textinput.New()
	fileInput.Prompt = "File: "
	fileInput.Placeholder = "path/to/report.pdf"
	fileInput.CharLimit = 4096
	fileInput.Focus()

	questionInput := textinput.New()
	questionInput.Prompt = "Question: "
	questionInput.Placeholder = "Ask a question about the report..."
	questionInput.CharLimit = 1000

	ctx, cancel := context.WithCancel(context.Background())

	m := &Model{
		svc:           opts.Service,
		lib:           lib,
		log:           log.WithComponent("tui"),
		state:         upload.New(),
		fileInput:     fileInput,
		questionInput: questionInput,
		reports:       components.NewReportList(lib.List(), sideListWidth, 12),
		ctx:           ctx,
		cancelAll:     cancel,
		spinner:       components.NewSpinner(),
		bar:           components.NewProgressBar(barWidth),
		styles:        GetStyles(),
		width:         defaultWidth,
	}

	if opts.InitialPath != "" {
		m.fileInput.SetValue(opts.InitialPath)
		m.selectPath(opts.InitialPath)
	}

	return m
}

// State returns the current upload state
func (m *Model) State() upload.State {
	return m.state
}

// Init starts the animation ticker and cursor blink
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tickMsg:
		m.spinner.Tick()
		return m, tick()
	case uploadProgressMsg:
		return m.handleUploadProgress(msg)
	case uploadDoneMsg:
		return m.handleUploadDone(msg)
	case answerMsg:
		return m.handleAnswer(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	inputWidth := m.mainWidth() - 16
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.fileInput.Width = inputWidth
	m.questionInput.Width = inputWidth
	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == viewMain && m.focus == focusReports && m.reports.Filtering() && msg.String() != "ctrl+c" {
		return m.handleFilterKeys(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		if m.view != viewMain {
			m.view = viewMain
			m.viewing = nil
			return m, nil
		}
		return m.quit()
	case "f1":
		m.view = viewHelp
		return m, nil
	case "tab":
		m.cycleFocus()
		return m, nil
	case "ctrl+u":
		return m.submit()
	}

	if m.view != viewMain {
		return m, nil
	}

	switch m.focus {
	case focusFile:
		if msg.Type == tea.KeyEnter {
			m.selectPath(m.fileInput.Value())
			return m, nil
		}
	case focusQuestion:
		if msg.Type == tea.KeyEnter {
			return m.ask()
		}
	case focusReports:
		return m.handleReportKeys(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleReportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.reports.MoveUp()
	case "down", "j":
		m.reports.MoveDown()
	case "/":
		m.reports.StartFilter()
	case "enter":
		if item := m.reports.GetSelectedItem(); item != nil {
			if r, ok := m.lib.Get(item.ID); ok {
				m.viewing = &r
				m.view = viewReport
			}
		}
	}
	return m, nil
}

// handleFilterKeys edits the uploaded-reports filter. esc clears it, enter
// keeps it.
func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.reports.SetFilter("")
		m.reports.EndFilter()
	case tea.KeyEnter, tea.KeyTab:
		m.reports.EndFilter()
	case tea.KeyBackspace:
		m.reports.Backspace()
	case tea.KeyRunes, tea.KeySpace:
		m.reports.AppendFilter(string(msg.Runes))
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusFile:
		m.fileInput, cmd = m.fileInput.Update(msg)
	case focusQuestion:
		m.questionInput, cmd = m.questionInput.Update(msg)
	}
	return m, cmd
}

// cycleFocus moves to the next region that currently accepts input
func (m *Model) cycleFocus() {
	order := []focusArea{focusFile}
	if m.state.CanAsk() {
		order = append(order, focusQuestion)
	}
	if m.lib.Len() > 0 {
		order = append(order, focusReports)
	}

	next := order[0]
	for i, area := range order {
		if area == m.focus {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.setFocus(next)
}

// ensureFocusable moves focus back to the file input when the question box is
// no longer shown
func (m *Model) ensureFocusable() {
	if m.focus == focusQuestion && !m.state.CanAsk() {
		m.setFocus(focusFile)
	}
}

// refreshReports rebuilds the uploaded-reports pane, keeping the filter
func (m *Model) refreshReports() {
	filter := m.reports.Filter()
	filtering := m.reports.Filtering()
	m.reports = components.NewReportList(m.lib.List(), sideListWidth, 12)
	m.reports.SetFilter(filter)
	m.reports.SetFocused(m.focus == focusReports)
	if filtering && m.focus == focusReports {
		m.reports.StartFilter()
	}
}

func (m *Model) setFocus(area focusArea) {
	m.focus = area
	m.fileInput.Blur()
	m.questionInput.Blur()
	m.reports.SetFocused(area == focusReports)

	switch area {
	case focusFile:
		m.fileInput.Focus()
	case focusQuestion:
		m.questionInput.Focus()
	}
}

// selectPath replaces the selected file. Any request still in flight is
// cancelled and its response will be ignored.
func (m *Model) selectPath(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		m.notice = upload.MsgNoFile
		return
	}

	file, err := report.OpenSelectedFile(path)
	if err != nil {
		m.notice = err.Error()
		m.log.Warn("cannot select %s: %v", path, err)
		return
	}

	m.cancelInFlight()
	m.state = m.state.Select(file)
	m.notice = ""
	m.questionInput.Reset()
	m.ensureFocusable()
	m.log.Debug("selected %s (%s)", file.Name, file.HumanSize())
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	next, req, notice := m.state.Submit()
	m.state = next
	m.ensureFocusable()

	if notice != nil {
		m.notice = notice.Message()
		m.log.Warn("%s", notice.Message())
		return m, nil
	}
	m.notice = ""

	if req == nil {
		m.log.ErrorWithFields("upload rejected before sending", []logger.Field{
			logger.F("kind", next.Err.Kind.String()),
		})
		return m, nil
	}

	m.cancelInFlight()
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelUpload = cancel
	m.bar.SetPercent(0)
	m.log.Info("uploading %s", req.File.Name)

	return m, uploadCommand(ctx, m.svc, req)
}

func (m *Model) ask() (tea.Model, tea.Cmd) {
	next, req := m.state.Ask(m.questionInput.Value())
	m.state = next
	if req == nil {
		return m, nil
	}

	if m.cancelAsk != nil {
		m.cancelAsk()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelAsk = cancel

	return m, askCommand(ctx, m.svc, req)
}

func (m *Model) handleUploadProgress(msg uploadProgressMsg) (tea.Model, tea.Cmd) {
	m.state = m.state.UploadProgress(msg.generation, msg.loaded, msg.total)
	// keep draining stale streams too so their goroutine can finish
	return m, waitForUpload(msg.events)
}

func (m *Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.state.Generation {
		m.log.Debug("discarding response for superseded upload %d", msg.generation)
		return m, nil
	}

	var notification *upload.Notification
	if msg.err != nil {
		m.state = m.state.UploadFailed(msg.generation, msg.err)
	} else {
		m.state, notification = m.state.UploadCompleted(msg.generation, msg.resp)
	}
	m.cancelUpload = nil
	m.ensureFocusable()

	if m.state.Err != nil {
		m.log.ErrorWithFields("report upload failed", []logger.Field{
			logger.F("kind", m.state.Err.Kind.String()),
			logger.Error(m.state.Err.Unwrap()),
		})
		return m, nil
	}

	if notification != nil {
		entry, err := m.lib.OnUpload(notification)
		if err != nil {
			m.log.Error("failed to record upload: %v", err)
		} else {
			m.log.Info("report %s added as %s", entry.Name, entry.ID)
			m.refreshReports()
		}
	}
	return m, nil
}

func (m *Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.state.Generation {
		return m, nil
	}

	if msg.err != nil {
		m.state = m.state.AskFailed(msg.generation, msg.err)
	} else {
		m.state = m.state.Answered(msg.generation, msg.result)
	}
	m.cancelAsk = nil

	if msg.err != nil || msg.result == nil || !msg.result.Success || msg.result.Response == nil {
		fields := []logger.Field{}
		if msg.err != nil {
			fields = append(fields, logger.Error(msg.err))
		} else if msg.result != nil && msg.result.Error != "" {
			fields = append(fields, logger.F("service_error", msg.result.Error))
		}
		m.log.ErrorWithFields("question failed", fields)
	}
	return m, nil
}

func (m *Model) cancelInFlight() {
	if m.cancelUpload != nil {
		m.cancelUpload()
		m.cancelUpload = nil
	}
	if m.cancelAsk != nil {
		m.cancelAsk()
		m.cancelAsk = nil
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancelInFlight()
	m.cancelAll()
	return m, tea.Quit
}

func (m *Model) mainWidth() int {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	if m.lib.Len() > 0 {
		width -= sideListWidth + 2
	}
	return max(40, min(width-4, maxMainWidth))
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return m.styles.Success.Render("Thanks for using ReportLens! "+emoji.GetEmoji("heart")) + "\n"
	}

	switch m.view {
	case viewHelp:
		return m.renderHelp()
	case viewReport:
		return m.renderLibraryReport()
	}

	panel := m.styles.Panel.Width(m.mainWidth()).Render(m.renderMain())
	if m.lib.Len() == 0 {
		return panel
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panel, " ", m.reports.Render())
}

func (m *Model) renderMain() string {
	sections := []string{
		m.styles.Title.Render(emoji.GetEmoji("upload") + " Upload Your Health Report"),
		m.styles.Subtitle.Render("Upload your PDF health report to get personalized insights and analysis"),
		"",
		m.renderFilePicker(),
	}

	if m.state.Status == upload.StatusUploading {
		sections = append(sections, "", m.renderProgress())
	}
	if m.notice != "" {
		sections = append(sections, "", m.styles.Notice.Render(m.notice))
	}
	if msg := m.state.ErrorMessage(); msg != "" {
		sections = append(sections, "", m.styles.ErrorBanner.Render(msg))
	}
	if m.state.Analysis != nil {
		sections = append(sections, renderAnalysis(m.styles, m.state.Analysis))
	}
	if m.state.CanAsk() {
		sections = append(sections, m.renderQuestion())
	}

	sections = append(sections, "", m.renderKeyHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderFilePicker() string {
	lines := []string{m.fileInput.View()}

	if file := m.state.File; file != nil {
		info := fmt.Sprintf("%s %s (%s", emoji.GetEmoji("file"), file.Name, file.HumanSize())
		if file.Pages > 0 {
			info += fmt.Sprintf(", %d pages", file.Pages)
		}
		lines = append(lines, info+")")
	}

	button := "[ctrl+u] Upload Report"
	if m.state.CanSubmit() && m.state.Status != upload.StatusUploading {
		lines = append(lines, m.styles.Button.Render(button))
	} else {
		lines = append(lines, m.styles.ButtonDisabled.Render(button))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderProgress shows "status... (percent%)" over a bar sized to percent
func (m *Model) renderProgress() string {
	progress := m.state.Progress
	m.bar.SetPercent(progress.Percent)

	m.spinner.SetLabel(m.styles.Progress.Render(
		fmt.Sprintf("%s... (%s%%)", progress.Status, components.FormatPercent(progress.Percent))))

	return lipgloss.JoinVertical(lipgloss.Left, m.spinner.Render(), m.bar.Render())
}

func (m *Model) renderQuestion() string {
	lines := []string{
		m.styles.Section.Render(emoji.GetEmoji("question") + " Ask Questions About the Report"),
		m.questionInput.View(),
	}

	if chat := m.state.Chat; chat != nil {
		lines = append(lines, m.styles.AnswerBox.Render(renderAnswer(m.styles, chat)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderKeyHelp() string {
	hints := []string{"enter select", "ctrl+u upload", "tab switch", "f1 help", "esc quit"}
	return m.styles.Muted.Render(strings.Join(hints, " • "))
}

func (m *Model) renderLibraryReport() string {
	if m.viewing == nil {
		return ""
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render(emoji.GetEmoji("library")+" "+m.viewing.Name),
		m.styles.Muted.Render("Uploaded "+m.viewing.UploadedAt.Format("2006-01-02 15:04:05")),
		renderAnalysis(m.styles, m.viewing.Analysis),
		"",
		m.styles.Muted.Render("esc back"),
	)
	return m.styles.Panel.Width(m.mainWidth()).Render(content)
}

func (m *Model) renderHelp() string {
	lines := []string{
		m.styles.Title.Render(emoji.GetEmoji("help") + " ReportLens Help"),
		"",
		"  enter     select the typed PDF path / send the question",
		"  ctrl+u    upload the selected report",
		"  tab       move between file, question and uploaded reports",
		"  ↑↓ / j k  move in the uploaded reports list",
		"  /         filter uploaded reports by name or type",
		"  esc       go back, or quit from the main screen",
		"  ctrl+c    quit",
		"",
		m.styles.Muted.Render("Files larger than 10MB are rejected before upload."),
		"",
		m.styles.Muted.Render("esc back"),
	}
	return m.styles.Panel.Width(m.mainWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderAnalysis renders summary, classification, entities and recommendations
func renderAnalysis(styles *Styles, analysis *report.Analysis) string {
	if analysis == nil {
		return ""
	}

	lines := []string{
		styles.Section.Render("Report Analysis"),
		styles.Section.Render(emoji.GetEmoji("summary") + " Summary"),
		analysis.Summary,
		styles.Section.Render(emoji.GetEmoji("classification") + " Classification"),
		"Type: " + analysis.Classification.Label,
		"Confidence: " + styles.Confidence.Render(report.FormatConfidence(analysis.Classification.Confidence)),
		styles.Section.Render(emoji.GetEmoji("entity") + " Key Medical Terms"),
	}
	for _, e := range analysis.Entities {
		lines = append(lines, fmt.Sprintf("• %s (%s) - Confidence: %s", e.Text, e.Label, report.FormatConfidence(e.Confidence)))
	}

	lines = append(lines, styles.Section.Render(emoji.GetEmoji("recommendations")+" Recommendations"))
	for _, rec := range analysis.Recommendations {
		lines = append(lines, "• "+rec)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderAnswer renders the answer with its optional confidence and excerpt
func renderAnswer(styles *Styles, chat *report.ChatResponse) string {
	lines := []string{
		styles.Success.Render(emoji.GetEmoji("answer") + " Answer:"),
		chat.Answer,
	}
	if chat.Confidence != nil {
		lines = append(lines, "Confidence: "+styles.Confidence.Render(report.FormatConfidence(*chat.Confidence)))
	}
	if chat.RelevantText != "" {
		lines = append(lines, "", styles.Section.UnsetMarginTop().Render("Relevant Section:"), chat.RelevantText)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Run starts the interactive upload view
func Run(opts Options) error {
	model := NewModel(opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	model.cancelAll()
	return err
}
