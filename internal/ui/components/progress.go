package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a fill bar sized to a 0-100 percentage
type ProgressBar struct {
	Width   int
	Percent float64
	Label   string
}

// NewProgressBar creates a new progress bar
func NewProgressBar(width int) *ProgressBar {
	return &ProgressBar{Width: width}
}

// SetPercent updates the progress, clamped to [0, 100]
func (p *ProgressBar) SetPercent(percent float64) {
	p.Percent = math.Max(0, math.Min(percent, 100))
}

// SetLabel sets the progress label
func (p *ProgressBar) SetLabel(label string) {
	p.Label = label
}

// Render renders the progress bar
func (p *ProgressBar) Render() string {
	// Define styles locally to avoid import cycle
	progressStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	filledWidth := p.FilledWidth()
	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", p.Width-filledWidth)

	bar := fmt.Sprintf("[%s]", progressStyle.Render(filled)+mutedStyle.Render(empty))
	if p.Label != "" {
		return p.Label + "\n" + bar
	}
	return bar
}

// FilledWidth is the number of filled cells for the current percentage
func (p *ProgressBar) FilledWidth() int {
	if p.Width <= 0 {
		return 0
	}
	percent := math.Max(0, math.Min(p.Percent, 100))
	return int(float64(p.Width) * percent / 100)
}

// FormatPercent renders a percentage with at most one decimal place
func FormatPercent(percent float64) string {
	return strconv.FormatFloat(math.Round(percent*10)/10, 'f', -1, 64)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner represents a spinning progress indicator
type Spinner struct {
	Frame int
	Label string
}

// NewSpinner creates a new spinner
func NewSpinner() *Spinner {
	return &Spinner{}
}

// SetLabel sets the spinner label
func (s *Spinner) SetLabel(label string) {
	s.Label = label
}

// Tick advances the spinner animation
func (s *Spinner) Tick() {
	s.Frame = (s.Frame + 1) % len(spinnerFrames)
}

// Render renders the spinner
func (s *Spinner) Render() string {
	progressStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	spinner := progressStyle.Render(spinnerFrames[s.Frame%len(spinnerFrames)])

	if s.Label != "" {
		return fmt.Sprintf("%s %s", spinner, s.Label)
	}
	return spinner
}
