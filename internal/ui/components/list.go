package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/ReportLens/internal/report"
)

// ListItem is one uploaded report row
type ListItem struct {
	ID       string
	Name     string
	Label    string
	Uploaded string
}

// List is the navigable, filterable pane of uploaded reports
type List struct {
	Title    string
	Items    []ListItem
	Selected int
	Focused  bool
	Width    int
	Height   int

	filter    string
	filtering bool
	visible   []int // indices into Items matching filter
}

// NewReportList creates a list of uploaded reports, newest last
func NewReportList(reports []report.UploadedReport, width, height int) *List {
	list := &List{
		Title:  "Uploaded Reports",
		Width:  width,
		Height: height,
	}

	for _, r := range reports {
		item := ListItem{
			ID:       r.ID,
			Name:     r.Name,
			Uploaded: r.UploadedAt.Format("15:04:05"),
		}
		if r.Analysis != nil {
			item.Label = r.Analysis.Classification.Label
		}
		list.Items = append(list.Items, item)
	}
	list.applyFilter()

	return list
}

// SetFocused sets the focus state of the list
func (l *List) SetFocused(focused bool) {
	l.Focused = focused
	if !focused {
		l.filtering = false
	}
}

// GetSelectedItem returns the highlighted report, or nil when nothing matches
func (l *List) GetSelectedItem() *ListItem {
	if l.Selected < 0 || l.Selected >= len(l.visible) {
		return nil
	}
	return &l.Items[l.visible[l.Selected]]
}

// MoveUp moves selection up
func (l *List) MoveUp() {
	if l.Selected > 0 {
		l.Selected--
	}
}

// MoveDown moves selection down
func (l *List) MoveDown() {
	if l.Selected < len(l.visible)-1 {
		l.Selected++
	}
}

// StartFilter begins editing the filter; typed keys extend it until EndFilter
func (l *List) StartFilter() {
	l.filtering = true
}

// EndFilter stops editing but keeps the current filter applied
func (l *List) EndFilter() {
	l.filtering = false
}

// Filtering reports whether the filter is being edited
func (l *List) Filtering() bool {
	return l.filtering
}

// Filter returns the active filter text
func (l *List) Filter() string {
	return l.filter
}

// SetFilter replaces the filter and resets the selection
func (l *List) SetFilter(query string) {
	l.filter = query
	l.Selected = 0
	l.applyFilter()
}

// AppendFilter adds typed text to the filter
func (l *List) AppendFilter(text string) {
	l.SetFilter(l.filter + text)
}

// Backspace removes the last rune of the filter
func (l *List) Backspace() {
	if l.filter == "" {
		return
	}
	runes := []rune(l.filter)
	l.SetFilter(string(runes[:len(runes)-1]))
}

// Matches returns how many reports pass the filter
func (l *List) Matches() int {
	return len(l.visible)
}

// applyFilter keeps reports whose name or classification contains the filter,
// ignoring case
func (l *List) applyFilter() {
	l.visible = l.visible[:0]
	query := strings.ToLower(l.filter)

	for i, item := range l.Items {
		if query == "" ||
			strings.Contains(strings.ToLower(item.Name), query) ||
			strings.Contains(strings.ToLower(item.Label), query) {
			l.visible = append(l.visible, i)
		}
	}
}

// Render renders the list
func (l *List) Render() string {
	primaryColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	secondaryColor := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	headerStyle := lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(secondaryColor)

	content := []string{headerStyle.Render(l.Title)}

	switch {
	case l.filtering:
		content = append(content, fmt.Sprintf("/%s█", l.filter))
	case l.filter != "":
		content = append(content, mutedStyle.Render(fmt.Sprintf("Filter: %s (%d of %d)", l.filter, len(l.visible), len(l.Items))))
	}
	content = append(content, "")

	maxVisible := max(l.Height-4, 1)
	start := 0
	if l.Selected >= maxVisible {
		start = l.Selected - maxVisible + 1
	}
	end := min(start+maxVisible, len(l.visible))

	if len(l.visible) == 0 {
		content = append(content, mutedStyle.Render("No matching reports"))
	}
	for i := start; i < end; i++ {
		content = append(content, l.renderItem(&l.Items[l.visible[i]], i+1, i == l.Selected))
	}

	if len(l.visible) > maxVisible {
		content = append(content, "", mutedStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(l.visible))))
	}

	border := secondaryColor
	if l.Focused {
		border = primaryColor
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(l.Width)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

func (l *List) renderItem(item *ListItem, number int, selected bool) string {
	primaryColor := lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"}
	selectedColor := lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"}
	successColor := lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}

	line := fmt.Sprintf("%2d. %s - ", number, item.Name)
	if item.Label != "" {
		line += item.Label + " "
	}
	line += item.Uploaded

	style := lipgloss.NewStyle().Foreground(successColor)
	if selected {
		style = lipgloss.NewStyle().Background(selectedColor).Foreground(primaryColor)
	}
	return style.Width(max(l.Width-4, 1)).Render(line)
}
