// Package library keeps the reports uploaded during this process so that the
// surrounding views can list and revisit them.
package library

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yildizm/ReportLens/internal/report"
	"github.com/yildizm/ReportLens/internal/upload"
)

// Listener is called after a report has been added
type Listener func(report.UploadedReport)

// Library is an in-memory, concurrency-safe list of uploaded reports
type Library struct {
	mu        sync.RWMutex
	reports   []report.UploadedReport
	byID      map[string]int
	listeners []Listener
	now       func() time.Time
}

// New creates an empty library
func New() *Library {
	return &Library{
		byID: make(map[string]int),
		now:  time.Now,
	}
}

// Add stores an analysed report under a fresh id
func (l *Library) Add(name string, analysis *report.Analysis) (report.UploadedReport, error) {
	if analysis == nil {
		return report.UploadedReport{}, fmt.Errorf("analysis cannot be nil")
	}

	l.mu.Lock()
	entry := report.UploadedReport{
		ID:         uuid.NewString(),
		Name:       name,
		Analysis:   analysis,
		UploadedAt: l.now(),
	}
	l.byID[entry.ID] = len(l.reports)
	l.reports = append(l.reports, entry)
	listeners := make([]Listener, len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, listener := range listeners {
		listener(entry)
	}
	return entry, nil
}

// OnUpload adapts the library to the upload state machine's notification
func (l *Library) OnUpload(n *upload.Notification) (report.UploadedReport, error) {
	if n == nil {
		return report.UploadedReport{}, fmt.Errorf("notification cannot be nil")
	}
	return l.Add(n.Name, n.Analysis)
}

// Subscribe registers a listener for new reports
func (l *Library) Subscribe(listener Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, listener)
}

// List returns the reports in upload order
func (l *Library) List() []report.UploadedReport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]report.UploadedReport, len(l.reports))
	copy(out, l.reports)
	return out
}

// Get returns the report with the given id
func (l *Library) Get(id string) (report.UploadedReport, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.byID[id]
	if !ok {
		return report.UploadedReport{}, false
	}
	return l.reports[idx], true
}

// Len returns the number of stored reports
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.reports)
}
