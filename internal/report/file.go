package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pdfcpu would otherwise write its config dir under the user's home on first use
func init() {
	api.DisableConfigDir()
}

// SelectedFile is the file chosen by the user for upload
type SelectedFile struct {
	Path  string
	Name  string
	Size  int64
	Pages int // 0 when the page count could not be read
}

// OpenSelectedFile stats a local file and builds a SelectedFile from it.
// Only files with a .pdf extension are accepted; the page count is informational
// and a PDF pdfcpu cannot read is still selectable.
func OpenSelectedFile(path string) (*SelectedFile, error) {
	cleanPath := filepath.Clean(path)

	if !strings.EqualFold(filepath.Ext(cleanPath), ".pdf") {
		return nil, fmt.Errorf("%s is not a PDF file", filepath.Base(cleanPath))
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", cleanPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", cleanPath)
	}

	file := &SelectedFile{
		Path: cleanPath,
		Name: info.Name(),
		Size: info.Size(),
	}

	if pages, err := api.PageCountFile(cleanPath); err == nil {
		file.Pages = pages
	}

	return file, nil
}

// HumanSize formats the file size for display
func (f *SelectedFile) HumanSize() string {
	const unit = 1024
	if f.Size < unit {
		return fmt.Sprintf("%d B", f.Size)
	}
	div, exp := int64(unit), 0
	for n := f.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(f.Size)/float64(div), "KMGTPE"[exp])
}
