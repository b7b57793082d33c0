package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WritePDF writes a file of the given size under dir with a PDF header and
// returns its path. The content is not a valid PDF document.
func WritePDF(tb testing.TB, dir, name string, size int) string {
	tb.Helper()

	header := []byte("%PDF-1.7\n")
	data := header
	if size > len(header) {
		data = append(header, bytes.Repeat([]byte("x"), size-len(header))...)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
