package reference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FAQFile reads the raw Q/A text of the FAQ corpus from disk.
type FAQFile struct {
	path string
}

// NewFAQFile creates a FAQ provider for path.
func NewFAQFile(path string) *FAQFile {
	return &FAQFile{path: path}
}

// Name returns the file name, used as the evidence source label.
func (f *FAQFile) Name() string {
	return filepath.Base(f.path)
}

// LoadFAQ returns the file contents.
func (f *FAQFile) LoadFAQ(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("read faq: %w", err)
	}
	return string(data), nil
}
