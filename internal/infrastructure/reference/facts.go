// Package reference provides the file-backed seasonal facts and FAQ sources.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/producelens/backend/internal/domain"
)

// FactsFile reads the seasonal/regional facts table from a JSON or YAML file,
// chosen by extension (.yaml and .yml are YAML, anything else is JSON).
type FactsFile struct {
	path string
}

// NewFactsFile creates a facts provider for path.
func NewFactsFile(path string) *FactsFile {
	return &FactsFile{path: path}
}

// Name returns the file name, used as the evidence source label.
func (f *FactsFile) Name() string {
	return filepath.Base(f.path)
}

// LoadFacts reads and decodes the file.
func (f *FactsFile) LoadFacts(ctx context.Context) (*domain.SeasonalFacts, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read facts: %w", err)
	}
	return DecodeFacts(data, isYAML(f.path))
}

// DecodeFacts parses a facts document.
func DecodeFacts(data []byte, asYAML bool) (*domain.SeasonalFacts, error) {
	var facts domain.SeasonalFacts
	if asYAML {
		if err := yaml.Unmarshal(data, &facts); err != nil {
			return nil, fmt.Errorf("parse facts yaml: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &facts); err != nil {
			return nil, fmt.Errorf("parse facts json: %w", err)
		}
	}
	return &facts, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
