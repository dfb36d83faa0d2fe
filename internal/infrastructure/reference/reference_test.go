package reference

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factsJSON = `{
  "seasonal_crops": {"summer": ["Tomato", "Cucumber"]},
  "regional_specialties": {"Beijing": ["Jingxi rice"]},
  "last_updated": "2024-06"
}`

const factsYAML = `seasonal_crops:
  summer: [Tomato, Cucumber]
regional_specialties:
  Beijing:
    - Jingxi rice
last_updated: "2024-06"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFactsFile_LoadFacts(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "json", file: "crops.json", content: factsJSON},
		{name: "yaml", file: "crops.yaml", content: factsYAML},
		{name: "yml", file: "crops.YML", content: factsYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewFactsFile(writeFile(t, tt.file, tt.content))
			assert.Equal(t, tt.file, provider.Name())

			facts, err := provider.LoadFacts(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"Tomato", "Cucumber"}, facts.SeasonalCrops["summer"])
			assert.Equal(t, []string{"Jingxi rice"}, facts.RegionalSpecialties["Beijing"])
			assert.Equal(t, "2024-06", facts.LastUpdated)
		})
	}
}

func TestFactsFile_Errors(t *testing.T) {
	_, err := NewFactsFile(filepath.Join(t.TempDir(), "missing.json")).LoadFacts(context.Background())
	assert.Error(t, err)

	_, err = NewFactsFile(writeFile(t, "crops.json", "{broken")).LoadFacts(context.Background())
	assert.Error(t, err)

	_, err = NewFactsFile(writeFile(t, "crops.yaml", "seasonal_crops: [")).LoadFacts(context.Background())
	assert.Error(t, err)
}

func TestFAQFile_LoadFAQ(t *testing.T) {
	provider := NewFAQFile(writeFile(t, "faq.md", "Q: a?\nA: b\n"))
	assert.Equal(t, "faq.md", provider.Name())

	text, err := provider.LoadFAQ(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Q: a?\nA: b\n", text)

	_, err = NewFAQFile(filepath.Join(t.TempDir(), "none.md")).LoadFAQ(context.Background())
	assert.Error(t, err)
}
