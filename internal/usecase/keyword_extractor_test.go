package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestKeywordExtractor_Extract(t *testing.T) {
	extractor := NewKeywordExtractor(zerolog.Nop())
	aliases := BuildAliasMap(testCatalog())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "empty query",
			query: "",
			want:  []string{},
		},
		{
			name:  "punctuation only",
			query: "?!, ...",
			want:  []string{},
		},
		{
			name:  "lower-cases unknown tokens",
			query: "Organic Tomato",
			want:  []string{"organic", "Tomato"},
		},
		{
			name:  "resolves aliases to canonical names",
			query: "番茄 and 黄瓜",
			want:  []string{"Tomato", "and", "Cucumber"},
		},
		{
			name:  "deduplicates alias and canonical name",
			query: "tomato 西红柿 番茄 tomato",
			want:  []string{"Tomato"},
		},
		{
			name:  "keeps digits and underscores",
			query: "under_20 yuan",
			want:  []string{"under_20", "yuan"},
		},
		{
			name:  "substring of alias is not resolved",
			query: "tomatoes",
			want:  []string{"tomatoes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.Extract(tt.query, aliases)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestKeywordExtractor_NilAliasMap(t *testing.T) {
	extractor := NewKeywordExtractor(zerolog.Nop())
	got := extractor.Extract("fresh pear", nil)
	if diff := cmp.Diff([]string{"fresh", "pear"}, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}
