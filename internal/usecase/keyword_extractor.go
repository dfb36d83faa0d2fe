package usecase

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/producelens/backend/internal/domain"
)

// wordRegex matches Unicode word runs: letters, marks, digits and underscore.
var wordRegex = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// KeywordExtractor turns a free-text query into a deduplicated keyword set,
// resolving aliases to canonical product names.
type KeywordExtractor struct {
	logger zerolog.Logger
}

// NewKeywordExtractor creates a new keyword extractor
func NewKeywordExtractor(logger zerolog.Logger) *KeywordExtractor {
	return &KeywordExtractor{logger: logger}
}

// Extract tokenizes the lower-cased query and replaces tokens that exactly match a
// known alias with the canonical name. Keywords are returned once each, in first-seen order.
func (e *KeywordExtractor) Extract(query string, aliases domain.AliasMap) []string {
	tokens := tokenize(query)
	keywords := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))

	for _, token := range tokens {
		keyword := token
		if canonical, ok := aliases[token]; ok {
			keyword = canonical
		}
		if seen[keyword] {
			continue
		}
		seen[keyword] = true
		keywords = append(keywords, keyword)
	}

	e.logger.Debug().
		Str("query", query).
		Strs("keywords", keywords).
		Msg("extracted keywords")

	return keywords
}

// tokenize splits a string into lower-cased word tokens.
func tokenize(s string) []string {
	return wordRegex.FindAllString(strings.ToLower(s), -1)
}
