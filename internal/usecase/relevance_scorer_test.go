package usecase

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producelens/backend/internal/domain"
)

func scoresByName(products []domain.ScoredProduct) map[string]int {
	scores := make(map[string]int, len(products))
	for _, p := range products {
		scores[p.Name] = p.RelevanceScore
	}
	return scores
}

func names(products []domain.ScoredProduct) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestRelevanceScorer_OrganicTomatoScenario(t *testing.T) {
	scorer := NewRelevanceScorer(zerolog.Nop())

	results := scorer.Score(testCatalog(), ScoreQuery{
		Keywords:    []string{"organic", "Tomato"},
		UserRegion:  "Beijing",
		Season:      "summer",
		Preferences: domain.Preferences{OrganicPreference: domain.OrganicAlways},
	})

	require.NotEmpty(t, results)
	assert.Equal(t, "Tomato", results[0].Name)
	assert.GreaterOrEqual(t, results[0].RelevanceScore, 8)
	assert.NotContains(t, names(results), "Lettuce")
}

func TestRelevanceScorer_Signals(t *testing.T) {
	scorer := NewRelevanceScorer(zerolog.Nop())
	catalog := []domain.ProductRecord{
		{ID: 1, Name: "Tomato", Aliases: []string{"番茄"}, Category: "vegetable", Price: domain.KnownPrice(12), Region: "Beijing", Season: "summer", IsOrganic: domain.True},
	}

	tests := []struct {
		name  string
		query ScoreQuery
		want  int
	}{
		{
			name:  "name only",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{}},
			want:  3,
		},
		{
			name:  "alias only",
			query: ScoreQuery{Keywords: []string{"番茄"}},
			want:  2,
		},
		{
			name:  "category only",
			query: ScoreQuery{Keywords: []string{"veg"}},
			want:  1,
		},
		{
			name:  "name and category",
			query: ScoreQuery{Keywords: []string{"tomato", "vegetable"}},
			want:  4,
		},
		{
			name:  "exact region",
			query: ScoreQuery{Keywords: []string{"tomato"}, UserRegion: "Beijing"},
			want:  5,
		},
		{
			name:  "preferred region",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{PreferredRegions: []string{"Beijing"}}},
			want:  4,
		},
		{
			name:  "season with default seasonal preference",
			query: ScoreQuery{Keywords: []string{"tomato"}, Season: "summer"},
			want:  5,
		},
		{
			name:  "season without seasonal preference",
			query: ScoreQuery{Keywords: []string{"tomato"}, Season: "summer", Preferences: domain.Preferences{SeasonalPreference: boolPtr(false)}},
			want:  4,
		},
		{
			name:  "organic always",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{OrganicPreference: domain.OrganicAlways}},
			want:  4,
		},
		{
			name:  "organic never on organic product",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{OrganicPreference: domain.OrganicNever}},
			want:  3,
		},
		{
			name:  "budget cap met",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{MaxPrice: floatPtr(12)}},
			want:  4,
		},
		{
			name:  "budget cap exceeded",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{MaxPrice: floatPtr(10)}},
			want:  3,
		},
		{
			name:  "high price sensitivity",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{PriceSensitivity: domain.PriceSensitivityHigh}},
			want:  4,
		},
		{
			name:  "low price sensitivity on cheap product",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{PriceSensitivity: domain.PriceSensitivityLow}},
			want:  3,
		},
		{
			name:  "preferred crop",
			query: ScoreQuery{Keywords: []string{"tomato"}, Preferences: domain.Preferences{PreferredCrops: []string{"Veget"}}},
			want:  4,
		},
		{
			name:  "context bonuses need a keyword hit",
			query: ScoreQuery{Keywords: []string{"rice"}, UserRegion: "Beijing", Season: "summer"},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := scorer.Score(catalog, tt.query)
			if tt.want == 0 {
				assert.Empty(t, results)
				return
			}
			require.Len(t, results, 1)
			assert.Equal(t, tt.want, results[0].RelevanceScore)
		})
	}
}

func TestRelevanceScorer_UnknownPriceGetsNoPriceBonus(t *testing.T) {
	scorer := NewRelevanceScorer(zerolog.Nop())
	catalog := []domain.ProductRecord{
		{ID: 1, Name: "Cucumber", Price: domain.UnknownPrice()},
	}

	for _, prefs := range []domain.Preferences{
		{MaxPrice: floatPtr(100)},
		{PriceSensitivity: domain.PriceSensitivityHigh},
		{PriceSensitivity: domain.PriceSensitivityLow},
	} {
		results := scorer.Score(catalog, ScoreQuery{Keywords: []string{"cucumber"}, Preferences: prefs})
		require.Len(t, results, 1)
		assert.Equal(t, 3, results[0].RelevanceScore)
	}
}

func TestRelevanceScorer_StableOrderAndExclusion(t *testing.T) {
	scorer := NewRelevanceScorer(zerolog.Nop())

	results := scorer.Score(testCatalog(), ScoreQuery{Keywords: []string{"vegetable"}})

	// Tomato, Lettuce and Cucumber all score 1; catalog order is kept.
	assert.Equal(t, []string{"Tomato", "Lettuce", "Cucumber"}, names(results))
	for _, p := range results {
		assert.Positive(t, p.RelevanceScore)
	}
}

func TestRelevanceScorer_SortedDescending(t *testing.T) {
	scorer := NewRelevanceScorer(zerolog.Nop())

	results := scorer.Score(testCatalog(), ScoreQuery{
		Keywords:   []string{"vegetable", "Cucumber"},
		UserRegion: "Beijing",
		Season:     "summer",
	})

	assert.Equal(t, map[string]int{"Cucumber": 8, "Tomato": 5, "Lettuce": 3}, scoresByName(results))
	assert.Equal(t, []string{"Cucumber", "Tomato", "Lettuce"}, names(results))
}

func TestRelevanceScorer_EmptyKeywords(t *testing.T) {
	scorer := NewRelevanceScorer(zerolog.Nop())
	results := scorer.Score(testCatalog(), ScoreQuery{UserRegion: "Beijing", Season: "summer"})
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRelevanceScorer_DoesNotShareCatalogAliases(t *testing.T) {
	scorer := NewRelevanceScorer(zerolog.Nop())
	catalog := testCatalog()

	results := scorer.Score(catalog, ScoreQuery{Keywords: []string{"tomato"}})
	require.NotEmpty(t, results)
	results[0].Aliases[0] = "changed"

	assert.Equal(t, "西红柿", catalog[0].Aliases[0])
}
