package usecase

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producelens/backend/internal/domain"
)

func evidenceTypes(evidence []domain.EvidenceItem) []string {
	types := make([]string, 0, len(evidence))
	for _, e := range evidence {
		types = append(types, e.Type)
	}
	return types
}

func collect(t *testing.T, keywords []string, region, season string) []domain.EvidenceItem {
	t.Helper()
	snap := testSnapshot()
	products := NewRelevanceScorer(zerolog.Nop()).Score(snap.Catalog, ScoreQuery{
		Keywords:   keywords,
		UserRegion: region,
		Season:     season,
	})
	return NewEvidenceCollector(zerolog.Nop()).Collect(snap, EvidenceQuery{
		Keywords:   keywords,
		UserRegion: region,
		Season:     season,
		Products:   products,
	})
}

func TestEvidenceCollector_FixedOrder(t *testing.T) {
	evidence := collect(t, []string{"Tomato"}, "Beijing", "summer")

	assert.Equal(t, []string{
		domain.EvidenceProductMatches,
		domain.EvidenceSeasonalInfo,
		domain.EvidenceRegionalInfo,
		domain.EvidenceFAQ,
	}, evidenceTypes(evidence))

	assert.Equal(t, "summer crops in season: Tomato, Cucumber, Watermelon", evidence[1].Content)
	assert.Equal(t, "crops.json(updated:2024-06)", evidence[1].Source)
	assert.Equal(t, "Beijing specialties: Jingxi rice, Pinggu peach", evidence[2].Content)
	assert.Equal(t, "How do I keep tomato fresh? Store at room temperature.Refrigerate only when fully ripe.", evidence[3].Content)
	assert.Equal(t, "faq.md(updated:2024-06-15)", evidence[3].Source)
}

func TestEvidenceCollector_ProductMatches(t *testing.T) {
	evidence := collect(t, []string{"Tomato"}, "Beijing", "summer")
	require.NotEmpty(t, evidence)

	item := evidence[0]
	assert.Equal(t, domain.EvidenceProductMatches, item.Type)
	assert.Equal(t, "products.csv(updated:2024-06-01)", item.Source)

	var hits []domain.ProductHit
	require.NoError(t, json.Unmarshal([]byte(item.Content), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, domain.ProductHit{
		ID:            1,
		Name:          "Tomato",
		MatchedFields: []string{"name"},
		Snippets:      []string{"Tomato"},
		UpdateTime:    "2024-06-01",
	}, hits[0])
}

func TestEvidenceCollector_ProductMatchesUnknownUpdate(t *testing.T) {
	evidence := collect(t, []string{"Cucumber"}, "", "winter")
	require.NotEmpty(t, evidence)
	assert.Equal(t, domain.EvidenceProductMatches, evidence[0].Type)
	assert.Equal(t, "products.csv(updated:unknown)", evidence[0].Source)
}

func TestEvidenceCollector_MatchedFields(t *testing.T) {
	product := domain.ProductRecord{
		ID:       9,
		Name:     "Summer Squash",
		Aliases:  []string{"zucchini", "courgette"},
		Category: "vegetable",
		Region:   "Hebei",
		Season:   "summer",
	}

	hit, ok := matchProductFields(product, []string{"summer", "zucchini", "hebei"})
	require.True(t, ok)
	assert.Equal(t, []string{"name", "aliases", "region", "season"}, hit.MatchedFields)
	assert.Equal(t, []string{"Summer Squash", "zucchini,courgette", "Hebei", "summer"}, hit.Snippets)

	_, ok = matchProductFields(product, []string{"apple"})
	assert.False(t, ok)
}

func TestEvidenceCollector_PriceComparison(t *testing.T) {
	evidence := collect(t, []string{"vegetable"}, "", "")

	var item *domain.EvidenceItem
	for i := range evidence {
		if evidence[i].Type == domain.EvidencePriceComparison {
			item = &evidence[i]
		}
	}
	require.NotNil(t, item)
	// Cucumber has no known price and is left out of the group.
	assert.Equal(t, "vegetable average: ¥10.0, lowest ¥8.0", item.Content)
	assert.Equal(t, "products.csv", item.Source)
}

func TestEvidenceCollector_PriceComparisonMultipleCategories(t *testing.T) {
	snap := testSnapshot()
	products := []domain.ScoredProduct{
		{ProductRecord: domain.ProductRecord{Name: "Apple", Category: "fruit", Price: domain.KnownPrice(25)}, RelevanceScore: 4},
		{ProductRecord: domain.ProductRecord{Name: "Tomato", Category: "vegetable", Price: domain.KnownPrice(12)}, RelevanceScore: 3},
		{ProductRecord: domain.ProductRecord{Name: "Pear", Category: "fruit", Price: domain.KnownPrice(18)}, RelevanceScore: 2},
		{ProductRecord: domain.ProductRecord{Name: "Lettuce", Category: "vegetable", Price: domain.KnownPrice(7)}, RelevanceScore: 1},
	}

	item, ok := priceComparison(snap, products)
	require.True(t, ok)
	assert.Equal(t, "fruit average: ¥21.5, lowest ¥18.0 | vegetable average: ¥9.5, lowest ¥7.0", item.Content)
}

func TestEvidenceCollector_PriceComparisonOmitted(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
	}{
		{name: "single product", keywords: []string{"Tomato"}},
		{name: "two products in different categories", keywords: []string{"Tomato", "Apple"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evidence := collect(t, tt.keywords, "Beijing", "summer")
			assert.NotContains(t, evidenceTypes(evidence), domain.EvidencePriceComparison)
		})
	}
}

func TestEvidenceCollector_EmptyQuery(t *testing.T) {
	t.Run("region with specialties", func(t *testing.T) {
		evidence := collect(t, []string{}, "Beijing", "summer")
		assert.Equal(t, []string{domain.EvidenceRegionalInfo}, evidenceTypes(evidence))
	})

	t.Run("region without specialties", func(t *testing.T) {
		evidence := collect(t, []string{}, "Shanghai", "summer")
		assert.Empty(t, evidence)
	})
}

func TestEvidenceCollector_SeasonalInfoNeedsKeyword(t *testing.T) {
	evidence := collect(t, []string{"Apple"}, "", "summer")
	assert.NotContains(t, evidenceTypes(evidence), domain.EvidenceSeasonalInfo)

	evidence = collect(t, []string{"Apple"}, "", "autumn")
	assert.Contains(t, evidenceTypes(evidence), domain.EvidenceSeasonalInfo)
}

func TestEvidenceCollector_ProductMatchesLimitedToTopFive(t *testing.T) {
	snap := testSnapshot()
	var products []domain.ScoredProduct
	for i := 1; i <= 7; i++ {
		products = append(products, domain.ScoredProduct{
			ProductRecord:  domain.ProductRecord{ID: int64(i), Name: "Greens", Aliases: []string{}},
			RelevanceScore: 3,
		})
	}

	item, ok := NewEvidenceCollector(zerolog.Nop()).productMatches(snap, []string{"greens"}, products)
	require.True(t, ok)

	var hits []domain.ProductHit
	require.NoError(t, json.Unmarshal([]byte(item.Content), &hits))
	assert.Len(t, hits, productMatchLimit)
}

func TestTruncateEvidence(t *testing.T) {
	evidence := collect(t, []string{"Tomato"}, "Beijing", "summer")
	require.Len(t, evidence, 4)

	tests := []struct {
		name string
		topK int
		want int
	}{
		{name: "zero keeps everything", topK: 0, want: 4},
		{name: "negative keeps everything", topK: -3, want: 4},
		{name: "prefix cut", topK: 2, want: 2},
		{name: "larger than list", topK: 10, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateEvidence(evidence, tt.topK)
			assert.Len(t, got, tt.want)
			assert.Equal(t, evidence[:tt.want], got)
		})
	}
}
