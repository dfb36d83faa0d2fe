package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/producelens/backend/internal/domain"
)

// productMatchLimit is how many top-ranked products get field-level hit details.
const productMatchLimit = 5

// EvidenceQuery is the per-query input to the evidence collector.
type EvidenceQuery struct {
	Keywords   []string
	UserRegion string
	Season     string
	Products   []domain.ScoredProduct
}

// EvidenceCollector assembles supporting evidence from the catalog, the
// seasonal/regional facts and the FAQ corpus.
type EvidenceCollector struct {
	logger zerolog.Logger
}

// NewEvidenceCollector creates a new evidence collector
func NewEvidenceCollector(logger zerolog.Logger) *EvidenceCollector {
	return &EvidenceCollector{logger: logger}
}

// Collect returns evidence in fixed category order: product matches, seasonal
// info, regional info, price comparison, then one item per matching FAQ pair.
func (c *EvidenceCollector) Collect(snap *domain.Snapshot, query EvidenceQuery) []domain.EvidenceItem {
	keywords := lowerAll(query.Keywords)
	evidence := make([]domain.EvidenceItem, 0, 8)

	if item, ok := c.productMatches(snap, keywords, query.Products); ok {
		evidence = append(evidence, item)
	}
	if item, ok := seasonalInfo(snap, keywords, query.Season); ok {
		evidence = append(evidence, item)
	}
	if item, ok := regionalInfo(snap, query.UserRegion); ok {
		evidence = append(evidence, item)
	}
	if item, ok := priceComparison(snap, query.Products); ok {
		evidence = append(evidence, item)
	}
	evidence = append(evidence, faqEvidence(snap, keywords)...)

	c.logger.Debug().Int("items", len(evidence)).Msg("collected evidence")
	return evidence
}

// TruncateEvidence keeps the first topK items; topK <= 0 keeps everything.
func TruncateEvidence(evidence []domain.EvidenceItem, topK int) []domain.EvidenceItem {
	if topK > 0 && len(evidence) > topK {
		return evidence[:topK]
	}
	return evidence
}

func (c *EvidenceCollector) productMatches(snap *domain.Snapshot, keywords []string, products []domain.ScoredProduct) (domain.EvidenceItem, bool) {
	limit := min(len(products), productMatchLimit)

	var hits []domain.ProductHit
	for _, product := range products[:limit] {
		if hit, ok := matchProductFields(product.ProductRecord, keywords); ok {
			hits = append(hits, hit)
		}
	}
	if len(hits) == 0 {
		return domain.EvidenceItem{}, false
	}

	content, err := marshalCompact(hits)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode product matches")
		return domain.EvidenceItem{}, false
	}

	updated := hits[0].UpdateTime
	if updated == "" {
		updated = "unknown"
	}

	return domain.EvidenceItem{
		Type:    domain.EvidenceProductMatches,
		Content: content,
		Source:  sourceWithUpdate(snap.CatalogSource, updated),
	}, true
}

// matchProductFields reports which of name, aliases, category, region and season
// contain a keyword, with the original field value as the snippet.
func matchProductFields(product domain.ProductRecord, keywords []string) (domain.ProductHit, bool) {
	hit := domain.ProductHit{
		ID:            product.ID,
		Name:          product.Name,
		MatchedFields: []string{},
		Snippets:      []string{},
		UpdateTime:    product.UpdateTime,
	}

	add := func(field, snippet string) {
		hit.MatchedFields = append(hit.MatchedFields, field)
		hit.Snippets = append(hit.Snippets, snippet)
	}

	if containsAny(strings.ToLower(product.Name), keywords) {
		add("name", product.Name)
	}
	if aliasesContainAny(product.Aliases, keywords) {
		add("aliases", strings.Join(product.Aliases, ","))
	}
	if containsAny(strings.ToLower(product.Category), keywords) {
		add("category", product.Category)
	}
	if containsAny(strings.ToLower(product.Region), keywords) {
		add("region", product.Region)
	}
	if containsAny(strings.ToLower(product.Season), keywords) {
		add("season", product.Season)
	}

	return hit, len(hit.MatchedFields) > 0
}

func seasonalInfo(snap *domain.Snapshot, keywords []string, season string) (domain.EvidenceItem, bool) {
	crops := snap.Facts.SeasonalCrops[season]
	if len(crops) == 0 {
		return domain.EvidenceItem{}, false
	}
	if !containsAny(strings.ToLower(strings.Join(crops, " ")), keywords) {
		return domain.EvidenceItem{}, false
	}
	return domain.EvidenceItem{
		Type:    domain.EvidenceSeasonalInfo,
		Content: fmt.Sprintf("%s crops in season: %s", season, strings.Join(crops, ", ")),
		Source:  sourceWithUpdate(snap.FactsSource, snap.Facts.LastUpdated),
	}, true
}

func regionalInfo(snap *domain.Snapshot, region string) (domain.EvidenceItem, bool) {
	specialties := snap.Facts.RegionalSpecialties[region]
	if len(specialties) == 0 {
		return domain.EvidenceItem{}, false
	}
	return domain.EvidenceItem{
		Type:    domain.EvidenceRegionalInfo,
		Content: fmt.Sprintf("%s specialties: %s", region, strings.Join(specialties, ", ")),
		Source:  sourceWithUpdate(snap.FactsSource, snap.Facts.LastUpdated),
	}, true
}

// priceComparison summarizes average and lowest price for every category with at
// least two priced products, in order of first appearance.
func priceComparison(snap *domain.Snapshot, products []domain.ScoredProduct) (domain.EvidenceItem, bool) {
	if len(products) < 2 {
		return domain.EvidenceItem{}, false
	}

	var order []string
	prices := make(map[string][]float64)
	for _, p := range products {
		if !p.Price.Known {
			continue
		}
		if _, ok := prices[p.Category]; !ok {
			order = append(order, p.Category)
		}
		prices[p.Category] = append(prices[p.Category], p.Price.Value)
	}

	var lines []string
	for _, category := range order {
		values := prices[category]
		if len(values) < 2 {
			continue
		}
		sum, lowest := 0.0, values[0]
		for _, v := range values {
			sum += v
			lowest = min(lowest, v)
		}
		lines = append(lines, fmt.Sprintf("%s average: ¥%.1f, lowest ¥%.1f", category, sum/float64(len(values)), lowest))
	}
	if len(lines) == 0 {
		return domain.EvidenceItem{}, false
	}

	return domain.EvidenceItem{
		Type:    domain.EvidencePriceComparison,
		Content: strings.Join(lines, " | "),
		Source:  snap.CatalogSource,
	}, true
}

func faqEvidence(snap *domain.Snapshot, keywords []string) []domain.EvidenceItem {
	var evidence []domain.EvidenceItem
	for _, entry := range snap.FAQ.Entries {
		text := strings.ToLower(entry.Question + " " + entry.Answer)
		if !containsAny(text, keywords) {
			continue
		}
		evidence = append(evidence, domain.EvidenceItem{
			Type:    domain.EvidenceFAQ,
			Content: entry.Question + " " + entry.Answer,
			Source:  sourceWithUpdate(snap.FAQSource, snap.FAQ.LastUpdated),
		})
	}
	return evidence
}

func sourceWithUpdate(source, updated string) string {
	if updated == "" {
		updated = "unknown"
	}
	return fmt.Sprintf("%s(updated:%s)", source, updated)
}

// marshalCompact encodes v as JSON without HTML escaping or a trailing newline.
func marshalCompact(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
