package domain

// Evidence types, in the order the collector emits them.
const (
	EvidenceProductMatches  = "product_matches"
	EvidenceSeasonalInfo    = "seasonal_info"
	EvidenceRegionalInfo    = "regional_info"
	EvidencePriceComparison = "price_comparison"
	EvidenceFAQ             = "faq"
)

// EvidenceItem is a typed, sourced snippet supporting a search result.
type EvidenceItem struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// ProductHit describes which fields of a product matched the query keywords.
// A list of hits is serialized into the content of a product_matches item.
type ProductHit struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	MatchedFields []string `json:"matched_fields"`
	Snippets      []string `json:"snippets"`
	UpdateTime    string   `json:"update_time"`
}
