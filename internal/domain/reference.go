package domain

import "time"

// Season labels used for the four calendar buckets.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// SeasonalFacts is the static season/region reference table.
type SeasonalFacts struct {
	SeasonalCrops       map[string][]string `json:"seasonal_crops" yaml:"seasonal_crops"`
	RegionalSpecialties map[string][]string `json:"regional_specialties" yaml:"regional_specialties"`
	LastUpdated         string              `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// FAQEntry is one question/answer pair.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQCorpus is the ordered list of FAQ pairs plus its optional update marker.
type FAQCorpus struct {
	Entries     []FAQEntry `json:"entries"`
	LastUpdated string     `json:"last_updated,omitempty"`
}

// AliasMap maps a lower-cased alias or canonical name to the canonical product name.
type AliasMap map[string]string

// Snapshot is an immutable, fully built view of all reference data.
// A new Snapshot replaces the old one as a whole on reload. Version counts
// loads within one process; Fingerprint hashes the normalized catalog, facts
// and FAQ, so equal content gives an equal fingerprint in any process.
type Snapshot struct {
	Version       int64
	Fingerprint   uint64
	LoadedAt      time.Time
	CatalogSource string
	FactsSource   string
	FAQSource     string
	Catalog       []ProductRecord
	Facts         SeasonalFacts
	FAQ           FAQCorpus
	Aliases       AliasMap
}
