package domain

import (
	"encoding/json"
	"time"
)

// Preference values understood by the scorer.
const (
	PriceSensitivityLow    = "low"
	PriceSensitivityMedium = "medium"
	PriceSensitivityHigh   = "high"

	OrganicAlways = "always"
	OrganicNever  = "never"
	OrganicAuto   = "auto"
)

// Preferences is the per-user preference profile. Any field may be absent in
// stored data; accessors return the documented default for absent values.
type Preferences struct {
	PreferredCategories []string  `json:"preferred_categories"`
	PriceSensitivity    string    `json:"price_sensitivity,omitempty"`
	PreferredRegions    []string  `json:"preferred_regions"`
	PreferredCrops      []string  `json:"preferred_crops"`
	Allergies           []string  `json:"allergies"`
	Diet                string    `json:"diet,omitempty"`
	BudgetLevel         string    `json:"budget_level,omitempty"`
	MaxPrice            *float64  `json:"max_price"`
	OrganicPreference   string    `json:"organic_preference,omitempty"`
	SeasonalPreference  *bool     `json:"seasonal_preference,omitempty"`
	LastUpdated         time.Time `json:"last_updated"`
}

// DefaultPreferences returns the profile used for users with no stored memory.
func DefaultPreferences(now time.Time) Preferences {
	seasonal := true
	return Preferences{
		PreferredCategories: []string{},
		PriceSensitivity:    PriceSensitivityMedium,
		PreferredRegions:    []string{"local"},
		PreferredCrops:      []string{},
		Allergies:           []string{},
		Diet:                "auto",
		BudgetLevel:         "medium",
		OrganicPreference:   OrganicAuto,
		SeasonalPreference:  &seasonal,
		LastUpdated:         now,
	}
}

// Sensitivity returns the price sensitivity, defaulting to medium.
func (p Preferences) Sensitivity() string {
	if p.PriceSensitivity == "" {
		return PriceSensitivityMedium
	}
	return p.PriceSensitivity
}

// Organic returns the organic preference, defaulting to auto.
func (p Preferences) Organic() string {
	if p.OrganicPreference == "" {
		return OrganicAuto
	}
	return p.OrganicPreference
}

// WantsSeasonal returns the seasonal preference, defaulting to true.
func (p Preferences) WantsSeasonal() bool {
	if p.SeasonalPreference == nil {
		return true
	}
	return *p.SeasonalPreference
}

// UnmarshalJSON decodes field by field; a value of an unexpected type is
// treated as absent instead of failing the whole profile.
func (p *Preferences) UnmarshalJSON(data []byte) error {
	*p = Preferences{}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	decodeField(raw, "preferred_categories", &p.PreferredCategories)
	decodeField(raw, "price_sensitivity", &p.PriceSensitivity)
	decodeField(raw, "preferred_regions", &p.PreferredRegions)
	decodeField(raw, "preferred_crops", &p.PreferredCrops)
	decodeField(raw, "allergies", &p.Allergies)
	decodeField(raw, "diet", &p.Diet)
	decodeField(raw, "budget_level", &p.BudgetLevel)
	decodeField(raw, "max_price", &p.MaxPrice)
	decodeField(raw, "organic_preference", &p.OrganicPreference)
	decodeField(raw, "seasonal_preference", &p.SeasonalPreference)
	decodeField(raw, "last_updated", &p.LastUpdated)
	return nil
}

func decodeField[T any](raw map[string]json.RawMessage, key string, dst *T) {
	msg, ok := raw[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return
	}
	*dst = v
}

// SearchHistoryEntry records one search.
type SearchHistoryEntry struct {
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// PurchaseIntent records a detected shopping intent and the top matched products.
type PurchaseIntent struct {
	Intent    string    `json:"intent"`
	Products  []string  `json:"products"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSummary is a short question -> plan -> conclusion record.
type ConversationSummary struct {
	Question   string    `json:"question"`
	Plan       string    `json:"plan"`
	Conclusion string    `json:"conclusion"`
	Timestamp  time.Time `json:"timestamp"`
}

// UserMemory is everything the memory store keeps for a single user.
type UserMemory struct {
	UserID             string                `json:"user_id"`
	Preferences        Preferences           `json:"preferences"`
	SearchHistory      []SearchHistoryEntry  `json:"search_history"`
	PurchaseIntents    []PurchaseIntent      `json:"purchase_intents"`
	ShortTermSummaries []ConversationSummary `json:"short_term_summaries"`
	SavedItems         []json.RawMessage     `json:"saved_items"`
	CreatedAt          time.Time             `json:"created_at"`
	LastUpdated        time.Time             `json:"last_updated"`
}

// DefaultMemory returns the memory structure for a user the store has never seen.
func DefaultMemory(userID string, now time.Time) *UserMemory {
	return &UserMemory{
		UserID:             userID,
		Preferences:        DefaultPreferences(now),
		SearchHistory:      []SearchHistoryEntry{},
		PurchaseIntents:    []PurchaseIntent{},
		ShortTermSummaries: []ConversationSummary{},
		SavedItems:         []json.RawMessage{},
		CreatedAt:          now,
		LastUpdated:        now,
	}
}

// MemoryReadOutcome tags where the memory returned by a read came from.
type MemoryReadOutcome string

const (
	// MemoryFound means the store returned the user's memory.
	MemoryFound MemoryReadOutcome = "found"
	// MemoryDefault means the user is unknown and the default memory was used.
	MemoryDefault MemoryReadOutcome = "default"
	// MemoryFallback means the store failed and the default memory was used.
	MemoryFallback MemoryReadOutcome = "fallback"
)

// MemoryReport tells the caller which memory side effects of a retrieval persisted.
type MemoryReport struct {
	Read         MemoryReadOutcome `json:"read"`
	HistorySaved bool              `json:"history_saved"`
	IntentSaved  bool              `json:"intent_saved"`
	SummarySaved *bool             `json:"summary_saved,omitempty"`
	Errors       []string          `json:"errors,omitempty"`
}
