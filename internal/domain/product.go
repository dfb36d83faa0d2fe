package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CatalogRow is a loosely typed product row as supplied by a catalog provider.
// Only ID and Name are required; every other field may be empty.
type CatalogRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Aliases    string `db:"aliases"`
	Category   string `db:"category"`
	Price      string `db:"price"`
	Region     string `db:"region"`
	Season     string `db:"season"`
	IsOrganic  string `db:"is_organic"`
	IsLocal    string `db:"is_local"`
	Store      string `db:"store"`
	UpdateTime string `db:"update_time"`
}

// ProductRecord is one normalized catalog entry. Records are immutable once loaded.
type ProductRecord struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases"`
	Category   string   `json:"category"`
	Price      Price    `json:"price"`
	Region     string   `json:"region"`
	Season     string   `json:"season"`
	IsOrganic  TriState `json:"is_organic"`
	IsLocal    TriState `json:"is_local"`
	Store      string   `json:"store"`
	UpdateTime string   `json:"update_time"`
}

// ScoredProduct decorates a copy of a ProductRecord with its per-query score.
type ScoredProduct struct {
	ProductRecord
	RelevanceScore int `json:"relevance_score"`
}

// Price is a product price that may be unknown.
type Price struct {
	Value float64
	Known bool
}

// KnownPrice returns a known price.
func KnownPrice(v float64) Price {
	return Price{Value: v, Known: true}
}

// UnknownPrice returns the unknown-price sentinel.
func UnknownPrice() Price {
	return Price{}
}

// ParsePrice parses a raw price. Missing, non-numeric and non-finite values are unknown.
func ParsePrice(raw string) Price {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownPrice()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return UnknownPrice()
	}
	return KnownPrice(v)
}

// AtMost reports whether the price is known and <= limit.
func (p Price) AtMost(limit float64) bool {
	return p.Known && p.Value <= limit
}

// AtLeast reports whether the price is known and >= limit.
func (p Price) AtLeast(limit float64) bool {
	return p.Known && p.Value >= limit
}

// String renders the price with two decimals, or "unknown".
func (p Price) String() string {
	if !p.Known {
		return "unknown"
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// MarshalJSON encodes an unknown price as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*p = KnownPrice(t)
	case string:
		*p = ParsePrice(t)
	default:
		*p = UnknownPrice()
	}
	return nil
}

// TriState is a boolean flag that may be unknown.
type TriState int

const (
	Unknown TriState = iota
	True
	False
)

// ParseTriState maps "true/1/yes" and "false/0/no" (case-insensitive); anything else is Unknown.
func ParseTriState(raw string) TriState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return True
	case "false", "0", "no":
		return False
	default:
		return Unknown
	}
}

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts booleans, strings, numbers and null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		if x {
			*t = True
		} else {
			*t = False
		}
	case string:
		*t = ParseTriState(x)
	case float64:
		*t = ParseTriState(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		*t = Unknown
	}
	return nil
}

// SplitAliases splits a comma-separated alias list, trimming and dropping empties.
func SplitAliases(raw string) []string {
	aliases := []string{}
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			aliases = append(aliases, s)
		}
	}
	return aliases
}
