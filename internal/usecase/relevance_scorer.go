package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/producelens/backend/internal/domain"
)

// Keyword signal points
const (
	nameMatchPoints     = 3 // Keyword inside the product name
	aliasMatchPoints    = 2 // Keyword inside any alias
	categoryMatchPoints = 1 // Keyword inside the category
)

// Context and preference bonuses
const (
	regionExactBonus      = 2
	regionPreferenceBonus = 1
	seasonMatchBonus      = 1
	seasonPreferenceBonus = 1
	organicBonus          = 1
	budgetCapBonus        = 1
	priceSensitivityBonus = 1
	preferredCropBonus    = 1
)

// Price thresholds for price sensitivity
const (
	highSensitivityMaxPrice = 15.0
	lowSensitivityMinPrice  = 20.0
)

// ScoreQuery is the per-query context a catalog is scored against.
type ScoreQuery struct {
	Keywords    []string
	UserRegion  string
	Season      string
	Preferences domain.Preferences
}

// RelevanceScorer ranks catalog records against a keyword set and user context.
type RelevanceScorer struct {
	logger zerolog.Logger
}

// NewRelevanceScorer creates a new relevance scorer
func NewRelevanceScorer(logger zerolog.Logger) *RelevanceScorer {
	return &RelevanceScorer{logger: logger}
}

// Score returns every record with a positive score, highest first. Records with
// equal scores keep their catalog order.
func (s *RelevanceScorer) Score(catalog []domain.ProductRecord, query ScoreQuery) []domain.ScoredProduct {
	q := newPreparedQuery(query)
	results := make([]domain.ScoredProduct, 0)

	for i := range catalog {
		score := s.scoreRecord(&catalog[i], q)
		if score <= 0 {
			continue
		}
		results = append(results, domain.ScoredProduct{
			ProductRecord:  copyRecord(catalog[i]),
			RelevanceScore: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	s.logger.Debug().
		Strs("keywords", query.Keywords).
		Str("region", query.UserRegion).
		Str("season", query.Season).
		Int("matches", len(results)).
		Msg("scored catalog")

	return results
}

// preparedQuery holds lower-cased query values computed once per Score call.
type preparedQuery struct {
	keywords         []string
	userRegion       string
	season           string
	preferredRegions map[string]bool
	preferredCrops   []string
	prefs            domain.Preferences
}

func newPreparedQuery(query ScoreQuery) preparedQuery {
	regions := make(map[string]bool, len(query.Preferences.PreferredRegions))
	for _, r := range query.Preferences.PreferredRegions {
		regions[r] = true
	}

	var crops []string
	for _, c := range query.Preferences.PreferredCrops {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			crops = append(crops, c)
		}
	}

	return preparedQuery{
		keywords:         lowerAll(query.Keywords),
		userRegion:       query.UserRegion,
		season:           strings.ToLower(query.Season),
		preferredRegions: regions,
		preferredCrops:   crops,
		prefs:            query.Preferences,
	}
}

// scoreRecord sums the keyword signals of a record; context and preference
// bonuses only apply to records that matched at least one keyword.
func (s *RelevanceScorer) scoreRecord(product *domain.ProductRecord, q preparedQuery) int {
	name := strings.ToLower(product.Name)
	category := strings.ToLower(product.Category)

	score := 0
	if containsAny(name, q.keywords) {
		score += nameMatchPoints
	}
	if aliasesContainAny(product.Aliases, q.keywords) {
		score += aliasMatchPoints
	}
	if containsAny(category, q.keywords) {
		score += categoryMatchPoints
	}
	if score == 0 {
		return 0
	}

	score += contextBonus(product, q)
	score += s.preferenceBonus(product, name, category, q)
	return score
}

// contextBonus scores region and season fit.
func contextBonus(product *domain.ProductRecord, q preparedQuery) int {
	bonus := 0
	if q.userRegion != "" && product.Region == q.userRegion {
		bonus += regionExactBonus
	}
	if len(q.preferredRegions) > 0 && q.preferredRegions[product.Region] {
		bonus += regionPreferenceBonus
	}
	if q.season != "" && strings.Contains(strings.ToLower(product.Season), q.season) {
		bonus += seasonMatchBonus
		if q.prefs.WantsSeasonal() {
			bonus += seasonPreferenceBonus
		}
	}
	return bonus
}

// preferenceBonus scores organic, price and crop preferences. A failure while
// evaluating one record only drops that record's bonus.
func (s *RelevanceScorer) preferenceBonus(product *domain.ProductRecord, name, category string, q preparedQuery) (bonus int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().
				Int64("product_id", product.ID).
				Str("panic", fmt.Sprint(r)).
				Msg("preference bonus skipped")
			bonus = 0
		}
	}()

	switch q.prefs.Organic() {
	case domain.OrganicAlways:
		if product.IsOrganic == domain.True {
			bonus += organicBonus
		}
	case domain.OrganicNever:
		if product.IsOrganic == domain.False {
			bonus += organicBonus
		}
	}

	if q.prefs.MaxPrice != nil && product.Price.AtMost(*q.prefs.MaxPrice) {
		bonus += budgetCapBonus
	}

	switch q.prefs.Sensitivity() {
	case domain.PriceSensitivityHigh:
		if product.Price.AtMost(highSensitivityMaxPrice) {
			bonus += priceSensitivityBonus
		}
	case domain.PriceSensitivityLow:
		if product.Price.AtLeast(lowSensitivityMinPrice) {
			bonus += priceSensitivityBonus
		}
	}

	for _, crop := range q.preferredCrops {
		if strings.Contains(name, crop) || strings.Contains(category, crop) {
			bonus += preferredCropBonus
			break
		}
	}

	return bonus
}

// containsAny reports whether any keyword is a substring of s.
func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// aliasesContainAny reports whether any keyword is a substring of any lower-cased alias.
func aliasesContainAny(aliases []string, keywords []string) bool {
	for _, alias := range aliases {
		if containsAny(strings.ToLower(alias), keywords) {
			return true
		}
	}
	return false
}

// copyRecord returns a record whose alias slice is not shared with the catalog.
func copyRecord(p domain.ProductRecord) domain.ProductRecord {
	aliases := make([]string, len(p.Aliases))
	copy(aliases, p.Aliases)
	p.Aliases = aliases
	return p
}
