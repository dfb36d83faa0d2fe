package usecase

import (
	"strings"

	"github.com/producelens/backend/internal/domain"
)

// BuildAliasMap maps every canonical name and alias (lower-cased) to its canonical
// product name. When two products declare the same alias, the later catalog entry wins.
func BuildAliasMap(catalog []domain.ProductRecord) domain.AliasMap {
	aliases := make(domain.AliasMap, len(catalog)*2)
	for _, product := range catalog {
		aliases[strings.ToLower(product.Name)] = product.Name
		for _, alias := range product.Aliases {
			alias = strings.TrimSpace(alias)
			if alias == "" {
				continue
			}
			aliases[strings.ToLower(alias)] = product.Name
		}
	}
	return aliases
}

// AliasCollisions lists aliases claimed by more than one distinct product, in catalog order.
// The map built by BuildAliasMap still resolves them to the last claimant.
func AliasCollisions(catalog []domain.ProductRecord) []string {
	owner := make(map[string]string)
	reported := make(map[string]bool)
	var collisions []string

	for _, product := range catalog {
		for _, alias := range product.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				continue
			}
			prev, seen := owner[key]
			if seen && prev != product.Name && !reported[key] {
				collisions = append(collisions, key)
				reported[key] = true
			}
			owner[key] = product.Name
		}
	}
	return collisions
}
