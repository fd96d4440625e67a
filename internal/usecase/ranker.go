package usecase

import (
	"sort"

	"github.com/shopframe/backend/internal/domain"
)

// Completeness score weights. A product showing an image and a price is far
// more useful in the sidebar than a bare title, so those dominate.
const (
	scoreImage     = 2
	scorePrice     = 2
	scoreVendor    = 1
	scoreCanonical = 1
)

// rankProducts deduplicates and orders one group's products. Dedup identity
// is the non-empty CanonicalURL (first seen wins); products without one are
// always treated as unique. Surviving products are ordered by completeness
// score, descending, with ties keeping the original search-result order.
func rankProducts(products []domain.Product) []domain.Product {
	seen := make(map[string]bool, len(products))
	deduped := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.CanonicalURL != "" {
			if seen[p.CanonicalURL] {
				continue
			}
			seen[p.CanonicalURL] = true
		}
		deduped = append(deduped, p)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return completenessScore(deduped[i]) > completenessScore(deduped[j])
	})

	return deduped
}

// completenessScore tallies evidence that a product entry is complete (max 6)
func completenessScore(p domain.Product) int {
	score := 0
	if p.ImageURL != "" {
		score += scoreImage
	}
	if p.Price != "" {
		score += scorePrice
	}
	if p.Vendor != "" {
		score += scoreVendor
	}
	if p.CanonicalURL != "" {
		score += scoreCanonical
	}
	return score
}
