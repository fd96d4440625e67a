package usecase

import (
	"testing"

	"github.com/shopframe/backend/internal/domain"
)

func TestRankProducts(t *testing.T) {
	t.Run("deduplicates by canonical URL, first seen wins", func(t *testing.T) {
		products := []domain.Product{
			{ID: "1", Title: "First", CanonicalURL: "https://shop.example.com/p/1"},
			{ID: "2", Title: "Duplicate", CanonicalURL: "https://shop.example.com/p/1"},
			{ID: "3", Title: "Other", CanonicalURL: "https://shop.example.com/p/3"},
		}

		ranked := rankProducts(products)

		if len(ranked) != 2 {
			t.Fatalf("len = %d, want 2", len(ranked))
		}
		for _, p := range ranked {
			if p.ID == "2" {
				t.Error("duplicate survived dedup")
			}
		}
	})

	t.Run("empty canonical URLs are never merged", func(t *testing.T) {
		products := []domain.Product{
			{ID: "1", Title: "No URL A"},
			{ID: "2", Title: "No URL B"},
			{ID: "3", Title: "Has URL", CanonicalURL: "https://shop.example.com/p/3"},
		}

		ranked := rankProducts(products)

		if len(ranked) != 3 {
			t.Errorf("len = %d, want 3 (empty keys must stay unique)", len(ranked))
		}
	})

	t.Run("orders by completeness score descending", func(t *testing.T) {
		bare := domain.Product{ID: "bare", Title: "Bare"}
		full := domain.Product{
			ID: "full", Title: "Full", Vendor: "V", Price: "9.99",
			ImageURL: "https://cdn.example.com/i.jpg", CanonicalURL: "https://shop.example.com/p/full",
		}
		priced := domain.Product{ID: "priced", Title: "Priced", Price: "5.00"}

		ranked := rankProducts([]domain.Product{bare, full, priced})

		want := []string{"full", "priced", "bare"}
		for i, id := range want {
			if ranked[i].ID != id {
				t.Errorf("ranked[%d].ID = %s, want %s", i, ranked[i].ID, id)
			}
		}
	})

	t.Run("ties preserve search-result order", func(t *testing.T) {
		products := []domain.Product{
			{ID: "x", Title: "X", Price: "1.00"},
			{ID: "y", Title: "Y", Price: "2.00"},
			{ID: "z", Title: "Z", Price: "3.00"},
		}

		ranked := rankProducts(products)

		for i, id := range []string{"x", "y", "z"} {
			if ranked[i].ID != id {
				t.Errorf("ranked[%d].ID = %s, want %s (stable order)", i, ranked[i].ID, id)
			}
		}
	})
}

func TestCompletenessScore(t *testing.T) {
	tests := []struct {
		name string
		p    domain.Product
		want int
	}{
		{"bare", domain.Product{Title: "t"}, 0},
		{"image only", domain.Product{ImageURL: "u"}, 2},
		{"price only", domain.Product{Price: "1"}, 2},
		{"vendor only", domain.Product{Vendor: "v"}, 1},
		{"canonical only", domain.Product{CanonicalURL: "c"}, 1},
		{"everything", domain.Product{ImageURL: "u", Price: "1", Vendor: "v", CanonicalURL: "c"}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := completenessScore(tt.p); got != tt.want {
				t.Errorf("completenessScore = %d, want %d", got, tt.want)
			}
		})
	}
}
