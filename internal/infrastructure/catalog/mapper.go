package catalog

import "github.com/shopframe/backend/internal/domain"

// searchResponse is the wire shape of the catalog search API
type searchResponse struct {
	Products []wireProduct `json:"products"`
}

// wireProduct is a single product as returned by the catalog API
type wireProduct struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Vendor     string `json:"vendor"`
	MinPrice   string `json:"min_price"`
	MaxPrice   string `json:"max_price"`
	ImageURL   string `json:"image_url"`
	ProductURL string `json:"product_url"`
}

// mapProducts converts wire products into domain products, tagging the
// marketplace and capping at the requested limit. Products without a title
// are dropped at this boundary rather than propagated.
func mapProducts(wire []wireProduct, marketplace string, limit int) []domain.Product {
	products := make([]domain.Product, 0, len(wire))
	for _, p := range wire {
		if p.Title == "" {
			continue
		}
		products = append(products, domain.Product{
			ID:           p.ID,
			Title:        p.Title,
			Vendor:       p.Vendor,
			Price:        p.MinPrice,
			PriceMax:     p.MaxPrice,
			ImageURL:     p.ImageURL,
			CanonicalURL: p.ProductURL,
			Marketplace:  marketplace,
		})
		if limit > 0 && len(products) >= limit {
			break
		}
	}
	return products
}
