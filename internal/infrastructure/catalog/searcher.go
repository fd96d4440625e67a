package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shopframe/backend/internal/domain"
)

// Marketplace identifiers and source selection values
const (
	SourceShopify = "shopify"
	SourceAmazon  = "amazon"
	SourceAll     = "all"
)

// NormalizeSource maps arbitrary source strings onto a supported backend.
// Anything other than "amazon" or "all" falls back to "shopify".
func NormalizeSource(source string) string {
	if source == SourceAmazon || source == SourceAll {
		return source
	}
	return SourceShopify
}

// Searcher selects the catalog backend per the configured source: a single
// marketplace or a blended search across both.
type Searcher struct {
	source  string
	shopify *Client
	amazon  *Client
}

// NewSearcher creates a source-selecting searcher over the given clients
func NewSearcher(source string, shopify, amazon *Client) *Searcher {
	return &Searcher{
		source:  NormalizeSource(source),
		shopify: shopify,
		amazon:  amazon,
	}
}

// Search runs one catalog search against the configured source. For the
// blended source both marketplaces are queried concurrently with split
// limits and the merged list is capped at the requested limit.
func (s *Searcher) Search(ctx context.Context, queryText string, limit int) (*domain.SearchResult, error) {
	switch s.source {
	case SourceAmazon:
		return s.amazon.Search(ctx, queryText, limit)
	case SourceAll:
		return s.searchBlended(ctx, queryText, limit)
	default:
		return s.shopify.Search(ctx, queryText, limit)
	}
}

func (s *Searcher) searchBlended(ctx context.Context, queryText string, limit int) (*domain.SearchResult, error) {
	splitLimit := (limit + 1) / 2
	if splitLimit < 1 {
		splitLimit = 1
	}

	var shopifyResult, amazonResult *domain.SearchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.shopify.Search(gctx, queryText, splitLimit)
		shopifyResult = res
		return err
	})
	g.Go(func() error {
		res, err := s.amazon.Search(gctx, queryText, splitLimit)
		amazonResult = res
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := append([]domain.Product{}, shopifyResult.Products...)
	merged = append(merged, amazonResult.Products...)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	return &domain.SearchResult{Query: queryText, Products: merged}, nil
}
