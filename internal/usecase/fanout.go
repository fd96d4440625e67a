package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shopframe/backend/internal/domain"
)

// Search query limits
const (
	DefaultResultLimit = 3
	MinResultLimit     = 1
	MaxResultLimit     = 5
)

// SearchFanout issues one catalog search per detected item, all in parallel,
// and assembles ranked result groups in input-item order.
type SearchFanout struct {
	catalog domain.CatalogSearcher
	limit   int
	logger  zerolog.Logger
}

// NewSearchFanout creates a fanout over a catalog searcher. limit is the
// per-query result cap, clamped to the supported range; zero means default.
func NewSearchFanout(catalog domain.CatalogSearcher, limit int, logger zerolog.Logger) *SearchFanout {
	if limit == 0 {
		limit = DefaultResultLimit
	}
	if limit < MinResultLimit {
		limit = MinResultLimit
	}
	if limit > MaxResultLimit {
		limit = MaxResultLimit
	}

	return &SearchFanout{
		catalog: catalog,
		limit:   limit,
		logger:  logger.With().Str("component", "fanout").Logger(),
	}
}

// SearchAll runs one search per item concurrently and waits for every search
// to settle (a full join, not a race). Each result lands in the slot matching
// its input item, so group order always mirrors item order regardless of
// completion order. A failed search degrades to an empty group for that item
// only; it never aborts the call or its siblings.
func (f *SearchFanout) SearchAll(ctx context.Context, items []domain.DetectedItem) []domain.ResultGroup {
	groups := make([]domain.ResultGroup, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		query := domain.SearchQuery{
			Item:      item,
			QueryText: item.Label,
			Limit:     f.limit,
		}
		groups[i] = domain.ResultGroup{Query: query, Products: []domain.Product{}}

		wg.Add(1)
		go func(slot int, q domain.SearchQuery) {
			defer wg.Done()

			result, err := f.catalog.Search(ctx, q.QueryText, q.Limit)
			if err != nil {
				f.logger.Warn().Err(err).Str("query", q.QueryText).Msg("search failed, returning empty group")
				return
			}
			groups[slot].Products = rankProducts(result.Products)
		}(i, query)
	}
	wg.Wait()

	return groups
}
