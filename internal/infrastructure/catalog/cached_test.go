package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopframe/backend/internal/domain"
	"github.com/shopframe/backend/internal/infrastructure/cache"
)

type countingSearcher struct {
	calls  int
	result *domain.SearchResult
	err    error
}

func (c *countingSearcher) Search(_ context.Context, queryText string, limit int) (*domain.SearchResult, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if c.result != nil {
		return c.result, nil
	}
	return &domain.SearchResult{
		Query:    queryText,
		Products: []domain.Product{{ID: "p1", Title: "Hit", Marketplace: "shopify"}},
	}, nil
}

func TestCachedSearcher_MemoizesRepeatedQueries(t *testing.T) {
	inner := &countingSearcher{}
	searcher := NewCachedSearcher(inner, cache.NewSearchMemo(), time.Minute)
	ctx := context.Background()

	first, err := searcher.Search(ctx, "red sneakers", 3)
	require.NoError(t, err)
	second, err := searcher.Search(ctx, "red sneakers", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second identical query should hit the memo")
	assert.Equal(t, first.Products, second.Products)
}

func TestCachedSearcher_KeyNormalization(t *testing.T) {
	inner := &countingSearcher{}
	searcher := NewCachedSearcher(inner, cache.NewSearchMemo(), time.Minute)
	ctx := context.Background()

	_, err := searcher.Search(ctx, "Red Sneakers", 3)
	require.NoError(t, err)
	_, err = searcher.Search(ctx, "  red sneakers ", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedSearcher_DistinctLimitsAreDistinctEntries(t *testing.T) {
	inner := &countingSearcher{}
	searcher := NewCachedSearcher(inner, cache.NewSearchMemo(), time.Minute)
	ctx := context.Background()

	_, _ = searcher.Search(ctx, "red sneakers", 3)
	_, _ = searcher.Search(ctx, "red sneakers", 5)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedSearcher_ErrorsAreNotMemoized(t *testing.T) {
	inner := &countingSearcher{err: errors.New("upstream down")}
	searcher := NewCachedSearcher(inner, cache.NewSearchMemo(), time.Minute)
	ctx := context.Background()

	_, err := searcher.Search(ctx, "red sneakers", 3)
	require.Error(t, err)

	inner.err = nil
	result, err := searcher.Search(ctx, "red sneakers", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Products)
	assert.Equal(t, 2, inner.calls)
}
