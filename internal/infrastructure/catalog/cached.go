package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopframe/backend/internal/domain"
	"github.com/shopframe/backend/internal/infrastructure/cache"
)

// CachedSearcher memoizes results of an underlying searcher for a short
// window. Frames taken seconds apart tend to detect the same items, so the
// fanout frequently re-issues identical queries.
type CachedSearcher struct {
	inner domain.CatalogSearcher
	memo  *cache.SearchMemo
	ttl   time.Duration
}

// NewCachedSearcher wraps a searcher with an in-memory result memo
func NewCachedSearcher(inner domain.CatalogSearcher, memo *cache.SearchMemo, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{
		inner: inner,
		memo:  memo,
		ttl:   ttl,
	}
}

// Search returns a memoized result when one is fresh, otherwise delegates
// to the wrapped searcher and memoizes on success.
func (s *CachedSearcher) Search(ctx context.Context, queryText string, limit int) (*domain.SearchResult, error) {
	key := memoKey(queryText, limit)
	if result, err := s.memo.Get(ctx, key); err == nil {
		return result, nil
	}

	result, err := s.inner.Search(ctx, queryText, limit)
	if err != nil {
		return nil, err
	}

	// Memo write failures only cost us a future network round trip
	_ = s.memo.Set(ctx, key, result, s.ttl)
	return result, nil
}

func memoKey(queryText string, limit int) string {
	return fmt.Sprintf("%s:%d", strings.ToLower(strings.TrimSpace(queryText)), limit)
}
