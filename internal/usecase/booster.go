package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopframe/backend/internal/domain"
)

// Boost defaults; both are configurable through BoosterConfig
const (
	DefaultLookbackWindow = 30 * 24 * time.Hour
	DefaultMinImpressions = 5
)

// BoosterConfig holds engagement boost configuration
type BoosterConfig struct {
	LookbackWindow time.Duration
	MinImpressions int
}

// EngagementBooster derives multiplicative re-weighting factors from the
// trailing interaction window and re-orders frame results with them. Boosts
// are recomputed on every request and never cached; only the pre-boost
// detection+search result is.
type EngagementBooster struct {
	events         domain.EventStore
	lookbackWindow time.Duration
	minImpressions int
	logger         zerolog.Logger
}

// NewEngagementBooster creates a booster over the interaction log
func NewEngagementBooster(events domain.EventStore, cfg BoosterConfig, logger zerolog.Logger) *EngagementBooster {
	lookback := cfg.LookbackWindow
	if lookback <= 0 {
		lookback = DefaultLookbackWindow
	}
	minImpressions := cfg.MinImpressions
	if minImpressions <= 0 {
		minImpressions = DefaultMinImpressions
	}

	return &EngagementBooster{
		events:         events,
		lookbackWindow: lookback,
		minImpressions: minImpressions,
		logger:         logger.With().Str("component", "booster").Logger(),
	}
}

// counter accumulates impressions and clicks for one boost key
type counter struct {
	impressions int
	clicks      int
}

// ComputeBoosts aggregates the trailing interaction window into a boost
// table. boost = 1 + clicks/impressions once a key has at least
// minImpressions impressions; below that floor the boost stays exactly 1 so
// a handful of noisy impressions cannot dominate ranking.
func (b *EngagementBooster) ComputeBoosts(ctx context.Context) (domain.BoostTable, error) {
	since := time.Now().Add(-b.lookbackWindow)
	events, err := b.events.EventsSince(ctx, since)
	if err != nil {
		return domain.BoostTable{}, err
	}

	byCategory := make(map[string]*counter)
	byQuery := make(map[string]*counter)
	for _, event := range events {
		if event.Category != "" {
			tally(byCategory, event.Category, event.Kind)
		}
		if event.Query != "" {
			tally(byQuery, event.Query, event.Kind)
		}
	}

	table := domain.BoostTable{
		ByCategory: b.boostMap(byCategory),
		ByQuery:    b.boostMap(byQuery),
	}
	b.logger.Debug().
		Int("events", len(events)).
		Int("categories", len(table.ByCategory)).
		Int("queries", len(table.ByQuery)).
		Msg("boosts computed")
	return table, nil
}

func tally(counters map[string]*counter, key, kind string) {
	c, ok := counters[key]
	if !ok {
		c = &counter{}
		counters[key] = c
	}
	switch kind {
	case domain.EventImpression:
		c.impressions++
	case domain.EventClick:
		c.clicks++
	}
}

func (b *EngagementBooster) boostMap(counters map[string]*counter) map[string]float64 {
	boosts := make(map[string]float64, len(counters))
	for key, c := range counters {
		boosts[key] = b.boost(c.clicks, c.impressions)
	}
	return boosts
}

func (b *EngagementBooster) boost(clicks, impressions int) float64 {
	if impressions < b.minImpressions {
		return 1
	}
	return 1 + float64(clicks)/float64(impressions)
}

// ApplyBoosts re-weights a frame result with the given table. Within each
// group products are re-scored as baseRank * queryBoost, where baseRank =
// (N-i)/N turns the ranker's order into a linear weight; groups themselves
// are re-ordered by category boost. Both sorts are stable, which makes the
// whole transform idempotent for a fixed table. Items are carried along with
// their groups so the result invariant (Groups[i].Query.Item == Items[i])
// survives the re-ordering.
func (b *EngagementBooster) ApplyBoosts(result *domain.FrameResult, table domain.BoostTable) *domain.FrameResult {
	if result == nil {
		return nil
	}

	type boostedGroup struct {
		group         domain.ResultGroup
		item          domain.DetectedItem
		categoryBoost float64
	}

	boosted := make([]boostedGroup, 0, len(result.Groups))
	for i, group := range result.Groups {
		item := group.Query.Item
		if i < len(result.Items) {
			item = result.Items[i]
		}

		queryBoost := table.QueryBoost(group.Query.QueryText)
		n := len(group.Products)

		type scoredProduct struct {
			product domain.Product
			score   float64
		}
		scored := make([]scoredProduct, n)
		for pos, product := range group.Products {
			baseRank := float64(n-pos) / float64(n)
			scored[pos] = scoredProduct{product: product, score: baseRank * queryBoost}
		}
		sort.SliceStable(scored, func(x, y int) bool { return scored[x].score > scored[y].score })

		products := make([]domain.Product, n)
		for pos, s := range scored {
			products[pos] = s.product
		}

		boosted = append(boosted, boostedGroup{
			group:         domain.ResultGroup{Query: group.Query, Products: products},
			item:          item,
			categoryBoost: table.CategoryBoost(item.BoostCategory()),
		})
	}

	sort.SliceStable(boosted, func(x, y int) bool { return boosted[x].categoryBoost > boosted[y].categoryBoost })

	out := &domain.FrameResult{
		Fingerprint: result.Fingerprint,
		Items:       make([]domain.DetectedItem, len(boosted)),
		Groups:      make([]domain.ResultGroup, len(boosted)),
	}
	for i, bg := range boosted {
		out.Items[i] = bg.item
		out.Groups[i] = bg.group
	}
	return out
}
