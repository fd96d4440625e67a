package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shopframe/backend/internal/domain"
)

// Analytics milestone event names
const (
	eventFrameCaptured  = "frame_captured"
	eventCacheHit       = "cache_hit"
	eventCacheMiss      = "cache_miss"
	eventItemsDetected  = "items_detected"
	eventResultsShown   = "catalog_results_shown"
	eventErrorOccurred  = "error_occurred"
	eventProductClicked = "product_clicked"
)

// backgroundTimeout bounds each detached store/analytics job
const backgroundTimeout = 10 * time.Second

// PipelineConfig holds frame pipeline configuration
type PipelineConfig struct {
	FreshnessWindow time.Duration
}

// FramePipeline orchestrates one frame request: fingerprint, cache lookup,
// extraction, search fanout, ranking, boosting, and the fire-and-forget
// persistence and analytics side effects.
type FramePipeline struct {
	extractor *ItemExtractor
	fanout    *SearchFanout
	booster   *EngagementBooster
	frames    domain.FrameStore
	events    domain.EventStore
	analytics domain.AnalyticsSink
	freshness time.Duration
	logger    zerolog.Logger

	background sync.WaitGroup
}

// NewFramePipeline wires the pipeline from its collaborators
func NewFramePipeline(
	extractor *ItemExtractor,
	fanout *SearchFanout,
	booster *EngagementBooster,
	frames domain.FrameStore,
	events domain.EventStore,
	analytics domain.AnalyticsSink,
	cfg PipelineConfig,
	logger zerolog.Logger,
) *FramePipeline {
	freshness := cfg.FreshnessWindow
	if freshness <= 0 {
		freshness = 24 * time.Hour
	}

	return &FramePipeline{
		extractor: extractor,
		fanout:    fanout,
		booster:   booster,
		frames:    frames,
		events:    events,
		analytics: analytics,
		freshness: freshness,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// ProcessFrame runs the full pipeline for one captured frame.
// Cache hit: the stored result is re-boosted with fresh boosts and returned.
// Cache miss: extract items, fan out searches, rank, store asynchronously,
// boost, return. Only a failed extraction aborts the request; every
// persistence or analytics failure is logged and absorbed.
func (p *FramePipeline) ProcessFrame(ctx context.Context, imageBytes []byte, meta domain.SessionMetadata) (*domain.FrameResponse, error) {
	if len(imageBytes) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	requestID := uuid.NewString()
	fingerprint := domain.Fingerprint(imageBytes)
	logger := p.logger.With().Str("request_id", requestID).Str("fingerprint", fingerprint).Logger()

	p.track(eventFrameCaptured, meta.UserID, map[string]any{
		"image_size_bytes": len(imageBytes),
		"mime_type":        meta.MimeType,
	})

	// Boosts reflect the latest trailing window on every request, hit or
	// miss. A failed computation degrades to an all-ones table.
	boosts, err := p.booster.ComputeBoosts(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("boost computation failed, using defaults")
		boosts = domain.BoostTable{}
	}

	cached, err := p.frames.LatestFrame(ctx, fingerprint, time.Now().Add(-p.freshness))
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		logger.Warn().Err(err).Msg("cache lookup failed, treating as miss")
	}
	if err == nil && cached != nil {
		logger.Info().Str("session_id", cached.SessionID).Msg("cache hit")
		p.track(eventCacheHit, meta.UserID, map[string]any{"fingerprint": fingerprint})

		result := cached.Result
		boostedResult := p.booster.ApplyBoosts(&result, boosts)
		p.recordImpressions(meta.UserID, requestID, boostedResult)

		return &domain.FrameResponse{
			FrameResult: *boostedResult,
			SessionID:   cached.SessionID,
			RequestID:   requestID,
			Cached:      true,
		}, nil
	}

	p.track(eventCacheMiss, meta.UserID, map[string]any{"fingerprint": fingerprint})

	items, err := p.extractor.Extract(ctx, imageBytes, meta.MimeType)
	if err != nil {
		logger.Error().Err(err).Msg("extraction failed")
		p.track(eventErrorOccurred, meta.UserID, map[string]any{
			"error_stage":   "extract",
			"error_message": err.Error(),
		})
		return nil, err
	}

	p.track(eventItemsDetected, meta.UserID, map[string]any{"items_detected_count": len(items)})

	groups := p.fanout.SearchAll(ctx, items)
	result := &domain.FrameResult{
		Fingerprint: fingerprint,
		Items:       items,
		Groups:      groups,
	}

	p.track(eventResultsShown, meta.UserID, map[string]any{"results_count": len(groups)})

	sessionID := uuid.NewString()
	entry := &domain.CacheEntry{
		SessionID:    sessionID,
		VideoID:      meta.VideoID,
		TimestampSec: meta.TimestampSec,
		Fingerprint:  fingerprint,
		Result:       *result,
		StoredAt:     time.Now(),
	}
	p.runDetached("store frame", func(ctx context.Context) error {
		return p.frames.InsertFrame(ctx, entry)
	})

	boostedResult := p.booster.ApplyBoosts(result, boosts)
	p.recordImpressions(meta.UserID, requestID, boostedResult)

	return &domain.FrameResponse{
		FrameResult: *boostedResult,
		SessionID:   sessionID,
		RequestID:   requestID,
		Cached:      false,
	}, nil
}

// TrackEvent forwards a client-side analytics event. Delivery is detached,
// so sink retries never hold up the caller's response.
func (p *FramePipeline) TrackEvent(_ context.Context, eventName, userID string, props map[string]any) {
	p.track(eventName, userID, props)
}

// RecordProductClick feeds a click back into the engagement log. The write
// is detached; the caller never waits on it.
func (p *FramePipeline) RecordProductClick(ctx context.Context, click domain.ProductClick) {
	productID := click.ProductID
	if productID == "" {
		productID = click.ProductURL
	}
	event := &domain.InteractionEvent{
		Kind:       domain.EventClick,
		Category:   click.Category,
		Query:      click.Query,
		ProductID:  productID,
		ProductURL: click.ProductURL,
		UserID:     click.UserID,
		RequestID:  click.RequestID,
		Timestamp:  time.Now(),
	}
	p.runDetached("record click", func(ctx context.Context) error {
		return p.events.AppendEvent(ctx, event)
	})
	p.track(eventProductClicked, click.UserID, map[string]any{
		"category":   click.Category,
		"query":      click.Query,
		"product_id": productID,
	})
}

// recordImpressions appends one impression event per returned product
func (p *FramePipeline) recordImpressions(userID, requestID string, result *domain.FrameResult) {
	now := time.Now()
	var events []*domain.InteractionEvent
	for i, group := range result.Groups {
		category := group.Query.Item.BoostCategory()
		if i < len(result.Items) {
			category = result.Items[i].BoostCategory()
		}
		for _, product := range group.Products {
			productID := product.ID
			if productID == "" {
				productID = product.CanonicalURL
			}
			events = append(events, &domain.InteractionEvent{
				Kind:       domain.EventImpression,
				Category:   category,
				Query:      group.Query.QueryText,
				ProductID:  productID,
				ProductURL: product.CanonicalURL,
				UserID:     userID,
				RequestID:  requestID,
				Timestamp:  now,
			})
		}
	}
	if len(events) == 0 {
		return
	}

	p.runDetached("record impressions", func(ctx context.Context) error {
		for _, event := range events {
			if err := p.events.AppendEvent(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

// track ships an analytics milestone without blocking the request path
func (p *FramePipeline) track(eventName, userID string, props map[string]any) {
	p.runDetached("analytics "+eventName, func(ctx context.Context) error {
		p.analytics.Send(ctx, eventName, userID, props)
		return nil
	})
}

// runDetached spawns a supervised background job with its own timeout. Job
// failures are logged and swallowed; they must never surface to the caller.
func (p *FramePipeline) runDetached(name string, fn func(ctx context.Context) error) {
	p.background.Add(1)
	go func() {
		defer p.background.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error().Interface("panic", r).Str("job", name).Msg("background job panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			p.logger.Warn().Err(err).Str("job", name).Msg("background job failed")
		}
	}()
}

// Drain blocks until all detached background jobs have finished. Used on
// shutdown so in-flight cache stores and analytics writes are not lost.
func (p *FramePipeline) Drain() {
	p.background.Wait()
}
