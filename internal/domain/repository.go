package domain

import (
	"context"
	"time"
)

// VisionModel is the black-box vision collaborator. Detect returns the raw
// model text, which must contain a JSON array of detected items (optionally
// markdown-fenced); parsing and validation happen at the extraction boundary.
type VisionModel interface {
	Detect(ctx context.Context, imageBytes []byte, mimeType string) (string, error)
}

// SearchResult is the raw outcome of one catalog search
type SearchResult struct {
	Query    string    `json:"query"`
	Products []Product `json:"products"`
}

// CatalogSearcher is the black-box catalog collaborator. Empty results are
// not an error; network/auth failure is.
type CatalogSearcher interface {
	Search(ctx context.Context, queryText string, limit int) (*SearchResult, error)
}

// FrameStore persists processed frames. Insert is append-only: duplicate
// fingerprints coexist and LatestFrame picks the most recent within the
// freshness window.
type FrameStore interface {
	InsertFrame(ctx context.Context, entry *CacheEntry) error
	LatestFrame(ctx context.Context, fingerprint string, since time.Time) (*CacheEntry, error)
}

// EventStore is the append-only interaction log backing boost computation
type EventStore interface {
	AppendEvent(ctx context.Context, event *InteractionEvent) error
	EventsSince(ctx context.Context, since time.Time) ([]InteractionEvent, error)
}

// AnalyticsSink receives pipeline milestone events. Best-effort: failures are
// retried a bounded number of times and then dropped silently.
type AnalyticsSink interface {
	Send(ctx context.Context, eventName, userID string, props map[string]any)
}
