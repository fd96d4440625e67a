package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Fingerprint computes the content digest used as the cache identity for a
// frame. Byte-identical images always hash to the same value; there is no
// perceptual similarity involved.
func Fingerprint(imageBytes []byte) string {
	sum := sha256.Sum256(imageBytes)
	return hex.EncodeToString(sum[:])
}

// DetectedItem is a purchasable item identified in a frame by the vision model
type DetectedItem struct {
	Label      string  `json:"label"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
}

// BoostCategory returns the key used for category-level engagement boosts.
// Falls back to the label when the extractor produced no explicit category.
func (d DetectedItem) BoostCategory() string {
	if d.Category != "" {
		return d.Category
	}
	return d.Label
}

// SearchQuery is the catalog search derived from a single detected item
type SearchQuery struct {
	Item      DetectedItem `json:"item"`
	QueryText string       `json:"queryText"`
	Limit     int          `json:"limit"`
}

// Product represents a single catalog product from any marketplace.
// CanonicalURL is the deduplication identity: products sharing a non-empty
// CanonicalURL are the same product.
type Product struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Vendor       string `json:"vendor,omitempty"`
	Price        string `json:"price,omitempty"`
	PriceMax     string `json:"priceMax,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	CanonicalURL string `json:"canonicalUrl,omitempty"`
	Marketplace  string `json:"marketplace"`
}

// ResultGroup holds the ranked products found for one detected item
type ResultGroup struct {
	Query    SearchQuery `json:"query"`
	Products []Product   `json:"products"`
}

// FrameResult is the detection+search outcome for one frame.
// Invariant: len(Groups) == len(Items) and Groups[i].Query.Item == Items[i].
type FrameResult struct {
	Fingerprint string         `json:"fingerprint"`
	Items       []DetectedItem `json:"items"`
	Groups      []ResultGroup  `json:"groups"`
}

// CacheEntry is the persisted unit for a processed frame. Entries are
// append-only: re-processing the same bytes inserts a new entry rather than
// overwriting, and staleness is enforced by a lookback window at query time.
type CacheEntry struct {
	SessionID    string      `json:"sessionId"`
	VideoID      string      `json:"videoId,omitempty"`
	TimestampSec float64     `json:"timestampSec,omitempty"`
	Fingerprint  string      `json:"fingerprint"`
	Result       FrameResult `json:"result"`
	StoredAt     time.Time   `json:"storedAt"`
}

// Interaction event kinds
const (
	EventImpression = "impression"
	EventClick      = "click"
)

// InteractionEvent is one row of the append-only engagement log. It is the
// sole input to boost computation; retention is an external concern.
type InteractionEvent struct {
	Kind       string    `json:"kind"`
	Category   string    `json:"category,omitempty"`
	Query      string    `json:"query,omitempty"`
	ProductID  string    `json:"productId,omitempty"`
	ProductURL string    `json:"productUrl,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

// BoostTable holds the multiplicative re-weighting factors derived from the
// trailing engagement window. Absent keys mean boost 1. Recomputed on every
// pipeline invocation, never persisted.
type BoostTable struct {
	ByCategory map[string]float64
	ByQuery    map[string]float64
}

// CategoryBoost returns the boost for a category, defaulting to 1
func (b BoostTable) CategoryBoost(category string) float64 {
	if v, ok := b.ByCategory[category]; ok {
		return v
	}
	return 1
}

// QueryBoost returns the boost for a query text, defaulting to 1
func (b BoostTable) QueryBoost(query string) float64 {
	if v, ok := b.ByQuery[query]; ok {
		return v
	}
	return 1
}

// SessionMetadata carries the caller-supplied context for one frame request
type SessionMetadata struct {
	UserID       string
	VideoID      string
	TimestampSec float64
	MimeType     string
}

// ProductClick is the feedback signal recorded when the user clicks a product
type ProductClick struct {
	UserID     string
	RequestID  string
	Category   string
	Query      string
	ProductID  string
	ProductURL string
}

// FrameResponse is what the pipeline returns to the delivery layer
type FrameResponse struct {
	FrameResult
	SessionID string `json:"sessionId"`
	RequestID string `json:"requestId"`
	Cached    bool   `json:"cached"`
}
