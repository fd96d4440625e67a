package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shopframe/backend/internal/domain"
)

// MaxItemsPerFrame bounds how many detected items one frame can yield
const MaxItemsPerFrame = 8

const defaultConfidence = 0.5

// validCategories is the whitelist the vision prompt pins down
var validCategories = map[string]bool{
	"apparel":     true,
	"electronics": true,
	"home":        true,
	"beauty":      true,
	"other":       true,
}

// ItemExtractor turns a raw frame into validated detected items via the
// vision model. Dynamic model output is coerced into strict DetectedItem
// values here, at the ingestion boundary; nothing loosely-typed travels
// deeper into the pipeline.
type ItemExtractor struct {
	vision domain.VisionModel
	logger zerolog.Logger
}

// NewItemExtractor creates an item extractor over a vision model
func NewItemExtractor(vision domain.VisionModel, logger zerolog.Logger) *ItemExtractor {
	return &ItemExtractor{
		vision: vision,
		logger: logger.With().Str("component", "extractor").Logger(),
	}
}

// rawItem is the loosely-typed shape the model responds with. Confidence is
// kept as json.RawMessage so non-numeric values degrade to the default
// instead of failing the whole parse.
type rawItem struct {
	Query      string          `json:"query"`
	Item       string          `json:"item"`
	Category   string          `json:"category"`
	Confidence json.RawMessage `json:"confidence"`
}

// Extract calls the vision model and parses its response into at most
// MaxItemsPerFrame validated items. A failed model call wraps
// domain.ErrExtraction; an unparseable response is a legitimate
// "no items found" and yields an empty slice with no error.
func (e *ItemExtractor) Extract(ctx context.Context, imageBytes []byte, mimeType string) ([]domain.DetectedItem, error) {
	rawText, err := e.vision.Detect(ctx, imageBytes, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	raw := parseItemArray(rawText)
	if raw == nil {
		e.logger.Warn().Int("response_len", len(rawText)).Msg("vision response not parseable, treating as no items")
		return []domain.DetectedItem{}, nil
	}

	items := make([]domain.DetectedItem, 0, MaxItemsPerFrame)
	for _, r := range raw {
		item, ok := validateItem(r)
		if !ok {
			continue
		}
		items = append(items, item)
		if len(items) == MaxItemsPerFrame {
			break
		}
	}

	e.logger.Info().Int("items", len(items)).Msg("frame items extracted")
	return items, nil
}

// parseItemArray extracts the item array from the model text. Accepts a bare
// JSON array or an {"items": [...]} envelope, optionally markdown-fenced.
// Returns nil when no array can be parsed.
func parseItemArray(text string) []rawItem {
	trimmed := stripMarkdownFence(strings.TrimSpace(text))

	var envelope struct {
		Items []rawItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err == nil && envelope.Items != nil {
		return envelope.Items
	}

	var bare []rawItem
	if err := json.Unmarshal([]byte(trimmed), &bare); err == nil {
		return bare
	}

	return nil
}

// stripMarkdownFence removes a surrounding ```...``` block if present
func stripMarkdownFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// validateItem coerces one raw model item into a DetectedItem. Items without
// a label are rejected; confidence is clamped to [0,1] and defaults to 0.5
// when missing or non-numeric; unknown categories collapse to "other".
func validateItem(r rawItem) (domain.DetectedItem, bool) {
	label := strings.TrimSpace(r.Query)
	if label == "" {
		label = strings.TrimSpace(r.Item)
	}
	if label == "" {
		return domain.DetectedItem{}, false
	}

	category := strings.ToLower(strings.TrimSpace(r.Category))
	if !validCategories[category] {
		category = "other"
	}

	confidence := defaultConfidence
	if len(r.Confidence) > 0 {
		var parsed float64
		if err := json.Unmarshal(r.Confidence, &parsed); err == nil {
			confidence = parsed
		}
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return domain.DetectedItem{Label: label, Category: category, Confidence: confidence}, true
}
