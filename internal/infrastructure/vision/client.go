// Package vision implements the VisionModel collaborator on top of the
// OpenAI chat completions API with image input.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"

	"github.com/shopframe/backend/internal/domain"
)

// detectPrompt is the fixed instruction sent with every frame
const detectPrompt = `You are a shopping assistant that analyzes video screenshots to identify purchasable items.

Analyze this video screenshot and identify 5-8 distinct purchasable items visible in the image.

RULES:
- Only identify items that can be purchased (physical products)
- Include specific details: color, material, pattern when clearly visible
- Only include brand names if a logo or brand text is CLEARLY visible in the image
- Create search-optimized phrases suitable for ecommerce search (e.g., "navy blue crew neck wool sweater" not "sweater")
- Avoid generic terms like "item", "thing", "object"
- Focus on: clothing, accessories, electronics, furniture, decor, beauty products
- Ignore: people, backgrounds, UI elements, non-purchasable items

CATEGORIES (use exactly these values):
- apparel: clothing, shoes, accessories, jewelry, bags
- electronics: devices, gadgets, cables, tech accessories
- home: furniture, decor, kitchenware, bedding, storage
- beauty: makeup, skincare, haircare, fragrances
- other: anything that doesn't fit above categories

Respond with ONLY valid JSON, no markdown, no explanation:
{
  "items": [
    {
      "query": "detailed ecommerce search phrase",
      "category": "apparel|electronics|home|beauty|other",
      "confidence": 0.0-1.0
    }
  ]
}`

const defaultTimeout = 30 * time.Second

// ClientConfig holds vision model configuration
type ClientConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls the OpenAI vision model and returns the raw response text
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a vision model client
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		client:  openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "vision").Logger(),
	}
}

// Detect sends the frame to the vision model and returns the raw text of the
// response. Parsing/validation of the item list happens at the extraction
// boundary, not here.
func (c *Client) Detect(ctx context.Context, imageBytes []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(detectPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL(imageBytes, mimeType),
				}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrExtraction)
	}

	text := completion.Choices[0].Message.Content
	c.logger.Debug().Int("image_bytes", len(imageBytes)).Int("response_len", len(text)).Msg("vision detect done")
	return text, nil
}

// dataURL inlines the image as a base64 data URL for the image content part
func dataURL(imageBytes []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))
}
