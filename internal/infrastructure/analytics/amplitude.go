// Package analytics ships pipeline milestone events to Amplitude.
// Delivery is best-effort: bounded retries with backoff on transient
// failures, then a silent drop. Nothing here may affect request handling.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultEndpoint = "https://api2.amplitude.com/2/httpapi"
	maxRetries      = 3
	baseDelay       = 200 * time.Millisecond
	requestTimeout  = 4 * time.Second
)

// Amplitude implements domain.AnalyticsSink over the Amplitude HTTP API.
// With an empty API key every Send is a no-op.
type Amplitude struct {
	httpClient *http.Client
	apiKey     string
	appEnv     string
	endpoint   string
	logger     zerolog.Logger
}

// Config holds Amplitude sink configuration
type Config struct {
	APIKey   string
	AppEnv   string
	Endpoint string
}

// New creates an Amplitude sink
func New(cfg Config, logger zerolog.Logger) *Amplitude {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	appEnv := cfg.AppEnv
	if appEnv == "" {
		appEnv = "development"
	}

	return &Amplitude{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     cfg.APIKey,
		appEnv:     appEnv,
		endpoint:   endpoint,
		logger:     logger.With().Str("component", "analytics").Logger(),
	}
}

type amplitudeEvent struct {
	EventType       string         `json:"event_type"`
	UserID          string         `json:"user_id"`
	EventProperties map[string]any `json:"event_properties,omitempty"`
	Time            int64          `json:"time"`
}

type amplitudePayload struct {
	APIKey string           `json:"api_key"`
	Events []amplitudeEvent `json:"events"`
}

// Send records one event. Never returns an error: failures are retried on
// 429/5xx and network errors, then dropped.
func (a *Amplitude) Send(ctx context.Context, eventName, userID string, props map[string]any) {
	if a.apiKey == "" || eventName == "" {
		return
	}

	if userID == "" {
		userID = "anonymous"
	}

	eventProps := map[string]any{"app_env": a.appEnv}
	for k, v := range props {
		eventProps[k] = v
	}

	payload, err := json.Marshal(amplitudePayload{
		APIKey: a.apiKey,
		Events: []amplitudeEvent{{
			EventType:       eventName,
			UserID:          userID,
			EventProperties: eventProps,
			Time:            time.Now().UnixMilli(),
		}},
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("event", eventName).Msg("dropping undecodable analytics event")
		return
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if a.post(ctx, payload) {
			return
		}
		if attempt < maxRetries {
			select {
			case <-time.After(baseDelay * (1 << attempt)):
			case <-ctx.Done():
				return
			}
		}
	}

	a.logger.Warn().Str("event", eventName).Msg("analytics event dropped after retries")
}

// post returns true when the event is delivered or permanently rejected
func (a *Amplitude) post(ctx context.Context, payload []byte) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return true // malformed request will never succeed, drop
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	// Retry only server-side and throttling failures
	return resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests
}
