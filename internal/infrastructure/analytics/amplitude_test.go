package analytics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_DeliversEvent(t *testing.T) {
	var received atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received.Store(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := New(Config{APIKey: "key", AppEnv: "test", Endpoint: server.URL}, zerolog.Nop())
	sink.Send(context.Background(), "frame_captured", "user-1", map[string]any{"image_size_bytes": 42})

	body, ok := received.Load().([]byte)
	require.True(t, ok, "expected a delivered payload")

	var payload amplitudePayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "key", payload.APIKey)
	require.Len(t, payload.Events, 1)
	assert.Equal(t, "frame_captured", payload.Events[0].EventType)
	assert.Equal(t, "user-1", payload.Events[0].UserID)
	assert.Equal(t, "test", payload.Events[0].EventProperties["app_env"])
	assert.EqualValues(t, 42, payload.Events[0].EventProperties["image_size_bytes"])
}

func TestSend_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := New(Config{APIKey: "key", Endpoint: server.URL}, zerolog.Nop())
	sink.Send(context.Background(), "cache_hit", "user-1", nil)

	assert.Equal(t, int32(3), calls.Load())
}

func TestSend_DropsAfterExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sink := New(Config{APIKey: "key", Endpoint: server.URL}, zerolog.Nop())
	// Must return without error even though every attempt is throttled
	sink.Send(context.Background(), "cache_miss", "user-1", nil)

	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestSend_DoesNotRetryClientRejection(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sink := New(Config{APIKey: "key", Endpoint: server.URL}, zerolog.Nop())
	sink.Send(context.Background(), "error_occurred", "user-1", nil)

	assert.Equal(t, int32(1), calls.Load())
}

func TestSend_NoopWithoutAPIKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	sink := New(Config{Endpoint: server.URL}, zerolog.Nop())
	sink.Send(context.Background(), "frame_captured", "user-1", nil)

	assert.Equal(t, int32(0), calls.Load())
}
