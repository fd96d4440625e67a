package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopframe/backend/internal/domain"
)

func testClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		Marketplace: "shopify",
		BaseURL:     baseURL,
		AccessToken: "test-token",
		RatePerSec:  1000,
	}, zerolog.Nop())
}

func TestNewClient(t *testing.T) {
	client := testClient("https://api.example.com")

	assert.NotNil(t, client)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, "test-token", client.accessToken)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.True(t, client.Configured())
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		assert.Equal(t, "blue sneakers", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		response := searchResponse{
			Products: []wireProduct{
				{
					ID:         "prod_1",
					Title:      "Blue Running Sneakers",
					Vendor:     "StrideCo",
					MinPrice:   "59.99",
					MaxPrice:   "79.99",
					ImageURL:   "https://cdn.example.com/1.jpg",
					ProductURL: "https://shop.example.com/products/blue-sneakers",
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Search(context.Background(), "blue sneakers", 3)

	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	p := result.Products[0]
	assert.Equal(t, "prod_1", p.ID)
	assert.Equal(t, "Blue Running Sneakers", p.Title)
	assert.Equal(t, "StrideCo", p.Vendor)
	assert.Equal(t, "59.99", p.Price)
	assert.Equal(t, "https://shop.example.com/products/blue-sneakers", p.CanonicalURL)
	assert.Equal(t, "shopify", p.Marketplace)
}

func TestSearch_EmptyResultsIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Search(context.Background(), "obscure item", 3)

	require.NoError(t, err)
	assert.Empty(t, result.Products)
}

func TestSearch_ServerErrorRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Search(context.Background(), "flaky", 3)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSearch)
	assert.Equal(t, int32(maxRetries), calls.Load())
}

func TestSearch_ClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Search(context.Background(), "denied", 3)

	assert.ErrorIs(t, err, domain.ErrSearch)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_UnconfiguredReturnsEmpty(t *testing.T) {
	client := NewClient(ClientConfig{Marketplace: "amazon"}, zerolog.Nop())

	result, err := client.Search(context.Background(), "anything", 3)

	require.NoError(t, err)
	assert.Empty(t, result.Products)
	assert.Equal(t, "anything", result.Query)
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := testClient("https://api.example.com")

	_, err := client.Search(context.Background(), "", 3)

	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestMapProducts(t *testing.T) {
	wire := []wireProduct{
		{ID: "1", Title: "Keep"},
		{ID: "2"}, // no title, dropped
		{ID: "3", Title: "Also Keep"},
		{ID: "4", Title: "Over Limit"},
	}

	products := mapProducts(wire, "amazon", 2)

	require.Len(t, products, 2)
	assert.Equal(t, "Keep", products[0].Title)
	assert.Equal(t, "Also Keep", products[1].Title)
	assert.Equal(t, "amazon", products[0].Marketplace)
}
