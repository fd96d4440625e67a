package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopframe/backend/internal/domain"
)

// MockVisionModel is a mock implementation of domain.VisionModel
type MockVisionModel struct {
	response  string
	err       error
	callCount int
}

func (m *MockVisionModel) Detect(ctx context.Context, imageBytes []byte, mimeType string) (string, error) {
	m.callCount++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// MockCatalogSearcher is a mock implementation of domain.CatalogSearcher
type MockCatalogSearcher struct {
	mu          sync.Mutex
	results     map[string][]domain.Product
	errors      map[string]error
	callCount   int
	inFlight    int
	maxParallel int
	delay       time.Duration
}

func NewMockCatalogSearcher() *MockCatalogSearcher {
	return &MockCatalogSearcher{
		results: make(map[string][]domain.Product),
		errors:  make(map[string]error),
	}
}

func (m *MockCatalogSearcher) Search(ctx context.Context, queryText string, limit int) (*domain.SearchResult, error) {
	m.mu.Lock()
	m.callCount++
	m.inFlight++
	if m.inFlight > m.maxParallel {
		m.maxParallel = m.inFlight
	}
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--

	if err, ok := m.errors[queryText]; ok {
		return nil, err
	}
	return &domain.SearchResult{Query: queryText, Products: m.results[queryText]}, nil
}

// MockFrameStore is a mock implementation of domain.FrameStore
type MockFrameStore struct {
	mu          sync.Mutex
	entries     []*domain.CacheEntry
	insertErr   error
	lookupEntry *domain.CacheEntry
	lookupErr   error
	lookups     int
}

func NewMockFrameStore() *MockFrameStore {
	return &MockFrameStore{lookupErr: domain.ErrCacheMiss}
}

func (m *MockFrameStore) InsertFrame(ctx context.Context, entry *domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockFrameStore) LatestFrame(ctx context.Context, fingerprint string, since time.Time) (*domain.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.lookupEntry, nil
}

func (m *MockFrameStore) Inserted() []*domain.CacheEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.CacheEntry(nil), m.entries...)
}

// MockEventStore is a mock implementation of domain.EventStore
type MockEventStore struct {
	mu        sync.Mutex
	events    []domain.InteractionEvent
	appendErr error
	listErr   error
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{}
}

func (m *MockEventStore) AppendEvent(ctx context.Context, event *domain.InteractionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *MockEventStore) EventsSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.InteractionEvent
	for _, e := range m.events {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventStore) Appended() []domain.InteractionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.InteractionEvent(nil), m.events...)
}

// MockAnalyticsSink is a mock implementation of domain.AnalyticsSink
type MockAnalyticsSink struct {
	mu     sync.Mutex
	delay  time.Duration
	events []string
}

func (m *MockAnalyticsSink) Send(ctx context.Context, eventName, userID string, props map[string]any) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventName)
}

func (m *MockAnalyticsSink) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}
