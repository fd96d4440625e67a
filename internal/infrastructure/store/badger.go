// Package store persists processed frames and interaction events in BadgerDB.
// Both keyspaces are append-only: frame entries for the same fingerprint
// coexist under distinct keys, and events are a time-ordered log. Staleness
// is handled by query-time windows, never by deletion.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shopframe/backend/internal/domain"
)

// Key prefixes for BadgerDB storage
const (
	frameKeyPrefix = "frame:"
	eventKeyPrefix = "event:"
)

// Store is a BadgerDB-backed implementation of domain.FrameStore and
// domain.EventStore.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Options configures how the store opens its database
type Options struct {
	Path     string
	InMemory bool
}

// Open opens (or creates) the underlying BadgerDB database
func Open(opts Options, logger zerolog.Logger) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", domain.ErrStoreUnavailable, err)
	}

	return &Store{db: db, logger: logger.With().Str("component", "store").Logger()}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// frameKey orders entries for one fingerprint by storage time. Nanosecond
// timestamps are zero-padded so lexicographic order equals temporal order;
// the uuid suffix keeps same-instant inserts from overwriting each other.
func frameKey(fingerprint string, storedAt time.Time) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", frameKeyPrefix, fingerprint, storedAt.UnixNano(), uuid.NewString()))
}

func eventKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", eventKeyPrefix, ts.UnixNano(), uuid.NewString()))
}

// InsertFrame appends a new cache entry. Entries are never overwritten:
// repeated processing of the same bytes produces coexisting entries.
func (s *Store) InsertFrame(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.Fingerprint == "" {
		return domain.ErrInvalidRequest
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(frameKey(entry.Fingerprint, entry.StoredAt), data)
	})
	if err != nil {
		return fmt.Errorf("%w: insert frame: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// LatestFrame returns the most recently stored entry for a fingerprint with
// StoredAt >= since. Entries outside the window are treated as absent.
func (s *Store) LatestFrame(ctx context.Context, fingerprint string, since time.Time) (*domain.CacheEntry, error) {
	if fingerprint == "" {
		return nil, domain.ErrInvalidRequest
	}

	var latest *domain.CacheEntry

	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		prefix := []byte(frameKeyPrefix + fingerprint + ":")
		itOpts.Prefix = prefix

		it := txn.NewIterator(itOpts)
		defer it.Close()

		// Keys are time-ordered, so the last matching entry wins.
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry domain.CacheEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("unmarshal cache entry: %w", err)
			}
			if !entry.StoredAt.Before(since) {
				e := entry
				latest = &e
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, err
	}

	if latest == nil {
		return nil, domain.ErrCacheMiss
	}
	return latest, nil
}

// AppendEvent appends one interaction event to the log
func (s *Store) AppendEvent(ctx context.Context, event *domain.InteractionEvent) error {
	if event == nil || event.Kind == "" {
		return domain.ErrInvalidRequest
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(event.Timestamp), data)
	})
	if err != nil {
		return fmt.Errorf("%w: append event: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// EventsSince returns all events with Timestamp >= since in log order.
// Snapshot-read semantics: concurrent appends may or may not be visible.
func (s *Store) EventsSince(ctx context.Context, since time.Time) ([]domain.InteractionEvent, error) {
	var events []domain.InteractionEvent

	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		prefix := []byte(eventKeyPrefix)
		itOpts.Prefix = prefix

		it := txn.NewIterator(itOpts)
		defer it.Close()

		// Seek straight to the window start; keys are timestamp-ordered.
		start := []byte(fmt.Sprintf("%s%020d", eventKeyPrefix, since.UnixNano()))
		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			var event domain.InteractionEvent
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				s.logger.Warn().Err(err).Msg("skipping undecodable event")
				continue
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan events: %v", domain.ErrStoreUnavailable, err)
	}

	return events, nil
}
