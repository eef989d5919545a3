package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gridpulse/fantasy-api/internal/platform/logging"
	"github.com/gridpulse/fantasy-api/internal/platform/resilience"
)

// Class selects the freshness window for a cached resource. Entries are
// stamped with their load time and checked against the class TTL on every
// read, so the same key can be consulted under different classes as a
// season week rolls from current to past.
type Class int

const (
	ClassRuleTable Class = iota
	ClassRosterMaster
	ClassPastWeekStats
	ClassCurrentWeekStats
	ClassProjections
)

// TTL returns the freshness window for the class. Zero means the entry
// never goes stale; finished weeks are immutable upstream.
func (c Class) TTL() time.Duration {
	switch c {
	case ClassCurrentWeekStats:
		return time.Hour
	case ClassPastWeekStats:
		return 0
	default:
		return 24 * time.Hour
	}
}

func (c Class) String() string {
	switch c {
	case ClassRuleTable:
		return "rule_table"
	case ClassRosterMaster:
		return "roster_master"
	case ClassPastWeekStats:
		return "past_week_stats"
	case ClassCurrentWeekStats:
		return "current_week_stats"
	case ClassProjections:
		return "projections"
	default:
		return "unknown"
	}
}

// Backend is the durable second tier. Implementations store the value
// alongside its load time; freshness is judged by the store, not the
// backend.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, storedAt time.Time, ok bool, err error)
	Put(ctx context.Context, key string, value []byte, storedAt time.Time) error
	Delete(ctx context.Context, key string) error
}

type entry struct {
	value    []byte
	storedAt time.Time
}

// Store is a two-tier cache: an in-process map in front of an optional
// durable backend. Backend failures degrade reads to the loader and are
// never surfaced to callers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	backend Backend
	flight  resilience.SingleFlight
	logger  *logging.Logger
	now     func() time.Time
}

func NewStore(backend Backend, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		entries: make(map[string]entry),
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Store) fresh(e entry, class Class) bool {
	ttl := class.TTL()
	if ttl <= 0 {
		return true
	}
	return s.now().Sub(e.storedAt) < ttl
}

// Get returns the cached value for key if it is still fresh under class.
// A memory miss falls through to the backend; a backend hit is promoted
// into memory regardless of freshness so GetAllowStale can see it.
func (s *Store) Get(ctx context.Context, key string, class Class) ([]byte, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		if s.fresh(e, class) {
			return e.value, true
		}
		return nil, false
	}

	if s.backend == nil {
		return nil, false
	}
	value, storedAt, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache backend read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	e = entry{value: value, storedAt: storedAt}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()

	if !s.fresh(e, class) {
		return nil, false
	}
	return value, true
}

// GetAllowStale returns whatever copy exists for key, fresh or not, with
// its load time. Callers use it to serve a last-known value when a live
// fetch fails.
func (s *Store) GetAllowStale(ctx context.Context, key string) ([]byte, time.Time, bool) {
	if key == "" {
		return nil, time.Time{}, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e.value, e.storedAt, true
	}

	if s.backend == nil {
		return nil, time.Time{}, false
	}
	value, storedAt, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache backend read failed", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	if !ok {
		return nil, time.Time{}, false
	}
	return value, storedAt, true
}

// Set writes the value into both tiers, stamped with the current time.
func (s *Store) Set(ctx context.Context, key string, value []byte) {
	if key == "" {
		return
	}

	storedAt := s.now()
	s.mu.Lock()
	s.entries[key] = entry{value: value, storedAt: storedAt}
	s.mu.Unlock()

	if s.backend == nil {
		return
	}
	if err := s.backend.Put(ctx, key, value, storedAt); err != nil {
		s.logger.WarnContext(ctx, "cache backend write failed", "key", key, "error", err)
	}
}

func (s *Store) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	if s.backend == nil {
		return
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "cache backend delete failed", "key", key, "error", err)
	}
}

// DeletePrefix drops every in-memory entry whose key starts with prefix.
// The backend is left alone; stale durable rows lose to the freshness
// check on read.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// GetOrLoad returns the fresh cached value for key, invoking loader at
// most once across concurrent callers on a miss. A loader failure leaves
// any stale copy in place for GetAllowStale.
func (s *Store) GetOrLoad(ctx context.Context, key string, class Class, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key, class); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key, class); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}
