package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeBackend struct {
	mu      sync.Mutex
	values  map[string]entry
	getErr  error
	putErr  error
	getHits atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{values: make(map[string]entry)}
}

func (b *fakeBackend) Get(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	b.getHits.Add(1)
	if b.getErr != nil {
		return nil, time.Time{}, false, b.getErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.values[key]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return e.value, e.storedAt, true, nil
}

func (b *fakeBackend) Put(_ context.Context, key string, value []byte, storedAt time.Time) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = entry{value: value, storedAt: storedAt}
	return nil
}

func (b *fakeBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, nil)
	var calls atomic.Int32

	loader := func(context.Context) ([]byte, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []byte("value"), nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", ClassRuleTable, loader)
			if err != nil {
				errCh <- err
				return
			}
			if string(v) != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, nil)
	var calls atomic.Int32

	loader := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("cached"), nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", ClassProjections, loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", ClassProjections, loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_Get_TTLBoundary(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, nil)
	base := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	store.Set(context.Background(), "stats:week:7", []byte("live"))

	// One nanosecond shy of the window is still fresh.
	store.now = func() time.Time { return base.Add(time.Hour - time.Nanosecond) }
	if _, ok := store.Get(context.Background(), "stats:week:7", ClassCurrentWeekStats); !ok {
		t.Fatal("entry just inside the TTL should be fresh")
	}

	// Exactly at the window the entry is stale.
	store.now = func() time.Time { return base.Add(time.Hour) }
	if _, ok := store.Get(context.Background(), "stats:week:7", ClassCurrentWeekStats); ok {
		t.Fatal("entry aged exactly one TTL should be stale")
	}

	// The same bytes read under the past-week class never expire.
	if _, ok := store.Get(context.Background(), "stats:week:7", ClassPastWeekStats); !ok {
		t.Fatal("past-week entries should never go stale")
	}
	store.now = func() time.Time { return base.Add(365 * 24 * time.Hour) }
	if _, ok := store.Get(context.Background(), "stats:week:7", ClassPastWeekStats); !ok {
		t.Fatal("past-week entries should never go stale")
	}
}

func TestStore_Get_PromotesBackendHit(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.values["rules:league:9"] = entry{value: []byte("table"), storedAt: time.Now()}

	store := NewStore(backend, nil)
	v, ok := store.Get(context.Background(), "rules:league:9", ClassRuleTable)
	if !ok || string(v) != "table" {
		t.Fatalf("backend hit not returned, got %q ok=%v", v, ok)
	}

	// Second read is served from memory.
	if _, ok := store.Get(context.Background(), "rules:league:9", ClassRuleTable); !ok {
		t.Fatal("promoted entry missing from memory tier")
	}
	if got := backend.getHits.Load(); got != 1 {
		t.Fatalf("backend read %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_BackendFailureFallsThroughToLoader(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend()
	backend.getErr = errors.New("connection refused")
	backend.putErr = errors.New("connection refused")

	store := NewStore(backend, nil)
	var calls atomic.Int32
	loader := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("live"), nil
	}

	v, err := store.GetOrLoad(context.Background(), "k", ClassRosterMaster, loader)
	if err != nil {
		t.Fatalf("GetOrLoad error: %v", err)
	}
	if string(v) != "live" {
		t.Fatalf("got %q, want live value", v)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_LoaderFailureKeepsStaleCopy(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, nil)
	base := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	store.Set(context.Background(), "scores:week:3", []byte("old"))

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	loadErr := errors.New("upstream down")
	_, err := store.GetOrLoad(context.Background(), "scores:week:3", ClassCurrentWeekStats, func(context.Context) ([]byte, error) {
		return nil, loadErr
	})
	if !errors.Is(err, loadErr) {
		t.Fatalf("got %v, want loader error", err)
	}

	v, storedAt, ok := store.GetAllowStale(context.Background(), "scores:week:3")
	if !ok || string(v) != "old" {
		t.Fatalf("stale copy lost, got %q ok=%v", v, ok)
	}
	if !storedAt.Equal(base) {
		t.Fatalf("stale storedAt = %v, want %v", storedAt, base)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, nil)
	store.Set(context.Background(), "stats:week:1", []byte("a"))
	store.Set(context.Background(), "stats:week:2", []byte("b"))
	store.Set(context.Background(), "rules:league:9", []byte("c"))

	store.DeletePrefix(context.Background(), "stats:week:")

	if _, ok := store.Get(context.Background(), "stats:week:1", ClassPastWeekStats); ok {
		t.Fatal("prefixed entry survived")
	}
	if _, ok := store.Get(context.Background(), "rules:league:9", ClassRuleTable); !ok {
		t.Fatal("unrelated entry dropped")
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
