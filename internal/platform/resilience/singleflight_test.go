package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentFetches(t *testing.T) {
	var g SingleFlight
	var fetches int32

	const callers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(callers)

	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-start
			val, err, _ := g.Do("standings:461.l.9021", func() (any, error) {
				atomic.AddInt32(&fetches, 1)
				time.Sleep(20 * time.Millisecond)
				return "standings-payload", nil
			})
			if err != nil {
				t.Errorf("collapsed fetch failed: %v", err)
			}
			if val != "standings-payload" {
				t.Errorf("caller got wrong payload: %v", val)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Fatalf("expected one upstream fetch for the key, got %d", got)
	}
}

func TestSingleFlight_SharesFailureWithWaiters(t *testing.T) {
	var g SingleFlight
	fetchErr := errors.New("stats feed unavailable")

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _, _ = g.Do("weekstats:2026:5", func() (any, error) {
			close(entered)
			<-release
			return nil, fetchErr
		})
	}()

	<-entered
	done := make(chan error, 1)
	go func() {
		_, err, shared := g.Do("weekstats:2026:5", func() (any, error) {
			t.Error("waiter must not trigger a second fetch")
			return nil, nil
		})
		if !shared {
			t.Error("expected the waiter to join the in-flight fetch")
		}
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	close(release)

	if err := <-done; !errors.Is(err, fetchErr) {
		t.Fatalf("waiter did not receive the shared error: %v", err)
	}
}

func TestSingleFlight_DistinctWeeksRunIndependently(t *testing.T) {
	var g SingleFlight
	var fetches int32

	var wg sync.WaitGroup
	for _, key := range []string{"scoreboard:461.l.9021:3", "scoreboard:461.l.9021:4"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, err, _ := g.Do(key, func() (any, error) {
				atomic.AddInt32(&fetches, 1)
				time.Sleep(10 * time.Millisecond)
				return key, nil
			})
			if err != nil {
				t.Errorf("fetch for %s failed: %v", key, err)
			}
		}(key)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&fetches); got != 2 {
		t.Fatalf("expected one fetch per week key, got %d", got)
	}
}
