package statsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gridpulse/fantasy-api/internal/platform/resilience"
)

func newTestClient(t *testing.T, serverURL string, timeout time.Duration) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:        serverURL,
		Timeout:        timeout,
		RetryBaseDelay: 5 * time.Millisecond,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestClient_FetchWeekStats_ParsesGroupedAndFlatStats(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("week") != "5" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{
			"statusCode": 200,
			"body": [
				{"playerID": "100", "longName": "Jordan Love", "stats": {"Passing": {"passYds": "275", "passTD": 2, "int": "1"}}},
				{"playerID": 200, "stats": {"rushYds": 84, "rushTD": "1"}},
				{"longName": "No ID", "stats": {"recYds": 50}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2*time.Second)
	stats, err := client.FetchWeekStats(context.Background(), 2025, 5)
	if err != nil {
		t.Fatalf("FetchWeekStats error: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("expected 2 players, got=%d", len(stats))
	}
	if stats["100"]["passYds"] != 275 || stats["100"]["passTD"] != 2 || stats["100"]["int"] != 1 {
		t.Fatalf("grouped stats not flattened: %v", stats["100"])
	}
	if stats["200"]["rushYds"] != 84 || stats["200"]["rushTD"] != 1 {
		t.Fatalf("flat stats lost: %v", stats["200"])
	}
}

func TestClient_FetchWeekStats_RetriesTimeoutsTwiceWithDoublingDelay(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			time.Sleep(200 * time.Millisecond)
		}
		_, _ = w.Write([]byte(`{"body": [{"playerID": "100", "stats": {"passYds": 10}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 50*time.Millisecond)
	stats, err := client.FetchWeekStats(context.Background(), 2025, 3)
	if err != nil {
		t.Fatalf("expected third attempt to succeed, got %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 player, got=%d", len(stats))
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got=%d", got)
	}
}

func TestClient_FetchWeekStats_GivesUpAfterTwoExtraAttempts(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 50*time.Millisecond)
	if _, err := client.FetchWeekStats(context.Background(), 2025, 3); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got=%d", got)
	}
}

func TestClient_FetchWeekProjections_DoesNotRetryTimeouts(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 50*time.Millisecond)
	if _, err := client.FetchWeekProjections(context.Background(), 2025, 3); err == nil {
		t.Fatal("expected timeout error")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("projections endpoint must not retry, got %d attempts", got)
	}
}

func TestClient_MalformedBodyYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"statusCode": 200, "body": {"unexpected": "shape"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Second)
	stats, err := client.FetchWeekStats(context.Background(), 2025, 1)
	if err != nil {
		t.Fatalf("FetchWeekStats error: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected empty result for unrecognized body, got=%d", len(stats))
	}
}
