package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/gridpulse/fantasy-api/internal/domain/credential"
)

type memoryCredentialRepo struct {
	mu      sync.Mutex
	records map[string]credential.Stored
	saves   int
}

func newMemoryCredentialRepo() *memoryCredentialRepo {
	return &memoryCredentialRepo{records: make(map[string]credential.Stored)}
}

func (r *memoryCredentialRepo) Get(_ context.Context, ownerID string) (credential.Stored, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[ownerID]
	return record, ok, nil
}

func (r *memoryCredentialRepo) Save(_ context.Context, record credential.Stored) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.OwnerID] = record
	r.saves++
	return nil
}

func (r *memoryCredentialRepo) Delete(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, ownerID)
	return nil
}

func tokenEndpoint(t *testing.T, handler http.HandlerFunc) *oauth2.Config {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			TokenURL:  server.URL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func TestCredentialService_FreshTokenServedWithoutRefresh(t *testing.T) {
	t.Parallel()

	repo := newMemoryCredentialRepo()
	_ = repo.Save(context.Background(), credential.Stored{
		OwnerID:     "owner-1",
		AccessToken: "fresh-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	oauthCfg := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be called for a fresh credential")
	})

	service := NewCredentialService(repo, oauthCfg, nil)
	token, ok := service.AccessToken(context.Background(), "owner-1")
	if !ok || token != "fresh-token" {
		t.Fatalf("expected fresh token, got %q ok=%v", token, ok)
	}
}

func TestCredentialService_RefreshesInsideExpiryMargin(t *testing.T) {
	t.Parallel()

	repo := newMemoryCredentialRepo()
	_ = repo.Save(context.Background(), credential.Stored{
		OwnerID:      "owner-1",
		AccessToken:  "nearly-expired",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(2 * time.Minute),
	})
	repo.saves = 0

	oauthCfg := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.Form.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"next-token","refresh_token":"refresh-2","token_type":"bearer","expires_in":3600}`))
	})

	service := NewCredentialService(repo, oauthCfg, nil)
	token, ok := service.AccessToken(context.Background(), "owner-1")
	if !ok || token != "next-token" {
		t.Fatalf("expected refreshed token, got %q ok=%v", token, ok)
	}

	// The whole record is replaced in one save, tokens and expiry together.
	if repo.saves != 1 {
		t.Fatalf("expected one save, got=%d", repo.saves)
	}
	stored, _, _ := repo.Get(context.Background(), "owner-1")
	if stored.AccessToken != "next-token" || stored.RefreshToken != "refresh-2" {
		t.Fatalf("record not fully replaced: %+v", stored)
	}
	if !stored.ExpiresAt.After(time.Now().Add(30 * time.Minute)) {
		t.Fatalf("expiry not updated: %v", stored.ExpiresAt)
	}
}

func TestCredentialService_RefreshFailureMeansUnauthenticated(t *testing.T) {
	t.Parallel()

	repo := newMemoryCredentialRepo()
	_ = repo.Save(context.Background(), credential.Stored{
		OwnerID:      "owner-1",
		AccessToken:  "expired",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	var hits int
	var mu sync.Mutex
	oauthCfg := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	service := NewCredentialService(repo, oauthCfg, nil)
	if token, ok := service.AccessToken(context.Background(), "owner-1"); ok {
		t.Fatalf("expected unauthenticated, got token %q", token)
	}

	// No automatic retry on a failed refresh.
	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Fatalf("expected one refresh attempt, got=%d", hits)
	}

	// The stale record survives so a later re-auth can replace it.
	stored, found, _ := repo.Get(context.Background(), "owner-1")
	if !found || stored.AccessToken != "expired" {
		t.Fatalf("stored record unexpectedly mutated: %+v found=%v", stored, found)
	}
}

func TestCredentialService_NoRecordMeansUnauthenticated(t *testing.T) {
	t.Parallel()

	service := NewCredentialService(newMemoryCredentialRepo(), nil, nil)
	if _, ok := service.AccessToken(context.Background(), "nobody"); ok {
		t.Fatal("expected unauthenticated for unknown owner")
	}
	if _, ok := service.AccessToken(context.Background(), " "); ok {
		t.Fatal("expected unauthenticated for blank owner")
	}
}

func TestCredentialService_KeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	t.Parallel()

	repo := newMemoryCredentialRepo()
	_ = repo.Save(context.Background(), credential.Stored{
		OwnerID:      "owner-1",
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	oauthCfg := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"next-token","token_type":"bearer","expires_in":3600}`))
	})

	service := NewCredentialService(repo, oauthCfg, nil)
	if _, ok := service.AccessToken(context.Background(), "owner-1"); !ok {
		t.Fatal("expected refresh to succeed")
	}

	stored, _, _ := repo.Get(context.Background(), "owner-1")
	if stored.RefreshToken != "refresh-1" {
		t.Fatalf("refresh token lost on rotation-free refresh: %+v", stored)
	}
}
