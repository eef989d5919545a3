package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/gridpulse/fantasy-api/internal/domain/credential"
	"github.com/gridpulse/fantasy-api/internal/platform/logging"
	"github.com/gridpulse/fantasy-api/internal/platform/resilience"
)

// refreshMargin is how close to expiry a stored access token may get before
// it is refreshed instead of served.
const refreshMargin = 5 * time.Minute

// CredentialService holds one OAuth credential per owner and serves a
// currently valid access token, refreshing transparently near expiry. It
// implements the primary provider's TokenSource.
type CredentialService struct {
	repo   credential.Repository
	oauth  *oauth2.Config
	logger *logging.Logger
	now    func() time.Time
	flight resilience.SingleFlight
}

func NewCredentialService(repo credential.Repository, oauthCfg *oauth2.Config, logger *logging.Logger) *CredentialService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CredentialService{
		repo:   repo,
		oauth:  oauthCfg,
		logger: logger,
		now:    time.Now,
	}
}

// AccessToken returns a valid access token for the owner. A false return
// means unauthenticated, covering a missing record, a failed refresh and a
// revoked grant alike; it is never a system error.
func (s *CredentialService) AccessToken(ctx context.Context, ownerID string) (string, bool) {
	if strings.TrimSpace(ownerID) == "" {
		return "", false
	}

	stored, found, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "read credential failed", "owner_id", ownerID, "error", err)
		return "", false
	}
	if !found {
		return "", false
	}
	if !stored.Expired(s.now(), refreshMargin) {
		return stored.AccessToken, true
	}

	token, err, _ := s.flight.Do("refresh:"+ownerID, func() (any, error) {
		return s.refresh(ctx, stored)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "credential refresh failed", "owner_id", ownerID, "error", err)
		return "", false
	}
	return token.(string), true
}

// refresh exchanges the stored refresh token and replaces the whole record.
// The record is never patched field by field; a concurrent reader sees
// either the old pair or the new pair, not a mix.
func (s *CredentialService) refresh(ctx context.Context, stored credential.Stored) (string, error) {
	if s.oauth == nil {
		return "", fmt.Errorf("oauth configuration is not set")
	}
	if stored.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token on record", ErrUnauthorized)
	}

	source := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken})
	fresh, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("exchange refresh token: %w", err)
	}

	next := credential.Stored{
		OwnerID:      stored.OwnerID,
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    fresh.Expiry,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = stored.RefreshToken
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return "", fmt.Errorf("persist refreshed credential: %w", err)
	}

	s.logger.InfoContext(ctx, "credential refreshed", "owner_id", stored.OwnerID, "expires_at", next.ExpiresAt)
	return next.AccessToken, nil
}

// Store persists the credential produced by an OAuth exchange, replacing
// any record the owner already has.
func (s *CredentialService) Store(ctx context.Context, record credential.Stored) error {
	if strings.TrimSpace(record.OwnerID) == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(record.AccessToken) == "" {
		return fmt.Errorf("%w: access token is required", ErrInvalidInput)
	}
	return s.repo.Save(ctx, record)
}

// Revoke drops the owner's stored credential.
func (s *CredentialService) Revoke(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	return s.repo.Delete(ctx, ownerID)
}
