package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/gridpulse/fantasy-api/internal/domain/credential"
	"github.com/gridpulse/fantasy-api/internal/usecase"
)

// AuthLogin redirects the caller into the provider's authorization flow.
// The owner id rides in the OAuth state parameter so the callback can file
// the credential under the right owner.
func (h *Handler) AuthLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AuthLogin")
	defer span.End()

	if h.oauth == nil {
		writeError(ctx, w, fmt.Errorf("%w: oauth is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	ownerID := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if ownerID == "" {
		writeError(ctx, w, fmt.Errorf("%w: owner_id is required", usecase.ErrInvalidInput))
		return
	}

	http.Redirect(w, r, h.oauth.AuthCodeURL(ownerID, oauth2.AccessTypeOffline), http.StatusFound)
}

// AuthCallback exchanges the authorization code and stores the resulting
// credential, replacing whatever the owner had.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AuthCallback")
	defer span.End()

	if h.oauth == nil {
		writeError(ctx, w, fmt.Errorf("%w: oauth is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	ownerID := strings.TrimSpace(r.URL.Query().Get("state"))
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if ownerID == "" || code == "" {
		writeError(ctx, w, fmt.Errorf("%w: state and code are required", usecase.ErrInvalidInput))
		return
	}

	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "oauth code exchange failed", "owner_id", ownerID, "error", err)
		writeError(ctx, w, fmt.Errorf("%w: code exchange rejected", usecase.ErrUnauthorized))
		return
	}

	record := credential.Stored{
		OwnerID:      ownerID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if err := h.credentials.Store(ctx, record); err != nil {
		h.logger.ErrorContext(ctx, "store credential failed", "owner_id", ownerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"ownerId": ownerID, "status": "connected"})
}

// RevokeCredential drops the caller's stored provider credential.
func (h *Handler) RevokeCredential(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RevokeCredential")
	defer span.End()

	ownerID, ok := ownerFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: owner is missing from request context", usecase.ErrUnauthorized))
		return
	}

	if err := h.credentials.Revoke(ctx, ownerID); err != nil {
		h.logger.ErrorContext(ctx, "revoke credential failed", "owner_id", ownerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"ownerId": ownerID, "status": "revoked"})
}
