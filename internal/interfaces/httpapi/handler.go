package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"

	"github.com/gridpulse/fantasy-api/internal/platform/logging"
	"github.com/gridpulse/fantasy-api/internal/usecase"
)

type Handler struct {
	aggregation *usecase.AggregationService
	credentials *usecase.CredentialService
	oauth       *oauth2.Config
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(
	aggregation *usecase.AggregationService,
	credentials *usecase.CredentialService,
	oauthCfg *oauth2.Config,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		aggregation: aggregation,
		credentials: credentials,
		oauth:       oauthCfg,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
