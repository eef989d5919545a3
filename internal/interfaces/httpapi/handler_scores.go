package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gridpulse/fantasy-api/internal/usecase"
)

type seasonScoresRequest struct {
	LeagueKey string `validate:"required,max=64"`
	FromWeek  int    `validate:"min=0,max=30"`
	ToWeek    int    `validate:"min=0,max=30"`
}

type playerComparisonRequest struct {
	LeagueKey string `validate:"required,max=64"`
	TeamKey   string `validate:"required,max=64"`
	FromWeek  int    `validate:"min=0,max=30"`
	ToWeek    int    `validate:"min=0,max=30"`
}

func (h *Handler) GetSeasonScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonScores")
	defer span.End()

	ownerID, ok := ownerFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: owner is missing from request context", usecase.ErrUnauthorized))
		return
	}

	request := seasonScoresRequest{LeagueKey: r.PathValue("leagueKey")}
	var err error
	if request.FromWeek, err = weekQueryParam(r, "from_week"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if request.ToWeek, err = weekQueryParam(r, "to_week"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, request); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.aggregation.SeasonScores(ctx, ownerID, request.LeagueKey, request.FromWeek, request.ToWeek)
	if err != nil {
		h.logger.WarnContext(ctx, "season scores failed", "league_key", request.LeagueKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetPlayerComparison(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerComparison")
	defer span.End()

	ownerID, ok := ownerFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: owner is missing from request context", usecase.ErrUnauthorized))
		return
	}

	request := playerComparisonRequest{
		LeagueKey: r.PathValue("leagueKey"),
		TeamKey:   r.PathValue("teamKey"),
	}
	var err error
	if request.FromWeek, err = weekQueryParam(r, "from_week"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if request.ToWeek, err = weekQueryParam(r, "to_week"); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, request); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.aggregation.PlayerComparison(ctx, ownerID, request.LeagueKey, request.TeamKey, request.FromWeek, request.ToWeek)
	if err != nil {
		h.logger.WarnContext(ctx, "player comparison failed",
			"league_key", request.LeagueKey,
			"team_key", request.TeamKey,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// weekQueryParam reads an optional positive week number; zero means the
// caller left the bound to the service defaults.
func weekQueryParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, name)
	}

	return value, nil
}
