package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gridpulse/fantasy-api/internal/usecase"
)

type weekStatScoresRequest struct {
	LeagueKey string `validate:"required,max=64"`
	Week      int    `validate:"min=1,max=30"`
}

func (h *Handler) GetWeekStatScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekStatScores")
	defer span.End()

	ownerID, ok := ownerFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: owner is missing from request context", usecase.ErrUnauthorized))
		return
	}

	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	request := weekStatScoresRequest{LeagueKey: r.PathValue("leagueKey"), Week: week}
	if err := h.validateRequest(ctx, request); err != nil {
		writeError(ctx, w, err)
		return
	}

	scored, err := h.aggregation.ScoreWeekStats(ctx, ownerID, request.LeagueKey, request.Week)
	if err != nil {
		h.logger.WarnContext(ctx, "week stat scores failed",
			"league_key", request.LeagueKey,
			"week", request.Week,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scored)
}

func (h *Handler) GetWeekProjections(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekProjections")
	defer span.End()

	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	projections, err := h.aggregation.WeekProjections(ctx, week)
	if err != nil {
		h.logger.WarnContext(ctx, "week projections failed", "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, projections)
}

func weekPathValue(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("week"))
	week, err := strconv.Atoi(raw)
	if err != nil || week <= 0 {
		return 0, fmt.Errorf("%w: week must be a positive integer", usecase.ErrInvalidInput)
	}

	return week, nil
}
