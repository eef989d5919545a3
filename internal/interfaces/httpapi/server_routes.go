package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerAuthRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/auth/login", handler.AuthLogin)
	mux.HandleFunc("GET /v1/auth/callback", handler.AuthCallback)
	mux.Handle("DELETE /v1/auth/credentials", RequireOwner(http.HandlerFunc(handler.RevokeCredential)))
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("GET /v1/leagues/{leagueKey}/scores", RequireOwner(http.HandlerFunc(handler.GetSeasonScores)))
	mux.Handle("GET /v1/leagues/{leagueKey}/teams/{teamKey}/players", RequireOwner(http.HandlerFunc(handler.GetPlayerComparison)))
	mux.Handle("GET /v1/leagues/{leagueKey}/weeks/{week}/stat-scores", RequireOwner(http.HandlerFunc(handler.GetWeekStatScores)))
	mux.Handle("GET /v1/weeks/{week}/projections", http.HandlerFunc(handler.GetWeekProjections))
}
