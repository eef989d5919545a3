package usecase

import (
	"context"

	"github.com/gridpulse/fantasy-api/internal/domain/league"
	"github.com/gridpulse/fantasy-api/internal/domain/player"
	"github.com/gridpulse/fantasy-api/internal/domain/scoring"
)

// ExternalRosterPlayer is one roster row as the primary provider reports
// it. HasProjection records whether the projected-points object was
// structurally present; a present projection of zero is a real value, not
// an absence.
type ExternalRosterPlayer struct {
	PlayerKey       string
	PlayerID        string
	Name            string
	Position        string
	Team            string
	ActualPoints    float64
	ProjectedPoints float64
	HasProjection   bool
	Stats           player.RawStatSnapshot
}

// LeagueProvider is the gateway to the OAuth-gated primary provider.
type LeagueProvider interface {
	FetchStandings(ctx context.Context, ownerID, leagueKey string) (league.Standings, error)
	FetchScoreboard(ctx context.Context, ownerID, leagueKey string, week int) ([]league.WeeklyTeamScore, error)
	FetchScoringRules(ctx context.Context, ownerID, leagueKey string) (scoring.RuleTable, error)
	FetchTeamRoster(ctx context.Context, ownerID, teamKey string, week int) ([]ExternalRosterPlayer, error)
}

// StatsProvider is the gateway to the public secondary stats feed.
type StatsProvider interface {
	FetchWeekStats(ctx context.Context, season, week int) (map[string]player.RawStatSnapshot, error)
	FetchWeekProjections(ctx context.Context, season, week int) (map[string]player.RawStatSnapshot, error)
}
