package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	sonic "github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"

	"github.com/gridpulse/fantasy-api/internal/domain/league"
	"github.com/gridpulse/fantasy-api/internal/domain/player"
	"github.com/gridpulse/fantasy-api/internal/domain/scoring"
	"github.com/gridpulse/fantasy-api/internal/platform/cache"
	"github.com/gridpulse/fantasy-api/internal/platform/logging"
)

const defaultMaxWorkers = 8

type AggregationConfig struct {
	// CurrentWeek drives the TTL class split between immutable past weeks
	// and still-moving current-week data.
	CurrentWeek func() int
	Season      int
	MaxWorkers  int
}

// AggregationService fans out per-week provider calls, merges whatever
// succeeded and reports the retrieved count next to the requested count.
// One bad week never voids the others; only zero successes fail the call.
type AggregationService struct {
	leagues     LeagueProvider
	stats       StatsProvider
	store       *cache.Store
	logger      *logging.Logger
	currentWeek func() int
	season      int
	maxWorkers  int
}

func NewAggregationService(
	leagues LeagueProvider,
	stats StatsProvider,
	store *cache.Store,
	logger *logging.Logger,
	cfg AggregationConfig,
) *AggregationService {
	if logger == nil {
		logger = logging.Default()
	}
	currentWeek := cfg.CurrentWeek
	if currentWeek == nil {
		currentWeek = func() int { return 1 }
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = defaultMaxWorkers
	}

	return &AggregationService{
		leagues:     leagues,
		stats:       stats,
		store:       store,
		logger:      logger,
		currentWeek: currentWeek,
		season:      cfg.Season,
		maxWorkers:  maxWorkers,
	}
}

// FanoutReport counts per-week outcomes of one aggregation call.
type FanoutReport struct {
	WeeksRequested int   `json:"weeksRequested"`
	WeeksRetrieved int   `json:"weeksRetrieved"`
	FailedWeeks    []int `json:"failedWeeks,omitempty"`
}

// SeasonScoresResult is the merged weekly score series for a league.
type SeasonScoresResult struct {
	Info        league.Info              `json:"info"`
	Scores      []league.WeeklyTeamScore `json:"scores"`
	Synthesized bool                     `json:"synthesized"`
	Report      FanoutReport             `json:"report"`
}

// PlayerComparisonResult is the reconciled actual-versus-projected series
// for every scoring player on one team.
type PlayerComparisonResult struct {
	Players []player.Season `json:"players"`
	Report  FanoutReport    `json:"report"`
}

// ScoredPlayerWeek is one secondary-feed snapshot run through a league's
// rule table.
type ScoredPlayerWeek struct {
	PlayerID  string                 `json:"playerId"`
	Points    float64                `json:"points"`
	Breakdown []player.BreakdownItem `json:"breakdown"`
}

// SeasonScores fetches the weekly scoreboards for the league across the
// requested window. Weeks are fetched concurrently and merged by week with
// last-write-wins per (week, team). When no week carries real scores the
// series is synthesized from the standings season totals and flagged.
func (s *AggregationService) SeasonScores(ctx context.Context, ownerID, leagueKey string, fromWeek, toWeek int) (SeasonScoresResult, error) {
	ctx, span := startUsecaseSpan(ctx, "AggregationService.SeasonScores")
	defer span.End()

	standings, err := s.standings(ctx, ownerID, leagueKey)
	if err != nil {
		return SeasonScoresResult{}, err
	}

	fromWeek, toWeek, err = resolveWindow(standings.Info, fromWeek, toWeek, s.currentWeek())
	if err != nil {
		return SeasonScoresResult{}, err
	}

	result := SeasonScoresResult{Info: standings.Info}
	weekScores := make(map[int][]league.WeeklyTeamScore, toWeek-fromWeek+1)
	var mu sync.Mutex

	report, err := s.fanout(ctx, fromWeek, toWeek, func(ctx context.Context, week int) error {
		scores, err := s.scoreboard(ctx, ownerID, leagueKey, week)
		if err != nil {
			return err
		}
		mu.Lock()
		weekScores[week] = scores
		mu.Unlock()
		return nil
	})
	result.Report = report
	if err != nil {
		return result, err
	}

	result.Scores = mergeWeeklyScores(weekScores)
	if len(result.Scores) == 0 && len(standings.Teams) > 0 {
		result.Scores = league.SynthesizeWeeklyScores(standings.Teams, fromWeek, toWeek, league.DefaultScoreVariance, nil)
		result.Synthesized = true
	}
	return result, nil
}

// PlayerComparison fetches the team's roster for each week in the window
// and reconciles the snapshots into per-player season records.
func (s *AggregationService) PlayerComparison(ctx context.Context, ownerID, leagueKey, teamKey string, fromWeek, toWeek int) (PlayerComparisonResult, error) {
	ctx, span := startUsecaseSpan(ctx, "AggregationService.PlayerComparison")
	defer span.End()

	if strings.TrimSpace(teamKey) == "" {
		return PlayerComparisonResult{}, fmt.Errorf("%w: team key is required", ErrInvalidInput)
	}

	standings, err := s.standings(ctx, ownerID, leagueKey)
	if err != nil {
		return PlayerComparisonResult{}, err
	}
	fromWeek, toWeek, err = resolveWindow(standings.Info, fromWeek, toWeek, s.currentWeek())
	if err != nil {
		return PlayerComparisonResult{}, err
	}

	rules := s.scoringRules(ctx, ownerID, leagueKey)

	observations := make([]WeekObservation, 0, toWeek-fromWeek+1)
	var mu sync.Mutex

	report, err := s.fanout(ctx, fromWeek, toWeek, func(ctx context.Context, week int) error {
		players, err := s.roster(ctx, ownerID, teamKey, week)
		if err != nil {
			return err
		}
		mu.Lock()
		observations = append(observations, WeekObservation{Week: week, Players: players})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return PlayerComparisonResult{Report: report}, err
	}

	return PlayerComparisonResult{
		Players: ReconcilePlayerSeasons(observations, rules),
		Report:  report,
	}, nil
}

// ScoreWeekStats runs the secondary feed's week snapshots through the
// league's rule table, translating the feed's stat keys first.
func (s *AggregationService) ScoreWeekStats(ctx context.Context, ownerID, leagueKey string, week int) ([]ScoredPlayerWeek, error) {
	ctx, span := startUsecaseSpan(ctx, "AggregationService.ScoreWeekStats")
	defer span.End()

	if week < 1 {
		return nil, fmt.Errorf("%w: week must be at least 1", ErrInvalidInput)
	}

	rules := s.scoringRules(ctx, ownerID, leagueKey)

	snapshots, err := s.weekStats(ctx, week)
	if err != nil {
		return nil, err
	}

	out := make([]ScoredPlayerWeek, 0, len(snapshots))
	for playerID, snapshot := range snapshots {
		total, breakdown := scoring.ScoreStatsFeed(snapshot, rules)
		out = append(out, ScoredPlayerWeek{
			PlayerID:  playerID,
			Points:    total,
			Breakdown: breakdown,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

// WeekProjections returns the secondary feed's projection snapshots for a
// week, cached under the projections class.
func (s *AggregationService) WeekProjections(ctx context.Context, week int) (map[string]player.RawStatSnapshot, error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: week must be at least 1", ErrInvalidInput)
	}
	key := fmt.Sprintf("feed:projections:season:%d:week:%d", s.season, week)
	return loadCachedJSON(ctx, s.store, key, cache.ClassProjections, func(ctx context.Context) (map[string]player.RawStatSnapshot, error) {
		return s.stats.FetchWeekProjections(ctx, s.season, week)
	})
}

// fanout runs one job per week on a bounded pool and reports per-week
// outcomes. Completion order is never assumed; callers sort their merged
// output. Zero successes turn into an error carrying the failed weeks.
func (s *AggregationService) fanout(ctx context.Context, fromWeek, toWeek int, job func(ctx context.Context, week int) error) (FanoutReport, error) {
	report := FanoutReport{WeeksRequested: toWeek - fromWeek + 1}

	pool, err := ants.NewPool(s.maxWorkers)
	if err != nil {
		return report, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var retrieved atomic.Int32
	failed := make(chan int, report.WeeksRequested)

	var workers sync.WaitGroup
	for week := fromWeek; week <= toWeek; week++ {
		week := week
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if err := job(ctx, week); err != nil {
				s.logger.WarnContext(ctx, "week fetch failed", "week", week, "error", err)
				failed <- week
				return
			}
			retrieved.Add(1)
		}); err != nil {
			workers.Done()
			return report, fmt.Errorf("submit week %d to worker pool: %w", week, err)
		}
	}

	workers.Wait()
	close(failed)

	for week := range failed {
		report.FailedWeeks = append(report.FailedWeeks, week)
	}
	sort.Ints(report.FailedWeeks)
	report.WeeksRetrieved = int(retrieved.Load())

	if report.WeeksRetrieved == 0 {
		return report, fmt.Errorf("%w: 0 of %d weeks retrieved", ErrDependencyUnavailable, report.WeeksRequested)
	}
	return report, nil
}

func (s *AggregationService) standings(ctx context.Context, ownerID, leagueKey string) (league.Standings, error) {
	if strings.TrimSpace(leagueKey) == "" {
		return league.Standings{}, fmt.Errorf("%w: league key is required", ErrInvalidInput)
	}
	key := "league:" + leagueKey + ":standings"
	return loadCachedJSON(ctx, s.store, key, cache.ClassRosterMaster, func(ctx context.Context) (league.Standings, error) {
		return s.leagues.FetchStandings(ctx, ownerID, leagueKey)
	})
}

func (s *AggregationService) scoreboard(ctx context.Context, ownerID, leagueKey string, week int) ([]league.WeeklyTeamScore, error) {
	key := fmt.Sprintf("league:%s:scoreboard:week:%d", leagueKey, week)
	return loadCachedJSON(ctx, s.store, key, s.weekClass(week), func(ctx context.Context) ([]league.WeeklyTeamScore, error) {
		return s.leagues.FetchScoreboard(ctx, ownerID, leagueKey, week)
	})
}

func (s *AggregationService) roster(ctx context.Context, ownerID, teamKey string, week int) ([]ExternalRosterPlayer, error) {
	key := fmt.Sprintf("team:%s:roster:week:%d", teamKey, week)
	return loadCachedJSON(ctx, s.store, key, s.weekClass(week), func(ctx context.Context) ([]ExternalRosterPlayer, error) {
		return s.leagues.FetchTeamRoster(ctx, ownerID, teamKey, week)
	})
}

func (s *AggregationService) weekStats(ctx context.Context, week int) (map[string]player.RawStatSnapshot, error) {
	key := fmt.Sprintf("feed:stats:season:%d:week:%d", s.season, week)
	return loadCachedJSON(ctx, s.store, key, s.weekClass(week), func(ctx context.Context) (map[string]player.RawStatSnapshot, error) {
		return s.stats.FetchWeekStats(ctx, s.season, week)
	})
}

// scoringRules loads the league rule table, reading through the cache. A
// fetch failure falls back to the last-known table, stale or not; rules
// change at most once a season and an old table beats no table. The empty
// table with the two-point defaults is the floor.
func (s *AggregationService) scoringRules(ctx context.Context, ownerID, leagueKey string) scoring.RuleTable {
	key := "league:" + leagueKey + ":rules"
	rules, err := loadCachedJSON(ctx, s.store, key, cache.ClassRuleTable, func(ctx context.Context) (scoring.RuleTable, error) {
		return s.leagues.FetchScoringRules(ctx, ownerID, leagueKey)
	})
	if err == nil {
		return rules
	}

	s.logger.WarnContext(ctx, "scoring rules fetch failed, trying stale copy", "league_key", leagueKey, "error", err)
	if s.store != nil {
		if raw, _, ok := s.store.GetAllowStale(ctx, key); ok {
			var stale scoring.RuleTable
			if err := sonic.Unmarshal(raw, &stale); err == nil {
				return stale
			}
		}
	}
	return scoring.RuleTable{}.WithTwoPointDefaults()
}

func (s *AggregationService) weekClass(week int) cache.Class {
	if week < s.currentWeek() {
		return cache.ClassPastWeekStats
	}
	return cache.ClassCurrentWeekStats
}

func resolveWindow(info league.Info, fromWeek, toWeek, currentWeek int) (int, int, error) {
	if fromWeek <= 0 {
		fromWeek = info.StartWeek
	}
	if toWeek <= 0 {
		toWeek = currentWeek
		if toWeek > info.EndWeek {
			toWeek = info.EndWeek
		}
	}
	if toWeek < fromWeek {
		return 0, 0, fmt.Errorf("%w: week window %d..%d is inverted", ErrInvalidInput, fromWeek, toWeek)
	}
	return fromWeek, toWeek, nil
}

// mergeWeeklyScores flattens per-week results into one series ordered by
// week then team, deduplicating (week, team) with last write wins.
func mergeWeeklyScores(weekScores map[int][]league.WeeklyTeamScore) []league.WeeklyTeamScore {
	weeks := make([]int, 0, len(weekScores))
	for week := range weekScores {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)

	out := make([]league.WeeklyTeamScore, 0, len(weekScores)*8)
	for _, week := range weeks {
		seen := make(map[string]int, len(weekScores[week]))
		rows := make([]league.WeeklyTeamScore, 0, len(weekScores[week]))
		for _, row := range weekScores[week] {
			if idx, ok := seen[row.TeamName]; ok {
				rows[idx] = row
				continue
			}
			seen[row.TeamName] = len(rows)
			rows = append(rows, row)
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].TeamName < rows[j].TeamName })
		out = append(out, rows...)
	}
	return out
}

// loadCachedJSON reads a value through the tiered cache, marshaling with
// the codec the rest of the service uses. A nil store calls the loader
// directly.
func loadCachedJSON[T any](ctx context.Context, store *cache.Store, key string, class cache.Class, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if store == nil {
		return load(ctx)
	}

	raw, err := store.GetOrLoad(ctx, key, class, func(ctx context.Context) ([]byte, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return sonic.Marshal(value)
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode cached value for %s: %w", key, err)
	}
	return out, nil
}
