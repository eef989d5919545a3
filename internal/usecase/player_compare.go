package usecase

import (
	"math"
	"sort"

	"github.com/gridpulse/fantasy-api/internal/domain/player"
	"github.com/gridpulse/fantasy-api/internal/domain/scoring"
)

// accuracyThresholdPct is the band, in percent, inside which a week counts
// as an accurate projection.
const accuracyThresholdPct = 20.0

// WeekObservation is one week's roster snapshot for a team.
type WeekObservation struct {
	Week    int
	Players []ExternalRosterPlayer
}

// ReconcilePlayerSeasons folds N weekly roster snapshots into one season
// record per player. Players who never score across the whole window are
// dropped as noise. A week whose projection object was structurally absent
// gets a running average of the prior actual scores as a substitute
// baseline, marked with its own projection source; the first such week uses
// its own actual score. A provider projection of exactly zero is kept
// as-is, it is a real projection for a benched player.
//
// Pure with respect to its inputs; observation order does not matter.
func ReconcilePlayerSeasons(observations []WeekObservation, rules scoring.RuleTable) []player.Season {
	sorted := make([]WeekObservation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Week < sorted[j].Week })

	type accumulator struct {
		season      player.Season
		actualSum   float64
		actualCount int
	}
	byKey := make(map[string]*accumulator)
	order := make([]string, 0, 16)

	for _, observation := range sorted {
		for _, row := range observation.Players {
			key := row.PlayerKey
			if key == "" {
				key = row.PlayerID
			}
			if key == "" {
				continue
			}

			acc, ok := byKey[key]
			if !ok {
				acc = &accumulator{
					season: player.Season{
						PlayerKey: row.PlayerKey,
						PlayerID:  row.PlayerID,
						Name:      row.Name,
						Position:  row.Position,
						Team:      row.Team,
					},
				}
				byKey[key] = acc
				order = append(order, key)
			}

			week := buildPlayerWeek(observation.Week, row, rules, acc.actualSum, acc.actualCount)
			acc.season.Weeks = append(acc.season.Weeks, week)
			acc.actualSum += week.ActualPoints
			acc.actualCount++
		}
	}

	out := make([]player.Season, 0, len(order))
	for _, key := range order {
		acc := byKey[key]
		if !hasNonzeroActual(acc.season.Weeks) {
			continue
		}
		sort.SliceStable(acc.season.Weeks, func(i, j int) bool {
			return acc.season.Weeks[i].Week < acc.season.Weeks[j].Week
		})
		acc.season.Summary = summarize(acc.season.Weeks)
		out = append(out, acc.season)
	}
	return out
}

func buildPlayerWeek(week int, row ExternalRosterPlayer, rules scoring.RuleTable, priorSum float64, priorCount int) player.Week {
	actual := row.ActualPoints
	var breakdown []player.BreakdownItem
	if len(row.Stats) > 0 && len(rules) > 0 {
		total, items := scoring.ScorePrimary(row.Stats, rules)
		breakdown = items
		if actual == 0 {
			actual = total
		}
	}

	out := player.Week{
		Week:         week,
		ActualPoints: actual,
		Breakdown:    breakdown,
	}

	if row.HasProjection {
		out.ProjectedPoints = row.ProjectedPoints
		out.ProjectionSource = player.ProjectionProvider
	} else {
		// Substitute baseline: running average of what came before, or the
		// week's own actual when nothing came before.
		if priorCount > 0 {
			out.ProjectedPoints = priorSum / float64(priorCount)
		} else {
			out.ProjectedPoints = actual
		}
		out.ProjectionSource = player.ProjectionRunningAverage
	}

	out.Difference = out.ActualPoints - out.ProjectedPoints
	if out.ProjectedPoints != 0 {
		out.PercentDifference = out.Difference / out.ProjectedPoints * 100
	}
	return out
}

func hasNonzeroActual(weeks []player.Week) bool {
	for _, week := range weeks {
		if week.ActualPoints != 0 {
			return true
		}
	}
	return false
}

func summarize(weeks []player.Week) player.SeasonSummary {
	var summary player.SeasonSummary
	accurate := 0
	for _, week := range weeks {
		summary.TotalActual += week.ActualPoints
		summary.TotalProjected += week.ProjectedPoints
		if week.ActualPoints == 0 {
			continue
		}
		summary.WeeksPlayed++
		if math.Abs(week.PercentDifference) <= accuracyThresholdPct {
			accurate++
		}
	}
	if summary.WeeksPlayed > 0 {
		summary.AverageActual = summary.TotalActual / float64(summary.WeeksPlayed)
		summary.AccuracyRate = float64(accurate) / float64(summary.WeeksPlayed) * 100
	}
	return summary
}
