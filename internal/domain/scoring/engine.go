package scoring

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gridpulse/fantasy-api/internal/domain/player"
)

// ScorePrimary computes the fantasy point total and itemized breakdown for a
// primary-provider stat snapshot, whose keys are stat identifiers in string
// form. Snapshot entries with no matching rule contribute zero and are not
// errors; the provider grows new stat categories without notice.
//
// The result depends only on the two inputs.
func ScorePrimary(snapshot player.RawStatSnapshot, rules RuleTable) (float64, []player.BreakdownItem) {
	resolve := func(key string) (int, bool) {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return score(snapshot, rules, resolve)
}

// ScoreStatsFeed computes the same result for a secondary-provider snapshot,
// translating each feed key to its primary stat identifier first. Feed keys
// without a translation entry are ignored, symmetric with unknown primary
// identifiers.
func ScoreStatsFeed(snapshot player.RawStatSnapshot, rules RuleTable) (float64, []player.BreakdownItem) {
	return score(snapshot, rules, TranslateStatsFeedKey)
}

func score(snapshot player.RawStatSnapshot, rules RuleTable, resolve func(string) (int, bool)) (float64, []player.BreakdownItem) {
	total := 0.0
	items := make([]player.BreakdownItem, 0, len(snapshot))

	for key, value := range snapshot {
		statID, ok := resolve(key)
		if !ok {
			continue
		}
		pointsPerUnit, ok := rules[statID]
		if !ok {
			continue
		}

		points := value * pointsPerUnit
		total += points
		// Zero-valued entries still pass through the total above; they are
		// only dropped from the itemized view.
		if value == 0 {
			continue
		}
		items = append(items, player.BreakdownItem{
			StatID: statID,
			Name:   StatName(statID),
			Value:  value,
			Points: points,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StatID < items[j].StatID
	})
	return total, items
}
