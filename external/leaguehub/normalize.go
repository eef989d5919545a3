package leaguehub

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gridpulse/fantasy-api/internal/domain/league"
	"github.com/gridpulse/fantasy-api/internal/domain/player"
	"github.com/gridpulse/fantasy-api/internal/domain/scoring"
	"github.com/gridpulse/fantasy-api/internal/platform/logging"
	"github.com/gridpulse/fantasy-api/internal/usecase"
)

// The provider wraps everything in a fantasy_content envelope whose league
// and team values are arrays of heterogeneous objects. Element order varies
// between endpoints and between API revisions, so every parse below scans
// for a discriminator field instead of indexing into the array.

const (
	defaultStartWeek = 1
	defaultEndWeek   = 17
	maxWalkDepth     = 10
)

// ParseStandings extracts league identity and the team table from a
// standings response. A payload with no recognizable league element yields
// an empty Standings with defaulted season window, never an error; a single
// malformed team is skipped and logged while its siblings survive.
func ParseStandings(root any, logger *logging.Logger) league.Standings {
	if logger == nil {
		logger = logging.NewNop()
	}

	out := league.Standings{
		Info:  league.Info{StartWeek: defaultStartWeek, EndWeek: defaultEndWeek},
		Teams: []league.TeamRecord{},
	}

	variants := leagueVariants(root)
	if info, ok := findLeagueInfo(variants); ok {
		out.Info = info
	}

	standingsNode, ok := findVariantWithKey(variants, "standings")
	if !ok {
		return out
	}
	teamsNode := findMapWithKey(standingsNode["standings"], "teams", 0)
	if teamsNode == nil {
		return out
	}

	for _, item := range orderedEntries(teamsNode["teams"]) {
		record, ok := parseTeamRecord(item["team"])
		if !ok {
			logger.Warn("skipping malformed team entry", "league_id", out.Info.LeagueID)
			continue
		}
		out.Teams = append(out.Teams, record)
	}

	sort.SliceStable(out.Teams, func(i, j int) bool {
		return out.Teams[i].Rank < out.Teams[j].Rank
	})
	return out
}

// ParseScoreboard extracts one score per team from a weekly scoreboard
// response. Malformed matchups or teams are dropped individually.
func ParseScoreboard(root any, week int, logger *logging.Logger) []league.WeeklyTeamScore {
	if logger == nil {
		logger = logging.NewNop()
	}

	out := []league.WeeklyTeamScore{}
	variants := leagueVariants(root)
	scoreboardNode, ok := findVariantWithKey(variants, "scoreboard")
	if !ok {
		return out
	}
	matchupsNode := findMapWithKey(scoreboardNode["scoreboard"], "matchups", 0)
	if matchupsNode == nil {
		return out
	}

	for _, matchupEntry := range orderedEntries(matchupsNode["matchups"]) {
		teamsNode := findMapWithKey(matchupEntry["matchup"], "teams", 0)
		if teamsNode == nil {
			logger.Warn("skipping matchup without teams", "week", week)
			continue
		}
		for _, teamEntry := range orderedEntries(teamsNode["teams"]) {
			parts, ok := splitTeamTuple(teamEntry["team"])
			if !ok || parts.info == nil || parts.points == nil {
				logger.Warn("skipping malformed scoreboard team", "week", week)
				continue
			}
			name := scanTupleString(parts.info, "name")
			if name == "" {
				logger.Warn("skipping scoreboard team without name", "week", week)
				continue
			}
			out = append(out, league.WeeklyTeamScore{
				Week:     week,
				TeamName: name,
				Score:    getFloat(asMap(parts.points["team_points"]), "total"),
			})
		}
	}
	return out
}

// ParseScoringRules extracts a league's stat-modifier table from a settings
// response, with the two two-point-conversion defaults applied.
func ParseScoringRules(root any) scoring.RuleTable {
	table := scoring.RuleTable{}

	variants := leagueVariants(root)
	settingsNode, ok := findVariantWithKey(variants, "settings")
	if !ok {
		return table.WithTwoPointDefaults()
	}
	modifiersNode := findMapWithKey(settingsNode["settings"], "stat_modifiers", 0)
	if modifiersNode == nil {
		return table.WithTwoPointDefaults()
	}

	stats, _ := asMap(modifiersNode["stat_modifiers"])["stats"].([]any)
	for _, raw := range stats {
		stat := asMap(asMap(raw)["stat"])
		if stat == nil {
			continue
		}
		statID := getInt(stat, "stat_id")
		if statID <= 0 {
			continue
		}
		table[statID] = getFloat(stat, "value")
	}
	return table.WithTwoPointDefaults()
}

// ParseRoster extracts the player rows from a weekly team roster response.
func ParseRoster(root any, logger *logging.Logger) []usecase.ExternalRosterPlayer {
	if logger == nil {
		logger = logging.NewNop()
	}

	out := []usecase.ExternalRosterPlayer{}
	playersNode := findMapWithKey(contentNode(root, "team"), "players", 0)
	if playersNode == nil {
		return out
	}

	for _, entry := range orderedEntries(playersNode["players"]) {
		row, ok := parseRosterPlayer(entry["player"])
		if !ok {
			logger.Warn("skipping malformed roster player")
			continue
		}
		out = append(out, row)
	}
	return out
}

type teamTuple struct {
	info      []any
	points    map[string]any
	standings map[string]any
}

// splitTeamTuple classifies the elements of a team value. The provider
// serializes a team as a 3-tuple of info-array, points-object and
// standings-object, but the order is not trusted.
func splitTeamTuple(raw any) (teamTuple, bool) {
	items, ok := raw.([]any)
	if !ok {
		return teamTuple{}, false
	}

	var parts teamTuple
	for _, item := range items {
		switch typed := item.(type) {
		case []any:
			if parts.info == nil {
				parts.info = typed
			}
		case map[string]any:
			if _, ok := typed["team_points"]; ok && parts.points == nil {
				parts.points = typed
				continue
			}
			if _, ok := typed["team_standings"]; ok && parts.standings == nil {
				parts.standings = typed
			}
		}
	}
	return parts, true
}

func parseTeamRecord(raw any) (league.TeamRecord, bool) {
	parts, ok := splitTeamTuple(raw)
	if !ok || parts.info == nil || parts.points == nil || parts.standings == nil {
		return league.TeamRecord{}, false
	}

	record := league.TeamRecord{
		ID:      scanTupleString(parts.info, "team_id"),
		TeamKey: scanTupleString(parts.info, "team_key"),
		Name:    scanTupleString(parts.info, "name"),
	}
	if record.TeamKey == "" || record.Name == "" {
		return league.TeamRecord{}, false
	}

	record.SeasonPointsTotal = getFloat(asMap(parts.points["team_points"]), "total")

	standings := asMap(parts.standings["team_standings"])
	record.Rank = getInt(standings, "rank")
	outcomes := asMap(standings["outcome_totals"])
	record.Wins = getInt(outcomes, "wins")
	record.Losses = getInt(outcomes, "losses")
	record.Ties = getInt(outcomes, "ties")
	return record, true
}

func parseRosterPlayer(raw any) (usecase.ExternalRosterPlayer, bool) {
	items, ok := raw.([]any)
	if !ok {
		return usecase.ExternalRosterPlayer{}, false
	}

	var info []any
	var points, projected, stats map[string]any
	for _, item := range items {
		switch typed := item.(type) {
		case []any:
			if info == nil {
				info = typed
			}
		case map[string]any:
			if _, ok := typed["player_points"]; ok && points == nil {
				points = typed
				continue
			}
			if _, ok := typed["player_projected_points"]; ok && projected == nil {
				projected = typed
				continue
			}
			if _, ok := typed["player_stats"]; ok && stats == nil {
				stats = typed
			}
		}
	}
	if info == nil {
		return usecase.ExternalRosterPlayer{}, false
	}

	row := usecase.ExternalRosterPlayer{
		PlayerKey: scanTupleString(info, "player_key"),
		PlayerID:  scanTupleString(info, "player_id"),
		Position:  firstNonEmpty(scanTupleString(info, "display_position"), scanTupleString(info, "position")),
		Team:      scanTupleString(info, "editorial_team_abbr"),
	}
	row.Name = scanTupleName(info)
	if row.PlayerKey == "" && row.PlayerID == "" {
		return usecase.ExternalRosterPlayer{}, false
	}

	if points != nil {
		row.ActualPoints = getFloat(asMap(points["player_points"]), "total")
	}
	if projected != nil {
		row.ProjectedPoints = getFloat(asMap(projected["player_projected_points"]), "total")
		row.HasProjection = true
	}
	if stats != nil {
		row.Stats = parseStatList(asMap(stats["player_stats"])["stats"])
	}
	return row, true
}

// parseStatList flattens the provider's list of {"stat": {"stat_id", "value"}}
// wrappers into a snapshot keyed by the stat identifier string.
func parseStatList(raw any) player.RawStatSnapshot {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	out := make(player.RawStatSnapshot, len(items))
	for _, item := range items {
		stat := asMap(asMap(item)["stat"])
		if stat == nil {
			continue
		}
		statID := getInt(stat, "stat_id")
		if statID <= 0 {
			continue
		}
		out[strconv.Itoa(statID)] = getFloat(stat, "value")
	}
	return out
}

// leagueVariants returns the heterogeneous elements of the league envelope.
// A bare object is treated as a one-element list so endpoints that skip the
// array wrapper still parse.
func leagueVariants(root any) []map[string]any {
	return variantList(contentNode(root, "league"))
}

func contentNode(root any, key string) any {
	content := asMap(root)
	if nested, ok := content["fantasy_content"]; ok {
		content = asMap(nested)
	}
	if content == nil {
		return nil
	}
	return content[key]
}

func variantList(raw any) []map[string]any {
	switch typed := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{typed}
	default:
		return nil
	}
}

func findLeagueInfo(variants []map[string]any) (league.Info, bool) {
	item, ok := findVariantWithKey(variants, "league_id")
	if !ok {
		return league.Info{}, false
	}

	info := league.Info{
		LeagueID:  getString(item, "league_id"),
		Name:      getString(item, "name"),
		StartWeek: getInt(item, "start_week"),
		EndWeek:   getInt(item, "end_week"),
	}
	if info.StartWeek <= 0 {
		info.StartWeek = defaultStartWeek
	}
	if info.EndWeek < info.StartWeek {
		info.EndWeek = defaultEndWeek
	}
	return info, true
}

func findVariantWithKey(variants []map[string]any, key string) (map[string]any, bool) {
	for _, item := range variants {
		if _, ok := item[key]; ok {
			return item, true
		}
	}
	return nil, false
}

// findMapWithKey walks a subtree of maps and slices looking for the first
// map carrying key. Containers nest one level deeper on some endpoints than
// on others, so the depth of the target is not trusted either.
func findMapWithKey(node any, key string, depth int) map[string]any {
	if depth > maxWalkDepth || node == nil {
		return nil
	}

	switch typed := node.(type) {
	case map[string]any:
		if _, ok := typed[key]; ok {
			return typed
		}
		for _, child := range typed {
			if found := findMapWithKey(child, key, depth+1); found != nil {
				return found
			}
		}
	case []any:
		for _, child := range typed {
			if found := findMapWithKey(child, key, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

// orderedEntries converts a dictionary keyed by stringified integers plus a
// "count" sentinel into a list ordered by numeric key. The sentinel is
// filtered by name; the numeric keys are not assumed contiguous.
func orderedEntries(raw any) []map[string]any {
	src := asMap(raw)
	if src == nil {
		return nil
	}

	type indexed struct {
		index int
		value map[string]any
	}
	items := make([]indexed, 0, len(src))
	for key, value := range src {
		if key == "count" {
			continue
		}
		index, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		entry, ok := value.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, indexed{index: index, value: entry})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].index < items[j].index })

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, item.value)
	}
	return out
}

// scanTupleString looks through an info array of small single-field objects
// for the first occurrence of key.
func scanTupleString(items []any, key string) string {
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if value := getString(m, key); value != "" {
			return value
		}
		if num, ok := m[key].(float64); ok {
			return strconv.FormatFloat(num, 'f', -1, 64)
		}
	}
	return ""
}

// scanTupleName handles the name field's two observed encodings, a plain
// string and a {"full": ...} object.
func scanTupleName(items []any) string {
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		raw, ok := m["name"]
		if !ok {
			continue
		}
		switch typed := raw.(type) {
		case string:
			return strings.TrimSpace(typed)
		case map[string]any:
			return firstNonEmpty(getString(typed, "full"), getString(typed, "first"))
		}
	}
	return ""
}

func asMap(raw any) map[string]any {
	m, _ := raw.(map[string]any)
	return m
}

func getString(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	raw, ok := src[key]
	if !ok || raw == nil {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func getInt(src map[string]any, key string) int {
	if src == nil {
		return 0
	}
	return int(asFloat64(src[key]))
}

func getFloat(src map[string]any, key string) float64 {
	if src == nil {
		return 0
	}
	return asFloat64(src[key])
}

// asFloat64 coerces the provider's "declared type or string-encoded number"
// values. Anything unparseable coerces to zero, never NaN.
func asFloat64(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case float32:
		return float64(typed)
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}
