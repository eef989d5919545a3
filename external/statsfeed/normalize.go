package statsfeed

import (
	"strconv"
	"strings"

	"github.com/gridpulse/fantasy-api/internal/domain/player"
)

// parsePlayerSnapshots converts a feed response into per-player snapshots
// keyed by the feed's player identifier. The body is a list of player
// objects whose stats arrive either flat or grouped under category objects;
// both shapes are flattened into one snapshot. Entries without a player
// identifier are dropped.
func parsePlayerSnapshots(root any) map[string]player.RawStatSnapshot {
	out := make(map[string]player.RawStatSnapshot)

	body := asMap(root)["body"]
	items, ok := body.([]any)
	if !ok {
		return out
	}

	for _, raw := range items {
		item := asMap(raw)
		if item == nil {
			continue
		}
		playerID := getString(item, "playerID")
		if playerID == "" {
			if id := asFloat64(item["playerID"]); id > 0 {
				playerID = strconv.FormatFloat(id, 'f', -1, 64)
			}
		}
		if playerID == "" {
			continue
		}

		snapshot := make(player.RawStatSnapshot)
		flattenStats(item["stats"], snapshot)
		if len(snapshot) == 0 {
			continue
		}
		out[playerID] = snapshot
	}
	return out
}

func flattenStats(raw any, into player.RawStatSnapshot) {
	src := asMap(raw)
	for key, value := range src {
		if nested, ok := value.(map[string]any); ok {
			flattenNested(nested, into)
			continue
		}
		into[key] = asFloat64(value)
	}
}

func flattenNested(src map[string]any, into player.RawStatSnapshot) {
	for key, value := range src {
		if nested, ok := value.(map[string]any); ok {
			flattenNested(nested, into)
			continue
		}
		into[key] = asFloat64(value)
	}
}

func asMap(raw any) map[string]any {
	m, _ := raw.(map[string]any)
	return m
}

func getString(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	value, _ := src[key].(string)
	return strings.TrimSpace(value)
}

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
