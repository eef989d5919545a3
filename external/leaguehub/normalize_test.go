package leaguehub

import (
	"strconv"
	"testing"
)

func standingsFixture(teams map[string]any) map[string]any {
	return map[string]any{
		"fantasy_content": map[string]any{
			"league": []any{
				map[string]any{
					"league_id":  "331231",
					"name":       "Dust Bowl Dynasty",
					"start_week": "1",
					"end_week":   float64(16),
				},
				map[string]any{
					"standings": []any{
						map[string]any{"teams": teams},
					},
				},
			},
		},
	}
}

func teamTupleFixture(teamID any, teamKey, name string, rank any, total any) []any {
	return []any{
		[]any{
			map[string]any{"team_key": teamKey},
			map[string]any{"team_id": teamID},
			map[string]any{"name": name},
		},
		map[string]any{
			"team_points": map[string]any{"total": total},
		},
		map[string]any{
			"team_standings": map[string]any{
				"rank": rank,
				"outcome_totals": map[string]any{
					"wins":   "8",
					"losses": float64(4),
					"ties":   "0",
				},
			},
		},
	}
}

func TestParseStandings_ExtractsTeamsRegardlessOfElementOrder(t *testing.T) {
	t.Parallel()

	root := standingsFixture(map[string]any{
		"count": float64(2),
		"1":     map[string]any{"team": teamTupleFixture("2", "331231.t.2", "Mud Ducks", "2", float64(1100.2))},
		"0":     map[string]any{"team": teamTupleFixture("1", "331231.t.1", "Gridiron Geeks", float64(1), "1245.38")},
	})

	// Reverse the league element order; position must not matter.
	content := root["fantasy_content"].(map[string]any)
	elements := content["league"].([]any)
	content["league"] = []any{elements[1], elements[0]}

	parsed := ParseStandings(root, nil)
	if parsed.Info.LeagueID != "331231" {
		t.Fatalf("expected league_id=331231, got=%q", parsed.Info.LeagueID)
	}
	if parsed.Info.StartWeek != 1 || parsed.Info.EndWeek != 16 {
		t.Fatalf("unexpected season window %d..%d", parsed.Info.StartWeek, parsed.Info.EndWeek)
	}
	if len(parsed.Teams) != 2 {
		t.Fatalf("expected two teams, got=%d", len(parsed.Teams))
	}
	if parsed.Teams[0].Name != "Gridiron Geeks" || parsed.Teams[0].Rank != 1 {
		t.Fatalf("teams not sorted by rank: %+v", parsed.Teams[0])
	}
	if parsed.Teams[0].SeasonPointsTotal != 1245.38 {
		t.Fatalf("string-encoded total not coerced, got=%v", parsed.Teams[0].SeasonPointsTotal)
	}
	if parsed.Teams[0].Wins != 8 || parsed.Teams[0].Losses != 4 {
		t.Fatalf("unexpected outcome totals: %+v", parsed.Teams[0])
	}
}

func TestParseStandings_TeamIDKeepsProviderEncoding(t *testing.T) {
	t.Parallel()

	root := standingsFixture(map[string]any{
		"count": float64(2),
		"0":     map[string]any{"team": teamTupleFixture("7", "331231.t.7", "Sideline Scholars", float64(1), float64(900))},
		"1":     map[string]any{"team": teamTupleFixture(float64(0), "331231.t.0", "Practice Squad", float64(2), float64(800))},
	})

	parsed := ParseStandings(root, nil)
	if len(parsed.Teams) != 2 {
		t.Fatalf("expected two teams, got=%d", len(parsed.Teams))
	}
	if parsed.Teams[0].ID != "7" {
		t.Fatalf("string team id mangled: %+v", parsed.Teams[0])
	}
	// A numeric id of zero is a real id, not an absent field.
	if parsed.Teams[1].ID != "0" {
		t.Fatalf("zero team id dropped: %+v", parsed.Teams[1])
	}
}

func TestParseStandings_NoDiscriminatorReturnsEmptyResult(t *testing.T) {
	t.Parallel()

	for _, root := range []any{
		nil,
		"garbage",
		map[string]any{"fantasy_content": map[string]any{}},
		map[string]any{"fantasy_content": map[string]any{"league": []any{map[string]any{"unrelated": true}}}},
	} {
		parsed := ParseStandings(root, nil)
		if parsed.Teams == nil || len(parsed.Teams) != 0 {
			t.Fatalf("expected empty team slice for %v, got=%v", root, parsed.Teams)
		}
		if parsed.Info.StartWeek != 1 || parsed.Info.EndWeek != 17 {
			t.Fatalf("expected defaulted season window, got %d..%d", parsed.Info.StartWeek, parsed.Info.EndWeek)
		}
	}
}

func TestParseStandings_SkipsMalformedTeamKeepsSiblings(t *testing.T) {
	t.Parallel()

	brokenTuple := teamTupleFixture("3", "331231.t.3", "No Points Here", "3", "900")
	brokenTuple = []any{brokenTuple[0], brokenTuple[2]} // points object dropped

	root := standingsFixture(map[string]any{
		"0":     map[string]any{"team": teamTupleFixture("1", "331231.t.1", "Gridiron Geeks", "1", "1245.38")},
		"1":     map[string]any{"team": brokenTuple},
		"2":     map[string]any{"team": teamTupleFixture("2", "331231.t.2", "Mud Ducks", "2", "1100.2")},
		"count": float64(3),
	})

	parsed := ParseStandings(root, nil)
	if len(parsed.Teams) != 2 {
		t.Fatalf("expected malformed team skipped, got %d teams", len(parsed.Teams))
	}
	for _, team := range parsed.Teams {
		if team.Name == "No Points Here" {
			t.Fatal("malformed team leaked into result")
		}
	}
}

func TestOrderedEntries_SkipsCountByNameAndSortsNumerically(t *testing.T) {
	t.Parallel()

	entries := orderedEntries(map[string]any{
		"10":    map[string]any{"id": "ten"},
		"2":     map[string]any{"id": "two"},
		"count": float64(3),
		"0":     map[string]any{"id": "zero"},
		"meta":  map[string]any{"id": "noise"},
	})

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got=%d", len(entries))
	}
	got := []string{
		entries[0]["id"].(string),
		entries[1]["id"].(string),
		entries[2]["id"].(string),
	}
	if got[0] != "zero" || got[1] != "two" || got[2] != "ten" {
		t.Fatalf("entries not numerically ordered: %v", got)
	}
}

func TestAsFloat64_CoercionIsIdempotentAcrossEncodings(t *testing.T) {
	t.Parallel()

	for _, value := range []float64{0, 1, -2.5, 275, 1245.38, 17} {
		encoded := " " + strconv.FormatFloat(value, 'f', -1, 64) + " "
		if asFloat64(encoded) != asFloat64(value) {
			t.Fatalf("string and numeric coercion disagree for %v: %v vs %v", value, asFloat64(encoded), asFloat64(value))
		}
	}
	if asFloat64("not a number") != 0 {
		t.Fatal("unparseable string should coerce to zero")
	}
	if asFloat64(nil) != 0 {
		t.Fatal("nil should coerce to zero")
	}
}

func TestParseScoringRules_AppliesTwoPointDefaults(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"fantasy_content": map[string]any{
			"league": []any{
				map[string]any{"league_id": "331231"},
				map[string]any{
					"settings": []any{
						map[string]any{
							"stat_modifiers": map[string]any{
								"stats": []any{
									map[string]any{"stat": map[string]any{"stat_id": "4", "value": "0.04"}},
									map[string]any{"stat": map[string]any{"stat_id": float64(5), "value": float64(4)}},
									map[string]any{"stat": map[string]any{"stat_id": "6", "value": "-2"}},
								},
							},
						},
					},
				},
			},
		},
	}

	table := ParseScoringRules(root)
	if table[4] != 0.04 || table[5] != 4 || table[6] != -2 {
		t.Fatalf("unexpected rule values: %v", table)
	}
	if table[19] != 2 || table[20] != 2 {
		t.Fatalf("two-point defaults missing: %v", table)
	}
}

func TestParseRoster_DistinguishesAbsentProjectionFromZero(t *testing.T) {
	t.Parallel()

	playerTuple := func(key, name string, projected any) []any {
		tuple := []any{
			[]any{
				map[string]any{"player_key": key},
				map[string]any{"player_id": "100"},
				map[string]any{"name": map[string]any{"full": name}},
				map[string]any{"display_position": "QB"},
				map[string]any{"editorial_team_abbr": "GB"},
			},
			map[string]any{"player_points": map[string]any{"total": "17.2"}},
		}
		if projected != nil {
			tuple = append(tuple, map[string]any{
				"player_projected_points": map[string]any{"total": projected},
			})
		}
		return tuple
	}

	root := map[string]any{
		"fantasy_content": map[string]any{
			"team": []any{
				[]any{map[string]any{"team_key": "331231.t.1"}},
				map[string]any{
					"roster": map[string]any{
						"0": map[string]any{
							"players": map[string]any{
								"0":     map[string]any{"player": playerTuple("p.1", "Jordan Love", "18.5")},
								"1":     map[string]any{"player": playerTuple("p.2", "Bench Guy", float64(0))},
								"2":     map[string]any{"player": playerTuple("p.3", "No Projection", nil)},
								"count": float64(3),
							},
						},
					},
				},
			},
		},
	}

	players := ParseRoster(root, nil)
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got=%d", len(players))
	}

	if !players[0].HasProjection || players[0].ProjectedPoints != 18.5 {
		t.Fatalf("provider projection lost: %+v", players[0])
	}
	if !players[1].HasProjection || players[1].ProjectedPoints != 0 {
		t.Fatalf("zero projection must stay a real projection: %+v", players[1])
	}
	if players[2].HasProjection {
		t.Fatalf("absent projection marked present: %+v", players[2])
	}
	if players[0].Name != "Jordan Love" || players[0].Position != "QB" || players[0].Team != "GB" {
		t.Fatalf("player identity not extracted: %+v", players[0])
	}
	if players[0].ActualPoints != 17.2 {
		t.Fatalf("actual points not coerced: %+v", players[0])
	}
}

func TestParseRoster_ExtractsStatSnapshot(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"fantasy_content": map[string]any{
			"team": []any{
				[]any{map[string]any{"team_key": "331231.t.1"}},
				map[string]any{
					"roster": map[string]any{
						"players": map[string]any{
							"0": map[string]any{
								"player": []any{
									[]any{map[string]any{"player_key": "p.1"}},
									map[string]any{"player_points": map[string]any{"total": "17"}},
									map[string]any{
										"player_stats": map[string]any{
											"stats": []any{
												map[string]any{"stat": map[string]any{"stat_id": "4", "value": "275"}},
												map[string]any{"stat": map[string]any{"stat_id": "5", "value": float64(2)}},
											},
										},
									},
								},
							},
							"count": float64(1),
						},
					},
				},
			},
		},
	}

	players := ParseRoster(root, nil)
	if len(players) != 1 {
		t.Fatalf("expected 1 player, got=%d", len(players))
	}
	if players[0].Stats["4"] != 275 || players[0].Stats["5"] != 2 {
		t.Fatalf("stat snapshot not extracted: %v", players[0].Stats)
	}
}

func TestParseScoreboard_DropsMalformedTeams(t *testing.T) {
	t.Parallel()

	wellFormed := []any{
		[]any{map[string]any{"name": "Gridiron Geeks"}},
		map[string]any{"team_points": map[string]any{"total": "101.5"}},
	}
	noName := []any{
		[]any{map[string]any{"team_id": "9"}},
		map[string]any{"team_points": map[string]any{"total": "88"}},
	}

	root := map[string]any{
		"fantasy_content": map[string]any{
			"league": []any{
				map[string]any{"league_id": "331231"},
				map[string]any{
					"scoreboard": map[string]any{
						"matchups": map[string]any{
							"0": map[string]any{
								"matchup": map[string]any{
									"teams": map[string]any{
										"0":     map[string]any{"team": wellFormed},
										"1":     map[string]any{"team": noName},
										"count": float64(2),
									},
								},
							},
							"count": float64(1),
						},
					},
				},
			},
		},
	}

	scores := ParseScoreboard(root, 5, nil)
	if len(scores) != 1 {
		t.Fatalf("expected 1 score, got=%d", len(scores))
	}
	if scores[0].Week != 5 || scores[0].TeamName != "Gridiron Geeks" || scores[0].Score != 101.5 {
		t.Fatalf("unexpected score row: %+v", scores[0])
	}
}
