package scoring

import "strconv"

// Primary-provider stat identifiers for the scoring categories the engine
// understands. The secondary provider uses field names instead; see
// translation.go.
const (
	StatPassingYards        = 4
	StatPassingTouchdowns   = 5
	StatInterceptions       = 6
	StatRushingYards        = 9
	StatRushingTouchdowns   = 10
	StatReceptions          = 11
	StatReceivingYards      = 12
	StatReceivingTouchdowns = 13
	StatFumblesLost         = 18
	StatTwoPointPass        = 19
	StatTwoPointRushRec     = 20
)

// DefaultTwoPointValue fills in the two two-point-conversion rules when the
// provider omits them from the league settings payload, which it is known to
// do inconsistently.
const DefaultTwoPointValue = 2.0

// RuleTable maps a primary-provider stat identifier to points per unit. Built
// once per league from the league settings payload and cached.
type RuleTable map[int]float64

// WithTwoPointDefaults returns a copy of the table with the two-point
// conversion rules present, filling absent entries with DefaultTwoPointValue.
func (t RuleTable) WithTwoPointDefaults() RuleTable {
	out := make(RuleTable, len(t)+2)
	for id, points := range t {
		out[id] = points
	}
	if _, ok := out[StatTwoPointPass]; !ok {
		out[StatTwoPointPass] = DefaultTwoPointValue
	}
	if _, ok := out[StatTwoPointRushRec]; !ok {
		out[StatTwoPointRushRec] = DefaultTwoPointValue
	}
	return out
}

var statNameByID = map[int]string{
	StatPassingYards:        "Passing Yards",
	StatPassingTouchdowns:   "Passing Touchdowns",
	StatInterceptions:       "Interceptions",
	StatRushingYards:        "Rushing Yards",
	StatRushingTouchdowns:   "Rushing Touchdowns",
	StatReceptions:          "Receptions",
	StatReceivingYards:      "Receiving Yards",
	StatReceivingTouchdowns: "Receiving Touchdowns",
	StatFumblesLost:         "Fumbles Lost",
	StatTwoPointPass:        "Two-Point Conversions (Passing)",
	StatTwoPointRushRec:     "Two-Point Conversions (Rush/Rec)",
}

// StatName returns a display name for a stat identifier, falling back to a
// numeric label for identifiers outside the known set.
func StatName(id int) string {
	if name, ok := statNameByID[id]; ok {
		return name
	}
	return "Stat " + strconv.Itoa(id)
}
