package league

// Info identifies a league and its season window. It is immutable once
// fetched; StartWeek and EndWeek are the source of truth for week-range
// defaults everywhere else.
type Info struct {
	LeagueID  string `json:"leagueId"`
	Name      string `json:"name"`
	StartWeek int    `json:"startWeek"`
	EndWeek   int    `json:"endWeek"`
}

// TeamRecord is one row of a league standings snapshot. Wins+Losses+Ties need
// not sum to games played; byes and incomplete upstream data are tolerated.
type TeamRecord struct {
	ID                string  `json:"id"`
	TeamKey           string  `json:"teamKey"`
	Name              string  `json:"name"`
	Rank              int     `json:"rank"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	Ties              int     `json:"ties"`
	SeasonPointsTotal float64 `json:"seasonPointsTotal"`
}

// WeeklyTeamScore is a single (week, team) score. A merge keeps at most one
// score per pair; later writes win.
type WeeklyTeamScore struct {
	Week     int     `json:"week"`
	TeamName string  `json:"teamName"`
	Score    float64 `json:"score"`
}

// Standings bundles league identity with its team rows. Either part may be
// empty when the upstream payload was only partially recognizable.
type Standings struct {
	Info  Info         `json:"info"`
	Teams []TeamRecord `json:"teams"`
}
