package player

// RawStatSnapshot maps a provider stat key to its numeric value for one
// player-week. Keys are primary-provider stat IDs in string form, or
// secondary-provider field names, depending on which gateway produced the
// snapshot. A snapshot is never assumed complete.
type RawStatSnapshot map[string]float64

// ProjectionSource records where a week's projected points came from, so
// downstream consumers can tell a provider value from a substituted guess.
type ProjectionSource string

const (
	// ProjectionProvider means the projection was carried by the upstream
	// payload.
	ProjectionProvider ProjectionSource = "provider"
	// ProjectionRunningAverage means the projection field was structurally
	// absent and a running average of prior actual scores was substituted.
	ProjectionRunningAverage ProjectionSource = "running_average"
)

// Week is one normalized player-week. Difference is always
// ActualPoints - ProjectedPoints; PercentDifference is 0 whenever
// ProjectedPoints is 0, which avoids division by zero and is not a marker of
// missing data.
type Week struct {
	Week              int              `json:"week"`
	ProjectedPoints   float64          `json:"projectedPoints"`
	ActualPoints      float64          `json:"actualPoints"`
	Difference        float64          `json:"difference"`
	PercentDifference float64          `json:"percentDifference"`
	Breakdown         []BreakdownItem  `json:"breakdown,omitempty"`
	ProjectionSource  ProjectionSource `json:"projectionSource"`
}

// BreakdownItem is one nonzero scoring line in a week's point total.
type BreakdownItem struct {
	StatID int     `json:"statId"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Points float64 `json:"points"`
}

// SeasonSummary aggregates a player's weeks. WeeksPlayed counts weeks with a
// nonzero actual score; AccuracyRate is the percentage of played weeks whose
// actual landed within 20% of the projection.
type SeasonSummary struct {
	TotalActual    float64 `json:"totalActual"`
	TotalProjected float64 `json:"totalProjected"`
	AverageActual  float64 `json:"averageActual"`
	WeeksPlayed    int     `json:"weeksPlayed"`
	AccuracyRate   float64 `json:"accuracyRate"`
}

// Season is one player's normalized actual-vs-projected series, ordered by
// week ascending.
type Season struct {
	PlayerKey string        `json:"playerKey"`
	PlayerID  string        `json:"playerId"`
	Name      string        `json:"name"`
	Position  string        `json:"position"`
	Team      string        `json:"team"`
	Weeks     []Week        `json:"weeks"`
	Summary   SeasonSummary `json:"summary"`
}
