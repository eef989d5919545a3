package scoring

// statsFeedStatByKey translates the secondary provider's stat field names to
// primary-provider stat identifiers. The mapping is static and hand
// maintained; it covers the scoring categories both providers agree on. A
// feed key with no entry here is ignored by the engine, the same way an
// unknown primary stat identifier is.
var statsFeedStatByKey = map[string]int{
	"passYds":                   StatPassingYards,
	"passTD":                    StatPassingTouchdowns,
	"int":                       StatInterceptions,
	"rushYds":                   StatRushingYards,
	"rushTD":                    StatRushingTouchdowns,
	"receptions":                StatReceptions,
	"recYds":                    StatReceivingYards,
	"recTD":                     StatReceivingTouchdowns,
	"fumblesLost":               StatFumblesLost,
	"passingTwoPointConversion": StatTwoPointPass,
	"twoPointConversion":        StatTwoPointRushRec,
}

// TranslateStatsFeedKey resolves a secondary-provider stat key to its
// primary-provider identifier.
func TranslateStatsFeedKey(key string) (int, bool) {
	id, ok := statsFeedStatByKey[key]
	return id, ok
}
