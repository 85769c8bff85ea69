package parameter

// UseParameters selects per-parameter generation and light settings instead of a quality tier
const UseParameters = -1

// QualityTier is an external ceiling on generation depth and light density
type QualityTier struct {
	Level              int     `toml:"level"`
	MaxGenerations     int     `toml:"max_generations"`
	LightPercent       float64 `toml:"light_percent"`
	LightShadowPercent float64 `toml:"light_shadow_percent"`
}

// QualityTable maps quality levels to tiers, Level selects the active one
type QualityTable struct {
	Level int           `toml:"level"`
	Tiers []QualityTier `toml:"tier"`
}

// Active returns the tier for the current level
// ok is false when Level is UseParameters or no tier is configured for it
func (q *QualityTable) Active() (QualityTier, bool) {
	if q == nil || q.Level == UseParameters {
		return QualityTier{}, false
	}
	return q.Lookup(q.Level)
}

// Lookup returns the tier configured for level
func (q *QualityTable) Lookup(level int) (QualityTier, bool) {
	if q == nil {
		return QualityTier{}, false
	}
	for _, t := range q.Tiers {
		if t.Level == level {
			return t, true
		}
	}
	return QualityTier{}, false
}

// UsesParameters reports whether per-parameter values govern instead of a tier
func (q *QualityTable) UsesParameters() bool {
	return q == nil || q.Level == UseParameters
}

// DefaultQualityTable mirrors a six level low-to-ultra ladder
func DefaultQualityTable() QualityTable {
	return QualityTable{
		Level: UseParameters,
		Tiers: []QualityTier{
			{Level: 0, MaxGenerations: 3, LightPercent: 0, LightShadowPercent: 0},
			{Level: 1, MaxGenerations: 4, LightPercent: 0, LightShadowPercent: 0},
			{Level: 2, MaxGenerations: 5, LightPercent: 0.25, LightShadowPercent: 0},
			{Level: 3, MaxGenerations: 5, LightPercent: 0.5, LightShadowPercent: 0.1},
			{Level: 4, MaxGenerations: 6, LightPercent: 0.75, LightShadowPercent: 0.25},
			{Level: 5, MaxGenerations: 7, LightPercent: 1, LightShadowPercent: 0.5},
		},
	}
}
