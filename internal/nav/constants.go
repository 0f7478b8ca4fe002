package nav

// Elevation wildcards.
const (
	// ElevationGround can be stepped off onto any elevation.
	ElevationGround uint8 = 0
	// ElevationAny tiles accept every elevation and keep the walker's current one.
	ElevationAny uint8 = 15

	// ElevationWater is the surface of surfable water.
	ElevationWater uint8 = 1
	// ElevationLand is ordinary walkable ground next to water.
	ElevationLand uint8 = 3
)

// Costs weights the terms of the search cost function.
type Costs struct {
	Step             float64
	Encounter        float64 // tile may trigger a wild encounter
	Turn             float64 // direction differs from the previous step
	ScriptedEvent    float64 // per active coordinate trigger on the tile
	IntermediateWarp float64 // warp tile that is not the destination
	Surf             float64 // boarding water from land
	Disembark        float64 // jumping from water back onto land
}

// DefaultCosts returns the standard weighting.
func DefaultCosts() Costs {
	return Costs{
		Step:             1,
		Encounter:        1000,
		Turn:             0.1,
		ScriptedEvent:    10000,
		IntermediateWarp: 1_000_000,
		Surf:             16, // ~267 frames of field-move dialogue against 16 per step
		Disembark:        1,  // the jump ashore takes about two steps
	}
}

// PathOptions tunes a single CalculatePath call.
type PathOptions struct {
	// AvoidEncounters penalises encounter tiles instead of excluding them.
	AvoidEncounters bool
	// AvoidScriptedEvents penalises tiles whose coordinate trigger is armed.
	AvoidScriptedEvents bool
	// CanSurf allows boarding water from land. Leaving water is always
	// allowed, so a walker that starts out surfing can still reach the shore.
	CanSurf bool
	// MaxExpansions bounds the search; 0 means unlimited.
	MaxExpansions int
}

// DefaultPathOptions avoids both encounters and scripted events and searches
// until the frontier is exhausted. Surfing is off until the caller knows the
// party can use it.
func DefaultPathOptions() PathOptions {
	return PathOptions{
		AvoidEncounters:     true,
		AvoidScriptedEvents: true,
	}
}
