package nav

import (
	"fmt"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

// Waypoint is one step of a route: walk in Direction to reach Coordinates on Map.
// For warp steps the target is the warp's destination.
type Waypoint struct {
	Direction   grid.Direction `json:"direction"`
	Map         mapdata.MapID  `json:"map"`
	Coordinates grid.Point     `json:"coordinates"`
	IsWarp      bool           `json:"is_warp"`
	// Action is what the player has to do on top of pressing Direction.
	Action      WaypointAction `json:"action,omitempty"`
}

// WalkingDirection returns the button to press for this step.
func (w Waypoint) WalkingDirection() string {
	return w.Direction.ButtonName()
}

// WaypointAction is a field move or similar interaction needed to take a step.
type WaypointAction uint8

const (
	ActionNone WaypointAction = iota
	ActionSurf                // use Surf facing the water
)

func (a WaypointAction) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSurf:
		return "surf"
	default:
		return fmt.Sprintf("WaypointAction(%d)", uint8(a))
	}
}

func (a WaypointAction) MarshalText() ([]byte, error) {
	switch a {
	case ActionNone, ActionSurf:
		return []byte(a.String()), nil
	default:
		return nil, fmt.Errorf("invalid waypoint action %d", uint8(a))
	}
}

func (a *WaypointAction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "":
		*a = ActionNone
	case "surf":
		*a = ActionSurf
	default:
		return fmt.Errorf("unknown waypoint action %q", text)
	}
	return nil
}
