package nav

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/pokenav/internal/grid"
)

func TestWaypointActionJSON(t *testing.T) {
	surf := Waypoint{Direction: grid.West, Map: id(0, 1), Coordinates: grid.Point{X: 4, Y: 2}, Action: ActionSurf}
	data, err := json.Marshal(surf)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"surf"`)

	var back Waypoint
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, surf, back)

	data, err = json.Marshal(Waypoint{Direction: grid.West})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "action")

	assert.Error(t, back.Action.UnmarshalText([]byte("dive")))
	_, err = WaypointAction(9).MarshalText()
	assert.Error(t, err)
}
