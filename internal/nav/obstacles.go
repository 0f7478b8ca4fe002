package nav

import (
	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
	"github.com/udisondev/pokenav/internal/worldstate"
)

type objectKey struct {
	mapID   mapdata.MapID
	localID uint8
}

type levelPoint struct {
	level int
	p     grid.Point
}

// obstacles answers whether a tile can be entered right now. It is sampled
// from live state once per search and discarded afterwards.
type obstacles struct {
	state   worldstate.State
	active  map[objectKey]struct{}
	blocked map[levelPoint]struct{}
	canSurf bool
}

// sampleObstacles records every spawned non-player character as active and
// blocks both its current and previous tile, since it may be mid-step.
func sampleObstacles(a *Atlas, state worldstate.State) *obstacles {
	chars := state.Characters()
	o := &obstacles{
		state:   state,
		active:  make(map[objectKey]struct{}, len(chars)),
		blocked: make(map[levelPoint]struct{}, len(chars)*2),
	}
	for _, c := range chars {
		if c.IsPlayer {
			continue
		}
		// Object data can be half-written while it is being read. Such
		// characters are ignored and their templates are used instead.
		cur, err := a.Tile(Location{Map: c.Map, Local: c.Current})
		if err != nil {
			continue
		}
		prev, err := a.Tile(Location{Map: c.Map, Local: c.Previous})
		if err != nil {
			continue
		}
		o.active[objectKey{c.Map, c.LocalID}] = struct{}{}
		o.blocked[levelPoint{cur.Map.Level, cur.GlobalCoordinates()}] = struct{}{}
		o.blocked[levelPoint{prev.Map.Level, prev.GlobalCoordinates()}] = struct{}{}
	}
	return o
}

func (o *obstacles) isActive(t *Tile) bool {
	_, ok := o.active[objectKey{t.Map.ID, t.ObjectID}]
	return ok
}

// accessible reports whether a walker at fromElevation, moving in dir, may
// step onto t. isDestination relaxes the directional rule for warp tiles the
// walker means to use.
func (o *obstacles) accessible(t *Tile, dir grid.Direction, fromElevation uint8, isDestination bool) bool {
	if !t.AccessibleFrom[dir] && !(isDestination && t.Warp != nil) {
		return false
	}

	// Flag-gated objects stand here while their flag is clear. Once the object
	// is spawned its live position is tracked through blocked instead.
	if t.CollisionFlag != 0 && !o.state.Flag(t.CollisionFlag) {
		if t.ObjectID == 0 || !o.isActive(t) {
			return false
		}
	}

	if !o.elevationAllows(t.Elevation, fromElevation) {
		return false
	}

	// An ungated template whose object is not spawned is a phantom position.
	if t.CollisionFlag == 0 && t.ObjectID != 0 && !o.isActive(t) {
		return false
	}

	if _, ok := o.blocked[levelPoint{t.Map.Level, t.GlobalCoordinates()}]; ok {
		return false
	}
	return true
}

func (o *obstacles) elevationAllows(to, from uint8) bool {
	switch {
	case to == ElevationWater && from == ElevationLand:
		return o.canSurf
	case to == ElevationLand && from == ElevationWater:
		return true
	}
	return to == ElevationGround || to == ElevationAny || from == ElevationGround || to == from
}
