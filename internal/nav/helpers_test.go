package nav

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
	"github.com/udisondev/pokenav/internal/worldstate"
)

// testLegend is shared by all fixture maps.
//
//	.  normal ground, elevation 3
//	#  wall
//	G  tall grass
//	v  ledge, jump south only
//	>  impassable east
//	5  normal ground, elevation 5
//	0  ground-level wildcard
//	*  elevation-15 wildcard
//	D  door (pair with a warp)
//	m  south arrow warp (pair with a warp)
//	~  surfable water, elevation 1, no encounters
func testLegend() map[string]mapdata.TileLegend {
	return map[string]mapdata.TileLegend{
		".": {Behavior: "Normal", Elevation: 3},
		"#": {Behavior: "Normal", Collision: true, Elevation: 3},
		"G": {Behavior: "Tall Grass", Elevation: 3, Encounters: true},
		"v": {Behavior: "Jump South", Collision: true, Elevation: 3},
		">": {Behavior: "Impassable East", Elevation: 3},
		"5": {Behavior: "Normal", Elevation: 5},
		"0": {Behavior: "Normal", Elevation: 0},
		"*": {Behavior: "Normal", Elevation: 15},
		"D": {Behavior: "Door", Elevation: 3},
		"m": {Behavior: "South Arrow Warp", Elevation: 3},
		"~": {Behavior: "Pond Water", Elevation: 1},
	}
}

func id(group, number uint8) mapdata.MapID {
	return mapdata.MapID{Group: group, Number: number}
}

func at(m mapdata.MapID, x, y int) Location {
	return Location{Map: m, Local: grid.Point{X: x, Y: y}}
}

func testMap(mid mapdata.MapID, name string, rows ...string) mapdata.MapDocument {
	return mapdata.MapDocument{
		Group:  mid.Group,
		Number: mid.Number,
		Name:   name,
		Width:  len(rows[0]),
		Height: len(rows),
		Legend: testLegend(),
		Rows:   rows,
	}
}

func connect(m *mapdata.MapDocument, dir grid.Direction, to mapdata.MapID, offset int) {
	m.Connections = append(m.Connections, mapdata.ConnectionDocument{
		Direction: dir, Group: to.Group, Number: to.Number, Offset: offset,
	})
}

func addWarp(m *mapdata.MapDocument, x, y int, to mapdata.MapID, dx, dy int) {
	m.Warps = append(m.Warps, mapdata.WarpDocument{
		X: x, Y: y, DestGroup: to.Group, DestNumber: to.Number, DestX: dx, DestY: dy,
	})
}

func newPack(t *testing.T, maps ...mapdata.MapDocument) *mapdata.Pack {
	t.Helper()
	p, err := mapdata.NewPack(mapdata.PackDocument{Game: "test", Maps: maps})
	require.NoError(t, err)
	return p
}

func newTestEngine(t *testing.T, maps ...mapdata.MapDocument) *Engine {
	t.Helper()
	atlas, err := BuildAtlas(newPack(t, maps...))
	require.NoError(t, err)
	return NewEngine(atlas, DefaultCosts())
}

func emptyState() worldstate.State {
	return worldstate.NewSnapshot(nil, nil, nil)
}

// visits reports whether any waypoint targets p on map m.
func visits(path []Waypoint, m mapdata.MapID, p grid.Point) bool {
	for _, w := range path {
		if w.Map == m && w.Coordinates == p {
			return true
		}
	}
	return false
}

// countingSource counts map enumerations to detect graph rebuilds and
// tile reads to detect tile builds.
type countingSource struct {
	mapdata.Source
	enumerations int
	tileReads    int
}

func (c *countingSource) Tile(id mapdata.MapID, local grid.Point) (mapdata.TileInfo, error) {
	c.tileReads++
	return c.Source.Tile(id, local)
}

func (c *countingSource) MapIDs() []mapdata.MapID {
	c.enumerations++
	return c.Source.MapIDs()
}
