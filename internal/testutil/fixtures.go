package testutil

import (
	"testing"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

// Sample map ids used by SamplePack.
var (
	SampleTown  = mapdata.MapID{Group: 0, Number: 9}
	SampleRoute = mapdata.MapID{Group: 0, Number: 16}
	SampleHouse = mapdata.MapID{Group: 1, Number: 0}
)

// SamplePackDocument is a town with a house, joined to a route to the north.
// The route has a strip of grass across its middle, a trainer and a coord
// trigger; the house exit is an arrow warp.
func SamplePackDocument() mapdata.PackDocument {
	legend := map[string]mapdata.TileLegend{
		".": {Behavior: "Normal", Elevation: 3},
		"#": {Behavior: "Normal", Collision: true, Elevation: 3},
		"G": {Behavior: "Tall Grass", Elevation: 3, Encounters: true},
		"D": {Behavior: "Door", Elevation: 3},
		"m": {Behavior: "South Arrow Warp", Elevation: 3},
	}
	return mapdata.PackDocument{
		Game: "sample",
		Maps: []mapdata.MapDocument{
			{
				Group: SampleTown.Group, Number: SampleTown.Number, Name: "SAMPLE_TOWN",
				Width: 6, Height: 5,
				Connections: []mapdata.ConnectionDocument{
					{Direction: grid.North, Group: SampleRoute.Group, Number: SampleRoute.Number},
				},
				Legend: legend,
				Rows: []string{
					"......",
					"......",
					".##...",
					".#D...",
					"......",
				},
				Warps: []mapdata.WarpDocument{
					{X: 2, Y: 3, DestGroup: SampleHouse.Group, DestNumber: SampleHouse.Number, DestX: 1, DestY: 2},
				},
			},
			{
				Group: SampleRoute.Group, Number: SampleRoute.Number, Name: "SAMPLE_ROUTE",
				Width: 6, Height: 4,
				Connections: []mapdata.ConnectionDocument{
					{Direction: grid.South, Group: SampleTown.Group, Number: SampleTown.Number},
				},
				Legend: legend,
				Rows: []string{
					"......",
					"GGGGG.",
					"......",
					"......",
				},
				CoordEvents: []mapdata.CoordEventDocument{
					{X: 0, Y: 3, Var: 0x4050, Value: 0},
					{X: 3, Y: 3, Weather: true},
				},
				Objects: []mapdata.ObjectDocument{
					{LocalID: 1, X: 4, Y: 0},
					{LocalID: 2, X: 5, Y: 2, Flag: 0x2A0},
				},
			},
			{
				Group: SampleHouse.Group, Number: SampleHouse.Number, Name: "SAMPLE_HOUSE",
				Width: 3, Height: 3,
				Legend: legend,
				Rows: []string{
					"...",
					"...",
					".m.",
				},
				Warps: []mapdata.WarpDocument{
					{X: 1, Y: 2, DestGroup: SampleTown.Group, DestNumber: SampleTown.Number, DestX: 2, DestY: 3},
				},
			},
		},
	}
}

// SamplePack builds SamplePackDocument, failing the test on error.
func SamplePack(tb testing.TB) *mapdata.Pack {
	tb.Helper()
	p, err := mapdata.NewPack(SamplePackDocument())
	if err != nil {
		tb.Fatalf("building sample pack: %v", err)
	}
	return p
}
