package mapdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/pokenav/internal/grid"
)

var (
	littleroot = MapID{Group: 0, Number: 9}
	route101   = MapID{Group: 0, Number: 16}
	house1F    = MapID{Group: 1, Number: 0}
)

func loadFixture(t *testing.T) *Pack {
	t.Helper()
	p, err := LoadPack(filepath.Join("testdata", "route101.yaml"))
	require.NoError(t, err)
	return p
}

func TestLoadPack(t *testing.T) {
	p := loadFixture(t)

	assert.Equal(t, "emerald", p.Game())
	assert.Equal(t, []MapID{littleroot, route101, house1F}, p.MapIDs())
	assert.Equal(t, "ROUTE101", p.MapName(route101))
	assert.Equal(t, "ROUTE101", NameOf(p, route101))
	assert.Equal(t, "7.7", NameOf(p, MapID{Group: 7, Number: 7}))

	size, err := p.MapSize(littleroot)
	require.NoError(t, err)
	assert.Equal(t, grid.Size{Width: 6, Height: 4}, size)

	conns, err := p.MapConnections(littleroot)
	require.NoError(t, err)
	require.NotNil(t, conns[grid.North])
	assert.Equal(t, Connection{Map: route101, Offset: 1}, *conns[grid.North])
	assert.Nil(t, conns[grid.East])
	assert.Nil(t, conns[grid.South])
	assert.Nil(t, conns[grid.West])
}

func TestPackTile(t *testing.T) {
	p := loadFixture(t)

	tile, err := p.Tile(littleroot, grid.Point{X: 1, Y: 1})
	require.NoError(t, err)
	assert.True(t, tile.Collision)

	tile, err = p.Tile(route101, grid.Point{X: 0, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, TileInfo{Behavior: "Tall Grass", Elevation: 3, Encounters: true}, tile)

	tile, err = p.Tile(route101, grid.Point{X: 1, Y: 1})
	require.NoError(t, err)
	assert.Equal(t, "Jump South", tile.Behavior)

	_, err = p.Tile(route101, grid.Point{X: 4, Y: 0})
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = p.Tile(MapID{Group: 9, Number: 9}, grid.Point{})
	assert.ErrorIs(t, err, ErrUnknownMap)
}

func TestPackEventsWarpsObjects(t *testing.T) {
	p := loadFixture(t)

	warps, err := p.Warps(littleroot)
	require.NoError(t, err)
	require.Len(t, warps, 1)
	assert.Equal(t, Warp{Local: grid.Point{X: 2, Y: 2}, Dest: house1F, DestLocal: grid.Point{X: 1, Y: 3}}, warps[0])

	events, err := p.CoordEvents(route101)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint16(16400), events[0].Var)
	assert.True(t, events[1].Weather)

	objects, err := p.Objects(littleroot)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, uint16(0), objects[0].Flag)
	assert.Equal(t, uint16(800), objects[1].Flag)
}

func TestPackFingerprint(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "route101.yaml"))
	require.NoError(t, err)

	a, err := ParsePack(data)
	require.NoError(t, err)
	b, err := ParsePack(data)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Key(), b.Key())

	fresh, err := ParsePack(data)
	require.NoError(t, err)
	doc := fresh.Document()
	doc.Maps[0].Rows[0] = "#....."
	c, err := NewPack(doc)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestPackIsolatedFromDocument(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "route101.yaml"))
	require.NoError(t, err)
	var doc PackDocument
	require.NoError(t, yaml.Unmarshal(data, &doc))

	p, err := NewPack(doc)
	require.NoError(t, err)
	want := p.Fingerprint()
	before, err := p.Tile(littleroot, grid.Point{})
	require.NoError(t, err)

	for sym, l := range doc.Maps[0].Legend {
		l.Collision = !l.Collision
		l.Elevation = 9
		doc.Maps[0].Legend[sym] = l
	}
	doc.Maps[0].Rows[0] = doc.Maps[0].Rows[1]
	doc.Maps[0].Name = "CHANGED"

	after, err := p.Tile(littleroot, grid.Point{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, want, p.Fingerprint())
	assert.NotEqual(t, "CHANGED", p.MapName(littleroot))

	// Documents handed out are copies too.
	out := p.Document()
	out.Maps[0].Rows[0] = "######"
	assert.NotEqual(t, "######", p.Document().Maps[0].Rows[0])
}

func TestPackValidation(t *testing.T) {
	base := func() MapDocument {
		return MapDocument{
			Group: 0, Number: 1, Name: "TEST",
			Width: 2, Height: 2,
			Legend: map[string]TileLegend{".": {Behavior: "Normal"}},
			Rows:   []string{"..", ".."},
		}
	}

	tests := []struct {
		name   string
		mutate func(*PackDocument)
	}{
		{"row count", func(d *PackDocument) { d.Maps[0].Rows = []string{".."} }},
		{"row width", func(d *PackDocument) { d.Maps[0].Rows[1] = "..." }},
		{"unknown symbol", func(d *PackDocument) { d.Maps[0].Rows[1] = ".x" }},
		{"bad size", func(d *PackDocument) { d.Maps[0].Width = 0 }},
		{"elevation", func(d *PackDocument) { d.Maps[0].Legend["."] = TileLegend{Elevation: 16} }},
		{"duplicate id", func(d *PackDocument) { d.Maps = append(d.Maps, base()) }},
		{"dangling connection", func(d *PackDocument) {
			d.Maps[0].Connections = []ConnectionDocument{{Direction: grid.East, Group: 5, Number: 5}}
		}},
		{"double connection", func(d *PackDocument) {
			d.Maps[0].Connections = []ConnectionDocument{
				{Direction: grid.East, Group: 0, Number: 1},
				{Direction: grid.East, Group: 0, Number: 1},
			}
		}},
		{"dangling warp", func(d *PackDocument) {
			d.Maps[0].Warps = []WarpDocument{{X: 0, Y: 0, DestGroup: 3, DestNumber: 3}}
		}},
		{"warp out of bounds", func(d *PackDocument) {
			d.Maps[0].Warps = []WarpDocument{{X: 5, Y: 0, DestGroup: 0, DestNumber: 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := PackDocument{Game: "test", Maps: []MapDocument{base()}}
			tt.mutate(&doc)
			_, err := NewPack(doc)
			assert.Error(t, err)
		})
	}

	_, err := NewPack(PackDocument{Game: "test", Maps: []MapDocument{base()}})
	assert.NoError(t, err)
}

func TestParsePackRejectsGarbage(t *testing.T) {
	_, err := ParsePack([]byte("maps: [this is: not valid"))
	assert.Error(t, err)

	_, err = LoadPack(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}
