package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

func TestAtlasEastConnection(t *testing.T) {
	a, b := id(0, 1), id(0, 2)
	mapA := testMap(a, "A", ".....", ".....", ".....", ".....", ".....")
	mapB := testMap(b, "B", ".....", ".....", ".....", ".....", ".....")
	connect(&mapA, grid.East, b, 0)
	connect(&mapB, grid.West, a, 0)

	// B is declared first, so A seeds the level.
	atlas, err := BuildAtlas(newPack(t, mapB, mapA))
	require.NoError(t, err)

	ma, err := atlas.Map(a)
	require.NoError(t, err)
	mb, err := atlas.Map(b)
	require.NoError(t, err)

	assert.Equal(t, grid.Point{}, ma.Offset)
	assert.Equal(t, 0, ma.Level)
	assert.Equal(t, grid.Point{X: ma.Offset.X + ma.Size.Width, Y: ma.Offset.Y}, mb.Offset)
	assert.Equal(t, ma.Level, mb.Level)
	assert.Equal(t, "A", ma.Name)
}

func TestAtlasOffsetsAllDirections(t *testing.T) {
	c, n, s, e, w, iso := id(0, 1), id(0, 2), id(0, 3), id(0, 4), id(0, 5), id(0, 6)

	center := testMap(c, "CENTER", "....", "....", "....", "....")
	north := testMap(n, "NORTH", "...", "...")
	south := testMap(s, "SOUTH", "..", "..", "..")
	east := testMap(e, "EAST", "...", "...", "...", "...", "...")
	west := testMap(w, "WEST", "..", "..")
	isolated := testMap(iso, "ISOLATED", "..")

	connect(&center, grid.North, n, 1)
	connect(&center, grid.South, s, 2)
	connect(&center, grid.East, e, -1)
	connect(&center, grid.West, w, 0)
	connect(&north, grid.South, c, -1)
	connect(&south, grid.North, c, -2)
	connect(&east, grid.West, c, 1)
	connect(&west, grid.East, c, 0)

	atlas, err := BuildAtlas(newPack(t, isolated, north, south, east, west, center))
	require.NoError(t, err)

	offsets := map[mapdata.MapID]grid.Point{
		c: {X: 0, Y: 0},
		n: {X: 1, Y: -2},
		s: {X: 2, Y: 4},
		e: {X: 4, Y: -1},
		w: {X: -2, Y: 0},
	}
	for mid, want := range offsets {
		m, err := atlas.Map(mid)
		require.NoError(t, err)
		assert.Equal(t, want, m.Offset, "offset of %s", m.Name)
		assert.Equal(t, 0, m.Level, "level of %s", m.Name)
	}

	mi, err := atlas.Map(iso)
	require.NoError(t, err)
	assert.Equal(t, 1, mi.Level)
	assert.Equal(t, grid.Point{}, mi.Offset)

	levels, err := atlas.LevelCount()
	require.NoError(t, err)
	assert.Equal(t, 2, levels)
}

func TestAtlasUnconnectedMapsGetOwnLevels(t *testing.T) {
	maps := []mapdata.MapDocument{
		testMap(id(1, 0), "ONE", ".."),
		testMap(id(1, 1), "TWO", ".."),
		testMap(id(1, 2), "THREE", ".."),
	}
	atlas, err := BuildAtlas(newPack(t, maps...))
	require.NoError(t, err)

	all, err := atlas.Maps()
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Seeded in reverse declaration order.
	assert.Equal(t, 2, all[0].Level)
	assert.Equal(t, 1, all[1].Level)
	assert.Equal(t, 0, all[2].Level)
}

func TestAtlasOneWayConnectionJoinsLevel(t *testing.T) {
	a, b := id(0, 1), id(0, 2)
	mapA := testMap(a, "A", "...", "...")
	mapB := testMap(b, "B", "...", "...")
	connect(&mapA, grid.East, b, 1)

	// B seeds the level and only learns about A through A's connection.
	atlas, err := BuildAtlas(newPack(t, mapA, mapB))
	require.NoError(t, err)

	ma, _ := atlas.Map(a)
	mb, _ := atlas.Map(b)
	assert.Equal(t, ma.Level, mb.Level)
	assert.Equal(t, grid.Point{}, mb.Offset)
	assert.Equal(t, grid.Point{X: -3, Y: -1}, ma.Offset)

	levels, err := atlas.LevelCount()
	require.NoError(t, err)
	assert.Equal(t, 1, levels)

	tile, err := atlas.globalTile(grid.Point{X: -1, Y: -1}, ma.Level)
	require.NoError(t, err)
	require.NotNil(t, tile)
	assert.Equal(t, a, tile.Map.ID)
	assert.Equal(t, grid.Point{X: 2, Y: 0}, tile.Local)
}

func TestAtlasOneWayConnectionsIntoSharedMap(t *testing.T) {
	x, y, z := id(3, 1), id(3, 2), id(3, 3)
	mapX := testMap(x, "X", "...")
	mapY := testMap(y, "Y", "...")
	mapZ := testMap(z, "Z", "...")
	connect(&mapZ, grid.East, y, 0)
	connect(&mapX, grid.West, y, 0)

	engine := newTestEngine(t, mapX, mapY, mapZ)

	mx, err := engine.Atlas().Map(x)
	require.NoError(t, err)
	my, err := engine.Atlas().Map(y)
	require.NoError(t, err)
	mz, err := engine.Atlas().Map(z)
	require.NoError(t, err)

	assert.Equal(t, 0, mz.Level)
	assert.Equal(t, mz.Level, my.Level)
	assert.Equal(t, mz.Level, mx.Level)
	assert.Equal(t, grid.Point{}, mz.Offset)
	assert.Equal(t, grid.Point{X: 3}, my.Offset)
	assert.Equal(t, grid.Point{X: 6}, mx.Offset)

	levels, err := engine.Atlas().LevelCount()
	require.NoError(t, err)
	assert.Equal(t, 1, levels)

	path, err := engine.CalculatePath(emptyState(), at(z, 2, 0), at(y, 0, 0), DefaultPathOptions())
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, grid.East, path[0].Direction)
	assert.Equal(t, y, path[0].Map)

	path, err = engine.CalculatePath(emptyState(), at(z, 0, 0), at(x, 2, 0), DefaultPathOptions())
	require.NoError(t, err)
	assert.Len(t, path, 8)
}

func TestAtlasOverlapPrefersFirstDeclaredMap(t *testing.T) {
	p, q, r := id(4, 1), id(4, 2), id(4, 3)
	mapP := testMap(p, "P", "..", "..")
	mapQ := testMap(q, "Q", "....")
	mapR := testMap(r, "R", "..", "..")
	// From R, Q is reached first (North) and P second (East); both cover
	// global (2,-1) and (3,-1).
	connect(&mapR, grid.North, q, 0)
	connect(&mapR, grid.East, p, -1)

	atlas, err := BuildAtlas(newPack(t, mapP, mapQ, mapR))
	require.NoError(t, err)

	mp, _ := atlas.Map(p)
	mq, _ := atlas.Map(q)
	require.Equal(t, mp.Level, mq.Level)
	require.True(t, mq.ContainsGlobal(grid.Point{X: 2, Y: -1}))

	tile, err := atlas.globalTile(grid.Point{X: 2, Y: -1}, mp.Level)
	require.NoError(t, err)
	require.NotNil(t, tile)
	assert.Equal(t, p, tile.Map.ID)
	assert.Equal(t, grid.Point{}, tile.Local)

	tile, err = atlas.globalTile(grid.Point{X: 0, Y: -1}, mp.Level)
	require.NoError(t, err)
	require.NotNil(t, tile)
	assert.Equal(t, q, tile.Map.ID)
}

func TestAtlasBuiltOnce(t *testing.T) {
	src := &countingSource{Source: newPack(t, testMap(id(0, 1), "ONLY", "..."))}
	atlas := NewAtlas(src)
	assert.Equal(t, 0, src.enumerations)

	first, err := atlas.Maps()
	require.NoError(t, err)
	second, err := atlas.Maps()
	require.NoError(t, err)

	assert.Equal(t, 1, src.enumerations)
	require.Len(t, second, 1)
	assert.Same(t, first[0], second[0])

	m, err := atlas.Map(id(0, 1))
	require.NoError(t, err)
	assert.Same(t, first[0], m)
}

func TestAtlasCache(t *testing.T) {
	pack := newPack(t, testMap(id(0, 1), "ONLY", "..."))
	cache := NewAtlasCache()

	a := cache.Get("emerald", pack)
	b := cache.Get("emerald", nil)
	c := cache.Get("firered", pack)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestAtlasUnknownMap(t *testing.T) {
	atlas, err := BuildAtlas(newPack(t, testMap(id(0, 1), "ONLY", "...")))
	require.NoError(t, err)

	_, err = atlas.Map(id(9, 9))
	assert.ErrorIs(t, err, mapdata.ErrUnknownMap)

	_, err = atlas.Tile(at(id(0, 1), 5, 0))
	assert.ErrorIs(t, err, mapdata.ErrOutOfBounds)
}

func TestAtlasWarm(t *testing.T) {
	src := &countingSource{Source: newPack(t,
		testMap(id(0, 1), "ONE", "...", "..."),
		testMap(id(0, 2), "TWO", "...."),
	)}
	atlas := NewAtlas(src)

	require.NoError(t, atlas.Warm(context.Background()))
	assert.Equal(t, 10, src.tileReads)

	// Tiles are built once; lookups after warming read nothing.
	_, err := atlas.Tile(at(id(0, 2), 3, 0))
	require.NoError(t, err)
	assert.Equal(t, 10, src.tileReads)
}

func TestAtlasWarmCanceled(t *testing.T) {
	src := &countingSource{Source: newPack(t, testMap(id(0, 1), "ONE", "..."))}
	atlas := NewAtlas(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, atlas.Warm(ctx), context.Canceled)
	assert.Zero(t, src.tileReads)
}
