package nav

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

// Atlas is the resolved map graph of one game: every map with its offset on
// a shared coordinate plane and the level (connected cluster) it belongs to.
// It is built once on first use and never invalidated.
type Atlas struct {
	src mapdata.Source

	once   sync.Once
	err    error
	maps   map[mapdata.MapID]*Map
	order  []*Map   // declaration order
	levels [][]*Map // level → maps in declaration order
}

// NewAtlas returns an Atlas that reads src lazily on first use.
func NewAtlas(src mapdata.Source) *Atlas {
	return &Atlas{src: src}
}

// BuildAtlas creates an Atlas and resolves it immediately.
func BuildAtlas(src mapdata.Source) (*Atlas, error) {
	a := NewAtlas(src)
	if err := a.ensure(); err != nil {
		return nil, err
	}
	return a, nil
}

// Source returns the map data the atlas was built from.
func (a *Atlas) Source() mapdata.Source { return a.src }

func (a *Atlas) ensure() error {
	a.once.Do(func() {
		a.err = a.build()
		if a.err != nil {
			a.maps, a.order, a.levels = nil, nil, nil
		}
	})
	return a.err
}

func (a *Atlas) build() error {
	ids := a.src.MapIDs()
	a.maps = make(map[mapdata.MapID]*Map, len(ids))
	a.order = make([]*Map, 0, len(ids))

	for _, id := range ids {
		size, err := a.src.MapSize(id)
		if err != nil {
			return fmt.Errorf("reading size of map %s: %w", id, err)
		}
		conns, err := a.src.MapConnections(id)
		if err != nil {
			return fmt.Errorf("reading connections of map %s: %w", id, err)
		}
		m := &Map{
			ID:          id,
			Name:        mapdata.NameOf(a.src, id),
			Size:        size,
			Level:       -1,
			Connections: conns,
			src:         a.src,
		}
		a.maps[id] = m
		a.order = append(a.order, m)
	}

	incoming := a.incomingEdges()

	// Maps are seeded in reverse declaration order. The order carries no
	// meaning beyond making level numbers reproducible.
	levels := 0
	for i := len(a.order) - 1; i >= 0; i-- {
		root := a.order[i]
		if root.Level >= 0 {
			continue
		}
		a.placeLevel(root, levels, incoming)
		levels++
	}

	a.levels = make([][]*Map, levels)
	for _, m := range a.order {
		a.levels[m.Level] = append(a.levels[m.Level], m)
	}

	slog.Info("map graph built", "maps", len(a.order), "levels", len(a.levels))
	return nil
}

// edge is a connection seen from its target map.
type edge struct {
	from  *Map
	dir   grid.Direction
	shift int
}

// incomingEdges indexes every connection to a known map by its target, in
// declaration order of the source map. Connections to unknown maps are
// reported and dropped here.
func (a *Atlas) incomingEdges() map[mapdata.MapID][]edge {
	incoming := make(map[mapdata.MapID][]edge)
	for _, from := range a.order {
		for _, dir := range grid.Directions {
			conn := from.Connections[dir]
			if conn == nil {
				continue
			}
			if _, ok := a.maps[conn.Map]; !ok {
				slog.Warn("ignoring connection to unknown map",
					"map", from.ID, "direction", dir, "target", conn.Map)
				continue
			}
			incoming[conn.Map] = append(incoming[conn.Map], edge{from: from, dir: dir, shift: conn.Offset})
		}
	}
	return incoming
}

// placeLevel assigns root offset (0,0) and walks breadth-first over the
// connections touching each map, in either direction, positioning every
// newly reached map relative to the one it was reached from. A one-way
// connection therefore joins both maps into one level.
func (a *Atlas) placeLevel(root *Map, level int, incoming map[mapdata.MapID][]edge) {
	root.Offset = grid.Point{}
	root.Level = level

	queue := []*Map{root}
	for len(queue) > 0 {
		from := queue[0]
		queue = queue[1:]

		for _, dir := range grid.Directions {
			conn := from.Connections[dir]
			if conn == nil {
				continue
			}
			to, ok := a.maps[conn.Map]
			if !ok || to.Level >= 0 {
				continue
			}
			to.Offset = from.Offset.Add(connectionDelta(from, to, dir, conn.Offset))
			to.Level = level
			queue = append(queue, to)
		}

		for _, in := range incoming[from.ID] {
			if in.from.Level >= 0 {
				continue
			}
			in.from.Offset = from.Offset.Sub(connectionDelta(in.from, from, in.dir, in.shift))
			in.from.Level = level
			queue = append(queue, in.from)
		}
	}
}

// connectionDelta is the position of to relative to from when from connects
// to to on side dir with the given shift along that edge.
func connectionDelta(from, to *Map, dir grid.Direction, shift int) grid.Point {
	switch dir {
	case grid.North:
		return grid.Point{X: shift, Y: -to.Size.Height}
	case grid.South:
		return grid.Point{X: shift, Y: from.Size.Height}
	case grid.East:
		return grid.Point{X: from.Size.Width, Y: shift}
	default:
		return grid.Point{X: -to.Size.Width, Y: shift}
	}
}

// Map returns the resolved record for id.
func (a *Atlas) Map(id mapdata.MapID) (*Map, error) {
	if err := a.ensure(); err != nil {
		return nil, err
	}
	m, ok := a.maps[id]
	if !ok {
		return nil, fmt.Errorf("map %s: %w", id, mapdata.ErrUnknownMap)
	}
	return m, nil
}

// Maps returns every map in declaration order.
func (a *Atlas) Maps() ([]*Map, error) {
	if err := a.ensure(); err != nil {
		return nil, err
	}
	return a.order, nil
}

// LevelCount returns the number of connected clusters.
func (a *Atlas) LevelCount() (int, error) {
	if err := a.ensure(); err != nil {
		return 0, err
	}
	return len(a.levels), nil
}

// Warm builds the tiles of every map up front, so the first searches do not
// pay for it and broken tile data is reported before any request arrives.
func (a *Atlas) Warm(ctx context.Context) error {
	maps, err := a.Maps()
	if err != nil {
		return err
	}
	tiles := 0
	for _, m := range maps {
		if err := ctx.Err(); err != nil {
			return err
		}
		built, err := m.Tiles()
		if err != nil {
			return fmt.Errorf("building tiles of map %s: %w", m.ID, err)
		}
		tiles += len(built)
	}
	slog.Info("tiles built", "maps", len(maps), "tiles", tiles)
	return nil
}

// Tile resolves a map-local location.
func (a *Atlas) Tile(loc Location) (*Tile, error) {
	m, err := a.Map(loc.Map)
	if err != nil {
		return nil, err
	}
	return m.Tile(loc.Local)
}

// globalTile finds the tile at global coordinates within a level. Where maps
// of one level overlap, the first declared map wins. It returns nil without
// error when no map of the level covers the point.
func (a *Atlas) globalTile(global grid.Point, level int) (*Tile, error) {
	if level < 0 || level >= len(a.levels) {
		return nil, nil
	}
	for _, m := range a.levels[level] {
		if m.ContainsGlobal(global) {
			return m.GlobalTile(global)
		}
	}
	return nil, nil
}

// AtlasCache owns one Atlas per game key (a game name or map-data fingerprint).
type AtlasCache struct {
	mu      sync.Mutex
	atlases map[string]*Atlas
}

func NewAtlasCache() *AtlasCache {
	return &AtlasCache{atlases: make(map[string]*Atlas)}
}

// Get returns the atlas cached under key, creating it from src on first request.
// Later calls with the same key ignore src.
func (c *AtlasCache) Get(key string, src mapdata.Source) *Atlas {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.atlases[key]; ok {
		return a
	}
	a := NewAtlas(src)
	c.atlases[key] = a
	return a
}
