package nav

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

// Map is one game map placed on its level's shared coordinate plane.
// Everything except the lazily built tiles is fixed once the Atlas is built.
type Map struct {
	ID          mapdata.MapID
	Name        string
	Size        grid.Size
	Offset      grid.Point
	Level       int
	Connections [4]*mapdata.Connection

	src    mapdata.Source

	tilesOnce sync.Once
	tiles     []Tile
	tilesErr  error
}

// Tiles returns the map's tiles in row-major order, building them on first use.
func (m *Map) Tiles() ([]Tile, error) {
	m.tilesOnce.Do(func() {
		m.tiles, m.tilesErr = m.buildTiles()
	})
	return m.tiles, m.tilesErr
}

// Tile returns the tile at local coordinates.
func (m *Map) Tile(local grid.Point) (*Tile, error) {
	if !m.Size.Contains(local) {
		return nil, fmt.Errorf("map %s tile %s: %w", m.ID, local, mapdata.ErrOutOfBounds)
	}
	tiles, err := m.Tiles()
	if err != nil {
		return nil, err
	}
	return &tiles[m.Size.Index(local)], nil
}

// ContainsGlobal reports whether a global coordinate falls inside this map.
func (m *Map) ContainsGlobal(global grid.Point) bool {
	return m.Size.Contains(global.Sub(m.Offset))
}

// GlobalTile returns the tile at global coordinates.
func (m *Map) GlobalTile(global grid.Point) (*Tile, error) {
	return m.Tile(global.Sub(m.Offset))
}

func (m *Map) buildTiles() ([]Tile, error) {
	events, err := m.src.CoordEvents(m.ID)
	if err != nil {
		return nil, fmt.Errorf("loading coord events for map %s: %w", m.ID, err)
	}
	warps, err := m.src.Warps(m.ID)
	if err != nil {
		return nil, fmt.Errorf("loading warps for map %s: %w", m.ID, err)
	}
	objects, err := m.src.Objects(m.ID)
	if err != nil {
		return nil, fmt.Errorf("loading objects for map %s: %w", m.ID, err)
	}

	tiles := make([]Tile, m.Size.Area())
	for y := range m.Size.Height {
		for x := range m.Size.Width {
			local := grid.Point{X: x, Y: y}
			info, err := m.src.Tile(m.ID, local)
			if err != nil {
				return nil, fmt.Errorf("loading tile %s of map %s: %w", local, m.ID, err)
			}
			class := classifyBehavior(info)
			tiles[m.Size.Index(local)] = Tile{
				Map:            m,
				Local:          local,
				Behavior:       info.Behavior,
				Kind:           class.kind,
				Elevation:      info.Elevation,
				HasEncounters:  info.Encounters,
				AccessibleFrom: class.accessible,
			}
		}
	}

	for _, ev := range events {
		if ev.Weather || !m.Size.Contains(ev.Local) {
			continue
		}
		t := &tiles[m.Size.Index(ev.Local)]
		if t.OnEnterTriggers == nil {
			t.OnEnterTriggers = make(map[uint16]uint16, 1)
		}
		t.OnEnterTriggers[ev.Var] = ev.Value
	}

	for _, w := range warps {
		if !m.Size.Contains(w.Local) {
			continue
		}
		t := &tiles[m.Size.Index(w.Local)]
		target := &WarpTarget{Map: w.Dest, Local: w.DestLocal}
		if d, ok := arrowDirection(t.Behavior); ok {
			target.Forced = d
			target.HasForced = true
		}
		t.Warp = target
	}

	for _, obj := range objects {
		// Object data read mid-update can point outside the map; such
		// templates are treated as not loaded.
		if !m.Size.Contains(obj.Local) {
			slog.Debug("skip object template out of bounds",
				"map", m.ID, "local_id", obj.LocalID, "at", obj.Local)
			continue
		}
		t := &tiles[m.Size.Index(obj.Local)]
		if obj.Flag != 0 {
			t.CollisionFlag = obj.Flag
		}
		t.ObjectID = obj.LocalID
	}

	return tiles, nil
}
