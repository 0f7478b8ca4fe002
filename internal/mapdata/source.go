// Package mapdata describes the static map data the navigator reads: map
// enumeration, sizes, connections, tile attributes, warps, coordinate
// triggers and object templates. In a running bot these come from ROM
// memory; Pack serves them from a YAML document instead.
package mapdata

import (
	"errors"
	"fmt"

	"github.com/udisondev/pokenav/internal/grid"
)

var (
	ErrUnknownMap  = errors.New("unknown map")
	ErrOutOfBounds = errors.New("coordinates out of bounds")
)

// MapID identifies a map by its (group, number) pair.
type MapID struct {
	Group  uint8 `json:"group" yaml:"group"`
	Number uint8 `json:"number" yaml:"number"`
}

func (id MapID) String() string {
	return fmt.Sprintf("%d.%d", id.Group, id.Number)
}

// Connection links a map edge to an adjacent map. Offset is measured in
// tiles along the shared edge.
type Connection struct {
	Map    MapID
	Offset int
}

// TileInfo is the decoded metatile data for one cell.
type TileInfo struct {
	Behavior   string // e.g. "Normal", "Jump South", "Impassable East and West", "North Arrow Warp"
	Collision  bool
	Elevation  uint8 // 0-15
	Encounters bool
}

// CoordEvent is a script that runs when the player steps onto Local while
// variable Var equals Value.
type CoordEvent struct {
	Local   grid.Point
	Var     uint16
	Value   uint16
	Weather bool
}

// Warp teleports a walker standing on Local to DestLocal on Dest.
type Warp struct {
	Local     grid.Point
	Dest      MapID
	DestLocal grid.Point
}

// ObjectTemplate is an NPC/gate placement from map data. Flag 0 means the
// object is always present; otherwise it is hidden while the flag is set.
type ObjectTemplate struct {
	LocalID uint8
	Local   grid.Point
	Flag    uint16
}

// Source answers the read-only map queries the navigator needs.
type Source interface {
	// MapIDs returns every map in declaration order.
	MapIDs() []MapID
	MapSize(id MapID) (grid.Size, error)
	// MapConnections returns one optional connection per direction, indexed by grid.Direction.
	MapConnections(id MapID) ([4]*Connection, error)
	Tile(id MapID, local grid.Point) (TileInfo, error)
	CoordEvents(id MapID) ([]CoordEvent, error)
	Warps(id MapID) ([]Warp, error)
	Objects(id MapID) ([]ObjectTemplate, error)
}

// Namer is implemented by sources that know human-readable map names.
type Namer interface {
	MapName(id MapID) string
}

// NameOf returns the map's name if src knows it, or its numeric id otherwise.
func NameOf(src Source, id MapID) string {
	if n, ok := src.(Namer); ok {
		if name := n.MapName(id); name != "" {
			return name
		}
	}
	return id.String()
}
