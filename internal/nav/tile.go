package nav

import (
	"strings"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

// TileKind is the movement class derived from a tile's behavior.
type TileKind uint8

const (
	KindNormal     TileKind = iota // enterable from every direction
	KindWall                       // collision, not enterable
	KindOneWay                     // ledges, conveyors: enterable only moving in the named directions
	KindImpassable                 // blocked on the named sides
)

func (k TileKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindWall:
		return "wall"
	case KindOneWay:
		return "one-way"
	case KindImpassable:
		return "impassable"
	default:
		return "unknown"
	}
}

// Location names a tile by map and local coordinates.
type Location struct {
	Map   mapdata.MapID `json:"map"`
	Local grid.Point    `json:"local"`
}

// WarpTarget is where a warp tile leads. Arrow warps additionally require
// a step in Forced direction to trigger.
type WarpTarget struct {
	Map       mapdata.MapID
	Local     grid.Point
	Forced    grid.Direction
	HasForced bool
}

// Tile is one cell of a Map with everything the search needs to know about it.
type Tile struct {
	Map       *Map
	Local     grid.Point
	Behavior  string
	Kind      TileKind
	Elevation uint8
	// HasEncounters marks tall grass, water and similar cells.
	HasEncounters bool
	// AccessibleFrom is indexed by the direction the walker is moving when entering.
	AccessibleFrom [4]bool
	// CollisionFlag gates the tile on an event flag; 0 means none.
	CollisionFlag uint16
	// ObjectID is the local id of the object template standing here; 0 means none.
	ObjectID uint8
	// OnEnterTriggers maps event variable → value that fires a coordinate script.
	OnEnterTriggers map[uint16]uint16
	Warp            *WarpTarget
}

// GlobalCoordinates returns Local shifted by the owning map's offset.
func (t *Tile) GlobalCoordinates() grid.Point {
	return t.Local.Add(t.Map.Offset)
}

// Location returns the tile's map-local address.
func (t *Tile) Location() Location {
	return Location{Map: t.Map.ID, Local: t.Local}
}

type behaviorClass struct {
	kind       TileKind
	accessible [4]bool
}

var allOpen = [4]bool{true, true, true, true}

// classifyBehavior turns a behavior string into a movement class. Runs once per
// tile when a map's tiles are first built.
func classifyBehavior(info mapdata.TileInfo) behaviorClass {
	b := info.Behavior

	for _, prefix := range []string{"Jump ", "Walk ", "Slide "} {
		if rest, ok := strings.CutPrefix(b, prefix); ok {
			dirs, ok := parseDirectionList(rest)
			if !ok {
				break
			}
			var acc [4]bool
			for _, d := range dirs {
				acc[d] = true
			}
			return behaviorClass{kind: KindOneWay, accessible: acc}
		}
	}

	if info.Collision {
		return behaviorClass{kind: KindWall}
	}

	if rest, ok := strings.CutPrefix(b, "Impassable "); ok {
		if dirs, ok := parseDirectionList(rest); ok {
			acc := allOpen
			for _, d := range dirs {
				acc[d.Opposite()] = false
			}
			return behaviorClass{kind: KindImpassable, accessible: acc}
		}
	}

	return behaviorClass{kind: KindNormal, accessible: allOpen}
}

// parseDirectionList parses "South", "East and West", "North/East" and
// diagonal names such as "Southwest".
func parseDirectionList(s string) ([]grid.Direction, bool) {
	s = strings.ReplaceAll(s, " and ", "/")
	var out []grid.Direction
	for _, part := range strings.Split(s, "/") {
		part = strings.TrimSpace(part)
		if d, err := grid.ParseDirection(part); err == nil {
			out = append(out, d)
			continue
		}
		lower := strings.ToLower(part)
		var vertical string
		switch {
		case strings.HasPrefix(lower, "north"):
			vertical = "north"
		case strings.HasPrefix(lower, "south"):
			vertical = "south"
		default:
			return nil, false
		}
		horizontal, err := grid.ParseDirection(lower[len(vertical):])
		if err != nil || (horizontal != grid.East && horizontal != grid.West) {
			return nil, false
		}
		v, _ := grid.ParseDirection(vertical)
		out = append(out, v, horizontal)
	}
	return out, len(out) > 0
}

// arrowDirection decodes "<Dir> Arrow Warp" behaviors.
func arrowDirection(behavior string) (grid.Direction, bool) {
	switch behavior {
	case "North Arrow Warp":
		return grid.North, true
	case "South Arrow Warp", "Water South Arrow Warp":
		return grid.South, true
	case "East Arrow Warp":
		return grid.East, true
	case "West Arrow Warp":
		return grid.West, true
	default:
		return 0, false
	}
}
