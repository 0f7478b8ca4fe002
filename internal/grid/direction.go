package grid

import (
	"fmt"
	"strings"
)

// Direction is one of the four cardinal movement directions.
// Values double as indexes into per-direction arrays.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists all directions in index order.
var Directions = [4]Direction{North, East, South, West}

// Opposite returns the direction pointing the other way (North↔South, East↔West).
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// ButtonName returns the D-pad button that walks in this direction.
func (d Direction) ButtonName() string {
	switch d {
	case North:
		return "Up"
	case East:
		return "Right"
	case South:
		return "Down"
	default:
		return "Left"
	}
}

// Delta returns the unit step for this direction. Y grows southwards.
func (d Direction) Delta() Point {
	switch d {
	case North:
		return Point{0, -1}
	case East:
		return Point{1, 0}
	case South:
		return Point{0, 1}
	default:
		return Point{-1, 0}
	}
}

func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ParseDirection accepts compass names and button names, case-insensitive.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "up":
		return North, nil
	case "east", "right":
		return East, nil
	case "south", "down":
		return South, nil
	case "west", "left":
		return West, nil
	default:
		return 0, fmt.Errorf("parsing direction %q: unknown value", s)
	}
}

// DirectionBetween infers the direction of a single step from a to b.
// Horizontal movement wins when both axes differ.
func DirectionBetween(a, b Point) (Direction, bool) {
	switch {
	case b.X > a.X:
		return East, true
	case b.X < a.X:
		return West, true
	case b.Y > a.Y:
		return South, true
	case b.Y < a.Y:
		return North, true
	default:
		return 0, false
	}
}

// MarshalText implements encoding.TextMarshaler (used by JSON and YAML).
func (d Direction) MarshalText() ([]byte, error) {
	if d > West {
		return nil, fmt.Errorf("marshaling direction: invalid value %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
