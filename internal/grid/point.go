package grid

import "fmt"

// Point is a tile coordinate, either map-local or global.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

// ManhattanTo returns |dx| + |dy|.
func (p Point) ManhattanTo(o Point) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("%d/%d", p.X, p.Y)
}

// Size is a map's dimensions in tiles.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Contains reports whether p lies inside a grid of this size anchored at (0,0).
func (s Size) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.Width && p.Y < s.Height
}

// Index returns the row-major index of p. Caller must check Contains first.
func (s Size) Index(p Point) int {
	return p.Y*s.Width + p.X
}

// Area returns Width*Height.
func (s Size) Area() int {
	return s.Width * s.Height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
