package nav

import (
	"container/heap"
	"fmt"
	"log/slog"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
	"github.com/udisondev/pokenav/internal/worldstate"
)

// Engine computes walking routes over an Atlas.
// Safe for concurrent use: the atlas is immutable once built and every
// call samples its own obstacle state.
type Engine struct {
	atlas *Atlas
	costs Costs
}

// NewEngine creates an engine over atlas using the given cost weights.
func NewEngine(atlas *Atlas, costs Costs) *Engine {
	return &Engine{atlas: atlas, costs: costs}
}

// Atlas returns the map graph the engine searches.
func (e *Engine) Atlas() *Atlas { return e.atlas }

// CalculatePath finds a route from src to dst, which must lie on maps of the
// same level. Live obstacles are sampled from state once, before searching.
//
// The heuristic is the Manhattan distance in global coordinates. It stops being
// admissible once penalties apply, so routes are good rather than provably
// optimal. Among frontier nodes with equal estimates the one inserted first is
// expanded first.
//
// If dst is a warp tile the last waypoint leads to the warp's destination.
// Every failure is a *PathFindingError.
func (e *Engine) CalculatePath(state worldstate.State, src, dst Location, opts PathOptions) ([]Waypoint, error) {
	fail := func(err error) error {
		return &PathFindingError{
			Source:          src,
			Destination:     dst,
			SourceName:      mapdata.NameOf(e.atlas.Source(), src.Map),
			DestinationName: mapdata.NameOf(e.atlas.Source(), dst.Map),
			Err:             err,
		}
	}

	from, err := e.atlas.Tile(src)
	if err != nil {
		return nil, fail(fmt.Errorf("%w: source: %w", ErrInvalidLocation, err))
	}
	to, err := e.atlas.Tile(dst)
	if err != nil {
		return nil, fail(fmt.Errorf("%w: destination: %w", ErrInvalidLocation, err))
	}
	if from.Map.Level != to.Map.Level {
		return nil, fail(ErrDisconnected)
	}

	obs := sampleObstacles(e.atlas, state)
	obs.canSurf = opts.CanSurf

	s := &search{
		atlas: e.atlas,
		costs: e.costs,
		opts:  opts,
		obs:   obs,
		state: state,
		goal:  to,
		best:  make(map[nodeKey]float64, 256),
	}
	s.open.s = s

	goal, err := s.run(from)
	if err != nil {
		return nil, fail(err)
	}

	path := s.unroll(goal)
	slog.Debug("path calculated",
		"from", src.Local, "from_map", src.Map,
		"to", dst.Local, "to_map", dst.Map,
		"steps", len(path), "expanded", s.expanded)
	return path, nil
}

// pathNode lives in the search arena; parent is an arena index (-1 for the root).
type pathNode struct {
	tile      *Tile
	elevation uint8
	parent    int
	dir       grid.Direction
	hasDir    bool
	cost      float64
	estimate  float64
}

// nodeKey deduplicates nodes by position and walker elevation.
type nodeKey struct {
	p         grid.Point
	elevation uint8
}

type search struct {
	atlas *Atlas
	costs Costs
	opts  PathOptions
	obs   *obstacles
	state worldstate.State
	goal  *Tile

	nodes    []pathNode
	open     frontier
	best     map[nodeKey]float64
	expanded int
}

func (s *search) heuristic(t *Tile) float64 {
	return float64(t.GlobalCoordinates().ManhattanTo(s.goal.GlobalCoordinates()))
}

func (s *search) push(n pathNode) {
	s.nodes = append(s.nodes, n)
	heap.Push(&s.open, len(s.nodes)-1)
}

func (s *search) run(start *Tile) (int, error) {
	goalAt := s.goal.GlobalCoordinates()
	level := start.Map.Level

	s.best[nodeKey{start.GlobalCoordinates(), start.Elevation}] = 0
	s.push(pathNode{
		tile:      start,
		elevation: start.Elevation,
		parent:    -1,
		estimate:  s.heuristic(start),
	})

	for s.open.Len() > 0 {
		idx := heap.Pop(&s.open).(int)
		node := s.nodes[idx]
		at := node.tile.GlobalCoordinates()

		if at == goalAt {
			return idx, nil
		}
		// A cheaper node for the same key was pushed after this one.
		if node.cost > s.best[nodeKey{at, node.elevation}] {
			continue
		}

		s.expanded++
		if s.opts.MaxExpansions > 0 && s.expanded > s.opts.MaxExpansions {
			return -1, ErrSearchBudget
		}

		for _, dir := range grid.Directions {
			np := at.Add(dir.Delta())

			var next *Tile
			var err error
			if node.tile.Map.ContainsGlobal(np) {
				next, err = node.tile.Map.GlobalTile(np)
			} else {
				next, err = s.atlas.globalTile(np, level)
			}
			if err != nil {
				return -1, err
			}
			if next == nil {
				continue
			}

			isGoal := np == goalAt
			if !s.obs.accessible(next, dir, node.elevation, isGoal) {
				continue
			}

			cost := node.cost + s.stepCost(node, next, dir, isGoal)

			elevation := next.Elevation
			if elevation == ElevationAny {
				elevation = node.elevation
			}

			key := nodeKey{np, elevation}
			if prev, seen := s.best[key]; seen && prev <= cost {
				continue
			}
			s.best[key] = cost
			s.push(pathNode{
				tile:      next,
				elevation: elevation,
				parent:    idx,
				dir:       dir,
				hasDir:    true,
				cost:      cost,
				estimate:  cost + s.heuristic(next),
			})
		}
	}

	return -1, ErrNoRoute
}

func (s *search) stepCost(from pathNode, to *Tile, dir grid.Direction, isGoal bool) float64 {
	c := s.costs.Step

	// Stepping on any other warp would teleport the walker away.
	if to.Warp != nil && !isGoal {
		c += s.costs.IntermediateWarp
	}
	switch {
	case from.tile.Elevation == ElevationLand && to.Elevation == ElevationWater:
		c += s.costs.Surf
	case from.tile.Elevation == ElevationWater && to.Elevation == ElevationLand:
		c += s.costs.Disembark
	}
	if s.opts.AvoidEncounters && to.HasEncounters {
		c += s.costs.Encounter
	}
	if !from.hasDir || from.dir != dir {
		c += s.costs.Turn
	}
	if s.opts.AvoidScriptedEvents {
		for v, want := range to.OnEnterTriggers {
			if s.state.Var(v) == want {
				c += s.costs.ScriptedEvent
			}
		}
	}
	return c
}

// unroll walks parent links from the goal and returns the route source-first.
func (s *search) unroll(goal int) []Waypoint {
	var out []Waypoint
	for idx := goal; s.nodes[idx].parent >= 0; idx = s.nodes[idx].parent {
		n := s.nodes[idx]
		parent := s.nodes[n.parent]

		dir, ok := grid.DirectionBetween(parent.tile.GlobalCoordinates(), n.tile.GlobalCoordinates())
		if !ok {
			dir = n.dir
		}

		if w := n.tile.Warp; w != nil && len(out) == 0 {
			if w.HasForced {
				// Arrow warps trigger on a further step in the arrow's direction.
				out = append(out,
					Waypoint{Direction: w.Forced, Map: w.Map, Coordinates: w.Local, IsWarp: true},
					Waypoint{Direction: dir, Map: n.tile.Map.ID, Coordinates: n.tile.Local},
				)
			} else {
				out = append(out, Waypoint{Direction: dir, Map: w.Map, Coordinates: w.Local, IsWarp: true})
			}
			continue
		}

		wp := Waypoint{Direction: dir, Map: n.tile.Map.ID, Coordinates: n.tile.Local}
		if parent.elevation == ElevationLand && n.elevation == ElevationWater {
			wp.Action = ActionSurf
		}
		out = append(out, wp)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// frontier is a min-heap of arena indexes ordered by estimate, then by arena
// index, which is insertion order.
type frontier struct {
	s     *search
	items []int
}

func (f frontier) Len() int { return len(f.items) }

func (f frontier) Less(i, j int) bool {
	a, b := &f.s.nodes[f.items[i]], &f.s.nodes[f.items[j]]
	if a.estimate != b.estimate {
		return a.estimate < b.estimate
	}
	return f.items[i] < f.items[j]
}

func (f frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) { f.items = append(f.items, x.(int)) }

func (f *frontier) Pop() any {
	old := f.items
	n := len(old)
	item := old[n-1]
	f.items = old[:n-1]
	return item
}
