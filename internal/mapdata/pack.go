package mapdata

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/pokenav/internal/grid"
)

// PackDocument is the YAML layout of a map-data pack.
type PackDocument struct {
	Game string        `yaml:"game"`
	Maps []MapDocument `yaml:"maps"`
}

// MapDocument describes one map. Rows hold one legend symbol per tile.
type MapDocument struct {
	Group       uint8                 `yaml:"group"`
	Number      uint8                 `yaml:"number"`
	Name        string                `yaml:"name"`
	Width       int                   `yaml:"width"`
	Height      int                   `yaml:"height"`
	Connections []ConnectionDocument  `yaml:"connections,omitempty"`
	Legend      map[string]TileLegend `yaml:"legend"`
	Rows        []string              `yaml:"rows"`
	Warps       []WarpDocument        `yaml:"warps,omitempty"`
	CoordEvents []CoordEventDocument  `yaml:"coord_events,omitempty"`
	Objects     []ObjectDocument      `yaml:"objects,omitempty"`
}

func (m MapDocument) ID() MapID { return MapID{Group: m.Group, Number: m.Number} }

// Clone returns a copy of d that shares no slices or maps with it.
func (d PackDocument) Clone() PackDocument {
	out := PackDocument{Game: d.Game}
	if d.Maps != nil {
		out.Maps = make([]MapDocument, len(d.Maps))
		for i, m := range d.Maps {
			out.Maps[i] = m.clone()
		}
	}
	return out
}

func (m MapDocument) clone() MapDocument {
	m.Connections = slices.Clone(m.Connections)
	m.Legend = maps.Clone(m.Legend)
	m.Rows = slices.Clone(m.Rows)
	m.Warps = slices.Clone(m.Warps)
	m.CoordEvents = slices.Clone(m.CoordEvents)
	m.Objects = slices.Clone(m.Objects)
	return m
}

type ConnectionDocument struct {
	Direction grid.Direction `yaml:"direction"`
	Group     uint8          `yaml:"group"`
	Number    uint8          `yaml:"number"`
	Offset    int            `yaml:"offset"`
}

type TileLegend struct {
	Behavior   string `yaml:"behavior"`
	Collision  bool   `yaml:"collision,omitempty"`
	Elevation  uint8  `yaml:"elevation"`
	Encounters bool   `yaml:"encounters,omitempty"`
}

type WarpDocument struct {
	X          int   `yaml:"x"`
	Y          int   `yaml:"y"`
	DestGroup  uint8 `yaml:"dest_group"`
	DestNumber uint8 `yaml:"dest_number"`
	DestX      int   `yaml:"dest_x"`
	DestY      int   `yaml:"dest_y"`
}

type CoordEventDocument struct {
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Var     uint16 `yaml:"var"`
	Value   uint16 `yaml:"value"`
	Weather bool   `yaml:"weather,omitempty"`
}

type ObjectDocument struct {
	LocalID uint8  `yaml:"local_id"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Flag    uint16 `yaml:"flag,omitempty"`
}

// Pack is an in-memory Source backed by a PackDocument.
// Immutable after construction; safe for concurrent readers.
type Pack struct {
	doc         PackDocument
	ids         []MapID
	maps        map[MapID]*packMap
	fingerprint [blake2b.Size256]byte
}

type packMap struct {
	doc         *MapDocument
	size        grid.Size
	cells       [][]rune
	connections [4]*Connection
	events      []CoordEvent
	warps       []Warp
	objects     []ObjectTemplate
}

// ParsePack decodes and validates a YAML pack.
func ParsePack(data []byte) (*Pack, error) {
	var doc PackDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing map pack: %w", err)
	}
	return NewPack(doc)
}

// LoadPack reads a YAML pack from disk.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map pack %s: %w", path, err)
	}
	p, err := ParsePack(data)
	if err != nil {
		return nil, fmt.Errorf("loading map pack %s: %w", path, err)
	}
	slog.Info("map pack loaded", "path", path, "game", p.Game(), "maps", len(p.ids))
	return p, nil
}

// NewPack validates doc and indexes a private copy of it; later changes to
// doc do not affect the pack.
func NewPack(doc PackDocument) (*Pack, error) {
	doc = doc.Clone()
	p := &Pack{
		doc:  doc,
		ids:  make([]MapID, 0, len(doc.Maps)),
		maps: make(map[MapID]*packMap, len(doc.Maps)),
	}

	for i := range doc.Maps {
		md := &doc.Maps[i]
		id := md.ID()
		if _, dup := p.maps[id]; dup {
			return nil, fmt.Errorf("map %s (%s): duplicate id", id, md.Name)
		}
		pm, err := indexMap(md)
		if err != nil {
			return nil, fmt.Errorf("map %s (%s): %w", id, md.Name, err)
		}
		p.ids = append(p.ids, id)
		p.maps[id] = pm
	}

	if err := p.checkReferences(); err != nil {
		return nil, err
	}

	canonical, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding map pack for fingerprint: %w", err)
	}
	p.fingerprint = blake2b.Sum256(canonical)
	return p, nil
}

func indexMap(md *MapDocument) (*packMap, error) {
	if md.Width <= 0 || md.Height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", md.Width, md.Height)
	}
	if len(md.Rows) != md.Height {
		return nil, fmt.Errorf("expected %d rows, got %d", md.Height, len(md.Rows))
	}
	for sym, l := range md.Legend {
		if utf8.RuneCountInString(sym) != 1 {
			return nil, fmt.Errorf("legend symbol %q must be a single character", sym)
		}
		if l.Elevation > 15 {
			return nil, fmt.Errorf("legend symbol %q: elevation %d out of range", sym, l.Elevation)
		}
	}

	pm := &packMap{
		doc:   md,
		size:  grid.Size{Width: md.Width, Height: md.Height},
		cells: make([][]rune, md.Height),
	}
	for y, row := range md.Rows {
		cells := []rune(row)
		if len(cells) != md.Width {
			return nil, fmt.Errorf("row %d: expected %d tiles, got %d", y, md.Width, len(cells))
		}
		for x, c := range cells {
			if _, ok := md.Legend[string(c)]; !ok {
				return nil, fmt.Errorf("row %d col %d: symbol %q not in legend", y, x, c)
			}
		}
		pm.cells[y] = cells
	}

	for _, c := range md.Connections {
		if c.Direction > grid.West {
			return nil, fmt.Errorf("connection has invalid direction %d", c.Direction)
		}
		if pm.connections[c.Direction] != nil {
			return nil, fmt.Errorf("more than one %s connection", c.Direction)
		}
		pm.connections[c.Direction] = &Connection{
			Map:    MapID{Group: c.Group, Number: c.Number},
			Offset: c.Offset,
		}
	}

	for _, e := range md.CoordEvents {
		pm.events = append(pm.events, CoordEvent{
			Local: grid.Point{X: e.X, Y: e.Y}, Var: e.Var, Value: e.Value, Weather: e.Weather,
		})
	}
	for _, w := range md.Warps {
		local := grid.Point{X: w.X, Y: w.Y}
		if !pm.size.Contains(local) {
			return nil, fmt.Errorf("warp at %s: %w", local, ErrOutOfBounds)
		}
		pm.warps = append(pm.warps, Warp{
			Local:     local,
			Dest:      MapID{Group: w.DestGroup, Number: w.DestNumber},
			DestLocal: grid.Point{X: w.DestX, Y: w.DestY},
		})
	}
	for _, o := range md.Objects {
		// Out-of-range templates are kept: the navigator skips them when building tiles.
		pm.objects = append(pm.objects, ObjectTemplate{
			LocalID: o.LocalID, Local: grid.Point{X: o.X, Y: o.Y}, Flag: o.Flag,
		})
	}
	return pm, nil
}

func (p *Pack) checkReferences() error {
	for _, id := range p.ids {
		pm := p.maps[id]
		for d, c := range pm.connections {
			if c == nil {
				continue
			}
			if _, ok := p.maps[c.Map]; !ok {
				return fmt.Errorf("map %s: %s connection to %s: %w", id, grid.Direction(d), c.Map, ErrUnknownMap)
			}
		}
		for _, w := range pm.warps {
			if _, ok := p.maps[w.Dest]; !ok {
				return fmt.Errorf("map %s: warp at %s to %s: %w", id, w.Local, w.Dest, ErrUnknownMap)
			}
		}
	}
	return nil
}

// Game returns the game key declared by the document.
func (p *Pack) Game() string { return p.doc.Game }

// Document returns a copy of the document the pack was built from.
func (p *Pack) Document() PackDocument { return p.doc.Clone() }

// Fingerprint returns the BLAKE2b-256 digest of the canonical pack encoding.
// Two packs with equal fingerprints describe identical maps.
func (p *Pack) Fingerprint() [blake2b.Size256]byte { return p.fingerprint }

// Key identifies the pack's map graph in caches: game name plus fingerprint prefix.
func (p *Pack) Key() string {
	return fmt.Sprintf("%s/%x", p.doc.Game, p.fingerprint[:8])
}

func (p *Pack) lookup(id MapID) (*packMap, error) {
	pm, ok := p.maps[id]
	if !ok {
		return nil, fmt.Errorf("map %s: %w", id, ErrUnknownMap)
	}
	return pm, nil
}

func (p *Pack) MapIDs() []MapID {
	out := make([]MapID, len(p.ids))
	copy(out, p.ids)
	return out
}

func (p *Pack) MapName(id MapID) string {
	if pm, ok := p.maps[id]; ok {
		return pm.doc.Name
	}
	return ""
}

func (p *Pack) MapSize(id MapID) (grid.Size, error) {
	pm, err := p.lookup(id)
	if err != nil {
		return grid.Size{}, err
	}
	return pm.size, nil
}

func (p *Pack) MapConnections(id MapID) ([4]*Connection, error) {
	pm, err := p.lookup(id)
	if err != nil {
		return [4]*Connection{}, err
	}
	return pm.connections, nil
}

func (p *Pack) Tile(id MapID, local grid.Point) (TileInfo, error) {
	pm, err := p.lookup(id)
	if err != nil {
		return TileInfo{}, err
	}
	if !pm.size.Contains(local) {
		return TileInfo{}, fmt.Errorf("map %s tile %s: %w", id, local, ErrOutOfBounds)
	}
	l := pm.doc.Legend[string(pm.cells[local.Y][local.X])]
	return TileInfo{
		Behavior:   l.Behavior,
		Collision:  l.Collision,
		Elevation:  l.Elevation,
		Encounters: l.Encounters,
	}, nil
}

func (p *Pack) CoordEvents(id MapID) ([]CoordEvent, error) {
	pm, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	return pm.events, nil
}

func (p *Pack) Warps(id MapID) ([]Warp, error) {
	pm, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	return pm.warps, nil
}

func (p *Pack) Objects(id MapID) ([]ObjectTemplate, error) {
	pm, err := p.lookup(id)
	if err != nil {
		return nil, err
	}
	return pm.objects, nil
}
