// Package worldstate carries the live, per-frame game state the navigator
// samples at the start of every path search: event flags, event variables and
// the characters currently spawned on screen.
package worldstate

import (
	"sync/atomic"
	"time"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
)

// State is a read-only view of live game memory.
type State interface {
	Flag(id uint16) bool
	Var(id uint16) uint16
	Characters() []Character
}

// Character is a spawned object event. Previous differs from Current while
// the character is mid-step.
type Character struct {
	Map      mapdata.MapID `json:"map"`
	LocalID  uint8         `json:"local_id"`
	Current  grid.Point    `json:"current"`
	Previous grid.Point    `json:"previous"`
	IsPlayer bool          `json:"is_player"`
}

// Snapshot is an immutable State captured at one instant.
type Snapshot struct {
	Flags      []uint16          `json:"flags"`
	Vars       map[uint16]uint16 `json:"vars"`
	Spawned    []Character       `json:"characters"`
	CapturedAt time.Time         `json:"captured_at"`

	flagSet map[uint16]struct{}
}

// NewSnapshot indexes the given flags for lookup.
func NewSnapshot(flags []uint16, vars map[uint16]uint16, characters []Character) *Snapshot {
	s := &Snapshot{
		Flags:      flags,
		Vars:       vars,
		Spawned:    characters,
		CapturedAt: time.Now(),
	}
	s.index()
	return s
}

func (s *Snapshot) index() {
	s.flagSet = make(map[uint16]struct{}, len(s.Flags))
	for _, f := range s.Flags {
		s.flagSet[f] = struct{}{}
	}
}

func (s *Snapshot) Flag(id uint16) bool {
	if s.flagSet == nil {
		for _, f := range s.Flags {
			if f == id {
				return true
			}
		}
		return false
	}
	_, ok := s.flagSet[id]
	return ok
}

func (s *Snapshot) Var(id uint16) uint16 {
	return s.Vars[id]
}

func (s *Snapshot) Characters() []Character {
	return s.Spawned
}

// Feed holds the most recent snapshot pushed by the emulator bridge.
// Readers never block writers.
type Feed struct {
	current atomic.Pointer[Snapshot]
}

// NewFeed creates a feed holding an empty snapshot.
func NewFeed() *Feed {
	f := &Feed{}
	empty := NewSnapshot(nil, nil, nil)
	empty.CapturedAt = time.Time{}
	f.current.Store(empty)
	return f
}

// Publish replaces the current snapshot. A zero CapturedAt is stamped with now.
func (f *Feed) Publish(s *Snapshot) {
	if s.CapturedAt.IsZero() {
		s.CapturedAt = time.Now()
	}
	s.index()
	f.current.Store(s)
}

// Current returns the latest snapshot.
func (f *Feed) Current() *Snapshot {
	return f.current.Load()
}

// Updated returns when the current snapshot was captured (zero if never).
func (f *Feed) Updated() time.Time {
	return f.current.Load().CapturedAt
}
