package overlay

import (
	"errors"
	"sync"
)

type Kind string

const (
	Speedometer Kind = "speedometer"
	Map         Kind = "map"
	Stats       Kind = "stats"
)

// Kinds lists every overlay in field order.
var Kinds = []Kind{Speedometer, Map, Stats}

type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

// Corners is the traversal order for first placement and for cycling.
var Corners = []Corner{BottomLeft, TopLeft, TopRight, BottomRight}

var ErrUnknownKind = errors.New("unknown overlay kind")

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

func (c Corner) Valid() bool {
	for _, known := range Corners {
		if c == known {
			return true
		}
	}
	return false
}

// Setting is the exported state of one overlay.
type Setting struct {
	Active   bool    `json:"active"`
	Position *Corner `json:"position"`
}

// Configuration maps every kind to its setting.
type Configuration map[Kind]Setting

// Allocator assigns overlays to screen corners, at most one overlay per corner.
type Allocator struct {
	mu       sync.RWMutex
	assigned map[Kind]Corner
}

func NewAllocator() *Allocator {
	return &Allocator{assigned: map[Kind]Corner{}}
}

// Toggle activates an inactive kind at the first free corner, or moves an active
// kind to its next available corner, switching it off after the last one. A full
// board leaves an inactive kind untouched.
func (a *Allocator) Toggle(kind Kind) (Corner, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, active := a.assigned[kind]
	if !active {
		free := a.availableLocked("")
		if len(free) == 0 {
			return "", false
		}
		a.assigned[kind] = free[0]
		return free[0], true
	}

	available := a.availableLocked(kind)
	idx := indexOf(available, current)
	if idx == len(available)-1 {
		delete(a.assigned, kind)
		return "", false
	}
	a.assigned[kind] = available[idx+1]
	return available[idx+1], true
}

// availableLocked returns corners not occupied by a kind other than self, in
// traversal order.
func (a *Allocator) availableLocked(self Kind) []Corner {
	out := make([]Corner, 0, len(Corners))
	for _, corner := range Corners {
		taken := false
		for kind, c := range a.assigned {
			if kind != self && c == corner {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, corner)
		}
	}
	return out
}

func indexOf(corners []Corner, c Corner) int {
	for i, corner := range corners {
		if corner == c {
			return i
		}
	}
	return -1
}

func (a *Allocator) Position(kind Kind) (Corner, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.assigned[kind]
	return c, ok
}

func (a *Allocator) HasActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.assigned) > 0
}

func (a *Allocator) Configuration() Configuration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cfg := make(Configuration, len(Kinds))
	for _, kind := range Kinds {
		if c, ok := a.assigned[kind]; ok {
			pos := c
			cfg[kind] = Setting{Active: true, Position: &pos}
			continue
		}
		cfg[kind] = Setting{}
	}
	return cfg
}

// Apply replaces the state with cfg. Entries that are inactive, have no valid
// position, or land on a corner already taken are left off.
func (a *Allocator) Apply(cfg Configuration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assigned = map[Kind]Corner{}
	for _, kind := range Kinds {
		s, ok := cfg[kind]
		if !ok || !s.Active || s.Position == nil || !s.Position.Valid() {
			continue
		}
		if indexOf(a.availableLocked(kind), *s.Position) < 0 {
			continue
		}
		a.assigned[kind] = *s.Position
	}
}

// Reset switches every overlay off.
func (a *Allocator) Reset() {
	a.mu.Lock()
	a.assigned = map[Kind]Corner{}
	a.mu.Unlock()
}

// Field is one request parameter.
type Field struct {
	Name  string
	Value string
}

var fieldNames = map[Kind][2]string{
	Speedometer: {"addSpeedoOverlay", "speedoPosition"},
	Map:         {"addTrackOverlay", "trackPosition"},
	Stats:       {"addStatsOverlay", "statsPosition"},
}

// Fields flattens the configuration into processing request parameters. A
// position is only emitted for active overlays.
func (a *Allocator) Fields() []Field {
	cfg := a.Configuration()
	out := make([]Field, 0, 2*len(Kinds))
	for _, kind := range Kinds {
		names := fieldNames[kind]
		s := cfg[kind]
		if !s.Active {
			out = append(out, Field{Name: names[0], Value: "false"})
			continue
		}
		out = append(out, Field{Name: names[0], Value: "true"}, Field{Name: names[1], Value: string(*s.Position)})
	}
	return out
}
