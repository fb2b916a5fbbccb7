package game

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

// Field describes one slice of the observation vector
type Field struct {
	Name   string
	Offset int
	Width  int
}

// Encoder flattens a snapshot into the fixed-width vector the learner consumes.
// Every set is written in (X, Y) order and right-padded with the sentinel pair.
type Encoder struct {
	nodes    int
	barriers int
	butter   int
	path     int
	fields   []Field
	length   int
}

// NewEncoder sizes every field from the grid and the barrier capacity
func NewEncoder(grid core.Grid, barrierCapacity int) *Encoder {
	e := &Encoder{
		nodes:    grid.NodeCount(),
		barriers: barrierCapacity,
		butter:   min(grid.NodesWide(), grid.NodesHigh()),
		path:     grid.NodesWide() + grid.NodesHigh(),
	}

	widths := []struct {
		name  string
		width int
	}{
		{"player", 2},
		{"facing", 1},
		{"visited", 2 * e.nodes},
		{"toaster_candidates", 2 * e.nodes},
		{"known_heat", 2 * 4},
		{"know_toaster", 1},
		{"known_barriers", 2 * e.barriers},
		{"butter_candidates", 2 * e.butter},
		{"know_butter", 1},
		{"mold", 2},
		{"mold_visited", 2 * e.nodes},
		{"mold_path", 2 * e.path},
		{"reward", 1},
	}
	offset := 0
	for _, w := range widths {
		e.fields = append(e.fields, Field{Name: w.name, Offset: offset, Width: w.width})
		offset += w.width
	}
	e.length = offset
	return e
}

// Length is the size of every vector this encoder produces
func (e *Encoder) Length() int { return e.length }

// Fields lists the vector layout in order
func (e *Encoder) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

// Encode writes s into a new vector of Length() entries
func (e *Encoder) Encode(s Snapshot) []float32 {
	v := make([]float32, 0, e.length)

	v = appendPosition(v, s.Player)
	v = append(v, float32(s.Facing.Facing()))
	v = appendPairs(v, s.Visited, e.nodes)
	v = appendPairs(v, s.ToasterCandidates, e.nodes)
	v = appendPairs(v, s.KnownHeat, 4)
	v = append(v, boolToFloat(s.KnowToaster))
	v = appendPairs(v, s.KnownBarriers, e.barriers)
	v = appendPairs(v, s.ButterCandidates, e.butter)
	v = append(v, boolToFloat(s.KnowButter))
	v = appendPosition(v, s.Mold)
	v = appendPairs(v, s.MoldVisited, e.nodes)
	v = appendPairs(v, s.MoldPath, e.path)
	v = append(v, float32(s.Reward))

	return v
}

func appendPosition(v []float32, p core.Position) []float32 {
	return append(v, float32(p.X), float32(p.Y))
}

// appendPairs writes up to capacity positions, then pads with the sentinel
func appendPairs(v []float32, items []core.Position, capacity int) []float32 {
	n := min(len(items), capacity)
	for _, p := range items[:n] {
		v = appendPosition(v, p)
	}
	for i := n; i < capacity; i++ {
		v = appendPosition(v, core.Sentinel)
	}
	return v
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
