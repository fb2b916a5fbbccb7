// Package deduction narrows down where the two hidden goals can be, using only
// what the player is allowed to observe.
package deduction

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/rs/zerolog"
)

// ToasterUpdate reports what changed during one toaster deduction pass
type ToasterUpdate struct {
	// NewHeat is set when the player stood on a heat cell for the first time.
	NewHeat bool
	// BecameKnown is set on the single pass where the toaster location is settled.
	BecameKnown bool
	// Conflict is set when a prune was refused because it would empty the set.
	Conflict bool
}

// ToasterTracker keeps the toaster candidate set and the heat cells the player
// has found. The true location is only used to answer "is the player standing on
// a heat cell / on the toaster", which the player can sense.
type ToasterTracker struct {
	grid       core.Grid
	toaster    core.Position
	heat       [4]core.Position
	knownHeat  *core.PositionSet
	candidates *core.PositionSet
	known      bool
	logger     zerolog.Logger
}

// NewToasterTracker starts with every node as a candidate
func NewToasterTracker(grid core.Grid, toaster core.Position, logger zerolog.Logger) *ToasterTracker {
	t := &ToasterTracker{
		grid:       grid,
		toaster:    toaster,
		knownHeat:  core.NewPositionSet(),
		candidates: core.NewPositionSet(grid.Nodes()...),
		logger:     logger.With().Str("component", "ToasterTracker").Logger(),
	}
	for i, d := range core.AllDirections {
		t.heat[i] = toaster.Move(d)
	}
	return t
}

// Update runs one deduction pass for the given player and mold cells
func (t *ToasterTracker) Update(player, mold core.Position) ToasterUpdate {
	var u ToasterUpdate

	if t.isHeat(player) && t.knownHeat.Add(player) {
		u.NewHeat = true
		t.logger.Debug().Str("cell", player.String()).Msg("Heat cell discovered")
	}

	if player != t.toaster {
		t.candidates.Remove(player)
	}
	if mold != t.toaster {
		t.candidates.Remove(mold)
	}

	if player == t.toaster {
		t.candidates = core.NewPositionSet(t.toaster)
	}

	if t.candidates.Len() > 1 && t.knownHeat.Len() > 0 {
		heat := t.knownHeat.Items()
		ok := t.candidates.Retain(func(c core.Position) bool {
			for _, h := range heat {
				if c.DistanceTo(h) != 2 {
					return false
				}
			}
			return true
		})
		if !ok {
			u.Conflict = true
			t.logger.Warn().
				Int("candidates", t.candidates.Len()).
				Int("known_heat", len(heat)).
				Msg("Refusing heat prune that would empty the toaster candidates")
		}
	}

	if !t.known && (player == t.toaster || t.candidates.Len() == 1) {
		t.known = true
		u.BecameKnown = true
		t.logger.Debug().Str("toaster", t.toaster.String()).Msg("Toaster location deduced")
	}
	return u
}

func (t *ToasterTracker) isHeat(p core.Position) bool {
	for _, h := range t.heat {
		if h == p {
			return true
		}
	}
	return false
}

// Candidates returns the remaining candidate cells in (X, Y) order
func (t *ToasterTracker) Candidates() []core.Position { return t.candidates.Items() }

// KnownHeat returns the heat cells the player has stepped on
func (t *ToasterTracker) KnownHeat() []core.Position { return t.knownHeat.Items() }

// Known reports whether the toaster location is settled. It never reverts.
func (t *ToasterTracker) Known() bool { return t.known }

// HeatCells returns the four cells at distance 2 from the toaster in action
// order. Some may fall outside the grid.
func (t *ToasterTracker) HeatCells() [4]core.Position { return t.heat }
