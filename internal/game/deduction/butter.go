package deduction

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/rs/zerolog"
)

// ButterUpdate reports what changed during one butter deduction pass
type ButterUpdate struct {
	BecameKnown bool
	Conflict    bool
}

// ButterTracker narrows the butter candidates with the oracle reading at the
// player's cell and the cells the mold has already crossed.
type ButterTracker struct {
	oracle     *Oracle
	candidates *core.PositionSet
	known      bool
	logger     zerolog.Logger
}

// NewButterTracker seeds the candidates with the nodes on the contour implied by
// the oracle value at origin.
func NewButterTracker(grid core.Grid, oracle *Oracle, origin core.Position, logger zerolog.Logger) *ButterTracker {
	radius := 2 * oracle.At(origin)
	candidates := core.NewPositionSet()
	for _, n := range grid.Nodes() {
		if n.DistanceTo(origin) == radius {
			candidates.Add(n)
		}
	}
	return &ButterTracker{
		oracle:     oracle,
		candidates: candidates,
		logger:     logger.With().Str("component", "ButterTracker").Logger(),
	}
}

// Update runs one deduction pass. moldVisited holds every cell the mold has occupied.
func (b *ButterTracker) Update(player core.Position, moldVisited *core.PositionSet) ButterUpdate {
	var u ButterUpdate

	radius := 2 * b.oracle.At(player)
	ok := b.candidates.Retain(func(c core.Position) bool {
		return c.DistanceTo(player) == radius && !moldVisited.Contains(c)
	})
	if !ok {
		u.Conflict = true
		b.logger.Warn().
			Str("player", player.String()).
			Int("radius", radius).
			Int("candidates", b.candidates.Len()).
			Msg("Refusing prune that would empty the butter candidates")
	}

	if !b.known && b.candidates.Len() == 1 {
		b.known = true
		u.BecameKnown = true
		only, _ := b.candidates.Only()
		b.logger.Debug().Str("butter", only.String()).Msg("Butter location deduced")
	}
	return u
}

// Candidates returns the remaining candidate cells in (X, Y) order
func (b *ButterTracker) Candidates() []core.Position { return b.candidates.Items() }

// Known reports whether the butter candidates have collapsed to one cell
func (b *ButterTracker) Known() bool { return b.known }

// Oracle exposes the hint table the tracker reads from
func (b *ButterTracker) Oracle() *Oracle { return b.oracle }
