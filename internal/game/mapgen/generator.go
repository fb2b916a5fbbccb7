package mapgen

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

// ErrReservedNode is returned when a hidden goal sits on a start cell
var ErrReservedNode = errors.New("goal on a reserved node")

// MapConfig holds configuration for layout generation
type MapConfig struct {
	Width    int
	Height   int
	Barriers int
	// Reserved nodes never receive a hidden goal (the start cells).
	Reserved []core.Position
}

// DefaultMapConfig returns the configuration of the standard 6x6-node maze
func DefaultMapConfig(w, h int) MapConfig {
	return MapConfig{
		Width:    w,
		Height:   h,
		Barriers: 10,
		Reserved: []core.Position{{X: 0, Y: 0}, {X: w - 1, Y: h - 1}},
	}
}

// Layout is everything drawn once per episode.
type Layout struct {
	Barriers []core.Position
	Toaster  core.Position
	Butter   core.Position
}

// Generator handles layout generation with deterministic RNG
type Generator struct {
	config MapConfig
	grid   core.Grid
	rng    *rand.Rand
}

// NewGenerator creates a new layout generator. It fails when the grid is malformed or
// cannot hold the requested barriers and two goals.
func NewGenerator(config MapConfig, rng *rand.Rand) (*Generator, error) {
	grid, err := core.NewGrid(config.Width, config.Height)
	if err != nil {
		return nil, err
	}
	if config.Barriers < 0 || config.Barriers > grid.WallSlotCount() {
		return nil, fmt.Errorf("barrier count %d outside [0, %d]", config.Barriers, grid.WallSlotCount())
	}
	if len(goalCandidates(grid, config.Reserved)) < 2 {
		return nil, fmt.Errorf("grid %dx%d leaves fewer than two nodes for hidden goals", config.Width, config.Height)
	}
	return &Generator{
		config: config,
		grid:   grid,
		rng:    rng,
	}, nil
}

// Grid returns the grid the generator draws on
func (g *Generator) Grid() core.Grid {
	return g.grid
}

// Generate draws a fresh layout
func (g *Generator) Generate() Layout {
	barriers := g.placeBarriers()
	toaster, butter := g.placeGoals()
	return Layout{
		Barriers: barriers,
		Toaster:  toaster,
		Butter:   butter,
	}
}

// placeBarriers picks distinct wall slots without replacement
func (g *Generator) placeBarriers() []core.Position {
	available := g.grid.WallSlots()
	barriers := make([]core.Position, 0, g.config.Barriers)

	for i := 0; i < g.config.Barriers; i++ {
		idx := g.rng.Intn(len(available))
		barriers = append(barriers, available[idx])
		available = append(available[:idx], available[idx+1:]...)
	}
	return barriers
}

// placeGoals draws the toaster, then the butter from the remaining nodes
func (g *Generator) placeGoals() (toaster, butter core.Position) {
	candidates := goalCandidates(g.grid, g.config.Reserved)

	idx := g.rng.Intn(len(candidates))
	toaster = candidates[idx]
	candidates = append(candidates[:idx], candidates[idx+1:]...)

	butter = candidates[g.rng.Intn(len(candidates))]
	return toaster, butter
}

func goalCandidates(grid core.Grid, reserved []core.Position) []core.Position {
	skip := core.NewPositionSet(reserved...)
	nodes := grid.Nodes()
	candidates := make([]core.Position, 0, len(nodes))
	for _, n := range nodes {
		if !skip.Contains(n) {
			candidates = append(candidates, n)
		}
	}
	return candidates
}

// Validate checks a hand-built layout against the grid. Goals may not sit on
// any of the reserved nodes.
func (l Layout) Validate(grid core.Grid, reserved ...core.Position) error {
	seen := core.NewPositionSet()
	for _, b := range l.Barriers {
		if !grid.IsWallSlot(b) {
			return fmt.Errorf("barrier %s: %w", b, core.ErrNotWallSlot)
		}
		if !seen.Add(b) {
			return fmt.Errorf("barrier %s listed twice", b)
		}
	}
	if !grid.IsNode(l.Toaster) {
		return fmt.Errorf("toaster %s: %w", l.Toaster, core.ErrNotNode)
	}
	if !grid.IsNode(l.Butter) {
		return fmt.Errorf("butter %s: %w", l.Butter, core.ErrNotNode)
	}
	if l.Toaster == l.Butter {
		return fmt.Errorf("toaster and butter share %s", l.Toaster)
	}
	for _, r := range reserved {
		if l.Toaster == r {
			return fmt.Errorf("toaster %s: %w", r, ErrReservedNode)
		}
		if l.Butter == r {
			return fmt.Errorf("butter %s: %w", r, ErrReservedNode)
		}
	}
	return nil
}
