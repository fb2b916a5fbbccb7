package rules

import "github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"

// MoveValidator decides which player moves are legal given what the player knows
type MoveValidator struct {
	grid core.Grid
}

// NewMoveValidator creates a new move validator
func NewMoveValidator(grid core.Grid) *MoveValidator {
	return &MoveValidator{grid: grid}
}

// IsLegal reports whether moving from p in direction d lands on an in-bounds node
// without crossing a known barrier. Unknown barriers do not block.
func (mv *MoveValidator) IsLegal(p core.Position, d core.Direction, knownBarriers *core.PositionSet) bool {
	if !d.IsValid() {
		return false
	}
	if !mv.grid.IsNode(p.Move(d)) {
		return false
	}
	return !knownBarriers.Contains(p.WallToward(d))
}

// LegalActionMask returns one entry per direction in action-index order.
// true = legal move, false = illegal move
func (mv *MoveValidator) LegalActionMask(p core.Position, knownBarriers *core.PositionSet) []bool {
	mask := make([]bool, len(core.AllDirections))
	for _, d := range core.AllDirections {
		mask[d.Index()] = mv.IsLegal(p, d, knownBarriers)
	}
	return mask
}

// LegalDirections returns the legal directions in action-index order
func (mv *MoveValidator) LegalDirections(p core.Position, knownBarriers *core.PositionSet) []core.Direction {
	dirs := make([]core.Direction, 0, len(core.AllDirections))
	for _, d := range core.AllDirections {
		if mv.IsLegal(p, d, knownBarriers) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// IsBoxedIn reports whether no direction is legal
func (mv *MoveValidator) IsBoxedIn(p core.Position, knownBarriers *core.PositionSet) bool {
	return len(mv.LegalDirections(p, knownBarriers)) == 0
}
