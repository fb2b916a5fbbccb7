// Package pursuer implements the mold's greedy chase policy.
package pursuer

import "github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"

// candidateOrder is the fixed tie-break order. Vertical moves win exact ties.
var candidateOrder = []core.Direction{core.Up, core.Down, core.Left, core.Right}

// Policy picks the mold's next cell. The mold ignores barriers.
type Policy struct {
	grid core.Grid
}

// NewPolicy creates a policy for the given grid
func NewPolicy(grid core.Grid) *Policy {
	return &Policy{grid: grid}
}

// NextPosition returns where the mold goes this tick. The first candidate in
// Up, Down, Left, Right order whose distance to the player is no larger than
// every other candidate is chosen; if that cell is off the grid the mold stays
// put and moved is false.
func (p *Policy) NextPosition(mold, player core.Position) (next core.Position, dir core.Direction, moved bool) {
	best := candidateOrder[0]
	bestDist := mold.Move(best).DistanceTo(player)
	for _, d := range candidateOrder[1:] {
		if dist := mold.Move(d).DistanceTo(player); dist < bestDist {
			best, bestDist = d, dist
		}
	}

	target := mold.Move(best)
	if !p.grid.IsNode(target) {
		return mold, best, false
	}
	return target, best, true
}

// ProjectPath walks from one node to another closing the vertical gap first,
// then the horizontal one. The start cell is not included.
func ProjectPath(from, to core.Position) []core.Position {
	path := make([]core.Position, 0, (abs(to.X-from.X)+abs(to.Y-from.Y))/2)
	cur := from
	for cur.Y != to.Y {
		if cur.Y < to.Y {
			cur.Y += 2
		} else {
			cur.Y -= 2
		}
		path = append(path, cur)
	}
	for cur.X != to.X {
		if cur.X < to.X {
			cur.X += 2
		} else {
			cur.X -= 2
		}
		path = append(path, cur)
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
