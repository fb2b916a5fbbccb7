package deduction

import "github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"

// Oracle is the per-cell distance-to-butter hint table. Values are measured in
// node steps (slot distance / 2); cells that are not nodes read as -1.
type Oracle struct {
	grid   core.Grid
	values []int
}

// NewOracle precomputes the hint table for a butter at the given node
func NewOracle(grid core.Grid, butter core.Position) *Oracle {
	values := make([]int, grid.Width*grid.Height)
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			p := core.Position{X: x, Y: y}
			if p.IsNode() {
				values[y*grid.Width+x] = p.DistanceTo(butter) / 2
			} else {
				values[y*grid.Width+x] = -1
			}
		}
	}
	return &Oracle{grid: grid, values: values}
}

// At returns the hint at p, or -1 when p is out of bounds or not a node
func (o *Oracle) At(p core.Position) int {
	if !o.grid.InBounds(p) {
		return -1
	}
	return o.values[p.Y*o.grid.Width+p.X]
}

// Rows returns a copy of the table indexed [y][x] for renderers
func (o *Oracle) Rows() [][]int {
	rows := make([][]int, o.grid.Height)
	for y := range rows {
		rows[y] = make([]int, o.grid.Width)
		copy(rows[y], o.values[y*o.grid.Width:(y+1)*o.grid.Width])
	}
	return rows
}
