package core

import "fmt"

// Grid is the static maze geometry. Width and Height are measured in slots and
// must be odd so that nodes sit on the even coordinates of both borders.
type Grid struct {
	Width, Height int
}

// NewGrid validates the slot dimensions and returns the grid
func NewGrid(width, height int) (Grid, error) {
	if width < 3 || height < 3 {
		return Grid{}, fmt.Errorf("%w: %dx%d is smaller than 3x3", ErrInvalidDimensions, width, height)
	}
	if width%2 == 0 || height%2 == 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d must be odd in both dimensions", ErrInvalidDimensions, width, height)
	}
	return Grid{Width: width, Height: height}, nil
}

// InBounds checks if the position lies inside the slot space
func (g Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// IsNode reports whether p is an in-bounds node cell
func (g Grid) IsNode(p Position) bool {
	return g.InBounds(p) && p.IsNode()
}

// IsWallSlot reports whether p is an in-bounds wall slot
func (g Grid) IsWallSlot(p Position) bool {
	return g.InBounds(p) && p.IsWallSlot()
}

// Neighbors returns the in-bounds nodes two units away, in action order.
func (g Grid) Neighbors(p Position) []Position {
	neighbors := make([]Position, 0, 4)
	for _, d := range AllDirections {
		n := p.Move(d)
		if g.IsNode(n) {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// NodesWide is the number of node columns
func (g Grid) NodesWide() int { return (g.Width + 1) / 2 }

// NodesHigh is the number of node rows
func (g Grid) NodesHigh() int { return (g.Height + 1) / 2 }

// NodeCount is the number of node cells
func (g Grid) NodeCount() int { return g.NodesWide() * g.NodesHigh() }

// Nodes returns every node cell ordered by X, then Y
func (g Grid) Nodes() []Position {
	nodes := make([]Position, 0, g.NodeCount())
	for x := 0; x < g.Width; x += 2 {
		for y := 0; y < g.Height; y += 2 {
			nodes = append(nodes, Position{X: x, Y: y})
		}
	}
	return nodes
}

// WallSlotCount is the number of wall slots, the upper bound on barriers
func (g Grid) WallSlotCount() int {
	pillars := (g.Width / 2) * (g.Height / 2)
	return g.Width*g.Height - g.NodeCount() - pillars
}

// WallSlots returns every wall slot ordered by X, then Y
func (g Grid) WallSlots() []Position {
	slots := make([]Position, 0, g.WallSlotCount())
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			p := Position{X: x, Y: y}
			if p.IsWallSlot() {
				slots = append(slots, p)
			}
		}
	}
	return slots
}

// Corner returns the node diagonally opposite the origin
func (g Grid) Corner() Position {
	return Position{X: g.Width - 1, Y: g.Height - 1}
}
