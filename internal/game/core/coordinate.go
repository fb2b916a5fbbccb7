package core

import "fmt"

// Position is a cell in slot space. Both-even cells are nodes, cells with exactly
// one odd coordinate are wall slots and both-odd cells are unused.
type Position struct {
	X, Y int
}

// Sentinel pads variable-size sets in encoded observations.
var Sentinel = Position{X: -1, Y: -1}

// NewPosition creates a new position with the given x and y values
func NewPosition(x, y int) Position {
	return Position{X: x, Y: y}
}

// IsNode reports whether both coordinates are even
func (p Position) IsNode() bool {
	return p.X%2 == 0 && p.Y%2 == 0
}

// IsWallSlot reports whether exactly one coordinate is odd
func (p Position) IsWallSlot() bool {
	return (p.X%2 != 0) != (p.Y%2 != 0)
}

// DistanceTo calculates the Manhattan distance to another position
func (p Position) DistanceTo(other Position) int {
	dx := p.X - other.X
	dy := p.Y - other.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Add returns the sum of this position and an offset
func (p Position) Add(other Position) Position {
	return Position{X: p.X + other.X, Y: p.Y + other.Y}
}

// Move returns the node one step (two slot units) away in the given direction
func (p Position) Move(d Direction) Position {
	if offset, ok := DirectionVectors[d]; ok {
		return p.Add(Position{X: offset.X * 2, Y: offset.Y * 2})
	}
	return p
}

// WallToward returns the wall slot between p and its neighbor in direction d
func (p Position) WallToward(d Direction) Position {
	if offset, ok := DirectionVectors[d]; ok {
		return p.Add(offset)
	}
	return p
}

// Less orders positions by X, then Y.
func (p Position) Less(other Position) bool {
	if p.X != other.X {
		return p.X < other.X
	}
	return p.Y < other.Y
}

// String returns a string representation of the position
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four discrete actions. The numeric value is the action
// index used by learners: up, right, down, left.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// AllDirections lists the directions in action-index order
var AllDirections = []Direction{Up, Right, Down, Left}

// DirectionVectors provides unit slot offsets for each direction
var DirectionVectors = map[Direction]Position{
	Up:    {X: 0, Y: -1},
	Right: {X: 1, Y: 0},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
}

// IsValid reports whether d is one of the four directions
func (d Direction) IsValid() bool {
	return d >= Up && d <= Left
}

// Index returns the action index of the direction
func (d Direction) Index() int {
	return int(d)
}

// Facing returns the heading code carried in observations.
func (d Direction) Facing() int {
	switch d {
	case Right:
		return 1
	case Left:
		return 2
	case Up:
		return 3
	case Down:
		return 4
	default:
		return 0
	}
}

// Opposite returns the reverse direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DirectionFromIndex converts an action index into a direction
func DirectionFromIndex(idx int) (Direction, error) {
	d := Direction(idx)
	if !d.IsValid() {
		return d, fmt.Errorf("action index %d: %w", idx, ErrInvalidDirection)
	}
	return d, nil
}

// DirectionFromOneHot converts a one-hot action vector such as [0 1 0 0]
func DirectionFromOneHot(action []int) (Direction, error) {
	if len(action) != len(AllDirections) {
		return Up, fmt.Errorf("one-hot action of length %d: %w", len(action), ErrInvalidDirection)
	}
	found := -1
	for i, v := range action {
		if v == 0 {
			continue
		}
		if v != 1 || found != -1 {
			return Up, fmt.Errorf("one-hot action %v: %w", action, ErrInvalidDirection)
		}
		found = i
	}
	if found == -1 {
		return Up, fmt.Errorf("one-hot action %v: %w", action, ErrInvalidDirection)
	}
	return Direction(found), nil
}

// ParseDirection parses the lower-case direction name
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "u":
		return Up, nil
	case "right", "r":
		return Right, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	default:
		return Up, fmt.Errorf("direction %q: %w", s, ErrInvalidDirection)
	}
}
