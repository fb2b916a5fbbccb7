package testutil

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/mapgen"
)

// Pos is shorthand for a slot-space position
func Pos(x, y int) core.Position {
	return core.Position{X: x, Y: y}
}

// OpenLayout is a barrier-free layout with the given goals
func OpenLayout(toaster, butter core.Position) mapgen.Layout {
	return mapgen.Layout{Toaster: toaster, Butter: butter}
}

// EnclosedStartLayout walls the player's start cell in on both open sides
func EnclosedStartLayout(toaster, butter core.Position) mapgen.Layout {
	return mapgen.Layout{
		Barriers: []core.Position{Pos(1, 0), Pos(0, 1)},
		Toaster:  toaster,
		Butter:   butter,
	}
}

// CorridorLayout puts a barrier on every wall slot below the top row, so the
// player can only walk right along y=0 until it learns otherwise
func CorridorLayout(width int, toaster, butter core.Position) mapgen.Layout {
	var barriers []core.Position
	for x := 0; x < width; x += 2 {
		barriers = append(barriers, Pos(x, 1))
	}
	return mapgen.Layout{Barriers: barriers, Toaster: toaster, Butter: butter}
}
