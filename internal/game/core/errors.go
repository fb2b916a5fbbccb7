package core

import "errors"

var (
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrNotNode           = errors.New("position is not a node cell")
	ErrNotWallSlot       = errors.New("position is not a wall slot")
	ErrOutOfBounds       = errors.New("position out of bounds")
)
