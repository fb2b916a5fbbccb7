package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

// Command is a non-movement request from the keyboard
type Command int

const (
	CommandNone Command = iota
	CommandReset
	CommandToggleHints
	CommandToggleReveal
	CommandRandomMove
	CommandForceTie
)

var directionKeys = map[ebiten.Key]core.Direction{
	ebiten.KeyArrowUp:    core.Up,
	ebiten.KeyW:          core.Up,
	ebiten.KeyArrowRight: core.Right,
	ebiten.KeyD:          core.Right,
	ebiten.KeyArrowDown:  core.Down,
	ebiten.KeyS:          core.Down,
	ebiten.KeyArrowLeft:  core.Left,
	ebiten.KeyA:          core.Left,
}

var commandKeys = map[ebiten.Key]Command{
	ebiten.KeyR:     CommandReset,
	ebiten.KeyH:     CommandToggleHints,
	ebiten.KeyV:     CommandToggleReveal,
	ebiten.KeySpace: CommandRandomMove,
	ebiten.KeyT:     CommandForceTie,
}

// Handler turns keyboard and mouse input into at most one pending move and
// one pending command per frame
type Handler struct {
	// Mouse state
	mouseX, mouseY int

	pendingMove    core.Direction
	hasPendingMove bool
	pendingCommand Command

	// nodeAt maps a screen pixel to a node; set by the game
	nodeAt func(x, y int) (core.Position, bool)
	// player returns the node the player stands on
	player func() core.Position
}

func NewHandler() *Handler {
	return &Handler{}
}

// SetBoardMapping connects mouse clicks to the board geometry
func (h *Handler) SetBoardMapping(nodeAt func(x, y int) (core.Position, bool), player func() core.Position) {
	h.nodeAt = nodeAt
	h.player = player
}

func (h *Handler) Update() {
	// Update mouse position
	h.mouseX, h.mouseY = GetCursorPosition()

	if IsLeftClickJustPressed() {
		h.handleLeftClick()
	}

	h.handleKeyboard()
}

func (h *Handler) handleLeftClick() {
	if h.nodeAt == nil || h.player == nil {
		return
	}
	target, ok := h.nodeAt(h.mouseX, h.mouseY)
	if !ok {
		return
	}
	if d, ok := DirectionToward(h.player(), target); ok {
		h.setMove(d)
	}
}

func (h *Handler) handleKeyboard() {
	for key, d := range directionKeys {
		if inpututil.IsKeyJustPressed(key) {
			h.setMove(d)
		}
	}
	for key, cmd := range commandKeys {
		if inpututil.IsKeyJustPressed(key) {
			h.pendingCommand = cmd
		}
	}
}

func (h *Handler) setMove(d core.Direction) {
	h.pendingMove = d
	h.hasPendingMove = true
}

// TakeMove returns and clears the pending move
func (h *Handler) TakeMove() (core.Direction, bool) {
	d, ok := h.pendingMove, h.hasPendingMove
	h.hasPendingMove = false
	return d, ok
}

// TakeCommand returns and clears the pending command
func (h *Handler) TakeCommand() Command {
	cmd := h.pendingCommand
	h.pendingCommand = CommandNone
	return cmd
}

// GetHover returns the cursor position in screen pixels
func (h *Handler) GetHover() (int, int) {
	return h.mouseX, h.mouseY
}

// DirectionToward returns the direction from one node to an orthogonally
// adjacent node
func DirectionToward(from, to core.Position) (core.Direction, bool) {
	for _, d := range []core.Direction{core.Up, core.Right, core.Down, core.Left} {
		if from.Move(d) == to {
			return d, true
		}
	}
	return core.Up, false
}
