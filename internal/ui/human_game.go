package ui

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/ui/input"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/ui/renderer"
)

// HumanGame lets a person play with the arrow keys or mouse. Rejected moves
// count against the engine's retry budget like a learner's would.
type HumanGame struct {
	engine        *game.Engine
	boardRenderer *renderer.EnhancedBoardRenderer
	inputHandler  *input.Handler
	defaultFont   font.Face
	rng           *rand.Rand

	rejected int

	// UI state
	statusMessage string
	messageTimer  int
}

func NewHumanGame(engine *game.Engine) (*HumanGame, error) {
	if engine == nil {
		return nil, fmt.Errorf("human game needs an engine")
	}
	g := &HumanGame{
		engine:       engine,
		defaultFont:  basicfont.Face7x13,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		inputHandler: input.NewHandler(),
	}

	g.boardRenderer = renderer.NewEnhancedBoardRenderer(CellSize(), BoardOffset(), g.defaultFont)
	g.boardRenderer.SetShowHints(ShowHints())
	g.boardRenderer.SetRevealHidden(RevealHidden())
	g.inputHandler.SetBoardMapping(g.boardRenderer.NodeAt, func() core.Position {
		return g.engine.View().Player
	})
	return g, nil
}

func (g *HumanGame) Update() error {
	g.inputHandler.Update()

	if g.messageTimer > 0 {
		g.messageTimer--
	}

	hx, hy := g.inputHandler.GetHover()
	g.boardRenderer.SetHover(hx, hy)

	switch g.inputHandler.TakeCommand() {
	case input.CommandReset:
		g.engine.Reset(g.engine.EpisodeID() + 1)
		g.rejected = 0
		g.showMessage(fmt.Sprintf("Episode %d", g.engine.EpisodeID()), 60)
	case input.CommandToggleHints:
		g.boardRenderer.SetShowHints(!g.boardRenderer.ShowHints())
	case input.CommandToggleReveal:
		g.boardRenderer.SetRevealHidden(!g.boardRenderer.RevealHidden())
	case input.CommandRandomMove:
		if d, ok := game.RandomValidAction(g.engine, g.rng); ok && !g.engine.IsDone() {
			g.applyMove(d)
		}
	case input.CommandForceTie:
		if !g.engine.IsDone() {
			g.engine.ForceTie("requested by player")
			g.showMessage("Episode forced to a tie", 120)
		}
	}

	g.boardRenderer.SetValidMoves(g.engine.View().Player, g.engine.ValidActions())

	if g.engine.IsDone() {
		g.inputHandler.TakeMove()
		return nil
	}

	if g.engine.IsActionImpossible() {
		g.engine.ForceTie("no valid action")
		g.showMessage("Boxed in: tie", 120)
		return nil
	}

	if d, ok := g.inputHandler.TakeMove(); ok {
		g.applyMove(d)
	}
	return nil
}

func (g *HumanGame) applyMove(d core.Direction) {
	result, err := g.engine.Step(d)
	switch {
	case errors.Is(err, game.ErrInvalidAction):
		g.rejected++
		if g.rejected >= g.engine.RetryBudget() {
			g.engine.ForceTie("retry budget exhausted")
			g.showMessage("Too many blocked moves: tie", 120)
			return
		}
		g.showMessage(fmt.Sprintf("Blocked (%d/%d)", g.rejected, g.engine.RetryBudget()), 60)
	case err != nil:
		g.showMessage(err.Error(), 60)
	default:
		g.rejected = 0
		if result.Done {
			g.showMessage(fmt.Sprintf("%s  total %.0f  (R to restart)", result.Outcome, result.Total), 600)
		}
	}
}

func (g *HumanGame) showMessage(msg string, duration int) {
	g.statusMessage = msg
	g.messageTimer = duration
}

func (g *HumanGame) Draw(screen *ebiten.Image) {
	screen.Fill(renderer.BackgroundColor)

	s := g.engine.View()
	g.boardRenderer.Draw(screen, s)

	message := ""
	if g.messageTimer > 0 {
		message = g.statusMessage
	}
	drawHUD(screen, g.defaultFont, s, message)

	help := "Move: arrows  R: reset  H: hints  V: reveal"
	text.Draw(screen, help, g.defaultFont, 5, screen.Bounds().Dy()-5, color.Gray{150})
}

func (g *HumanGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return ScreenSize(g.engine)
}
