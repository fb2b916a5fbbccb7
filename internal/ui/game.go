package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/ui/renderer"
)

// hudHeight is the space below the board reserved for status text
const hudHeight = 80

// UI configuration functions
func CellSize() int {
	return config.Get().UI.Board.CellSize
}

func BoardOffset() int {
	return config.Get().UI.Board.Offset
}

func ShowHints() bool {
	return config.Get().UI.Board.ShowHints
}

func RevealHidden() bool {
	return config.Get().Development.RevealHidden
}

// ScreenSize is the window size needed for the engine's grid
func ScreenSize(e *game.Engine) (int, int) {
	br := renderer.NewBoardRenderer(CellSize(), BoardOffset(), nil)
	g := e.Grid()
	w, h := br.BoardSize(g.Width, g.Height)
	if w < 320 {
		w = 320
	}
	return w, h + hudHeight
}

// Chooser picks the next action for a watched episode
type Chooser func(e *game.Engine) core.Direction

// UIGame plays episodes automatically with a Chooser, one step every
// stepInterval frames, and restarts after a short pause when an episode ends
type UIGame struct {
	engine        *game.Engine
	boardRenderer *renderer.EnhancedBoardRenderer
	defaultFont   font.Face
	choose        Chooser

	stepInterval int
	turnTimer    int
	lastResult   string
}

// NewUIGame creates a new Ebitengine game instance.
func NewUIGame(engine *game.Engine, choose Chooser, stepInterval int) (*UIGame, error) {
	if engine == nil || choose == nil {
		return nil, fmt.Errorf("ui game needs an engine and a chooser")
	}
	if stepInterval <= 0 {
		stepInterval = 1
	}
	g := &UIGame{
		engine:       engine,
		defaultFont:  basicfont.Face7x13,
		choose:       choose,
		stepInterval: stepInterval,
	}
	g.boardRenderer = renderer.NewEnhancedBoardRenderer(CellSize(), BoardOffset(), g.defaultFont)
	g.boardRenderer.SetShowHints(ShowHints())
	g.boardRenderer.SetRevealHidden(RevealHidden())
	return g, nil
}

// Update proceeds the game state.
func (g *UIGame) Update() error {
	g.turnTimer++
	if g.engine.IsDone() {
		// linger on the final board before the next episode
		if g.turnTimer >= g.stepInterval*4 {
			g.turnTimer = 0
			g.engine.Reset(g.engine.EpisodeID() + 1)
		}
		return nil
	}
	if g.turnTimer < g.stepInterval {
		return nil
	}
	g.turnTimer = 0

	_, result, err := game.StepWithRetries(g.engine, func() core.Direction { return g.choose(g.engine) })
	if err != nil {
		return err
	}
	if result.Done {
		g.lastResult = fmt.Sprintf("Episode %d: %s (%.0f)", g.engine.EpisodeID(), result.Outcome, result.Total)
	}
	return nil
}

// Draw renders the game screen.
func (g *UIGame) Draw(screen *ebiten.Image) {
	screen.Fill(renderer.BackgroundColor)

	s := g.engine.View()
	g.boardRenderer.Draw(screen, s)
	drawHUD(screen, g.defaultFont, s, g.lastResult)
}

// Layout defines the Ebitengine screen size.
func (g *UIGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return ScreenSize(g.engine)
}

// drawHUD writes episode status under the board
func drawHUD(screen *ebiten.Image, f font.Face, s game.Snapshot, message string) {
	y := screen.Bounds().Dy() - hudHeight + 15

	status := fmt.Sprintf("Episode %d  Frame %d  Reward %.0f  %s", s.Episode, s.Frame, s.Reward, s.Phase)
	text.Draw(screen, status, f, 5, y, color.White)

	knowledge := fmt.Sprintf("Toaster: %d candidates  Butter: %d candidates", len(s.ToasterCandidates), len(s.ButterCandidates))
	if s.KnowToaster {
		knowledge = "Toaster: found"
		if s.KnowButter {
			knowledge += "  Butter: found"
		} else {
			knowledge += fmt.Sprintf("  Butter: %d candidates", len(s.ButterCandidates))
		}
	} else if s.KnowButter {
		knowledge = fmt.Sprintf("Toaster: %d candidates  Butter: found", len(s.ToasterCandidates))
	}
	text.Draw(screen, knowledge, f, 5, y+15, color.Gray{200})

	if s.Outcome.IsTerminal() {
		text.Draw(screen, fmt.Sprintf("Outcome: %s", s.Outcome), f, 5, y+30, color.RGBA{255, 220, 120, 255})
	}
	if message != "" {
		text.Draw(screen, message, f, 5, y+45, color.White)
	}
}
