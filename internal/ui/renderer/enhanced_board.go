package renderer

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

var (
	ValidMoveColor        = color.RGBA{100, 255, 100, 90}  // Semi-transparent green
	HoverColor            = color.RGBA{255, 255, 255, 64}  // Semi-transparent white
	InvalidMoveColor      = color.RGBA{255, 100, 100, 64}  // Semi-transparent red
	ToasterCandidateColor = color.RGBA{170, 80, 200, 70}   // Semi-transparent purple
	ButterCandidateColor  = color.RGBA{240, 210, 60, 70}   // Semi-transparent yellow
	MoldPathColor         = color.RGBA{70, 190, 70, 160}   // Semi-transparent green
	HiddenBarrierColor    = color.RGBA{200, 200, 200, 110} // Semi-transparent gray
)

// EnhancedBoardRenderer adds hint and debug overlays on top of BoardRenderer
type EnhancedBoardRenderer struct {
	*BoardRenderer

	// Hover state
	hoverX, hoverY int
	hasHover       bool

	// Valid moves from the player's node
	validMoves map[core.Position]bool

	showHints    bool
	revealHidden bool
}

func NewEnhancedBoardRenderer(cellSize, offset int, f font.Face) *EnhancedBoardRenderer {
	return &EnhancedBoardRenderer{
		BoardRenderer: NewBoardRenderer(cellSize, offset, f),
		validMoves:    make(map[core.Position]bool),
	}
}

// SetHover records the cursor's pixel position
func (ebr *EnhancedBoardRenderer) SetHover(x, y int) {
	ebr.hoverX = x
	ebr.hoverY = y
	ebr.hasHover = true
}

// SetValidMoves caches the nodes reachable from player with the given actions
func (ebr *EnhancedBoardRenderer) SetValidMoves(player core.Position, valid []core.Direction) {
	ebr.validMoves = make(map[core.Position]bool, len(valid))
	for _, d := range valid {
		ebr.validMoves[player.Move(d)] = true
	}
}

// SetShowHints toggles the candidate and mold path overlays
func (ebr *EnhancedBoardRenderer) SetShowHints(show bool) { ebr.showHints = show }

// ShowHints reports whether hint overlays are drawn
func (ebr *EnhancedBoardRenderer) ShowHints() bool { return ebr.showHints }

// SetRevealHidden toggles drawing of the true layout
func (ebr *EnhancedBoardRenderer) SetRevealHidden(reveal bool) { ebr.revealHidden = reveal }

// RevealHidden reports whether the true layout is drawn
func (ebr *EnhancedBoardRenderer) RevealHidden() bool { return ebr.revealHidden }

func (ebr *EnhancedBoardRenderer) Draw(screen *ebiten.Image, s game.Snapshot) {
	// First draw the base board
	ebr.BoardRenderer.Draw(screen, s)

	// Then draw overlays
	ebr.drawOverlays(screen, s)
}

func (ebr *EnhancedBoardRenderer) drawOverlays(screen *ebiten.Image, s game.Snapshot) {
	if ebr.showHints {
		if !s.KnowToaster {
			for _, p := range s.ToasterCandidates {
				ebr.drawNodeOverlay(screen, p, ToasterCandidateColor)
			}
		}
		if !s.KnowButter {
			for _, p := range s.ButterCandidates {
				ebr.drawNodeOverlay(screen, p, ButterCandidateColor)
			}
		}
		for _, p := range s.MoldPath {
			ebr.drawMarker(screen, p, MoldPathColor, 0.08)
		}
	}

	if ebr.revealHidden {
		known := core.NewPositionSet(s.KnownBarriers...)
		for _, b := range s.Hidden.Barriers {
			if !known.Contains(b) {
				ebr.drawWall(screen, b, HiddenBarrierColor, 3)
			}
		}
		ebr.drawMarker(screen, s.Hidden.Toaster, ToasterColor, 0.2)
		ebr.drawMarker(screen, s.Hidden.Butter, ButterColor, 0.2)
	}

	for p := range ebr.validMoves {
		ebr.drawNodeOverlay(screen, p, ValidMoveColor)
	}

	// Draw hover highlight
	if ebr.hasHover {
		if p, ok := ebr.NodeAt(ebr.hoverX, ebr.hoverY); ok && p.X < s.Width && p.Y < s.Height {
			if ebr.validMoves[p] || p == s.Player {
				ebr.drawNodeOverlay(screen, p, HoverColor)
			} else {
				ebr.drawNodeOverlay(screen, p, InvalidMoveColor)
			}
		}
	}
}

func (ebr *EnhancedBoardRenderer) drawNodeOverlay(screen *ebiten.Image, p core.Position, c color.Color) {
	sx, sy := ebr.NodeOrigin(p)
	size := float32(ebr.cellSize)

	vector.DrawFilledRect(screen, sx, sy, size, size, c, false)
}
