package renderer

import (
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

// -----------------------------------------------------------------------------
// Colour definitions
// -----------------------------------------------------------------------------

var (
	BackgroundColor = color.RGBA{40, 40, 40, 255}
	NodeColor       = color.RGBA{70, 70, 70, 255}
	VisitedColor    = color.RGBA{60, 90, 110, 255}
	GridLineColor   = color.RGBA{95, 95, 95, 255}
	BarrierColor    = color.RGBA{220, 60, 60, 255}
	HeatColor       = color.RGBA{230, 120, 40, 255}
	PlayerColor     = color.RGBA{60, 120, 230, 255}
	MoldColor       = color.RGBA{70, 190, 70, 255}
	ToasterColor    = color.RGBA{170, 80, 200, 255}
	ButterColor     = color.RGBA{240, 210, 60, 255}
	OracleTextColor = color.RGBA{220, 220, 220, 255}
)

// -----------------------------------------------------------------------------
// Renderer
// -----------------------------------------------------------------------------

// BoardRenderer draws a game.Snapshot in node space: one square per node and
// barriers as thick lines on the shared edge between two nodes.
type BoardRenderer struct {
	cellSize    int
	offset      int
	defaultFont font.Face
}

// NewBoardRenderer returns a renderer ready to use.
func NewBoardRenderer(cellSize, offset int, f font.Face) *BoardRenderer {
	return &BoardRenderer{cellSize: cellSize, offset: offset, defaultFont: f}
}

// CellSize is the side of one node square in pixels
func (br *BoardRenderer) CellSize() int { return br.cellSize }

// Offset is the margin around the board in pixels
func (br *BoardRenderer) Offset() int { return br.offset }

// BoardSize is the pixel size of the board for a width×height slot grid,
// margins included
func (br *BoardRenderer) BoardSize(width, height int) (int, int) {
	nw, nh := (width+1)/2, (height+1)/2
	return nw*br.cellSize + 2*br.offset, nh*br.cellSize + 2*br.offset
}

// NodeOrigin returns the top-left pixel of the node at slot position p
func (br *BoardRenderer) NodeOrigin(p core.Position) (float32, float32) {
	return float32(br.offset + (p.X/2)*br.cellSize), float32(br.offset + (p.Y/2)*br.cellSize)
}

// NodeAt maps a screen pixel to the node under it
func (br *BoardRenderer) NodeAt(x, y int) (core.Position, bool) {
	if x < br.offset || y < br.offset {
		return core.Position{}, false
	}
	nx := (x - br.offset) / br.cellSize
	ny := (y - br.offset) / br.cellSize
	return core.Position{X: nx * 2, Y: ny * 2}, true
}

// Draw renders the player's knowledge of the maze
func (br *BoardRenderer) Draw(screen *ebiten.Image, s game.Snapshot) {
	visited := core.NewPositionSet(s.Visited...)
	size := float32(br.cellSize)

	// ---------------------------------------------------------------------
	// Node squares
	// ---------------------------------------------------------------------
	for y := 0; y < s.Height; y += 2 {
		for x := 0; x < s.Width; x += 2 {
			p := core.Position{X: x, Y: y}
			sx, sy := br.NodeOrigin(p)

			fill := NodeColor
			if visited.Contains(p) {
				fill = VisitedColor
			}
			vector.DrawFilledRect(screen, sx, sy, size, size, fill, false)
			vector.StrokeRect(screen, sx, sy, size, size, 1, GridLineColor, false)

			// oracle hint on cells the player has stood on
			if visited.Contains(p) && br.defaultFont != nil && y < len(s.Oracle) && x < len(s.Oracle[y]) {
				hint := strconv.Itoa(s.Oracle[y][x])
				text.Draw(screen, hint, br.defaultFont, int(sx)+3, int(sy)+13, OracleTextColor)
			}
		}
	}

	// ---------------------------------------------------------------------
	// Known barriers
	// ---------------------------------------------------------------------
	for _, b := range s.KnownBarriers {
		br.drawWall(screen, b, BarrierColor, 5)
	}

	// ---------------------------------------------------------------------
	// Entities
	// ---------------------------------------------------------------------
	for _, h := range s.KnownHeat {
		br.drawMarker(screen, h, HeatColor, 0.15)
	}
	if s.KnowToaster && len(s.ToasterCandidates) == 1 {
		br.drawMarker(screen, s.ToasterCandidates[0], ToasterColor, 0.3)
	}
	if s.KnowButter && len(s.ButterCandidates) == 1 {
		br.drawMarker(screen, s.ButterCandidates[0], ButterColor, 0.3)
	}

	br.drawMarker(screen, s.Mold, MoldColor, 0.38)
	br.drawMarker(screen, s.Player, PlayerColor, 0.38)
	br.drawFacing(screen, s.Player, s.Facing)
}

// drawWall draws the wall slot w as a line along the edge it separates
func (br *BoardRenderer) drawWall(screen *ebiten.Image, w core.Position, c color.Color, width float32) {
	size := float32(br.cellSize)
	off := float32(br.offset)
	switch {
	case w.X%2 == 1 && w.Y%2 == 0:
		// between horizontally adjacent nodes
		x := off + float32((w.X+1)/2)*size
		y := off + float32(w.Y/2)*size
		vector.StrokeLine(screen, x, y, x, y+size, width, c, false)
	case w.X%2 == 0 && w.Y%2 == 1:
		x := off + float32(w.X/2)*size
		y := off + float32((w.Y+1)/2)*size
		vector.StrokeLine(screen, x, y, x+size, y, width, c, false)
	}
}

// drawMarker draws a filled circle of radius frac*cellSize centred on node p
func (br *BoardRenderer) drawMarker(screen *ebiten.Image, p core.Position, c color.Color, frac float32) {
	sx, sy := br.NodeOrigin(p)
	half := float32(br.cellSize) / 2
	vector.DrawFilledCircle(screen, sx+half, sy+half, frac*float32(br.cellSize), c, true)
}

// drawFacing draws a short tick from the player's centre toward its facing
func (br *BoardRenderer) drawFacing(screen *ebiten.Image, p core.Position, d core.Direction) {
	sx, sy := br.NodeOrigin(p)
	half := float32(br.cellSize) / 2
	cx, cy := sx+half, sy+half
	step := core.Position{}.WallToward(d)
	tip := half * 0.8
	vector.StrokeLine(screen, cx, cy, cx+float32(step.X)*tip, cy+float32(step.Y)*tip, 3, color.White, true)
}
