package game

import (
	"fmt"
	"strings"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
)

// This file contains the terminal rendering of the maze.

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorGray   = "\033[90m"
)

const (
	PlayerSymbol    = "P"
	MoldSymbol      = "M"
	ToasterSymbol   = "T"
	ButterSymbol    = "B"
	HeatSymbol      = "h"
	CandidateSymbol = "?"
	VisitedSymbol   = "·"
	NodeSymbol      = "∘"
	BarrierSymbol   = "█"
	HiddenSymbol    = "░"
)

// Board returns a string representation of the maze as the player knows it.
// With revealHidden the true goals and unrevealed barriers are drawn too.
func (e *Engine) Board(revealHidden bool) string {
	return RenderSnapshot(e.View(), revealHidden)
}

// RenderSnapshot draws a snapshot in slot space, two columns per slot
func RenderSnapshot(s Snapshot, revealHidden bool) string {
	known := core.NewPositionSet(s.KnownBarriers...)
	hidden := core.NewPositionSet(s.Hidden.Barriers...)
	heat := core.NewPositionSet(s.KnownHeat...)
	visited := core.NewPositionSet(s.Visited...)
	butter := core.NewPositionSet(s.ButterCandidates...)

	var sb strings.Builder
	sb.Grow((s.Width*12 + 8) * (s.Height + 4))

	// Header row
	sb.WriteString("   ")
	for x := 0; x < s.Width; x++ {
		fmt.Fprintf(&sb, "%2d", x)
	}
	sb.WriteString("\n")

	for y := 0; y < s.Height; y++ {
		fmt.Fprintf(&sb, "%2d ", y)
		for x := 0; x < s.Width; x++ {
			p := core.Position{X: x, Y: y}
			color, symbol := cellDisplay(s, p, revealHidden, known, hidden, heat, visited, butter)
			sb.WriteString(color)
			sb.WriteString(" ")
			sb.WriteString(symbol)
			sb.WriteString(ColorReset)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nepisode=%d frame=%d reward=%.0f phase=%s", s.Episode, s.Frame, s.Reward, s.Phase)
	if s.Outcome.IsTerminal() {
		fmt.Fprintf(&sb, " outcome=%s(%d)", s.Outcome, s.Outcome.Code())
	}
	fmt.Fprintf(&sb, "\ntoaster: known=%t candidates=%d  butter: known=%t candidates=%d\n",
		s.KnowToaster, len(s.ToasterCandidates), s.KnowButter, len(s.ButterCandidates))
	sb.WriteString(PlayerSymbol + "=player " + MoldSymbol + "=mold " + HeatSymbol + "=heat " +
		CandidateSymbol + "=butter candidate " + BarrierSymbol + "=barrier\n")

	return sb.String()
}

func cellDisplay(s Snapshot, p core.Position, revealHidden bool, known, hidden, heat, visited, butter *core.PositionSet) (string, string) {
	switch {
	case p.IsWallSlot():
		if known.Contains(p) {
			return ColorRed, BarrierSymbol
		}
		if revealHidden && hidden.Contains(p) {
			return ColorGray, HiddenSymbol
		}
		return "", " "
	case !p.IsNode():
		return "", " "
	case p == s.Player:
		return ColorBlue, PlayerSymbol
	case p == s.Mold:
		return ColorGreen, MoldSymbol
	case revealHidden && p == s.Hidden.Toaster:
		return ColorPurple, ToasterSymbol
	case revealHidden && p == s.Hidden.Butter:
		return ColorYellow, ButterSymbol
	case heat.Contains(p):
		return ColorRed, HeatSymbol
	case butter.Contains(p):
		return ColorYellow, CandidateSymbol
	case visited.Contains(p):
		return ColorCyan, VisitedSymbol
	default:
		return ColorGray, NodeSymbol
	}
}
