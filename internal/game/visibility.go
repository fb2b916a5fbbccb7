package game

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
)

// This file contains the barrier visibility rules: the player only learns
// about a barrier when standing next to it.

// revealBarriers marks every barrier on a wall slot adjacent to the player as
// known and publishes the newly revealed ones
func (e *Engine) revealBarriers() {
	player := e.state.Player.Position
	for _, d := range core.AllDirections {
		wall := player.WallToward(d)
		if !e.grid.InBounds(wall) || !e.isBarrier(wall) {
			continue
		}
		if e.state.KnownBarriers.Add(wall) {
			e.logger.Debug().Str("barrier", wall.String()).Msg("Barrier revealed")
			e.eventBus.Publish(events.NewBarrierRevealedEvent(e.state.Episode, e.state.Frame, wall))
		}
	}
}

func (e *Engine) isBarrier(p core.Position) bool {
	for _, b := range e.state.Layout.Barriers {
		if b == p {
			return true
		}
	}
	return false
}
