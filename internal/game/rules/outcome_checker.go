package rules

import (
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/rs/zerolog"
)

// Positions is the slice of entity state the outcome checker looks at
type Positions struct {
	Player  core.Position
	Mold    core.Position
	Toaster core.Position
	Butter  core.Position
}

// OutcomeChecker handles game over detection
type OutcomeChecker struct {
	logger zerolog.Logger
}

// NewOutcomeChecker creates a new outcome checker
func NewOutcomeChecker(logger zerolog.Logger) *OutcomeChecker {
	return &OutcomeChecker{
		logger: logger.With().Str("component", "OutcomeChecker").Logger(),
	}
}

// Check returns the terminal outcome for the given positions, or OutcomeNone.
// Conditions are checked in priority order so at most one outcome applies.
// Ties are never produced here; they are forced by the engine.
func (oc *OutcomeChecker) Check(p Positions) Outcome {
	outcome := OutcomeNone
	switch {
	case p.Player == p.Butter:
		outcome = OutcomePlayerReachedButter
	case p.Mold == p.Toaster:
		outcome = OutcomeMoldReachedToaster
	case p.Player == p.Mold:
		outcome = OutcomePlayerHitMold
	case p.Mold == p.Butter:
		outcome = OutcomeMoldReachedButter
	}

	if outcome.IsTerminal() {
		oc.logger.Info().
			Str("outcome", outcome.String()).
			Str("player", p.Player.String()).
			Str("mold", p.Mold.String()).
			Msg("Terminal condition reached")
	}
	return outcome
}
