package game

import (
	"fmt"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/pursuer"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rules"
	"github.com/rs/zerolog"
)

// TurnProcessor handles the orchestration of a single step
type TurnProcessor struct {
	engine *Engine
	logger zerolog.Logger
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(engine *Engine) *TurnProcessor {
	return &TurnProcessor{
		engine: engine,
		logger: engine.logger,
	}
}

// ProcessStep executes a complete step: the player's move, deduction, the
// mold's reply and the terminal checks. A rejected action leaves the state
// untouched.
func (tp *TurnProcessor) ProcessStep(d core.Direction) (StepResult, error) {
	e := tp.engine

	if err := tp.validateEpisodeState(); err != nil {
		return e.result(0), err
	}
	if err := tp.validateAction(d); err != nil {
		return e.result(0), err
	}

	var prevObs []float32
	if e.collector != nil {
		prevObs = e.Observe()
	}

	before := e.state.Reward
	e.state.Frame++
	stepLogger := tp.logger.With().Int("episode", e.state.Episode).Int("frame", e.state.Frame).Logger()
	stepLogger.Debug().Str("action", d.String()).Msg("Starting step")

	tp.processPlayerPhase(d, stepLogger)

	if !e.isDone() {
		tp.processMoldPhase(stepLogger)
	}

	if !e.isDone() && e.state.Frame > e.config.StepBudget {
		stepLogger.Debug().Int("step_budget", e.config.StepBudget).Msg("Step budget exhausted")
		e.diagnostics.BudgetTies++
		e.finish(OutcomeTie)
	}

	e.stateMachine.GetContext().Frames = e.state.Frame
	delta := e.state.Reward - before

	e.eventBus.Publish(events.NewStepProcessedEvent(
		e.state.Episode,
		e.state.Frame,
		d.String(),
		e.state.Player.Position,
		delta,
		e.state.Reward,
		e.isDone(),
	))
	tp.collectExperience(prevObs, d, delta)

	stepLogger.Debug().Float64("delta", delta).Float64("total", e.state.Reward).Msg("Step finished")
	return e.result(delta), nil
}

// validateEpisodeState ensures the episode can receive actions
func (tp *TurnProcessor) validateEpisodeState() error {
	e := tp.engine
	if e.isDone() {
		tp.logger.Warn().
			Int("episode", e.state.Episode).
			Int("frame", e.state.Frame).
			Msg("Attempted to step an episode that is already over")
		return ErrEpisodeOver
	}

	currentPhase := e.stateMachine.CurrentPhase()
	if !currentPhase.CanReceiveActions() {
		return fmt.Errorf("episode is in %s phase and cannot receive actions", currentPhase)
	}
	return nil
}

// validateAction rejects directions that are malformed or blocked
func (tp *TurnProcessor) validateAction(d core.Direction) error {
	e := tp.engine
	if e.validator.IsLegal(e.state.Player.Position, d, e.state.KnownBarriers) {
		return nil
	}

	reason := "blocked"
	if !d.IsValid() {
		reason = "unknown direction"
	}
	e.diagnostics.Rejected++
	e.eventBus.Publish(events.NewActionRejectedEvent(e.state.Episode, e.state.Frame, d.String(), reason))
	return fmt.Errorf("%w: %s from %s (%s)", ErrInvalidAction, d, e.state.Player.Position, reason)
}

// processPlayerPhase moves the player and scores what it learned
func (tp *TurnProcessor) processPlayerPhase(d core.Direction, stepLogger zerolog.Logger) {
	e := tp.engine
	player := &e.state.Player
	prev := player.Position
	player.Facing = d

	if player.Waiting {
		e.diagnostics.SkippedMoves++
		stepLogger.Debug().Str("player", prev.String()).Msg("Player held by the toaster")
	} else {
		player.Position = prev.Move(d)
		revisit := !player.Visited.Add(player.Position)
		e.apply(e.shaper.PlayerVisit(revisit))
	}

	e.revealBarriers()
	tp.deduce()

	layout := e.state.Layout
	e.apply(e.shaper.PlayerMove(prev, player.Position, layout.Toaster, e.state.Mold.Position, layout.Butter)...)

	tp.checkOutcome()
}

// processMoldPhase runs the pursuer's turn
func (tp *TurnProcessor) processMoldPhase(stepLogger zerolog.Logger) {
	e := tp.engine
	mold := &e.state.Mold
	player := e.state.Player.Position
	layout := e.state.Layout

	prev := mold.Position
	next, dir, moved := e.policy.NextPosition(prev, player)
	if !moved {
		e.diagnostics.MoldStalls++
	}
	mold.Position = next
	revisit := !mold.Visited.Add(next)
	e.apply(e.shaper.MoldVisit(revisit))
	mold.Path = pursuer.ProjectPath(next, player)

	e.apply(e.shaper.MoldMove(prev, next, layout.Toaster, player, layout.Butter)...)

	e.eventBus.Publish(events.NewMoldMovedEvent(e.state.Episode, e.state.Frame, prev, next, moved))
	stepLogger.Debug().
		Str("from", prev.String()).
		Str("to", next.String()).
		Str("direction", dir.String()).
		Bool("moved", moved).
		Msg("Mold moved")

	if tp.checkOutcome() {
		return
	}

	// The mold's new cell is public, so it narrows the candidates right away
	tp.deduce()

	if e.config.ToasterTrap && player == layout.Toaster {
		e.state.Player.Waiting = !e.state.Player.Waiting
	}
}

// deduce runs both trackers and scores their first-time discoveries
func (tp *TurnProcessor) deduce() {
	e := tp.engine
	player := e.state.Player.Position
	ep, frame := e.state.Episode, e.state.Frame

	tu := e.toaster.Update(player, e.state.Mold.Position)
	if tu.NewHeat {
		e.apply(e.shaper.HeatDiscovered())
		e.eventBus.Publish(events.NewHeatDiscoveredEvent(ep, frame, player, len(e.toaster.Candidates())))
	}
	if tu.BecameKnown {
		e.apply(e.shaper.ToasterKnown())
		location := e.toaster.Candidates()[0]
		e.eventBus.Publish(events.NewToasterDeducedEvent(ep, frame, location))
	}
	if tu.Conflict {
		e.diagnostics.ToasterConflicts++
		e.eventBus.Publish(events.NewDeductionConflictEvent(ep, frame, "toaster"))
	}

	bu := e.butter.Update(player, e.state.Mold.Visited)
	if bu.BecameKnown {
		e.apply(e.shaper.ButterKnown())
		location := e.butter.Candidates()[0]
		e.eventBus.Publish(events.NewButterDeducedEvent(ep, frame, location))
	}
	if bu.Conflict {
		e.diagnostics.ButterConflicts++
		e.eventBus.Publish(events.NewDeductionConflictEvent(ep, frame, "butter"))
	}
}

// checkOutcome ends the episode when a win or loss condition holds
func (tp *TurnProcessor) checkOutcome() bool {
	e := tp.engine
	outcome := e.outcomes.Check(rules.Positions{
		Player:  e.state.Player.Position,
		Mold:    e.state.Mold.Position,
		Toaster: e.state.Layout.Toaster,
		Butter:  e.state.Layout.Butter,
	})
	if !outcome.IsTerminal() {
		return false
	}
	e.finish(outcome)
	return true
}

// collectExperience hands the transition to the collector if one is set
func (tp *TurnProcessor) collectExperience(prevObs []float32, d core.Direction, delta float64) {
	e := tp.engine
	if e.collector == nil {
		return
	}

	e.collector.OnStep(StepRecord{
		Episode:   e.state.Episode,
		Frame:     e.state.Frame,
		State:     prevObs,
		Action:    d,
		Reward:    delta,
		NextState: e.Observe(),
		Done:      e.isDone(),
		Outcome:   e.state.Outcome,
		NextMask:  e.ActionMask(),
	})

	if e.isDone() {
		tp.logger.Debug().Int("episode", e.state.Episode).Msg("Episode ended, notifying experience collector")
		e.collector.OnEpisodeEnd(e.state.Episode, e.state.Outcome, e.state.Reward)
	}
}
