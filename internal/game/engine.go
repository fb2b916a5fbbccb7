package game

import (
	"context"
	"fmt"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/deduction"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/mapgen"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/pursuer"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rewards"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rules"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/states"
	"github.com/rs/zerolog"
)

// Engine runs episodes of the maze. It is not safe for concurrent use; callers
// that share an engine must serialize access.
type Engine struct {
	config    Config
	grid      core.Grid
	logger    zerolog.Logger
	generator *mapgen.Generator
	validator *rules.MoveValidator
	outcomes  *rules.OutcomeChecker
	policy    *pursuer.Policy
	shaper    *rewards.Shaper
	ledger    *rewards.Ledger
	encoder   *Encoder

	eventBus      *events.EventBus
	stateMachine  *states.StateMachine
	collector     ExperienceCollector
	turnProcessor *TurnProcessor

	state       EpisodeState
	toaster     *deduction.ToasterTracker
	butter      *deduction.ButterTracker
	diagnostics Diagnostics
}

// NewEngine creates an engine and resets it into episode 0
func NewEngine(cfg Config) (*Engine, error) {
	return NewEngineInitializer(cfg).Initialize(context.Background())
}

// NewEngineContext is NewEngine with a cancellable context
func NewEngineContext(ctx context.Context, cfg Config) (*Engine, error) {
	return NewEngineInitializer(cfg).Initialize(ctx)
}

// Reset draws a fresh layout and starts the given episode
func (e *Engine) Reset(episodeID int) {
	if err := e.ResetWithLayout(episodeID, e.generator.Generate()); err != nil {
		// Generated layouts always validate
		e.logger.Error().Err(err).Int("episode", episodeID).Msg("Reset with generated layout failed")
	}
}

// ResetWithLayout starts the given episode on a caller-supplied layout
func (e *Engine) ResetWithLayout(episodeID int, layout Layout) error {
	playerStart := core.Position{X: 0, Y: 0}
	moldStart := e.grid.Corner()

	if err := layout.Validate(e.grid, playerStart, moldStart); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if len(layout.Barriers) > e.config.Barriers {
		return fmt.Errorf("%w: %d barriers exceed capacity %d", ErrInvalidLayout, len(layout.Barriers), e.config.Barriers)
	}

	if err := e.stateMachine.Reset(episodeID); err != nil {
		return fmt.Errorf("state machine reset: %w", err)
	}

	e.state = EpisodeState{
		Episode: episodeID,
		Layout: Layout{
			Barriers: append([]core.Position(nil), layout.Barriers...),
			Toaster:  layout.Toaster,
			Butter:   layout.Butter,
		},
		Player: Player{
			Position: playerStart,
			Facing:   core.Right,
			Visited:  core.NewPositionSet(playerStart),
		},
		Mold: Mold{
			Position: moldStart,
			Visited:  core.NewPositionSet(moldStart),
		},
		KnownBarriers: core.NewPositionSet(),
	}
	e.ledger.Reset()
	e.diagnostics = Diagnostics{}

	e.toaster = deduction.NewToasterTracker(e.grid, layout.Toaster, e.logger)
	oracle := deduction.NewOracle(e.grid, layout.Butter)
	e.butter = deduction.NewButterTracker(e.grid, oracle, playerStart, e.logger)

	e.revealBarriers()

	if err := e.stateMachine.TransitionTo(states.PhaseRunning, "layout drawn"); err != nil {
		return fmt.Errorf("start episode: %w", err)
	}

	e.eventBus.Publish(events.NewEpisodeStartedEvent(episodeID, e.grid.Width, e.grid.Height, len(layout.Barriers)))
	e.logger.Debug().
		Int("episode", episodeID).
		Str("toaster", layout.Toaster.String()).
		Str("butter", layout.Butter.String()).
		Int("barriers", len(layout.Barriers)).
		Msg("Episode reset")
	return nil
}

// Step applies one player action and the mold's reply
func (e *Engine) Step(d core.Direction) (StepResult, error) {
	return e.turnProcessor.ProcessStep(d)
}

// ForceTie ends a running episode with a tie. Callers use it when no valid
// action exists or their retry budget ran out.
func (e *Engine) ForceTie(reason string) StepResult {
	if e.isDone() {
		return e.result(0)
	}
	before := e.state.Reward
	e.logger.Info().Int("episode", e.state.Episode).Str("reason", reason).Msg("Forcing tie")
	e.diagnostics.ForcedTies++
	e.finish(OutcomeTie)
	if e.collector != nil {
		e.collector.OnEpisodeEnd(e.state.Episode, OutcomeTie, e.state.Reward)
	}
	return e.result(e.state.Reward - before)
}

// IsActionValid reports whether d moves the player to an in-bounds node without
// crossing a known barrier
func (e *Engine) IsActionValid(d core.Direction) bool {
	if e.isDone() {
		return false
	}
	return e.validator.IsLegal(e.state.Player.Position, d, e.state.KnownBarriers)
}

// IsActionImpossible reports whether every direction is blocked by a known
// barrier or the grid edge
func (e *Engine) IsActionImpossible() bool {
	return e.validator.IsBoxedIn(e.state.Player.Position, e.state.KnownBarriers)
}

// ValidActions returns the valid directions in action-index order
func (e *Engine) ValidActions() []core.Direction {
	if e.isDone() {
		return nil
	}
	return e.validator.LegalDirections(e.state.Player.Position, e.state.KnownBarriers)
}

// ActionMask returns the validity of each action in action-index order
func (e *Engine) ActionMask() []bool {
	if e.isDone() {
		return make([]bool, len(core.AllDirections))
	}
	return e.validator.LegalActionMask(e.state.Player.Position, e.state.KnownBarriers)
}

// Observe encodes the current public state
func (e *Engine) Observe() []float32 {
	return e.encoder.Encode(e.View())
}

// ObservationLength is the constant size of Observe's result
func (e *Engine) ObservationLength() int { return e.encoder.Length() }

// Encoder returns the observation encoder
func (e *Engine) Encoder() *Encoder { return e.encoder }

// View returns a read-only copy of the state for renderers
func (e *Engine) View() Snapshot {
	s := e.state
	return Snapshot{
		Episode: s.Episode,
		Frame:   s.Frame,
		Phase:   e.stateMachine.CurrentPhase(),
		Outcome: s.Outcome,
		Reward:  s.Reward,

		Width:  e.grid.Width,
		Height: e.grid.Height,

		Player:        s.Player.Position,
		Facing:        s.Player.Facing,
		Visited:       s.Player.Visited.Items(),
		Mold:          s.Mold.Position,
		MoldVisited:   s.Mold.Visited.Items(),
		MoldPath:      append([]core.Position(nil), s.Mold.Path...),
		KnownBarriers: s.KnownBarriers.Items(),

		KnownHeat:         e.toaster.KnownHeat(),
		ToasterCandidates: e.toaster.Candidates(),
		KnowToaster:       e.toaster.Known(),
		ButterCandidates:  e.butter.Candidates(),
		KnowButter:        e.butter.Known(),
		Oracle:            e.butter.Oracle().Rows(),

		Hidden: Layout{
			Barriers: append([]core.Position(nil), s.Layout.Barriers...),
			Toaster:  s.Layout.Toaster,
			Butter:   s.Layout.Butter,
		},
	}
}

func (e *Engine) Grid() core.Grid                    { return e.grid }
func (e *Engine) Phase() states.EpisodePhase         { return e.stateMachine.CurrentPhase() }
func (e *Engine) Outcome() Outcome                   { return e.state.Outcome }
func (e *Engine) Reward() float64                    { return e.state.Reward }
func (e *Engine) Frame() int                         { return e.state.Frame }
func (e *Engine) EpisodeID() int                     { return e.state.Episode }
func (e *Engine) IsDone() bool                       { return e.isDone() }
func (e *Engine) Ledger() *rewards.Ledger            { return e.ledger }
func (e *Engine) Diagnostics() Diagnostics           { return e.diagnostics }
func (e *Engine) EventBus() *events.EventBus         { return e.eventBus }
func (e *Engine) StateMachine() *states.StateMachine { return e.stateMachine }
func (e *Engine) RetryBudget() int                   { return e.config.RetryBudget }

func (e *Engine) isDone() bool {
	return e.state.Outcome.IsTerminal()
}

// apply records deltas in the ledger and the accumulator
func (e *Engine) apply(deltas ...rewards.Delta) {
	e.state.Reward += e.ledger.Apply(e.state.Frame, deltas...)
}

// finish applies the terminal reward once and moves the machine to Terminal
func (e *Engine) finish(outcome Outcome) {
	e.state.Outcome = outcome
	e.apply(e.shaper.Terminal(outcome))

	ctx := e.stateMachine.GetContext()
	ctx.Outcome = outcome.String()
	ctx.Frames = e.state.Frame
	duration := ctx.GetElapsedTime()
	if err := e.stateMachine.TransitionTo(states.PhaseTerminal, outcome.String()); err != nil {
		e.logger.Error().Err(err).Msg("Failed to enter terminal phase")
	}

	e.eventBus.Publish(events.NewEpisodeEndedEvent(
		e.state.Episode,
		outcome.String(),
		outcome.Code(),
		e.state.Reward,
		e.state.Frame,
		duration,
	))
}

func (e *Engine) result(delta float64) StepResult {
	return StepResult{
		Delta:   delta,
		Total:   e.state.Reward,
		Done:    e.isDone(),
		Outcome: e.state.Outcome,
	}
}
