package states

import (
	"errors"
	"time"
)

// InitializingState represents a freshly reset episode
type InitializingState struct{}

func NewInitializingState() State {
	return &InitializingState{}
}

func (s *InitializingState) Phase() EpisodePhase {
	return PhaseInitializing
}

func (s *InitializingState) Enter(ctx *EpisodeContext) error {
	ctx.Logger.Debug().Int("episode", ctx.Episode).Msg("Entering Initializing state")
	return nil
}

func (s *InitializingState) Exit(ctx *EpisodeContext) error {
	ctx.Logger.Debug().Int("episode", ctx.Episode).Msg("Exiting Initializing state")
	return nil
}

func (s *InitializingState) Validate(ctx *EpisodeContext) error {
	return nil
}

// RunningState represents active play
type RunningState struct{}

func NewRunningState() State {
	return &RunningState{}
}

func (s *RunningState) Phase() EpisodePhase {
	return PhaseRunning
}

func (s *RunningState) Enter(ctx *EpisodeContext) error {
	ctx.StartTime = time.Now()
	ctx.Logger.Debug().Int("episode", ctx.Episode).Msg("Episode running")
	return nil
}

func (s *RunningState) Exit(ctx *EpisodeContext) error {
	ctx.Logger.Debug().
		Int("episode", ctx.Episode).
		Int("frames", ctx.Frames).
		Msg("Episode stopped running")
	return nil
}

func (s *RunningState) Validate(ctx *EpisodeContext) error {
	return nil
}

// TerminalState represents a finished episode
type TerminalState struct{}

func NewTerminalState() State {
	return &TerminalState{}
}

func (s *TerminalState) Phase() EpisodePhase {
	return PhaseTerminal
}

func (s *TerminalState) Enter(ctx *EpisodeContext) error {
	ctx.Logger.Info().
		Int("episode", ctx.Episode).
		Str("outcome", ctx.Outcome).
		Int("frames", ctx.Frames).
		Dur("duration", ctx.GetElapsedTime()).
		Msg("Episode ended")
	return nil
}

func (s *TerminalState) Exit(ctx *EpisodeContext) error {
	return nil
}

func (s *TerminalState) Validate(ctx *EpisodeContext) error {
	if ctx.Outcome == "" {
		return errors.New("cannot end an episode without an outcome")
	}
	return nil
}
