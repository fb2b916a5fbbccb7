package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/mapgen"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/pursuer"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rewards"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/rules"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/states"
	"github.com/rs/zerolog"
)

// EngineInitializer handles the initialization of an engine
type EngineInitializer struct {
	config Config
	logger zerolog.Logger
}

// NewEngineInitializer creates a new engine initializer
func NewEngineInitializer(cfg Config) *EngineInitializer {
	logger := cfg.Logger.With().Str("component", "MazeEngine").Logger()
	return &EngineInitializer{
		config: cfg,
		logger: logger,
	}
}

// Initialize creates an engine and resets it into episode 0
func (ei *EngineInitializer) Initialize(ctx context.Context) (*Engine, error) {
	select {
	case <-ctx.Done():
		ei.logger.Error().Err(ctx.Err()).Msg("Engine creation cancelled before it started")
		return nil, ctx.Err()
	default:
	}

	ei.setupDefaults()

	if err := ei.validate(); err != nil {
		return nil, err
	}

	generator, err := ei.createGenerator()
	if err != nil {
		return nil, fmt.Errorf("layout generator: %w", err)
	}

	engine := ei.createEngine(generator)

	if err := engine.ResetWithLayout(0, generator.Generate()); err != nil {
		return nil, fmt.Errorf("initial reset failed: %w", err)
	}

	ei.logger.Info().
		Int("width", ei.config.Width).
		Int("height", ei.config.Height).
		Int("barriers", ei.config.Barriers).
		Int("observation_length", engine.encoder.Length()).
		Msg("Engine created successfully")

	return engine, nil
}

// setupDefaults fills in the collaborators the caller left out
func (ei *EngineInitializer) setupDefaults() {
	if ei.config.Rng == nil {
		ei.logger.Debug().Msg("No RNG provided, creating new seeded RNG")
		ei.config.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if ei.config.EventBus == nil {
		ei.config.EventBus = events.NewEventBusWithLogger(ei.config.Logger)
	}
	if ei.config.ExperienceCollector != nil {
		ei.logger.Info().Msg("Experience collection enabled")
	}
}

func (ei *EngineInitializer) validate() error {
	if _, err := core.NewGrid(ei.config.Width, ei.config.Height); err != nil {
		return err
	}
	if ei.config.StepBudget <= 0 {
		return fmt.Errorf("step budget must be positive, got %d", ei.config.StepBudget)
	}
	if ei.config.RetryBudget <= 0 {
		return fmt.Errorf("retry budget must be positive, got %d", ei.config.RetryBudget)
	}
	return nil
}

func (ei *EngineInitializer) createGenerator() (*mapgen.Generator, error) {
	mapCfg := mapgen.DefaultMapConfig(ei.config.Width, ei.config.Height)
	mapCfg.Barriers = ei.config.Barriers
	return mapgen.NewGenerator(mapCfg, ei.config.Rng)
}

// createEngine wires the per-engine components. Per-episode state is built by reset.
func (ei *EngineInitializer) createEngine(generator *mapgen.Generator) *Engine {
	grid := generator.Grid()

	episodeContext := states.NewEpisodeContext(0, ei.logger)
	stateMachine := states.NewStateMachine(episodeContext, ei.config.EventBus)

	engine := &Engine{
		config:       ei.config,
		grid:         grid,
		logger:       ei.logger,
		generator:    generator,
		validator:    rules.NewMoveValidator(grid),
		outcomes:     rules.NewOutcomeChecker(ei.logger),
		policy:       pursuer.NewPolicy(grid),
		shaper:       rewards.NewShaper(ei.config.Rewards),
		ledger:       rewards.NewLedger(),
		encoder:      NewEncoder(grid, ei.config.Barriers),
		eventBus:     ei.config.EventBus,
		stateMachine: stateMachine,
		collector:    ei.config.ExperienceCollector,
	}
	engine.turnProcessor = NewTurnProcessor(engine)
	return engine
}
