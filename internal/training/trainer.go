package training

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/rs/zerolog"
)

// Options controls a training run
type Options struct {
	BatchSize     int
	EpsilonStart  int
	EpsilonRange  int
	LearningRate  float64
	Gamma         float64
	ProgressEvery int
	// ModelPath, when set, receives the weights every time the record improves
	ModelPath string
}

// DefaultOptions mirrors the defaults of the training config section
func DefaultOptions() Options {
	return Options{
		BatchSize:     1000,
		EpsilonStart:  80,
		EpsilonRange:  200,
		LearningRate:  0.001,
		Gamma:         0.9,
		ProgressEvery: 10,
	}
}

// OptionsFromSettings builds options from the loaded configuration
func OptionsFromSettings(c config.TrainingConfig) Options {
	return Options{
		BatchSize:     c.BatchSize,
		EpsilonStart:  c.EpsilonStart,
		EpsilonRange:  c.EpsilonRange,
		LearningRate:  c.LearningRate,
		Gamma:         c.Gamma,
		ProgressEvery: c.ProgressEvery,
	}
}

// Trainer plays episodes with an Agent, training the QFunction on every
// transition and replaying a sampled batch at the end of each episode
type Trainer struct {
	engine    *game.Engine
	agent     *Agent
	q         QFunction
	collector *experience.Collector
	rng       *rand.Rand
	opts      Options
	stats     *Stats
	logger    zerolog.Logger
}

// NewTrainer creates the engine for gameCfg with collector attached. A nil q
// gets a LinearQ sized to the engine's observation.
func NewTrainer(gameCfg game.Config, opts Options, q QFunction, collector *experience.Collector, logger zerolog.Logger) (*Trainer, error) {
	if collector == nil {
		return nil, fmt.Errorf("trainer needs an experience collector")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if gameCfg.Rng == nil {
		gameCfg.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	gameCfg.Logger = logger
	gameCfg.ExperienceCollector = collector

	engine, err := game.NewEngine(gameCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	rng := rand.New(rand.NewSource(gameCfg.Rng.Int63()))
	if q == nil {
		q = NewLinearQ(engine.ObservationLength(), len(core.AllDirections), opts.LearningRate, opts.Gamma, rng)
	}

	return &Trainer{
		engine:    engine,
		agent:     NewAgent(q, opts.EpsilonStart, opts.EpsilonRange, rng),
		q:         q,
		collector: collector,
		rng:       rng,
		opts:      opts,
		stats:     &Stats{},
		logger:    logger.With().Str("component", "trainer").Logger(),
	}, nil
}

// Engine returns the environment being trained on
func (t *Trainer) Engine() *game.Engine { return t.engine }

// Agent returns the acting agent
func (t *Trainer) Agent() *Agent { return t.agent }

// Stats returns the accumulated results
func (t *Trainer) Stats() *Stats { return t.stats }

// Run plays the given number of episodes. It stops early with the context's
// error when ctx is cancelled between steps.
func (t *Trainer) Run(ctx context.Context, episodes int) (*Stats, error) {
	t.logger.Info().
		Int("episodes", episodes).
		Int("observation_length", t.engine.ObservationLength()).
		Msg("Training started")

	for i := 0; i < episodes; i++ {
		if err := t.RunEpisode(ctx); err != nil {
			return t.stats, err
		}
	}

	mean, std := t.stats.MeanStdDev(0)
	t.logger.Info().
		Int("games", t.stats.Games).
		Float64("mean_reward", mean).
		Float64("std_reward", std).
		Float64("record", t.stats.Record).
		Float64("win_rate", t.stats.WinRate()).
		Msg("Training finished")
	return t.stats, nil
}

// RunEpisode plays the current episode to the end, trains on its replay
// memory and resets the engine for the next one
func (t *Trainer) RunEpisode(ctx context.Context) error {
	e := t.engine
	for !e.IsDone() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.step(); err != nil {
			return err
		}
	}

	loss := t.q.Update(t.collector.Buffer().Sample(t.opts.BatchSize, t.rng))
	t.stats.TrainLoss = append(t.stats.TrainLoss, loss)

	outcome, reward := e.Outcome(), e.Reward()
	if t.stats.Add(outcome, reward) {
		t.saveModel()
	}
	t.agent.EndGame()

	if t.opts.ProgressEvery > 0 && t.stats.Games%t.opts.ProgressEvery == 0 {
		t.logger.Info().
			Int("game", t.stats.Games).
			Float64("reward", reward).
			Float64("record", t.stats.Record).
			Float64("mean_reward", t.stats.Mean()).
			Int("epsilon", t.agent.Epsilon()).
			Str("result", outcome.String()).
			Msg("Progress")
	} else {
		t.logger.Debug().
			Int("game", t.stats.Games).
			Float64("reward", reward).
			Str("result", outcome.String()).
			Msg("Episode finished")
	}

	e.Reset(e.EpisodeID() + 1)
	return nil
}

// step takes one agent step and trains on the resulting transition
func (t *Trainer) step() error {
	e := t.engine
	state := e.Observe()
	mask := e.ActionMask()
	frame := e.Frame()

	choose := func() core.Direction {
		d, _, _ := t.agent.Act(state, mask)
		return d
	}
	action, result, err := game.StepWithRetries(e, choose)
	if err != nil {
		return fmt.Errorf("episode %d frame %d: %w", e.EpisodeID(), frame, err)
	}

	var tr experience.Transition
	if e.Frame() == frame {
		// forced tie: no step was accepted, so the engine recorded nothing
		tr = experience.Transition{
			ID:          uuid.New().String(),
			EpisodeID:   e.EpisodeID(),
			Step:        frame,
			State:       state,
			Action:      action.Index(),
			Reward:      result.Delta,
			NextState:   e.Observe(),
			Done:        true,
			Outcome:     result.Outcome.Code(),
			ActionMask:  e.ActionMask(),
			CollectedAt: time.Now(),
		}
		t.collector.Record(tr)
	} else {
		var ok bool
		if tr, ok = t.collector.Last(); !ok {
			return fmt.Errorf("episode %d frame %d: step was not collected", e.EpisodeID(), e.Frame())
		}
	}

	t.q.Update([]experience.Transition{tr})
	return nil
}

func (t *Trainer) saveModel() {
	if t.opts.ModelPath == "" {
		return
	}
	saver, ok := t.q.(*LinearQ)
	if !ok {
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.opts.ModelPath), os.ModePerm); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to create model directory")
		return
	}
	f, err := os.Create(t.opts.ModelPath)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Failed to create model file")
		return
	}
	defer f.Close()
	if err := saver.Save(f); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to save model")
		return
	}
	t.logger.Debug().Str("path", t.opts.ModelPath).Float64("record", t.stats.Record).Msg("Saved model")
}
