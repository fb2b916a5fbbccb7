package experience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/rs/zerolog"
)

const flushTimeout = 5 * time.Second

// Collector turns engine steps into transitions. Every transition goes to the
// replay buffer; finished episodes are flushed to the persistence layer.
// Safe for use by several engines at once.
type Collector struct {
	buffer      *Buffer
	persistence PersistenceLayer
	logger      zerolog.Logger

	mu       sync.Mutex
	pending  []Transition
	last     Transition
	hasLast  bool
	episodes int
}

var _ game.ExperienceCollector = (*Collector)(nil)

// NewCollector creates a collector. persistence may be nil.
func NewCollector(buffer *Buffer, persistence PersistenceLayer, logger zerolog.Logger) *Collector {
	if persistence == nil {
		persistence = &NullPersistence{}
	}
	return &Collector{
		buffer:      buffer,
		persistence: persistence,
		logger:      logger.With().Str("component", "experience_collector").Logger(),
	}
}

// OnStep records the transition of an accepted step
func (c *Collector) OnStep(rec game.StepRecord) {
	c.Record(NewTransition(rec))
}

// OnEpisodeEnd flushes the episode's pending transitions
func (c *Collector) OnEpisodeEnd(episode int, outcome game.Outcome, reward float64) {
	c.mu.Lock()
	c.episodes++
	c.mu.Unlock()

	c.logger.Debug().
		Int("episode", episode).
		Str("outcome", outcome.String()).
		Float64("reward", reward).
		Msg("Episode ended")
	c.flush()
}

// Record stores a transition built outside the engine, such as a forced tie.
// A done transition flushes the pending batch.
func (c *Collector) Record(t Transition) {
	if err := c.buffer.Add(t); err != nil {
		c.logger.Warn().Err(err).Str("transition_id", t.ID).Msg("Failed to buffer transition")
	}

	c.mu.Lock()
	c.pending = append(c.pending, t)
	c.last = t
	c.hasLast = true
	c.mu.Unlock()

	c.logger.Debug().
		Str("transition_id", t.ID).
		Int("episode", t.EpisodeID).
		Int("step", t.Step).
		Float64("reward", t.Reward).
		Bool("done", t.Done).
		Msg("Collected transition")

	if t.Done {
		c.flush()
	}
}

// Last returns the most recently recorded transition
func (c *Collector) Last() (Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// Episodes returns the number of finished episodes seen
func (c *Collector) Episodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episodes
}

// Pending returns the number of transitions not yet persisted
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Buffer returns the replay buffer
func (c *Collector) Buffer() *Buffer {
	return c.buffer
}

func (c *Collector) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := c.Flush(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Failed to persist transitions")
	}
}

// Flush writes pending transitions to the persistence layer. On failure the
// unwritten part of the batch is kept for the next attempt.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := c.persistence.Write(ctx, batch); err != nil {
		var partial *PartialWriteError
		if errors.As(err, &partial) && partial.Written > 0 && partial.Written <= len(batch) {
			batch = batch[partial.Written:]
		}
		c.mu.Lock()
		c.pending = append(batch, c.pending...)
		c.mu.Unlock()
		return err
	}
	return nil
}

// Close flushes what is pending and closes the persistence layer and buffer
func (c *Collector) Close(ctx context.Context) error {
	flushErr := c.Flush(ctx)
	if err := c.persistence.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	if err := c.buffer.Close(); err != nil && flushErr == nil {
		flushErr = err
	}
	return flushErr
}
