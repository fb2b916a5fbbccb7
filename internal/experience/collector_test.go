package experience

import (
	"context"
	"errors"
	"testing"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/core"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPersistence struct {
	NullPersistence
	fail bool
	// stored is how much of a failing batch reaches the backend first
	stored int
	writes [][]Transition
}

func (f *failingPersistence) Write(ctx context.Context, ts []Transition) error {
	if f.fail {
		if f.stored > 0 {
			f.writes = append(f.writes, ts[:f.stored])
			return &PartialWriteError{Written: f.stored, Err: errors.New("disk full")}
		}
		return errors.New("disk full")
	}
	f.writes = append(f.writes, ts)
	return nil
}

func newCollectedEngine(t *testing.T, c *Collector) *game.Engine {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Rng = testutil.NewTestRNG(12345)
	cfg.Logger = zerolog.Nop()
	cfg.ExperienceCollector = c
	e, err := game.NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestCollector_RecordsEngineSteps(t *testing.T) {
	persistence := &failingPersistence{}
	c := NewCollector(NewBuffer(1000, zerolog.Nop()), persistence, zerolog.Nop())
	e := newCollectedEngine(t, c)

	rng := testutil.NewTestRNG(7)
	accepted := 0
	for !e.IsDone() {
		d, ok := game.RandomValidAction(e, rng)
		if !ok {
			e.ForceTie("no valid action")
			break
		}
		_, err := e.Step(d)
		require.NoError(t, err)
		accepted++
	}

	assert.Equal(t, accepted, c.Buffer().Size())
	assert.Equal(t, 1, c.Episodes())
	assert.Equal(t, 0, c.Pending())

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, e.EpisodeID(), last.EpisodeID)
	assert.Len(t, last.State, e.ObservationLength())
	assert.Len(t, last.NextState, e.ObservationLength())
	assert.Len(t, last.ActionMask, len(core.AllDirections))
	assert.NotEmpty(t, last.ID)

	var written int
	for _, batch := range persistence.writes {
		written += len(batch)
	}
	assert.Equal(t, accepted, written)
}

func TestCollector_TransitionMatchesStep(t *testing.T) {
	c := NewCollector(NewBuffer(10, zerolog.Nop()), nil, zerolog.Nop())
	e := newCollectedEngine(t, c)

	before := e.Observe()
	d, ok := game.RandomValidAction(e, testutil.NewTestRNG(3))
	require.True(t, ok)
	result, err := e.Step(d)
	require.NoError(t, err)

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, before, last.State)
	assert.Equal(t, e.Observe(), last.NextState)
	assert.Equal(t, d.Index(), last.Action)
	assert.Equal(t, result.Delta, last.Reward)
	assert.Equal(t, result.Done, last.Done)
	assert.Equal(t, 1, last.Step)
}

func TestCollector_RecordDoneFlushes(t *testing.T) {
	persistence := &failingPersistence{}
	c := NewCollector(NewBuffer(10, zerolog.Nop()), persistence, zerolog.Nop())

	c.Record(createTestTransition(4, 1))
	assert.Equal(t, 1, c.Pending())
	assert.Empty(t, persistence.writes)

	done := createTestTransition(4, 2)
	done.Done = true
	c.Record(done)
	assert.Equal(t, 0, c.Pending())
	require.Len(t, persistence.writes, 1)
	assert.Len(t, persistence.writes[0], 2)
}

func TestCollector_FlushFailureKeepsBatch(t *testing.T) {
	persistence := &failingPersistence{fail: true}
	c := NewCollector(NewBuffer(10, zerolog.Nop()), persistence, zerolog.Nop())

	c.Record(createTestTransition(1, 1))
	c.Record(createTestTransition(1, 2))

	require.Error(t, c.Flush(context.Background()))
	assert.Equal(t, 2, c.Pending())

	persistence.fail = false
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, c.Pending())
	require.Len(t, persistence.writes, 1)
	assert.Equal(t, 1, persistence.writes[0][0].Step)
}

func TestCollector_PartialFlushKeepsRemainder(t *testing.T) {
	persistence := &failingPersistence{fail: true, stored: 2}
	c := NewCollector(NewBuffer(10, zerolog.Nop()), persistence, zerolog.Nop())

	for step := 1; step <= 3; step++ {
		c.Record(createTestTransition(1, step))
	}

	err := c.Flush(context.Background())
	var partial *PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.Written)
	assert.Equal(t, 1, c.Pending())

	persistence.fail = false
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, c.Pending())

	var steps []int
	for _, batch := range persistence.writes {
		for _, tr := range batch {
			steps = append(steps, tr.Step)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, steps, "no transition is written twice")
}

func TestCollector_Close(t *testing.T) {
	persistence := &failingPersistence{}
	c := NewCollector(NewBuffer(10, zerolog.Nop()), persistence, zerolog.Nop())
	c.Record(createTestTransition(0, 1))

	require.NoError(t, c.Close(context.Background()))
	require.Len(t, persistence.writes, 1)
	assert.ErrorIs(t, c.Buffer().Add(createTestTransition(0, 2)), ErrBufferClosed)
}
