package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrainer(t *testing.T, opts Options, q QFunction) *Trainer {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Rng = testutil.NewTestRNG(12345)
	collector := experience.NewCollector(experience.NewBuffer(10_000, zerolog.Nop()), nil, zerolog.Nop())

	tr, err := NewTrainer(cfg, opts, q, collector, zerolog.Nop())
	require.NoError(t, err)
	return tr
}

func TestNewTrainer_Validation(t *testing.T) {
	cfg := game.DefaultConfig()
	collector := experience.NewCollector(experience.NewBuffer(10, zerolog.Nop()), nil, zerolog.Nop())

	_, err := NewTrainer(cfg, DefaultOptions(), nil, nil, zerolog.Nop())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.BatchSize = 0
	_, err = NewTrainer(cfg, opts, nil, collector, zerolog.Nop())
	assert.Error(t, err)

	cfg.Width = 4
	_, err = NewTrainer(cfg, DefaultOptions(), nil, collector, zerolog.Nop())
	assert.Error(t, err)
}

func TestTrainer_Run(t *testing.T) {
	tr := newTestTrainer(t, DefaultOptions(), nil)

	stats, err := tr.Run(context.Background(), 12)
	require.NoError(t, err)

	assert.Equal(t, 12, stats.Games)
	assert.Len(t, stats.Rewards, 12)
	assert.Len(t, stats.TrainLoss, 12)
	assert.Equal(t, 12, tr.Agent().Games())
	assert.Equal(t, 12, tr.Engine().EpisodeID())
	assert.False(t, tr.Engine().IsDone(), "engine is reset for the next episode")

	byOutcome := 0
	for c := PlayerHitsButter; c <= MoldHitsButter; c++ {
		byOutcome += stats.Tally[c]
	}
	assert.Equal(t, 12, byOutcome+stats.Tally[Ties])
	assert.Equal(t, 12, stats.Tally[Wins]+stats.Tally[Losses]+stats.Tally[Ties])
	assert.Positive(t, tr.collector.Buffer().Size())
}

func TestTrainer_EveryStepTrains(t *testing.T) {
	q := &fixedQ{values: []float64{0, 0, 0, 0}}
	tr := newTestTrainer(t, DefaultOptions(), q)

	require.NoError(t, tr.RunEpisode(context.Background()))

	// one short-memory update per transition plus the episode replay
	transitions := tr.collector.Buffer().Size()
	assert.Positive(t, transitions)
	assert.Equal(t, transitions+1, q.updates)

	last, ok := tr.collector.Last()
	require.True(t, ok)
	assert.True(t, last.Done)
}

func TestTrainer_CancelledContext(t *testing.T) {
	tr := newTestTrainer(t, DefaultOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := tr.Run(ctx, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Games)
}

func TestTrainer_SaveModel(t *testing.T) {
	opts := DefaultOptions()
	opts.ModelPath = filepath.Join(t.TempDir(), "model", "q.bin")
	tr := newTestTrainer(t, opts, nil)

	tr.saveModel()

	f, err := os.Open(opts.ModelPath)
	require.NoError(t, err)
	defer f.Close()

	q := NewLinearQ(tr.Engine().ObservationLength(), 4, 0.001, 0.9, testutil.NewTestRNG(1))
	require.NoError(t, q.Load(f))
	state := tr.Engine().Observe()
	assert.Equal(t, tr.q.Predict(state), q.Predict(state))
}
