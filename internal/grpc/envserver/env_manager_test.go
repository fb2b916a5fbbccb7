package envserver

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
)

func newTestManager(maxEnvs int, idle time.Duration) *EnvManager {
	return NewEnvManager(ManagerOptions{
		MaxEnvs:     maxEnvs,
		IdleTimeout: idle,
		Defaults:    game.DefaultConfig(),
		Logger:      zerolog.Nop(),
	})
}

func TestEnvManager_CreateAndClose(t *testing.T) {
	m := newTestManager(2, 0)

	a, err := m.Create(m.Defaults(), 1)
	require.NoError(t, err)
	b, err := m.Create(m.Defaults(), 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.id, b.id)
	assert.NotSame(t, a.engine.EventBus(), b.engine.EventBus())
	assert.Equal(t, 2, m.Len())

	_, err = m.Create(m.Defaults(), 3)
	assert.True(t, errors.Is(err, ErrAtCapacity))

	got, err := m.Get(a.id)
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, m.Close(a.id))
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(a.id)
	assert.True(t, errors.Is(err, ErrEnvNotFound))
	assert.True(t, errors.Is(m.Close(a.id), ErrEnvNotFound))

	// capacity frees up after close
	_, err = m.Create(m.Defaults(), 4)
	assert.NoError(t, err)
}

func TestEnvManager_InvalidConfig(t *testing.T) {
	m := newTestManager(0, 0)
	cfg := m.Defaults()
	cfg.Width = 4

	_, err := m.Create(cfg, 1)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrAtCapacity))
	assert.Equal(t, 0, m.Len())
}

func TestEnvManager_MaxDimension(t *testing.T) {
	m := NewEnvManager(ManagerOptions{
		MaxDimension: 7,
		Defaults:     game.DefaultConfig(),
		Logger:       zerolog.Nop(),
	})
	assert.Equal(t, 7, m.MaxDimension())
	assert.Equal(t, DefaultMaxDimension, newTestManager(0, 0).MaxDimension())

	cfg := m.Defaults()
	_, err := m.Create(cfg, 1)
	assert.ErrorIs(t, err, errBadRequest)

	cfg.Width, cfg.Height, cfg.Barriers = 7, 7, 3
	_, err = m.Create(cfg, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestEnvManager_SameSeedSameLayout(t *testing.T) {
	m := newTestManager(0, 0)

	a, err := m.Create(m.Defaults(), 99)
	require.NoError(t, err)
	b, err := m.Create(m.Defaults(), 99)
	require.NoError(t, err)

	assert.Equal(t, a.engine.Observe(), b.engine.Observe())
}

func TestEnvManager_EvictIdle(t *testing.T) {
	m := newTestManager(0, time.Minute)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	stale, err := m.Create(m.Defaults(), 1)
	require.NoError(t, err)

	clock = clock.Add(45 * time.Second)
	fresh, err := m.Create(m.Defaults(), 2)
	require.NoError(t, err)

	clock = clock.Add(30 * time.Second)
	assert.Equal(t, 1, m.evictIdle())
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(stale.id)
	assert.True(t, errors.Is(err, ErrEnvNotFound))
	_, err = m.Get(fresh.id)
	assert.NoError(t, err)

	// activity keeps an environment alive
	clock = clock.Add(50 * time.Second)
	fresh.mu.Lock()
	fresh.touch(clock)
	fresh.mu.Unlock()
	clock = clock.Add(50 * time.Second)
	assert.Equal(t, 0, m.evictIdle())
	assert.Equal(t, 1, m.Len())
}

func TestEnvManager_CleanupLoop(t *testing.T) {
	m := newTestManager(0, time.Millisecond)

	_, err := m.Create(m.Defaults(), 1)
	require.NoError(t, err)

	m.StartCleanup(5 * time.Millisecond)
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
}

func TestEnvManager_CleanupDisabled(t *testing.T) {
	m := newTestManager(0, 0)
	m.StartCleanup(time.Millisecond)
	m.Stop()
}

func TestEnvManager_CollectorWiring(t *testing.T) {
	buffer := experience.NewBuffer(1000, zerolog.Nop())
	collector := experience.NewCollector(buffer, &experience.NullPersistence{}, zerolog.Nop())
	m := NewEnvManager(ManagerOptions{
		Defaults:  game.DefaultConfig(),
		Collector: collector,
		Logger:    zerolog.Nop(),
	})

	env, err := m.Create(m.Defaults(), 5)
	require.NoError(t, err)

	d := env.engine.ValidActions()
	require.NotEmpty(t, d)
	_, err = env.engine.Step(d[0])
	require.NoError(t, err)

	assert.Equal(t, 1, buffer.Size())
	last, ok := collector.Last()
	require.True(t, ok)
	assert.Equal(t, 1, last.Step)
}
