package envserver

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/experience"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game"
	"github.com/mitchelldurbincs/MoldMazeRL/internal/game/events/subscribers"
)

var (
	// ErrEnvNotFound is returned for unknown or evicted environment ids
	ErrEnvNotFound = errors.New("environment not found")
	// ErrAtCapacity is returned when max_envs environments are open
	ErrAtCapacity = errors.New("server at capacity")
)

// envInstance is one engine plus the bookkeeping the server needs. All engine
// access goes through mu.
type envInstance struct {
	id     string
	engine *game.Engine
	stats  *subscribers.StatsSubscriber
	mu     sync.Mutex

	// rejected counts consecutive rejected actions in the current frame
	rejected int

	createdAt    time.Time
	lastActivity time.Time
}

// touch records activity; callers hold mu
func (env *envInstance) touch(now time.Time) {
	env.lastActivity = now
}

// ManagerOptions configures an EnvManager
type ManagerOptions struct {
	MaxEnvs     int
	IdleTimeout time.Duration
	// MaxDimension caps grid width and height; zero uses DefaultMaxDimension
	MaxDimension int
	// Defaults is the game configuration CreateEnv overrides field by field
	Defaults game.Config
	// Collector, when set, receives the transitions of every environment
	Collector *experience.Collector
	Logger    zerolog.Logger
}

// EnvManager owns all open environments
type EnvManager struct {
	mu           sync.RWMutex
	envs         map[string]*envInstance
	maxEnvs      int
	maxDimension int
	idleTimeout  time.Duration
	defaults     game.Config
	collector    *experience.Collector
	logger       zerolog.Logger
	now          func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewEnvManager creates a manager. Call StartCleanup to evict idle environments.
func NewEnvManager(opts ManagerOptions) *EnvManager {
	return &EnvManager{
		envs:         make(map[string]*envInstance),
		maxEnvs:      opts.MaxEnvs,
		maxDimension: opts.MaxDimension,
		idleTimeout:  opts.IdleTimeout,
		defaults:     opts.Defaults,
		collector:    opts.Collector,
		logger:       opts.Logger.With().Str("component", "env_manager").Logger(),
		now:          time.Now,
		stop:         make(chan struct{}),
	}
}

// Defaults returns the base game configuration
func (m *EnvManager) Defaults() game.Config {
	return m.defaults
}

// MaxDimension returns the grid size limit for created environments
func (m *EnvManager) MaxDimension() int {
	if m.maxDimension <= 0 {
		return DefaultMaxDimension
	}
	return m.maxDimension
}

// Create builds and registers a new environment from cfg
func (m *EnvManager) Create(cfg game.Config, seed int64) (*envInstance, error) {
	if err := checkLimits(cfg, m.MaxDimension()); err != nil {
		return nil, err
	}
	m.mu.RLock()
	current := len(m.envs)
	m.mu.RUnlock()
	if m.maxEnvs > 0 && current >= m.maxEnvs {
		m.logger.Warn().
			Int("current_envs", current).
			Int("max_envs", m.maxEnvs).
			Msg("Rejecting environment creation - server at capacity")
		return nil, fmt.Errorf("%w: %d/%d environments open", ErrAtCapacity, current, m.maxEnvs)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg.Rng = rand.New(rand.NewSource(seed))
	cfg.Logger = m.logger
	cfg.EventBus = nil
	if m.collector != nil {
		cfg.ExperienceCollector = m.collector
	}

	engine, err := game.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	stats := subscribers.NewStatsSubscriber(id)
	engine.EventBus().Subscribe(stats)

	now := m.now()
	env := &envInstance{
		id:           id,
		engine:       engine,
		stats:        stats,
		createdAt:    now,
		lastActivity: now,
	}

	m.mu.Lock()
	if m.maxEnvs > 0 && len(m.envs) >= m.maxEnvs {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %d/%d environments open", ErrAtCapacity, m.maxEnvs, m.maxEnvs)
	}
	m.envs[id] = env
	count := len(m.envs)
	m.mu.Unlock()

	m.logger.Info().
		Str("env_id", id).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("barriers", cfg.Barriers).
		Int64("seed", seed).
		Int("open_envs", count).
		Msg("Created environment")
	return env, nil
}

// Get looks up an environment
func (m *EnvManager) Get(id string) (*envInstance, error) {
	m.mu.RLock()
	env, ok := m.envs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEnvNotFound, id)
	}
	return env, nil
}

// Close removes an environment
func (m *EnvManager) Close(id string) error {
	m.mu.Lock()
	env, ok := m.envs[id]
	delete(m.envs, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrEnvNotFound, id)
	}

	env.mu.Lock()
	episodes := env.engine.EpisodeID()
	env.mu.Unlock()
	m.logger.Info().Str("env_id", id).Int("episodes", episodes).Msg("Closed environment")
	return nil
}

// Len returns the number of open environments
func (m *EnvManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.envs)
}

// StartCleanup evicts idle environments every interval until Stop
func (m *EnvManager) StartCleanup(interval time.Duration) {
	if interval <= 0 || m.idleTimeout <= 0 {
		return
	}
	m.wg.Add(1)
	go m.runCleanup(interval)
}

func (m *EnvManager) runCleanup(interval time.Duration) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Interface("panic", r).
				Msg("Environment cleanup goroutine panicked")
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stop:
			return
		}
	}
}

// evictIdle removes environments without activity for longer than the idle
// timeout and returns how many were removed
func (m *EnvManager) evictIdle() int {
	// Phase 1: snapshot references without holding env locks
	m.mu.RLock()
	refs := make([]*envInstance, 0, len(m.envs))
	for _, env := range m.envs {
		refs = append(refs, env)
	}
	m.mu.RUnlock()

	// Phase 2: check each env independently
	now := m.now()
	var idle []string
	for _, env := range refs {
		env.mu.Lock()
		if now.Sub(env.lastActivity) > m.idleTimeout {
			idle = append(idle, env.id)
		}
		env.mu.Unlock()
	}

	// Phase 3: delete
	if len(idle) > 0 {
		m.mu.Lock()
		for _, id := range idle {
			delete(m.envs, id)
		}
		remaining := len(m.envs)
		m.mu.Unlock()

		m.logger.Info().
			Int("evicted", len(idle)).
			Int("remaining", remaining).
			Dur("idle_timeout", m.idleTimeout).
			Msg("Evicted idle environments")
	}
	return len(idle)
}

// Stop ends the cleanup loop
func (m *EnvManager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}
