package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Gauge reports the current value of a component metric, such as open
// environments or buffered transitions
type Gauge func() int

// Options configures a Monitor
type Options struct {
	CheckInterval  time.Duration
	AlertThreshold int
	AlertCooldown  time.Duration
	Logger         zerolog.Logger
}

// DefaultOptions returns the intervals used by the env server
func DefaultOptions(logger zerolog.Logger) Options {
	return Options{
		CheckInterval:  30 * time.Second,
		AlertThreshold: 1000,
		AlertCooldown:  5 * time.Minute,
		Logger:         logger,
	}
}

// Monitor tracks goroutine counts and registered gauges and logs them
// periodically
type Monitor struct {
	mu             sync.RWMutex
	baseline       int
	current        int
	peak           int
	checkInterval  time.Duration
	alertThreshold int
	lastAlert      time.Time
	alertCooldown  time.Duration
	gauges         map[string]Gauge
	lastValues     map[string]int
	logger         zerolog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewMonitor creates a monitor; the baseline is the goroutine count now
func NewMonitor(opts Options) *Monitor {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 30 * time.Second
	}
	baseline := runtime.NumGoroutine()
	return &Monitor{
		baseline:       baseline,
		current:        baseline,
		peak:           baseline,
		checkInterval:  opts.CheckInterval,
		alertThreshold: opts.AlertThreshold,
		alertCooldown:  opts.AlertCooldown,
		gauges:         make(map[string]Gauge),
		lastValues:     make(map[string]int),
		logger:         opts.Logger.With().Str("component", "monitor").Logger(),
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// RegisterGauge adds a named metric sampled on every check
func (m *Monitor) RegisterGauge(name string, g Gauge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = g
}

// Start begins monitoring
func (m *Monitor) Start() {
	go m.run()
	m.logger.Info().
		Int("baseline", m.baseline).
		Dur("interval", m.checkInterval).
		Msg("Started monitoring")
}

// Stop ends the loop and waits for it to exit. Stop must follow Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	<-m.done
}

func (m *Monitor) run() {
	defer close(m.done)
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Interface("panic", r).
				Msg("Monitor panicked")
		}
	}()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-m.stopChan:
			return
		}
	}
}

// Check samples goroutines and gauges once and logs the result
func (m *Monitor) Check() {
	current := runtime.NumGoroutine()

	m.mu.Lock()
	m.current = current
	if current > m.peak {
		m.peak = current
	}
	for name, g := range m.gauges {
		m.lastValues[name] = g()
	}

	growth := current - m.baseline
	growthRate := 0.0
	if m.baseline > 0 {
		growthRate = float64(growth) / float64(m.baseline) * 100
	}

	shouldAlert := m.alertThreshold > 0 && current > m.alertThreshold &&
		time.Since(m.lastAlert) > m.alertCooldown
	if shouldAlert {
		m.lastAlert = time.Now()
	}
	values := copyMap(m.lastValues)
	peak := m.peak
	m.mu.Unlock()

	ev := m.logger.Debug().
		Int("goroutines", current).
		Int("baseline", m.baseline).
		Int("peak", peak).
		Float64("growth_rate", growthRate)
	for _, name := range sortedKeys(values) {
		ev = ev.Int(name, values[name])
	}
	ev.Msg("Server metrics")

	if shouldAlert {
		m.logger.Warn().
			Int("current", current).
			Int("threshold", m.alertThreshold).
			Float64("growth_rate", growthRate).
			Msg("High goroutine count detected - possible leak")
	}
}

// GetMetrics returns the values from the last check
func (m *Monitor) GetMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Metrics{
		Goroutines: m.current,
		Baseline:   m.baseline,
		Peak:       m.peak,
		Growth:     m.current - m.baseline,
		Gauges:     copyMap(m.lastValues),
	}
}

// Metrics contains monitor statistics
type Metrics struct {
	Goroutines int            `json:"goroutines"`
	Baseline   int            `json:"baseline"`
	Peak       int            `json:"peak"`
	Growth     int            `json:"growth"`
	Gauges     map[string]int `json:"gauges"`
}

func copyMap(m map[string]int) map[string]int {
	result := make(map[string]int, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
