package experience

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultCapacity is the replay memory size used when none is configured
const DefaultCapacity = 100_000

var (
	// ErrBufferClosed is returned when operations are attempted on a closed buffer
	ErrBufferClosed = errors.New("experience buffer is closed")
)

// Buffer is a thread-safe circular replay memory. When full, the oldest
// transition is overwritten.
type Buffer struct {
	mu       sync.RWMutex
	buffer   []Transition
	capacity int
	size     int
	head     int // Write position
	tail     int // Oldest element
	closed   bool

	totalAdded   int64
	totalDropped int64
	totalSampled int64

	logger zerolog.Logger
}

// NewBuffer creates a new experience buffer with the specified capacity
func NewBuffer(capacity int, logger zerolog.Logger) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Buffer{
		buffer:   make([]Transition, capacity),
		capacity: capacity,
		logger:   logger.With().Str("component", "experience_buffer").Logger(),
	}
}

// Add appends a transition, evicting the oldest one when full
func (b *Buffer) Add(t Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	b.push(t)
	return nil
}

// AddBatch appends several transitions under one lock
func (b *Buffer) AddBatch(ts []Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	for _, t := range ts {
		b.push(t)
	}

	if len(ts) > 0 {
		b.logger.Debug().
			Int("batch_size", len(ts)).
			Int64("total_added", b.totalAdded).
			Msg("Added batch of transitions")
	}
	return nil
}

func (b *Buffer) push(t Transition) {
	if b.size >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.totalDropped++
	} else {
		b.size++
	}
	b.buffer[b.head] = t
	b.head = (b.head + 1) % b.capacity
	b.totalAdded++
}

// Sample draws n distinct transitions uniformly at random. When fewer than n
// are stored, all of them are returned in random order.
func (b *Buffer) Sample(n int, rng *rand.Rand) []Transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []Transition{}
	}

	perm := rng.Perm(b.size)[:n]
	result := make([]Transition, n)
	for i, offset := range perm {
		result[i] = b.buffer[(b.tail+offset)%b.capacity]
	}
	b.totalSampled += int64(n)
	return result
}

// Get removes and returns up to n of the oldest transitions
func (b *Buffer) Get(n int) []Transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.size {
		n = b.size
	}
	if n < 0 {
		n = 0
	}

	result := make([]Transition, n)
	for i := 0; i < n; i++ {
		result[i] = b.buffer[b.tail]
		b.buffer[b.tail] = Transition{}
		b.tail = (b.tail + 1) % b.capacity
		b.size--
	}
	return result
}

// GetLatest returns the n most recent transitions, oldest first, without removing them
func (b *Buffer) GetLatest(n int) []Transition {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.size {
		n = b.size
	}
	if n < 0 {
		n = 0
	}

	result := make([]Transition, n)
	for i := 0; i < n; i++ {
		idx := (b.head - n + i + b.capacity) % b.capacity
		result[i] = b.buffer[idx]
	}
	return result
}

// Size returns the current number of transitions in the buffer
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum capacity of the buffer
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Clear removes all transitions from the buffer
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.size = 0
	b.head = 0
	b.tail = 0
	b.buffer = make([]Transition, b.capacity)

	b.logger.Debug().Msg("Buffer cleared")
}

// Close marks the buffer closed. Further writes fail with ErrBufferClosed.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.logger.Info().
		Int64("total_added", b.totalAdded).
		Int64("total_dropped", b.totalDropped).
		Int64("total_sampled", b.totalSampled).
		Msg("Buffer closed")
	return nil
}

// Stats returns buffer statistics
func (b *Buffer) Stats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BufferStats{
		CurrentSize:    b.size,
		Capacity:       b.capacity,
		TotalAdded:     b.totalAdded,
		TotalDropped:   b.totalDropped,
		TotalSampled:   b.totalSampled,
		UtilizationPct: float64(b.size) / float64(b.capacity) * 100,
	}
}

// BufferStats contains buffer statistics
type BufferStats struct {
	CurrentSize    int
	Capacity       int
	TotalAdded     int64
	TotalDropped   int64
	TotalSampled   int64
	UtilizationPct float64
}
