package experience

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultKeyPrefix = "moldmaze:exp"

// RedisPersistence appends transitions to one redis list per episode
type RedisPersistence struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger

	mu    sync.Mutex
	stats PersistenceStats
}

// NewRedisPersistence connects to redis and verifies the connection with PING
func NewRedisPersistence(ctx context.Context, cfg config.RedisPersistenceConfig, logger zerolog.Logger) (*RedisPersistence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisPersistenceWithClient(client, cfg.KeyPrefix, time.Duration(cfg.TTL)*time.Second, logger), nil
}

// NewRedisPersistenceWithClient wraps an existing client
func NewRedisPersistenceWithClient(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *RedisPersistence {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisPersistence{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_persistence").Logger(),
	}
}

// EpisodeKey returns the list key holding an episode's transitions
func (rp *RedisPersistence) EpisodeKey(episodeID int) string {
	return fmt.Sprintf("%s:episode:%d", rp.prefix, episodeID)
}

func (rp *RedisPersistence) indexKey() string {
	return rp.prefix + ":episodes"
}

// Write pipelines one RPUSH per transition plus the expiry and episode index updates
func (rp *RedisPersistence) Write(ctx context.Context, ts []Transition) error {
	if len(ts) == 0 {
		return nil
	}

	var bytes int64
	touched := make(map[int]struct{})
	pipe := rp.client.TxPipeline()
	for _, t := range ts {
		data, err := json.Marshal(t)
		if err != nil {
			rp.recordWriteError()
			return fmt.Errorf("failed to marshal transition: %w", err)
		}
		bytes += int64(len(data))
		pipe.RPush(ctx, rp.EpisodeKey(t.EpisodeID), data)
		touched[t.EpisodeID] = struct{}{}
	}
	for ep := range touched {
		pipe.ZAdd(ctx, rp.indexKey(), redis.Z{Score: float64(ep), Member: ep})
		if rp.ttl > 0 {
			pipe.Expire(ctx, rp.EpisodeKey(ep), rp.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		rp.recordWriteError()
		return fmt.Errorf("failed to write transitions to redis: %w", err)
	}

	rp.mu.Lock()
	rp.stats.TotalWritten += int64(len(ts))
	rp.stats.BytesWritten += bytes
	rp.stats.LastWriteTime = time.Now()
	rp.mu.Unlock()

	rp.logger.Debug().
		Int("batch_size", len(ts)).
		Int("episodes", len(touched)).
		Msg("Wrote transition batch to redis")
	return nil
}

// Read returns an episode's transitions in insertion order. With AllEpisodes
// the episode index is walked in ascending order.
func (rp *RedisPersistence) Read(ctx context.Context, episodeID int, limit int) ([]Transition, error) {
	episodes := []string{rp.EpisodeKey(episodeID)}
	if episodeID == AllEpisodes {
		members, err := rp.client.ZRange(ctx, rp.indexKey(), 0, -1).Result()
		if err != nil {
			rp.recordReadError()
			return nil, fmt.Errorf("failed to list episodes: %w", err)
		}
		episodes = episodes[:0]
		for _, m := range members {
			episodes = append(episodes, rp.prefix+":episode:"+m)
		}
	}

	var out []Transition
	for _, key := range episodes {
		stop := int64(-1)
		if limit > 0 {
			remaining := limit - len(out)
			if remaining <= 0 {
				break
			}
			stop = int64(remaining - 1)
		}
		raw, err := rp.client.LRange(ctx, key, 0, stop).Result()
		if err != nil {
			rp.recordReadError()
			return out, fmt.Errorf("failed to read %s: %w", key, err)
		}
		for _, item := range raw {
			var t Transition
			if err := json.Unmarshal([]byte(item), &t); err != nil {
				rp.recordReadError()
				return out, fmt.Errorf("failed to unmarshal transition: %w", err)
			}
			out = append(out, t)
		}
	}

	rp.mu.Lock()
	rp.stats.TotalRead += int64(len(out))
	rp.stats.LastReadTime = time.Now()
	rp.mu.Unlock()
	return out, nil
}

func (rp *RedisPersistence) recordWriteError() {
	rp.mu.Lock()
	rp.stats.WriteErrors++
	rp.mu.Unlock()
}

func (rp *RedisPersistence) recordReadError() {
	rp.mu.Lock()
	rp.stats.ReadErrors++
	rp.mu.Unlock()
}

// Close closes the redis client
func (rp *RedisPersistence) Close() error {
	return rp.client.Close()
}

// Stats returns persistence statistics
func (rp *RedisPersistence) Stats() PersistenceStats {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.stats
}
