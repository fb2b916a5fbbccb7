package experience

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mitchelldurbincs/MoldMazeRL/internal/config"
	"github.com/rs/zerolog"
)

var (
	// ErrPersistenceNotConfigured is returned when persistence operations are attempted without configuration
	ErrPersistenceNotConfigured = errors.New("persistence layer not configured")
	// ErrInvalidPersistenceType is returned when an unknown persistence type is specified
	ErrInvalidPersistenceType = errors.New("invalid persistence type")
)

// PartialWriteError reports a batch write that failed after the first
// Written transitions were already stored
type PartialWriteError struct {
	Written int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("wrote %d transitions before failing: %v", e.Written, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// PersistenceType represents the type of persistence backend
type PersistenceType string

const (
	// PersistenceTypeNone disables persistence
	PersistenceTypeNone PersistenceType = "none"
	// PersistenceTypeFile writes JSON lines to rotating files
	PersistenceTypeFile PersistenceType = "file"
	// PersistenceTypeRedis appends to one redis list per episode
	PersistenceTypeRedis PersistenceType = "redis"
)

// AllEpisodes can be passed to Read to skip episode filtering
const AllEpisodes = -1

// PersistenceLayer defines the interface for persisting transitions
type PersistenceLayer interface {
	// Write persists a batch of transitions. A failure after part of the batch
	// was stored is reported as a *PartialWriteError.
	Write(ctx context.Context, ts []Transition) error

	// Read retrieves up to limit transitions of an episode (limit <= 0 means all)
	Read(ctx context.Context, episodeID int, limit int) ([]Transition, error)

	// Close cleanly shuts down the persistence layer
	Close() error

	// Stats returns persistence statistics
	Stats() PersistenceStats
}

// PersistenceStats contains statistics about persistence operations
type PersistenceStats struct {
	TotalWritten  int64
	TotalRead     int64
	BytesWritten  int64
	WriteErrors   int64
	ReadErrors    int64
	LastWriteTime time.Time
	LastReadTime  time.Time
}

// NewPersistenceLayer creates a persistence layer based on configuration
func NewPersistenceLayer(ctx context.Context, cfg config.PersistenceConfig, logger zerolog.Logger) (PersistenceLayer, error) {
	switch PersistenceType(cfg.Type) {
	case PersistenceTypeNone, "":
		return &NullPersistence{}, nil
	case PersistenceTypeFile:
		return NewFilePersistence(cfg.File.Dir, int64(cfg.File.MaxFileSizeMB)*1024*1024, logger)
	case PersistenceTypeRedis:
		return NewRedisPersistence(ctx, cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPersistenceType, cfg.Type)
	}
}

// FilePersistence writes transitions as JSON lines, starting a new file once
// the current one reaches maxFileSize
type FilePersistence struct {
	baseDir     string
	maxFileSize int64
	logger      zerolog.Logger

	mu    sync.RWMutex
	stats PersistenceStats

	currentFile *os.File
	currentSize int64
	fileIndex   int
}

// NewFilePersistence creates a new file-based persistence layer
func NewFilePersistence(baseDir string, maxFileSize int64, logger zerolog.Logger) (*FilePersistence, error) {
	if baseDir == "" {
		return nil, ErrPersistenceNotConfigured
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	fp := &FilePersistence{
		baseDir:     baseDir,
		maxFileSize: maxFileSize,
		logger:      logger.With().Str("component", "file_persistence").Logger(),
	}
	if err := fp.rotateFile(); err != nil {
		return nil, err
	}
	return fp, nil
}

// Write persists a batch of transitions to the current file
func (fp *FilePersistence) Write(ctx context.Context, ts []Transition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.currentFile == nil {
		return ErrPersistenceNotConfigured
	}

	// stored counts the transitions already flushed to a file
	stored, buffered := 0, 0
	fail := func(err error) error {
		fp.stats.WriteErrors++
		if stored > 0 {
			return &PartialWriteError{Written: stored, Err: err}
		}
		return err
	}

	w := bufio.NewWriter(fp.currentFile)
	for _, t := range ts {
		if fp.maxFileSize > 0 && fp.currentSize >= fp.maxFileSize {
			if err := w.Flush(); err != nil {
				return fail(fmt.Errorf("failed to flush file: %w", err))
			}
			stored += buffered
			buffered = 0
			if err := fp.rotateFile(); err != nil {
				return fail(fmt.Errorf("failed to rotate file: %w", err))
			}
			w = bufio.NewWriter(fp.currentFile)
		}

		data, err := json.Marshal(t)
		if err != nil {
			return fail(fmt.Errorf("failed to marshal transition: %w", err))
		}
		n, err := w.Write(append(data, '\n'))
		if err != nil {
			return fail(fmt.Errorf("failed to write transition: %w", err))
		}

		buffered++
		fp.currentSize += int64(n)
		fp.stats.TotalWritten++
		fp.stats.BytesWritten += int64(n)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("failed to flush file: %w", err))
	}

	if err := fp.currentFile.Sync(); err != nil {
		fp.logger.Warn().Err(err).Msg("Failed to sync file")
	}
	fp.stats.LastWriteTime = time.Now()

	fp.logger.Debug().
		Int("batch_size", len(ts)).
		Int64("file_size", fp.currentSize).
		Msg("Wrote transition batch to file")
	return nil
}

// Read scans every transition file in order and returns matching transitions
func (fp *FilePersistence) Read(ctx context.Context, episodeID int, limit int) ([]Transition, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	files, err := filepath.Glob(filepath.Join(fp.baseDir, "transitions_*.jsonl"))
	if err != nil {
		fp.stats.ReadErrors++
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Strings(files)

	var out []Transition
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		ts, err := readTransitionFile(file, episodeID, limit-len(out))
		if err != nil {
			fp.stats.ReadErrors++
			fp.logger.Warn().Err(err).Str("file", file).Msg("Failed to read transition file")
			continue
		}
		out = append(out, ts...)
	}

	fp.stats.LastReadTime = time.Now()
	fp.stats.TotalRead += int64(len(out))
	return out, nil
}

func readTransitionFile(filename string, episodeID, limit int) ([]Transition, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var out []Transition
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if limit > 0 && len(out) >= limit {
			break
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var t Transition
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transition: %w", err)
		}
		if episodeID == AllEpisodes || t.EpisodeID == episodeID {
			out = append(out, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return out, nil
}

// rotateFile opens a new file, then closes the current one. The current file
// stays open when the new one cannot be created.
func (fp *FilePersistence) rotateFile() error {
	timestamp := time.Now().Format("20060102_150405")
	var filename string
	for {
		filename = filepath.Join(fp.baseDir, fmt.Sprintf("transitions_%s_%04d.jsonl", timestamp, fp.fileIndex))
		fp.fileIndex++
		if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
			break
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if fp.currentFile != nil {
		if err := fp.currentFile.Close(); err != nil {
			fp.logger.Warn().Err(err).Msg("Failed to close previous file")
		}
	}
	fp.currentFile = file
	fp.currentSize = 0

	fp.logger.Info().Str("filename", filename).Msg("Rotated to new transition file")
	return nil
}

// Close flushes and closes the current file
func (fp *FilePersistence) Close() error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.currentFile == nil {
		return nil
	}
	err := fp.currentFile.Close()
	fp.currentFile = nil
	return err
}

// Stats returns persistence statistics
func (fp *FilePersistence) Stats() PersistenceStats {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return fp.stats
}

// NullPersistence is a no-op persistence layer
type NullPersistence struct{}

func (n *NullPersistence) Write(ctx context.Context, ts []Transition) error {
	return nil
}

func (n *NullPersistence) Read(ctx context.Context, episodeID int, limit int) ([]Transition, error) {
	return nil, nil
}

func (n *NullPersistence) Close() error {
	return nil
}

func (n *NullPersistence) Stats() PersistenceStats {
	return PersistenceStats{}
}
