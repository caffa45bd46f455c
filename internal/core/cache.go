// Package core holds the ports and small orchestration helpers shared by the agenda services.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// CacheRepository defines the interface for caching operations.
// The data layer provides the Redis implementation.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil when the key is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	// SetIfNotExists atomically sets a key only if it is absent and reports whether it did.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Health checks the cache connection.
	Health(ctx context.Context) error
}

// JobSnapshotCache stores prefetched job lists keyed by their fetch window.
//
// Keys embed a generation token. Invalidate rotates the token so every older snapshot
// becomes unreachable and ages out through its TTL.
type JobSnapshotCache struct {
	cache  CacheRepository
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// JobSnapshotCacheOptions bundles dependencies for NewJobSnapshotCache.
type JobSnapshotCacheOptions struct {
	Cache  CacheRepository
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

// NewJobSnapshotCache returns nil when no cache repository is configured; a nil
// *JobSnapshotCache is valid and always misses.
func NewJobSnapshotCache(opts JobSnapshotCacheOptions) *JobSnapshotCache {
	if opts.Cache == nil || opts.TTL <= 0 {
		return nil
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "agenda"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobSnapshotCache{
		cache:  opts.Cache,
		ttl:    opts.TTL,
		prefix: prefix,
		logger: logger.With("component", "job_snapshot_cache"),
	}
}

// Load returns the cached snapshot for opts. The boolean is false on a miss.
func (c *JobSnapshotCache) Load(ctx context.Context, opts model.JobListOptions) ([]model.Job, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	key, err := c.snapshotKey(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	var jobs []model.Job
	if err := json.Unmarshal(raw, &jobs); err != nil {
		c.logger.WarnContext(ctx, "discarding unreadable snapshot", "key", key, "error", err)
		if _, derr := c.cache.Delete(ctx, key); derr != nil {
			c.logger.WarnContext(ctx, "delete unreadable snapshot failed", "key", key, "error", derr)
		}
		return nil, false, nil
	}
	return jobs, true, nil
}

// Store caches jobs as the snapshot for opts.
func (c *JobSnapshotCache) Store(ctx context.Context, opts model.JobListOptions, jobs []model.Job) error {
	if c == nil {
		return nil
	}
	key, err := c.snapshotKey(ctx, opts)
	if err != nil {
		return err
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	payload, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.cache.Set(ctx, key, payload, c.ttl)
}

// Invalidate makes every stored snapshot unreachable.
func (c *JobSnapshotCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.cache.Set(ctx, c.generationKey(), []byte(uuid.NewString()), 0)
}

// TryLock claims name for ttl across replicas and reports whether this caller won.
// Without a cache every caller wins.
func (c *JobSnapshotCache) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if c == nil {
		return true, nil
	}
	return c.cache.SetIfNotExists(ctx, c.prefix+":lock:"+name, []byte(uuid.NewString()), ttl)
}

// Health reports the state of the underlying cache.
func (c *JobSnapshotCache) Health(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.cache.Health(ctx)
}

func (c *JobSnapshotCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *JobSnapshotCache) generation(ctx context.Context) (string, error) {
	gen, err := c.cache.Get(ctx, c.generationKey())
	if err != nil {
		return "", err
	}
	if len(gen) == 0 {
		return "0", nil
	}
	return string(gen), nil
}

func (c *JobSnapshotCache) snapshotKey(ctx context.Context, opts model.JobListOptions) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return c.prefix + ":jobs:" + gen + ":" + windowKey(opts), nil
}

// windowKey renders the fetch parameters in a stable form.
func windowKey(opts model.JobListOptions) string {
	statuses := make([]string, 0, len(opts.Statuses))
	for _, s := range opts.Statuses {
		statuses = append(statuses, string(s))
	}
	slices.Sort(statuses)
	return fmt.Sprintf("%s:%s:%s:%d",
		unixOrAll(opts.From), unixOrAll(opts.To), strings.Join(statuses, ","), opts.Limit)
}

func unixOrAll(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return fmt.Sprintf("%d", t.Unix())
}
