// Package warmer keeps the agenda snapshot cache hot for the common named ranges.
package warmer

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dealerops/agenda-api/config"
	"github.com/dealerops/agenda-api/internal/domain/agenda"
	"github.com/dealerops/agenda-api/internal/observability/metrics"
	"github.com/dealerops/agenda-api/internal/observability/statsd"
	"github.com/dealerops/agenda-api/internal/service"
)

// Warmer refreshes the cached snapshot for one named range.
type Warmer interface {
	Warm(ctx context.Context, name agenda.RangeName) (service.WarmResult, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Agenda  Warmer // Required
	Config  config.WarmerConfig
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Runner refreshes the configured ranges on a fixed interval.
type Runner struct {
	agenda      Warmer
	ranges      []agenda.RangeName
	interval    time.Duration
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewRunner creates a new warmer runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Agenda == nil {
		return nil, errors.New("agenda service is required")
	}
	cfg := opts.Config
	cfg.Sanitize()

	ranges, err := parseRanges(cfg.Ranges)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		agenda:      opts.Agenda,
		ranges:      ranges,
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		logger:      logger.With("component", "agenda_warmer"),
		metrics:     opts.Metrics,
	}, nil
}

func parseRanges(values []string) ([]agenda.RangeName, error) {
	if len(values) == 0 {
		return nil, errors.New("at least one range is required")
	}
	seen := make(map[agenda.RangeName]bool, len(values))
	out := make([]agenda.RangeName, 0, len(values))
	for _, v := range values {
		name, err := agenda.ParseRangeName(v)
		if err != nil {
			return nil, fmt.Errorf("warmer ranges: %w", err)
		}
		if name == "" || name == agenda.RangeCustom {
			return nil, fmt.Errorf("warmer ranges: %q cannot be warmed", v)
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

// Ranges returns the ranges refreshed on each tick.
func (r *Runner) Ranges() []agenda.RangeName {
	return append([]agenda.RangeName(nil), r.ranges...)
}

// Run warms immediately, then on every interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting agenda warmer",
		"interval", r.interval,
		"ranges", r.ranges,
		"concurrency", r.concurrency,
	)

	// Replicas started together spread their first tick.
	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.Tick(ctx); err != nil {
		r.logger.WarnContext(ctx, "initial warm-up failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "agenda warmer stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := r.Tick(ctx); err != nil {
				r.logger.WarnContext(ctx, "warm-up failed", "error", err)
			}
		}
	}
}

// Tick warms every configured range once. A failing range does not stop the others; the
// returned error joins every failure.
func (r *Runner) Tick(ctx context.Context) error {
	start := time.Now()
	tickCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, name := range r.ranges {
		g.Go(func() error {
			res, err := r.agenda.Warm(tickCtx, name)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			r.logger.DebugContext(tickCtx, "range warmed", "range", name, "jobs", res.Jobs, "skipped", res.Skipped)
			return nil
		})
	}
	_ = g.Wait()

	metrics.EmitWarmTick(r.metrics, len(r.ranges), len(errs), time.Since(start))
	return errors.Join(errs...)
}

func (r *Runner) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		r.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
