package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dealerops/agenda-api/config"
	"github.com/dealerops/agenda-api/internal/adapters/warmer"
	"github.com/dealerops/agenda-api/internal/core"
	"github.com/dealerops/agenda-api/internal/data"
	"github.com/dealerops/agenda-api/internal/observability/statsd"
	"github.com/dealerops/agenda-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Agenda  *service.AgendaService
	Status  *service.JobStatusService
	Jobs    *data.JobRepo
	Cache   *core.JobSnapshotCache
	Metrics statsd.Sink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildMetrics returns the StatsD sink, or nil when metrics are disabled or the dial fails.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) statsd.Sink {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

func buildSnapshotCache(client redis.UniversalClient, cfg config.CacheConfig, logger *slog.Logger) *core.JobSnapshotCache {
	if client == nil {
		return nil
	}
	return core.NewJobSnapshotCache(core.JobSnapshotCacheOptions{
		Cache:  data.NewRedisCacheRepo(client),
		TTL:    cfg.AgendaTTL,
		Prefix: cfg.KeyPrefix,
		Logger: logger,
	})
}

// NewServices wires the repositories, cache and services described by deps.Config.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database connection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	cal, err := cfg.Agenda.Calendar()
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("agenda calendar: %w", err)
	}
	paths, err := cfg.Agenda.CompiledSearchPaths()
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("agenda search paths: %w", err)
	}

	metricsSink := buildMetrics(logger, cfg.Observability.Metrics)
	jobs := data.NewJobRepo(deps.DB, data.RepoConfig{Logger: logger, DefaultLimit: cfg.Agenda.MaxJobs})
	cache := buildSnapshotCache(deps.RedisClient, cfg.Cache, logger)

	agendaSvc, err := service.NewAgendaService(service.AgendaServiceOptions{
		Source: jobs,
		Settings: service.AgendaSettings{
			Calendar:    cal,
			Flags:       cfg.Agenda.PipelineFlags(),
			SearchPaths: paths,
			MaxJobs:     cfg.Agenda.MaxJobs,
		},
		Cache:   cache,
		Metrics: metricsSink,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}
	statusSvc, err := service.NewJobStatusService(service.JobStatusServiceOptions{
		Jobs:     jobs,
		Calendar: cal,
		Cache:    cache,
		Metrics:  metricsSink,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	return ServiceContainer{
		Agenda:  agendaSvc,
		Status:  statusSvc,
		Jobs:    jobs,
		Cache:   cache,
		Metrics: metricsSink,
	}, nil
}

// Close releases resources owned by the container.
func (c ServiceContainer) Close() error {
	if client, ok := c.Metrics.(*statsd.Client); ok {
		return client.Close()
	}
	return nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// shutdownWaitTimeout is the maximum time to wait for background services to stop.
const shutdownWaitTimeout = 15 * time.Second

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

func launchBackground(deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(deps.ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-deps.ctx.Done():
			default:
				deps.logger.WarnContext(deps.ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(deps.ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func newWarmerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeAgendaWarmer,
		name: "agenda warmer",
		start: func(ctx context.Context) error {
			if deps.cfg.Services.Cache == nil {
				deps.logger.WarnContext(ctx, "agenda warmer enabled without a cache; nothing to warm")
				<-ctx.Done()
				return nil
			}
			runner, err := warmer.NewRunner(warmer.RunnerOptions{
				Agenda:  deps.cfg.Services.Agenda,
				Config:  deps.cfg.Config.Warmer,
				Logger:  deps.logger,
				Metrics: deps.cfg.Services.Metrics,
			})
			if err != nil {
				return fmt.Errorf("create warmer: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func startBackgroundServices(deps *serviceStartupDeps) []backgroundServiceHandle {
	descriptors := []backgroundService{
		newWarmerBackgroundService(deps),
	}
	handles := make([]backgroundServiceHandle, 0, len(descriptors))
	for _, svc := range descriptors {
		if done := launchBackground(deps, svc); done != nil {
			handles = append(handles, backgroundServiceHandle{name: svc.name, done: done})
		}
	}
	return handles
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))
	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	}

	var server *http.Server
	if enabledServices[config.ServiceModeHTTP] {
		server = StartHTTPServer(&HTTPServerConfig{Config: cfg.Config, Services: cfg.Services, Logger: logger})
	}
	backgrounds := startBackgroundServices(deps)

	return waitForShutdown(shutdownConfig{
		ctx:             serviceCtx,
		cancel:          cancel,
		errCh:           errCh,
		httpServer:      server,
		shutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     backgrounds,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

type shutdownConfig struct {
	ctx             context.Context
	cancel          context.CancelFunc
	errCh           <-chan error
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

func gracefulStop(cfg shutdownConfig) error {
	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: cfg.ctx,
		Server:  cfg.httpServer,
		Timeout: cfg.shutdownTimeout,
		Logger:  cfg.logger,
	}); err != nil {
		return err
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
	return nil
}

func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	timer := time.NewTimer(shutdownWaitTimeout)
	defer timer.Stop()
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-timer.C:
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
