package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	inbound "github.com/gateward/gateward/internal/adapter/inbound/http"
	"github.com/gateward/gateward/internal/adapter/outbound/memory"
	"github.com/gateward/gateward/internal/adapter/outbound/sqlite"
	"github.com/gateward/gateward/internal/config"
	"github.com/gateward/gateward/internal/domain/elicitation"
	"github.com/gateward/gateward/internal/domain/scope"
	"github.com/gateward/gateward/internal/domain/token"
	"github.com/gateward/gateward/internal/observe"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the control-plane server",
	Long: `Start the Gateward control-plane server.

The server exposes:
  /health            liveness and capacity status
  /metrics           Prometheus metrics
  /elicitations      elicitation broker API

Every other route passes through the token-scope authorization
engine before reaching the configured downstream handler.

Examples:
  # Start with config file settings
  gateward start

  # Start with a specific config file
  gateward --config /path/to/config.yaml start

  # Start in development mode (in-memory store, debug logging)
  gateward start --dev`,
	RunE: runStart,
}

var devMode bool

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (debug logging, relaxed validation)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load configuration without validation so CLI flags can override
	// first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stop() restores default signal handling so a second Ctrl+C does
	// a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}
	if cfg.DevMode {
		logger.Warn("development mode enabled, do not use in production")
	}

	return run(ctx, cfg, logger)
}

// run wires all components together and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tracingShutdown, err := observe.SetupTracing(cfg.Tracing.Enabled, "gateward", Version)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	extractor := token.NewExtractor([]byte(cfg.Auth.JWTSecret), logger)

	evalOpts := []scope.EvaluatorOption{}
	if len(cfg.Scope.ExemptPrefixes) > 0 {
		evalOpts = append(evalOpts, scope.WithExemptPrefixes(cfg.Scope.ExemptPrefixes))
	}
	if cfg.Scope.Guard != "" {
		guard, err := scope.NewGuard(cfg.Scope.Guard)
		if err != nil {
			return fmt.Errorf("failed to compile scope guard: %w", err)
		}
		evalOpts = append(evalOpts, scope.WithGuard(guard))
		logger.Info("scope guard enabled")
	}
	evaluator := scope.NewEvaluator(store, extractor, logger, evalOpts...)

	broker := elicitation.NewBroker(elicitation.Config{
		DefaultTimeout: cfg.Elicitation.DefaultTimeoutDuration(),
		MaxConcurrent:  cfg.Elicitation.MaxConcurrent,
		SweepInterval:  cfg.Elicitation.SweepIntervalDuration(),
	}, logger)
	broker.Start()
	defer broker.Shutdown()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := inbound.NewMetrics(registry, func() float64 {
		return float64(broker.PendingCount())
	})

	checker := inbound.NewHealthChecker(broker, Version)
	router := inbound.NewRouter(evaluator, broker, metrics, checker, registry, logger, nil)
	server := inbound.NewServer(cfg.Server.HTTPAddr, router.Handler(), cfg.Server.ShutdownTimeoutDuration(), logger)

	logger.Info("gateward starting",
		"version", Version,
		"addr", cfg.Server.HTTPAddr,
		"store", cfg.Store.Backend,
		"max_concurrent_elicitations", cfg.Elicitation.MaxConcurrent,
	)
	if err := server.Serve(ctx); err != nil {
		return err
	}
	logger.Info("gateward stopped")
	return nil
}

// buildStore constructs the scope store per cfg.Store.Backend.
func buildStore(cfg *config.Config, logger *slog.Logger) (scope.Store, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		s, err := sqlite.NewStore(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Warn("failed to close sqlite store", "error", err)
			}
		}, nil

	case "memory":
		s := memory.NewScopeStore()
		if cfg.Store.SeedFile != "" {
			if err := s.LoadSeed(cfg.Store.SeedFile); err != nil {
				return nil, nil, fmt.Errorf("failed to load seed file: %w", err)
			}
			logger.Info("seeded memory store", "file", cfg.Store.SeedFile)
		}
		return s, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
