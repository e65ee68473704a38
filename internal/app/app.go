// Package app wires configuration, storage, the price oracle, the execution
// engine and the strategy runner into one initialized application shared by
// the server entrypoints.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
	"github.com/raeisisep-star/titan/internal/oracle"
	"github.com/raeisisep-star/titan/internal/services/execution"
	"github.com/raeisisep-star/titan/internal/services/strategy"
	"github.com/raeisisep-star/titan/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	Oracle      interfaces.PriceOracle
	Audit       interfaces.AuditSink
	Engine      interfaces.ExecutionService
	Runner      interfaces.StrategyRunner
	Scheduler   *strategy.Scheduler
	StartupTime time.Time

	feed *oracle.Feed
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, the oracle and the services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, TITAN_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("TITAN_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "titan.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/titan.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		StartupTime: time.Now(),
	}

	if err := a.buildOracle(); err != nil {
		storageManager.Close()
		return nil, err
	}

	a.Audit = execution.NewStoreAuditSink(storageManager.AuditStore(), logger)

	engine := execution.NewEngine(storageManager, a.Oracle, a.Audit, logger, execution.Config{
		FeeRate:       config.Engine.FeeRate,
		OracleTimeout: config.Oracle.GetTimeout(),
	})
	a.Engine = engine

	runner := strategy.NewRunner(storageManager, engine, a.Oracle, a.Audit, logger, config.Runner.MaxConsecutiveFailures)
	a.Runner = runner
	a.Scheduler = strategy.NewScheduler(runner, logger, config.Runner.GetTickInterval())

	logger.Info().
		Str("environment", config.Environment).
		Str("oracle", config.Oracle.Source).
		Dur("startup", time.Since(startupStart)).
		Msg("Application initialized")

	return a, nil
}

// buildOracle constructs the configured price source wrapped in the caching
// fallback layer.
func (a *App) buildOracle() error {
	cfg := a.Config.Oracle

	var source interfaces.PriceOracle
	switch cfg.Source {
	case "static", "":
		source = oracle.NewStatic(cfg.StaticPrices)
	case "http":
		if cfg.BaseURL == "" {
			return fmt.Errorf("oracle source %q requires base_url", cfg.Source)
		}
		source = oracle.NewClient(cfg.BaseURL,
			oracle.WithLogger(a.Logger),
			oracle.WithRateLimit(cfg.RateLimit),
			oracle.WithTimeout(cfg.GetTimeout()),
		)
	case "websocket":
		if cfg.FeedURL == "" {
			return fmt.Errorf("oracle source %q requires feed_url", cfg.Source)
		}
		feed := oracle.NewFeed(cfg.FeedURL, cfg.Symbols, a.Logger)
		a.feed = feed
		source = feed
	default:
		return fmt.Errorf("unknown oracle source %q", cfg.Source)
	}

	a.Oracle = oracle.NewCached(source, cfg.GetTimeout(), cfg.GetMaxAge(), a.Logger)
	return nil
}

// StartBackground launches the strategy scheduler and, when configured, the
// websocket price feed.
func (a *App) StartBackground(ctx context.Context) {
	if a.feed != nil {
		a.feed.Start(ctx)
	}
	a.Scheduler.Start(ctx)
}

// Close shuts down background work and releases storage.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.feed != nil {
		a.feed.Stop()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
