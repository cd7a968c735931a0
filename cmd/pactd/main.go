package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rohit0110/pact/internal/api"
	"github.com/rohit0110/pact/internal/config"
	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/oracle"
	"github.com/rohit0110/pact/internal/orchestrator"
	"github.com/rohit0110/pact/internal/pact"
	"github.com/rohit0110/pact/internal/retry"
	"github.com/rohit0110/pact/internal/services"
	"github.com/rohit0110/pact/internal/storage"
)

// backend is a store that also keeps the activity feed
type backend interface {
	storage.Store
	storage.ActivityRepository
}

func main() {
	fmt.Println("🤝 Starting pactd...")

	// 1. Load configuration
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	// 2. Configure logger
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Configuration loaded",
		"program_id", cfg.ProgramID,
		"fee_account", cfg.FeeAccount,
		"store", cfg.StoreDriver,
		"log_level", cfg.LogLevel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Open the store
	strategy := retry.NewStrategy(cfg.Retry)
	store, err := openStore(ctx, cfg, strategy)
	if err != nil {
		log.Fatalf("❌ Failed to open store: %v", err)
	}
	defer store.Close()
	slog.Info("Store opened successfully", "driver", cfg.StoreDriver)

	// 4. Follow-up services run after every committed transition
	deriver, err := custody.NewDeriver(cfg.ProgramID)
	if err != nil {
		log.Fatalf("❌ Failed to create deriver: %v", err)
	}
	orch := orchestrator.New([]services.Service{
		services.NewActivityService(store),
		services.NewProfileService(store, deriver, strategy),
		services.NewMetricsService(),
	}, cfg.EventQueueSize)
	// Follow-ups outlive ctx so Stop can drain the queue after the sweep ends
	orch.Start(context.Background())

	// 5. Create the lifecycle engine
	engine, err := pact.NewEngine(store, deriver, cfg.FeeAccount, pact.WithPublisher(orch))
	if err != nil {
		log.Fatalf("❌ Failed to create engine: %v", err)
	}

	// 6. Start the API server
	server := api.NewServer(cfg.APIPort, engine, store, store)
	if err := server.Start(); err != nil {
		log.Fatalf("❌ Failed to start API server: %v", err)
	}

	// 7. Optional elimination sweep
	sweepDone := make(chan struct{})
	if cfg.OracleEnabled {
		sweeper := oracle.NewSweeper(engine, oracle.Config{
			Workers:   cfg.OracleWorkers,
			VerifyRPS: cfg.OracleVerifyRPS,
		})
		go func() {
			defer close(sweepDone)
			sweeper.Run(ctx, cfg.OracleInterval)
		}()
	} else {
		close(sweepDone)
		slog.Info("Oracle sweeper disabled")
	}

	// 8. Wait for interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	slog.Warn("Interrupt received, shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error stopping API server", "error", err)
	}

	cancel()
	<-sweepDone
	orch.Stop()

	slog.Info("pactd stopped")
}

// openStore opens the configured backend, retrying transient connection failures
func openStore(ctx context.Context, cfg *config.Config, strategy retry.Strategy) (backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		opts := storage.DefaultPostgresOptions()
		opts.MaxConns = cfg.DBMaxConns

		var store *storage.PostgresStore
		err := strategy.Execute(ctx, "connect_postgres", func(ctx context.Context) error {
			var err error
			store, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverSQLite:
		store, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		slog.Warn("Using in-memory store, state is lost on restart")
		return storage.NewMemoryStore(), nil
	}
}
