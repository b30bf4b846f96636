// Firewatch Core - Sprinkler Fleet Monitoring
//
// This is the main entry point for the Firewatch Core application.
// Firewatch gives fire services a live view of residential irrigation
// controllers: homeowners register their provider API key, and duty
// officers see which properties can water down on demand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/firewatch/firewatch-core/migrations"

	"github.com/firewatch/firewatch-core/internal/api"
	"github.com/firewatch/firewatch-core/internal/device"
	"github.com/firewatch/firewatch-core/internal/fleet"
	"github.com/firewatch/firewatch-core/internal/infrastructure/config"
	"github.com/firewatch/firewatch-core/internal/infrastructure/database"
	"github.com/firewatch/firewatch-core/internal/infrastructure/influxdb"
	"github.com/firewatch/firewatch-core/internal/infrastructure/logging"
	"github.com/firewatch/firewatch-core/internal/provider"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Firewatch Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	deviceRegistry := device.NewRegistry(deviceRepo)
	deviceRegistry.SetLogger(log)

	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.Count())

	// Provider client and account resolver
	providerClient, err := provider.New(provider.Config{
		BaseURL:        cfg.Provider.BaseURL,
		Timeout:        cfg.GetProviderTimeout(),
		ZoneRunSeconds: cfg.Provider.ZoneRunSeconds,
	})
	if err != nil {
		return fmt.Errorf("creating provider client: %w", err)
	}
	resolver := provider.NewResolver(providerClient)
	log.Info("provider client initialised", "base_url", cfg.Provider.BaseURL)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Fleet services
	registrar := fleet.NewRegistrar(resolver, deviceRegistry)
	registrar.SetLogger(log)

	aggregator := fleet.NewAggregator(providerClient, fleet.AggregatorConfig{
		MaxConcurrent:    cfg.Fleet.MaxConcurrent,
		SnapshotTimeout:  cfg.GetSnapshotTimeout(),
		RefreshOwnerInfo: cfg.Fleet.RefreshOwnerInfo,
	})
	aggregator.SetLogger(log)
	if cfg.Fleet.RefreshOwnerInfo {
		aggregator.SetAccountResolver(resolver)
	}
	if influxClient != nil {
		aggregator.SetMetricsSink(influxClient)
	}

	controller := fleet.NewController(providerClient, deviceRegistry)
	controller.SetLogger(log)

	// HTTP API server
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Registry:   deviceRegistry,
		Registrar:  registrar,
		Aggregator: aggregator,
		Controller: controller,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. Database

	log.Info("Firewatch Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FIREWATCH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FIREWATCH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
