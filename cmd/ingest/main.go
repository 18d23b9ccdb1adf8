// Package main provides the entry point for the ingestion daemon.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/config"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/datasource"
	"github.com/yourusername/rebound-edge/internal/health"
	applogger "github.com/yourusername/rebound-edge/internal/logger"
	"github.com/yourusername/rebound-edge/internal/metrics"
	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/internal/registry"
	"github.com/yourusername/rebound-edge/internal/repository"
	"github.com/yourusername/rebound-edge/internal/scheduler"
	"github.com/yourusername/rebound-edge/internal/service"
)

// rosterSyncSchedule polls roster transactions between the nightly syncs.
const rosterSyncSchedule = "@every 6h"

func main() {
	configPath := os.Getenv("REBOUND_EDGE_CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		log.Fatalf("Failed to load secrets: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
	}).Info("Rebound Edge ingestion daemon starting")

	metrics.InitRegistry()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	assignmentRows, err := repos.Assignments.GetAll(ctx)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to load assignments")
	}
	reg, err := registry.NewFromAssignments(assignmentRows, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to build registry")
	}
	appLog.WithField("players", len(reg.Snapshot().Players())).Info("Registry loaded")

	// Stats API source
	httpLogger := log.New(os.Stdout, "stats-http: ", log.LstdFlags)
	httpClient := datasource.NewRateLimitedHTTPClient(datasource.HTTPClientConfig{
		Timeout:           cfg.StatsAPITimeout(),
		MaxRetries:        cfg.StatsAPI.RetryAttempts,
		RetryWaitMin:      1 * time.Second,
		RetryWaitMax:      30 * time.Second,
		RateLimit:         cfg.StatsAPI.RateLimitPerSecond,
		CircuitBreakerMax: 5,
	}, httpLogger)
	statsClient := datasource.NewStatsAPIClient(httpClient, cfg.StatsAPI.BaseURL, cfg.StatsAPI.APIKey, httpLogger)

	ingestionSvc := service.NewIngestionService(
		[]datasource.GameLogSource{statsClient},
		repos.Observations,
		repos.Assignments,
		reg,
		service.NewDataValidator(appLog),
		service.NewDataNormalizer(appLog),
		appLog,
		cfg.Ingestion.BatchSize,
	)

	sched := scheduler.NewScheduler(ingestionSvc, appLog)
	if err := sched.ScheduleNightlySync(cfg.Ingestion.NightlySync, statsClient.Name()); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule nightly sync")
	}
	if err := sched.ScheduleRosterSync(rosterSyncSchedule, statsClient.Name()); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule roster sync")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	// Quote feed
	quoteLog := applogger.WithComponent(appLog, "quote_feed")
	quoteLogger := log.New(os.Stdout, "quote-feed: ", log.LstdFlags)
	quoteFeed := datasource.NewQuoteFeedClient(cfg.QuoteFeed.URL, cfg.QuoteFeed.APIKey, cfg.QuoteFeed.Books, quoteLogger)
	quoteFeed.SetReconnectConfig(datasource.ReconnectConfig{InitialBackoff: cfg.QuoteFeedReconnectBackoff()})
	quoteFeed.AddHandler(func(quote *models.MarketQuote) error {
		if err := repos.Quotes.Insert(ctx, quote); err != nil {
			quoteLog.WithError(err).WithField("player_id", quote.PlayerID).Error("Failed to persist quote")
			return err
		}
		metrics.RecordQuoteIngested()
		return nil
	})

	if err := quoteFeed.ConnectWithRetry(ctx); err != nil {
		quoteLog.WithError(err).Error("Quote feed connection failed; continuing without live quotes")
	} else {
		if err := quoteFeed.Subscribe("player_rebounds"); err != nil {
			quoteLog.WithError(err).Error("Quote feed subscription failed")
		}
		defer quoteFeed.Close()
	}

	// Health and metrics endpoint
	healthServer := health.NewServer(health.Config{
		ServiceName:    cfg.App.Name + "-ingest",
		Port:           cfg.Metrics.Port,
		MetricsPath:    cfg.Metrics.Path,
		MetricsEnabled: cfg.Metrics.Enabled,
		Logger:         appLog,
		DB:             db,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}
	healthServer.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"nightly_sync": cfg.Ingestion.NightlySync,
		"roster_sync":  rosterSyncSchedule,
		"next_run":     sched.GetNextRun(),
		"quote_feed":   quoteFeed.IsConnected(),
	}).Info("Ingestion daemon running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)
	cancel()

	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}

	time.Sleep(2 * time.Second)

	appLog.Info("Ingestion daemon shut down successfully")
}
