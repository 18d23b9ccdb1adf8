// Package main provides a one-shot roster synchronization run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yourusername/rebound-edge/internal/config"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/datasource"
	applogger "github.com/yourusername/rebound-edge/internal/logger"
	"github.com/yourusername/rebound-edge/internal/registry"
	"github.com/yourusername/rebound-edge/internal/repository"
	"github.com/yourusername/rebound-edge/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	sinceFlag := flag.String("since", "", "Fetch roster events since this date (YYYY-MM-DD, default 30 days ago)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		log.Fatalf("Failed to load secrets: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	since := time.Now().UTC().AddDate(0, 0, -30)
	if *sinceFlag != "" {
		since, err = time.Parse("2006-01-02", *sinceFlag)
		if err != nil {
			log.Fatalf("Invalid -since date %q: %v", *sinceFlag, err)
		}
	}

	appLog := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

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

	svc := service.NewIngestionService(
		[]datasource.GameLogSource{statsClient},
		repos.Observations,
		repos.Assignments,
		reg,
		service.NewDataValidator(appLog),
		service.NewDataNormalizer(appLog),
		appLog,
		cfg.Ingestion.BatchSize,
	)

	m, err := svc.SyncRoster(ctx, statsClient.Name(), since)
	if err != nil {
		appLog.WithError(err).Fatal("Roster sync failed")
	}

	fmt.Printf("Roster sync complete: %s\n", m.String())
}
