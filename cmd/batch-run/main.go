// Package main provides the CLI for running a valuation batch.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/rebound-edge/internal/batch"
	"github.com/yourusername/rebound-edge/internal/config"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/edge"
	"github.com/yourusername/rebound-edge/internal/features"
	applogger "github.com/yourusername/rebound-edge/internal/logger"
	"github.com/yourusername/rebound-edge/internal/metrics"
	"github.com/yourusername/rebound-edge/internal/model"
	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/internal/registry"
	"github.com/yourusername/rebound-edge/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// predictionCacheSize bounds cached predictions; a full slate quotes a few
// hundred players, so this never evicts within one run.
const predictionCacheSize = 4096

var (
	configFile   string
	dateFlag     string
	scheduleFile string
	playersFlag  string
	dryRun       bool

	logger *logrus.Logger
	cfg    *config.Config
	db     *database.DB
	repos  *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Game date to value (YYYY-MM-DD, default today)")
	rootCmd.Flags().StringVarP(&scheduleFile, "schedule", "s", "./config/schedule.json", "Path to the day's game schedule (JSON)")
	rootCmd.Flags().StringVarP(&playersFlag, "players", "p", "", "Comma-separated player IDs (default: every quoted player)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate without persisting records")
}

var rootCmd = &cobra.Command{
	Use:   "batch-run",
	Short: "Run a rebound-prop valuation batch",
	Long:  `Value every quoted rebound prop for a game date against the active model artifact.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer db.Close()
		return runBatch(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

// repoSink flushes batch output through the repositories.
type repoSink struct {
	edges repository.EdgeRecordRepository
	preds repository.PredictionRepository
}

func (s *repoSink) SaveEdgeRecord(ctx context.Context, rec *models.EdgeRecord) error {
	return s.edges.Insert(ctx, rec)
}

func (s *repoSink) SavePrediction(ctx context.Context, pred *models.PredictionResult) error {
	return s.preds.Insert(ctx, pred)
}

func runBatch(ctx context.Context) error {
	asOf, err := resolveDate()
	if err != nil {
		return err
	}

	rows, err := repos.Assignments.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}
	reg, err := registry.NewFromAssignments(rows, logger)
	if err != nil {
		return fmt.Errorf("failed to build registry: %w", err)
	}

	artifact, err := repos.Artifacts.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active artifact: %w", err)
	}
	metrics.UpdateArtifactAge(time.Since(artifact.TrainedAt).Hours() / 24)

	quotes, err := repos.Quotes.GetByGameDate(ctx, asOf)
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}
	if len(quotes) == 0 {
		return fmt.Errorf("no market quotes stored for %s", asOf.Format("2006-01-02"))
	}

	history, err := repos.Observations.GetLeague(ctx, asOf)
	if err != nil {
		return fmt.Errorf("failed to load observation history: %w", err)
	}

	schedule, err := loadSchedule(scheduleFile)
	if err != nil {
		return err
	}

	roster := resolveRoster(quotes)

	builder := features.NewBuilder(features.Config{
		TrailingWindow:      cfg.Model.TrailingWindow,
		MinCoverage:         cfg.Model.MinCoverage,
		EWMAAlpha:           cfg.Model.EWMAAlpha,
		InjuryMinutesFactor: cfg.Model.InjuryMinutesFactor,
	}, logger)
	predictor := model.NewPredictor(model.PredictConfig{
		PhysiologicalMax: cfg.Model.PhysiologicalMax,
		ConfidenceLevels: cfg.Model.ConfidenceLevels,
	}, logger)
	detector := edge.NewDetector(edge.Config{
		MinEdgeThreshold:   cfg.Valuation.MinEdgeThreshold,
		ProbabilityFloor:   cfg.Valuation.ProbabilityFloor,
		ProbabilityCeiling: cfg.Valuation.ProbabilityCeiling,
	}, logger)

	var sink batch.Sink
	if !dryRun {
		sink = &repoSink{edges: repos.EdgeRecords, preds: repos.Predictions}
	}

	orchestrator := batch.NewOrchestrator(
		batch.Config{
			MaxConcurrency:  cfg.Valuation.MaxConcurrency,
			PredictionCache: model.NewPredictionCache(cfg.PredictionCacheTTL(), predictionCacheSize),
		},
		builder, predictor, detector, sink, logger,
	)

	runStart := time.Now()
	result, err := orchestrator.Run(ctx, batch.Request{
		Roster:   roster,
		AsOfDate: asOf,
		Artifact: artifact,
		Quotes:   quotes,
		Schedule: schedule,
		History:  history,
		Injured:  batch.InjuredFromHistory(history),
	}, reg.Snapshot())
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	audit := applogger.NewAuditLogger(logger)
	bets := 0
	for _, rec := range result.Records {
		if rec.Recommendation == models.RecommendBet {
			audit.LogEdgeRecord(rec)
			bets++
		}
	}
	audit.LogBatchRun(result.RunID.String(), result.Status, len(result.Records), len(result.Failures), time.Since(runStart))

	fmt.Printf("Batch %s finished: %s\n", result.RunID, result.Status)
	fmt.Printf("  %d records (%d flagged as bets), %d failures\n", len(result.Records), bets, len(result.Failures))
	for _, f := range result.Failures {
		fmt.Printf("  skipped %s: %s\n", f.PlayerID, f.Reason)
	}

	if result.Status == models.BatchIncomplete {
		return fmt.Errorf("batch run was cancelled before completing")
	}
	return nil
}

func resolveDate() (time.Time, error) {
	if dateFlag == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse("2006-01-02", dateFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", dateFlag, err)
	}
	return d, nil
}

// scheduleEntry is one game in the schedule file. Each game appears twice,
// once from each team's perspective.
type scheduleEntry struct {
	TeamID         string `json:"team_id"`
	OpponentTeamID string `json:"opponent_team_id"`
	GameDate       string `json:"game_date"`
	Home           bool   `json:"home"`
}

func loadSchedule(path string) ([]*batch.UpcomingGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var entries []scheduleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file: %w", err)
	}

	games := make([]*batch.UpcomingGame, 0, len(entries))
	for _, e := range entries {
		gameDate, err := time.Parse("2006-01-02", e.GameDate)
		if err != nil {
			return nil, fmt.Errorf("invalid game_date %q in schedule: %w", e.GameDate, err)
		}
		games = append(games, &batch.UpcomingGame{
			TeamID:         e.TeamID,
			OpponentTeamID: e.OpponentTeamID,
			GameDate:       gameDate,
			Home:           e.Home,
		})
	}
	return games, nil
}

func resolveRoster(quotes []*models.MarketQuote) []string {
	if playersFlag != "" {
		parts := strings.Split(playersFlag, ",")
		roster := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				roster = append(roster, trimmed)
			}
		}
		return roster
	}

	roster := make([]string, 0, len(quotes))
	for _, q := range quotes {
		roster = append(roster, q.PlayerID)
	}
	return roster
}
