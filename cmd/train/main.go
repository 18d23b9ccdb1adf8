// Package main provides the CLI for training and activating model artifacts.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/rebound-edge/internal/config"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/features"
	applogger "github.com/yourusername/rebound-edge/internal/logger"
	"github.com/yourusername/rebound-edge/internal/model"
	"github.com/yourusername/rebound-edge/internal/registry"
	"github.com/yourusername/rebound-edge/internal/repository"
)

var (
	configFile string
	cutoffFlag string
	activate   bool

	logger *logrus.Logger
	cfg    *config.Config
	db     *database.DB
	repos  *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	trainCmd.Flags().StringVar(&cutoffFlag, "cutoff", "", "Only train on games before this date (YYYY-MM-DD, default now)")
	trainCmd.Flags().BoolVar(&activate, "activate", false, "Activate the new artifact after training")
	activateCmd.Flags().String("version", "", "Artifact version to activate")
	activateCmd.MarkFlagRequired("version")
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Train rebound prediction model artifacts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		db.Close()
	},
}

var trainCmd = &cobra.Command{
	Use:   "run",
	Short: "Train a new artifact from stored observations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTraining(cmd.Context())
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Activate a previously trained artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		version, _ := cmd.Flags().GetString("version")
		return activateVersion(cmd.Context(), version)
	},
}

var listCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(trainCmd, activateCmd, listCmd)

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

func runTraining(ctx context.Context) error {
	cutoff := time.Now().UTC()
	if cutoffFlag != "" {
		parsed, err := time.Parse("2006-01-02", cutoffFlag)
		if err != nil {
			return fmt.Errorf("invalid --cutoff %q: %w", cutoffFlag, err)
		}
		cutoff = parsed
	}

	league, err := repos.Observations.GetLeague(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to load observations: %w", err)
	}
	logger.WithField("observations", len(league)).Info("Loaded training observations")

	rows, err := repos.Assignments.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assignments: %w", err)
	}
	reg, err := registry.NewFromAssignments(rows, logger)
	if err != nil {
		return fmt.Errorf("failed to build registry: %w", err)
	}

	builder := features.NewBuilder(features.Config{
		TrailingWindow:      cfg.Model.TrailingWindow,
		MinCoverage:         cfg.Model.MinCoverage,
		EWMAAlpha:           cfg.Model.EWMAAlpha,
		InjuryMinutesFactor: cfg.Model.InjuryMinutesFactor,
	}, logger)

	trainingRows := builder.BuildTrainingSet(league, reg.Snapshot())
	logger.WithField("rows", len(trainingRows)).Info("Built training set")

	artifact, err := model.Train(trainingRows, model.TrainConfig{
		KFolds:            cfg.Model.KFolds,
		Lambdas:           cfg.Model.Lambdas,
		MinTrainingRows:   cfg.Model.MinTrainingRows,
		MinFamilyCoverage: cfg.Model.MinFamilyCoverage,
	}, logger)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if err := repos.Artifacts.Create(ctx, artifact); err != nil {
		return fmt.Errorf("failed to persist artifact: %w", err)
	}

	fmt.Printf("Trained artifact %s (version %s)\n", artifact.ID, artifact.Version)
	fmt.Printf("  rows: %d, lambda: %g, cross-val MAE: %.3f\n", artifact.TrainingRows, artifact.Lambda, artifact.CrossValMAE)

	if activate {
		if err := repos.Artifacts.SetActive(ctx, artifact.ID); err != nil {
			return fmt.Errorf("failed to activate artifact: %w", err)
		}
		applogger.NewAuditLogger(logger).LogArtifactActivation(
			artifact.ID.String(), artifact.Version, artifact.TrainedAt, artifact.CrossValMAE)
		fmt.Println("  activated")
	}

	return nil
}

func activateVersion(ctx context.Context, version string) error {
	artifact, err := repos.Artifacts.GetByVersion(ctx, version)
	if err != nil {
		return fmt.Errorf("failed to load artifact %s: %w", version, err)
	}

	if err := repos.Artifacts.SetActive(ctx, artifact.ID); err != nil {
		return fmt.Errorf("failed to activate artifact: %w", err)
	}

	applogger.NewAuditLogger(logger).LogArtifactActivation(
		artifact.ID.String(), artifact.Version, artifact.TrainedAt, artifact.CrossValMAE)
	fmt.Printf("Activated artifact %s (version %s)\n", artifact.ID, artifact.Version)
	return nil
}

func showStatus(ctx context.Context) error {
	artifact, err := repos.Artifacts.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("no active artifact: %w", err)
	}

	fmt.Printf("Active artifact: %s\n", artifact.ID)
	fmt.Printf("  version:       %s\n", artifact.Version)
	fmt.Printf("  schema:        %s\n", artifact.SchemaVersion)
	fmt.Printf("  trained at:    %s\n", artifact.TrainedAt.Format(time.RFC3339))
	fmt.Printf("  training rows: %d\n", artifact.TrainingRows)
	fmt.Printf("  cross-val MAE: %.3f\n", artifact.CrossValMAE)
	return nil
}
