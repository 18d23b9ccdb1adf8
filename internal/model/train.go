// Package model trains and serves the rebound regression model.
//
// Training fits a ridge regression by closed-form normal equations, selects
// the penalty by k-fold cross-validation, and keeps the out-of-sample
// residuals as an empirical predictive distribution. Rebound counts are
// non-negative integers with a right skew, so tail probabilities come from
// residual quantiles rather than a normality assumption.
package model

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/models"
)

// TrainConfig holds training hyperparameters.
type TrainConfig struct {
	KFolds            int
	Lambdas           []float64
	MinTrainingRows   int
	MinFamilyCoverage int
}

// DefaultTrainConfig returns recommended defaults.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		KFolds:            5,
		Lambdas:           []float64{0.01, 0.1, 1, 10, 100},
		MinTrainingRows:   50,
		MinFamilyCoverage: 30,
	}
}

// featureFamilies maps each family to its signature columns, for coverage checks.
var featureFamilies = map[string][]string{
	"player":      {models.FeatReboundRate, models.FeatUsageProxy, models.FeatMinutesTrend, models.FeatMinutesExpected},
	"opponent":    {models.FeatOppDefReboundRate, models.FeatOppPace},
	"contextual":  {models.FeatHomeGame, models.FeatBackToBack, models.FeatTeamKnown},
	"time_series": {models.FeatReboundEWMA, models.FeatSeasonTrend},
}

// Train fits the model and returns an immutable artifact. Candidate rows may
// include population-imputed vectors; those count against family coverage and
// are then excluded from the fit.
func Train(candidates []models.TrainingRow, cfg TrainConfig, logger *logrus.Logger) (*models.ModelArtifact, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.KFolds < 2 {
		cfg.KFolds = DefaultTrainConfig().KFolds
	}
	if len(cfg.Lambdas) == 0 {
		cfg.Lambdas = DefaultTrainConfig().Lambdas
	}

	if err := checkFamilyCoverage(candidates, cfg.MinFamilyCoverage); err != nil {
		return nil, err
	}

	rows := make([]models.TrainingRow, 0, len(candidates))
	for _, row := range candidates {
		if !row.Vector.HasMissing() {
			rows = append(rows, row)
		}
	}
	if len(rows) < cfg.MinTrainingRows {
		return nil, &models.InsufficientDataError{Family: "training set", Rows: len(rows), Required: cfg.MinTrainingRows}
	}

	x := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		if row.Vector.SchemaVersion != models.FeatureSchemaVersion {
			return nil, fmt.Errorf("training row %d: %w (have %s, want %s)",
				i, models.ErrSchemaMismatch, row.Vector.SchemaVersion, models.FeatureSchemaVersion)
		}
		ordered, err := row.Vector.Ordered(models.FeatureOrder)
		if err != nil {
			return nil, fmt.Errorf("training row %d: %w", i, err)
		}
		x[i] = ordered
		y[i] = float64(row.Rebounds)
	}

	bestLambda, residuals, cvMAE, err := crossValidate(x, y, cfg)
	if err != nil {
		return nil, err
	}

	beta, intercept, err := ridgeSolve(x, y, bestLambda)
	if err != nil {
		return nil, err
	}

	sort.Float64s(residuals)
	_, residualStd := meanStd(residuals)

	populationMeans := make(map[string]float64, len(models.FeatureOrder))
	for j, name := range models.FeatureOrder {
		sum := 0.0
		for i := range x {
			sum += x[i][j]
		}
		populationMeans[name] = sum / float64(len(x))
	}

	artifact := &models.ModelArtifact{
		ID:                uuid.New(),
		Version:           time.Now().UTC().Format("20060102-150405"),
		SchemaVersion:     models.FeatureSchemaVersion,
		FeatureOrder:      append([]string{}, models.FeatureOrder...),
		Coefficients:      beta,
		Intercept:         intercept,
		Lambda:            bestLambda,
		ResidualQuantiles: residuals,
		ResidualStd:       residualStd,
		PopulationMeans:   populationMeans,
		TrainingRows:      len(rows),
		CrossValMAE:       cvMAE,
		TrainedAt:         time.Now().UTC(),
	}

	logger.WithFields(logrus.Fields{
		"artifact_id":   artifact.ID,
		"rows":          len(rows),
		"lambda":        bestLambda,
		"cross_val_mae": cvMAE,
		"residual_std":  residualStd,
	}).Info("Model training complete")

	return artifact, nil
}

func checkFamilyCoverage(candidates []models.TrainingRow, required int) error {
	if required <= 0 {
		required = DefaultTrainConfig().MinFamilyCoverage
	}
	for family, columns := range featureFamilies {
		covered := 0
		for _, row := range candidates {
			ok := true
			for _, col := range columns {
				if row.Vector.IsMissing(col) {
					ok = false
					break
				}
			}
			if ok {
				covered++
			}
		}
		if covered < required {
			return &models.InsufficientDataError{Family: family, Rows: covered, Required: required}
		}
	}
	return nil
}

// crossValidate selects the ridge penalty by k-fold CV and returns the
// out-of-sample residuals (actual - predicted) for the winning penalty.
// Folds are contiguous over the chronologically sorted training set.
func crossValidate(x [][]float64, y []float64, cfg TrainConfig) (float64, []float64, float64, error) {
	n := len(x)
	k := cfg.KFolds
	if n < k {
		return 0, nil, 0, &models.InsufficientDataError{Family: "cross-validation", Rows: n, Required: k}
	}

	bestLambda := cfg.Lambdas[0]
	bestMAE := math.Inf(1)
	var bestResiduals []float64

	for _, lambda := range cfg.Lambdas {
		residuals := make([]float64, 0, n)
		absErr := 0.0

		for fold := 0; fold < k; fold++ {
			lo := fold * n / k
			hi := (fold + 1) * n / k

			trainX := make([][]float64, 0, n-(hi-lo))
			trainY := make([]float64, 0, n-(hi-lo))
			for i := 0; i < n; i++ {
				if i >= lo && i < hi {
					continue
				}
				trainX = append(trainX, x[i])
				trainY = append(trainY, y[i])
			}

			beta, intercept, err := ridgeSolve(trainX, trainY, lambda)
			if err != nil {
				return 0, nil, 0, fmt.Errorf("fold %d lambda %g: %w", fold, lambda, err)
			}

			for i := lo; i < hi; i++ {
				predicted := dot(beta, x[i], intercept)
				residual := y[i] - predicted
				residuals = append(residuals, residual)
				absErr += math.Abs(residual)
			}
		}

		mae := absErr / float64(n)
		if mae < bestMAE {
			bestMAE = mae
			bestLambda = lambda
			bestResiduals = residuals
		}
	}

	return bestLambda, bestResiduals, bestMAE, nil
}
