package model

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/models"
)

// PredictConfig holds inference parameters.
type PredictConfig struct {
	PhysiologicalMax float64   // upper bound for a single-game rebound total
	ConfidenceLevels []float64 // central interval levels, e.g. 0.68, 0.90, 0.95
}

// DefaultPredictConfig returns recommended defaults.
func DefaultPredictConfig() PredictConfig {
	return PredictConfig{
		PhysiologicalMax: 35,
		ConfidenceLevels: []float64{0.68, 0.90, 0.95},
	}
}

// Predictor produces predictive distributions from an immutable artifact.
// Safe for concurrent use; the artifact is never mutated.
type Predictor struct {
	cfg    PredictConfig
	logger *logrus.Logger
}

// NewPredictor creates a predictor.
func NewPredictor(cfg PredictConfig, logger *logrus.Logger) *Predictor {
	if cfg.PhysiologicalMax <= 0 {
		cfg.PhysiologicalMax = DefaultPredictConfig().PhysiologicalMax
	}
	if len(cfg.ConfidenceLevels) == 0 {
		cfg.ConfidenceLevels = DefaultPredictConfig().ConfidenceLevels
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Predictor{cfg: cfg, logger: logger}
}

// Predict evaluates the artifact on a feature vector and derives tail
// probabilities for the requested lines. A vector missing a schema column
// fails with IncompleteFeatureError rather than substituting zero.
func (p *Predictor) Predict(vec *models.FeatureVector, artifact *models.ModelArtifact, lines []float64) (*models.PredictionResult, error) {
	if artifact == nil {
		return nil, fmt.Errorf("artifact is required")
	}
	if !artifact.CompatibleWith(vec.SchemaVersion) {
		return nil, fmt.Errorf("%w: vector %s, artifact %s", models.ErrSchemaMismatch, vec.SchemaVersion, artifact.SchemaVersion)
	}

	ordered, missing := orderedWithMissing(vec, artifact.FeatureOrder)
	if len(missing) > 0 {
		return nil, &models.IncompleteFeatureError{PlayerID: vec.PlayerID, Missing: missing}
	}

	raw := dot(artifact.Coefficients, ordered, artifact.Intercept)
	point := raw
	if point < 0 {
		point = 0
	}
	if point > p.cfg.PhysiologicalMax {
		point = p.cfg.PhysiologicalMax
	}
	if raw < 0 || raw > p.cfg.PhysiologicalMax {
		// Clipping already bounds the output; an excursion this far usually
		// means a degenerate feature vector, so it is logged, not fatal.
		p.logger.WithFields(logrus.Fields{
			"player_id": vec.PlayerID,
			"game_date": vec.GameDate.Format("2006-01-02"),
			"raw":       raw,
			"clipped":   point,
		}).Warn("Point estimate outside plausible range")
	}

	result := &models.PredictionResult{
		ID:            uuid.New(),
		ArtifactID:    artifact.ID,
		PlayerID:      vec.PlayerID,
		GameDate:      vec.GameDate,
		PointEstimate: point,
		ResidualStd:   artifact.ResidualStd,
		PredictedAt:   time.Now().UTC(),
	}

	for _, level := range p.cfg.ConfidenceLevels {
		tail := (1 - level) / 2
		low := point + sortedQuantile(artifact.ResidualQuantiles, tail)
		high := point + sortedQuantile(artifact.ResidualQuantiles, 1-tail)
		if low < 0 {
			low = 0
		}
		if high > p.cfg.PhysiologicalMax {
			high = p.cfg.PhysiologicalMax
		}
		result.Intervals = append(result.Intervals, models.ConfidenceInterval{Level: level, Low: low, High: high})
	}

	for _, line := range lines {
		// Rebounds are integers, so clearing a whole-number line means landing
		// at line+1 or above. Shift the threshold half a step; half-point lines
		// already sit between integers and need no adjustment.
		threshold := line
		if line == math.Trunc(line) {
			threshold += 0.5
		}
		over := clampProbability(tailProbability(artifact.ResidualQuantiles, threshold-point))
		result.Lines = append(result.Lines, models.LineProbability{
			Line:      line,
			OverProb:  over,
			UnderProb: 1 - over, // complementary by construction
		})
	}

	return result, nil
}

func orderedWithMissing(vec *models.FeatureVector, order []string) ([]float64, []string) {
	out := make([]float64, len(order))
	missing := make([]string, 0)
	for i, name := range order {
		v, ok := vec.Values[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[i] = v
	}
	return out, missing
}
