package edge

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/models"
)

// Config holds edge detection thresholds.
type Config struct {
	MinEdgeThreshold   float64 // minimum EV per unit stake before flagging a bet
	ProbabilityFloor   float64 // model probabilities below this are suppressed
	ProbabilityCeiling float64 // model probabilities above this are suppressed
}

// DefaultConfig returns recommended defaults.
func DefaultConfig() Config {
	return Config{
		MinEdgeThreshold:   0.03,
		ProbabilityFloor:   0.05,
		ProbabilityCeiling: 0.95,
	}
}

// Detector evaluates market quotes against model distributions.
type Detector struct {
	cfg    Config
	logger *logrus.Logger
}

// NewDetector creates an edge detector.
func NewDetector(cfg Config, logger *logrus.Logger) *Detector {
	if cfg.ProbabilityCeiling <= cfg.ProbabilityFloor {
		cfg.ProbabilityFloor = DefaultConfig().ProbabilityFloor
		cfg.ProbabilityCeiling = DefaultConfig().ProbabilityCeiling
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Evaluate compares the model's distribution against a quote and returns the
// edge record for the better side of the line.
func (d *Detector) Evaluate(pred *models.PredictionResult, quote *models.MarketQuote) (*models.EdgeRecord, error) {
	if pred.PlayerID != quote.PlayerID {
		return nil, fmt.Errorf("prediction is for %s, quote for %s", pred.PlayerID, quote.PlayerID)
	}

	overProb, ok := pred.ProbabilityOver(quote.Line)
	if !ok {
		return nil, fmt.Errorf("prediction for %s does not price line %.1f", pred.PlayerID, quote.Line)
	}
	underProb := 1 - overProb

	rawOver, err := ImpliedProbability(quote.OverOdds)
	if err != nil {
		return nil, fmt.Errorf("over odds: %w", err)
	}
	rawUnder, err := ImpliedProbability(quote.UnderOdds)
	if err != nil {
		return nil, fmt.Errorf("under odds: %w", err)
	}
	impliedOver, impliedUnder := DeVig(rawOver, rawUnder)

	overPayout, err := PayoutMultiplier(quote.OverOdds)
	if err != nil {
		return nil, err
	}
	underPayout, err := PayoutMultiplier(quote.UnderOdds)
	if err != nil {
		return nil, err
	}

	overEV := expectedValue(overProb, overPayout)
	underEV := expectedValue(underProb, underPayout)

	side := models.SideOver
	modelProb, impliedProb, ev := overProb, impliedOver, overEV
	if underEV > overEV {
		side = models.SideUnder
		modelProb, impliedProb, ev = underProb, impliedUnder, underEV
	}

	record := &models.EdgeRecord{
		ID:                 uuid.New(),
		ArtifactID:         pred.ArtifactID,
		PlayerID:           pred.PlayerID,
		GameDate:           pred.GameDate,
		Line:               quote.Line,
		Side:               side,
		ModelProbability:   modelProb,
		ImpliedProbability: impliedProb,
		ExpectedValue:      ev,
		Recommendation:     d.recommend(ev, modelProb),
		CreatedAt:          time.Now().UTC(),
	}

	d.logger.WithFields(logrus.Fields{
		"player_id":      record.PlayerID,
		"line":           record.Line,
		"side":           record.Side,
		"expected_value": record.ExpectedValue,
		"recommendation": record.Recommendation,
	}).Debug("Quote evaluated")

	return record, nil
}

// expectedValue is EV per unit stake: win payout weighted by the model
// probability minus the lost stake on the complement.
func expectedValue(prob, payout float64) float64 {
	return prob*payout - (1 - prob)
}

// recommend applies the betting policy. EV exactly at the threshold is not
// flagged; probabilities near 0 or 1 usually indicate a degenerate feature
// vector rather than true certainty, so they are suppressed.
func (d *Detector) recommend(ev, modelProb float64) models.Recommendation {
	if ev <= 0 {
		return models.RecommendPass
	}
	if ev <= d.cfg.MinEdgeThreshold {
		return models.RecommendPass
	}
	if modelProb < d.cfg.ProbabilityFloor || modelProb > d.cfg.ProbabilityCeiling {
		return models.RecommendPass
	}
	return models.RecommendBet
}
