package edge

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rebound-edge/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func prediction(playerID string, line, overProb float64) *models.PredictionResult {
	return &models.PredictionResult{
		ID:         uuid.New(),
		ArtifactID: uuid.New(),
		PlayerID:   playerID,
		GameDate:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Lines: []models.LineProbability{
			{Line: line, OverProb: overProb, UnderProb: 1 - overProb},
		},
	}
}

func quote(playerID string, line float64, overOdds, underOdds float64) *models.MarketQuote {
	return &models.MarketQuote{
		PlayerID:  playerID,
		GameDate:  time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Line:      line,
		OverOdds:  models.Odds{Format: models.OddsAmerican, Value: overOdds},
		UnderOdds: models.Odds{Format: models.OddsAmerican, Value: underOdds},
	}
}

func TestEvaluateKnownEV(t *testing.T) {
	// model_probability=0.60 at -110: EV = 0.60*0.909... - 0.40 = 0.14545...
	cfg := DefaultConfig()
	cfg.MinEdgeThreshold = 0.1
	d := NewDetector(cfg, testLogger())

	rec, err := d.Evaluate(prediction("p1", 7.5, 0.60), quote("p1", 7.5, -110, -110))
	require.NoError(t, err)

	assert.Equal(t, models.SideOver, rec.Side)
	assert.InDelta(t, 0.14545454545454545, rec.ExpectedValue, 1e-12)
	assert.InDelta(t, 0.5, rec.ImpliedProbability, 1e-12)
	assert.Equal(t, models.RecommendBet, rec.Recommendation)
}

func TestEvaluatePicksBetterSide(t *testing.T) {
	d := NewDetector(DefaultConfig(), testLogger())

	rec, err := d.Evaluate(prediction("p1", 7.5, 0.35), quote("p1", 7.5, -110, -110))
	require.NoError(t, err)
	assert.Equal(t, models.SideUnder, rec.Side)
	assert.InDelta(t, 0.65, rec.ModelProbability, 1e-12)
}

func TestThresholdIsStrict(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDetector(cfg, testLogger())

	// Choose a probability whose EV lands exactly on the threshold:
	// EV = p*(1+b) - 1 with b = 100/110.
	payout := 100.0 / 110.0
	p := (1 + cfg.MinEdgeThreshold) / (1 + payout)

	rec, err := d.Evaluate(prediction("p1", 7.5, p), quote("p1", 7.5, -110, -110))
	require.NoError(t, err)
	assert.InDelta(t, cfg.MinEdgeThreshold, rec.ExpectedValue, 1e-9)
	assert.Equal(t, models.RecommendPass, rec.Recommendation)

	// Just above the threshold flips the verdict.
	rec, err = d.Evaluate(prediction("p1", 7.5, p+0.01), quote("p1", 7.5, -110, -110))
	require.NoError(t, err)
	assert.Equal(t, models.RecommendBet, rec.Recommendation)
}

func TestExtremeProbabilitiesSuppressed(t *testing.T) {
	d := NewDetector(DefaultConfig(), testLogger())

	// Huge apparent edge at near-certainty is a degenerate vector, not value.
	rec, err := d.Evaluate(prediction("p1", 7.5, 0.99), quote("p1", 7.5, -110, -110))
	require.NoError(t, err)
	assert.Greater(t, rec.ExpectedValue, 0.0)
	assert.Equal(t, models.RecommendPass, rec.Recommendation)
}

func TestNegativeEVNeverFlagged(t *testing.T) {
	d := NewDetector(DefaultConfig(), testLogger())

	rec, err := d.Evaluate(prediction("p1", 7.5, 0.5), quote("p1", 7.5, -110, -110))
	require.NoError(t, err)
	assert.Less(t, rec.ExpectedValue, 0.0)
	assert.Equal(t, models.RecommendPass, rec.Recommendation)
}

func TestEvaluateRejectsMismatchedLine(t *testing.T) {
	d := NewDetector(DefaultConfig(), testLogger())

	_, err := d.Evaluate(prediction("p1", 7.5, 0.6), quote("p1", 8.5, -110, -110))
	require.Error(t, err)
}

func TestEvaluateRejectsMismatchedPlayer(t *testing.T) {
	d := NewDetector(DefaultConfig(), testLogger())

	_, err := d.Evaluate(prediction("p1", 7.5, 0.6), quote("p2", 7.5, -110, -110))
	require.Error(t, err)
}
