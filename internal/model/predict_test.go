package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rebound-edge/internal/models"
)

func trainedArtifact(t *testing.T) *models.ModelArtifact {
	t.Helper()
	artifact, err := Train(syntheticRows(300, 11), DefaultTrainConfig(), testLogger())
	require.NoError(t, err)
	return artifact
}

func vectorFromRow(row models.TrainingRow) *models.FeatureVector {
	return row.Vector
}

func TestPredictComplementaryProbabilities(t *testing.T) {
	artifact := trainedArtifact(t)
	p := NewPredictor(DefaultPredictConfig(), testLogger())
	vec := vectorFromRow(syntheticRows(1, 12)[0])

	result, err := p.Predict(vec, artifact, []float64{4.5, 7.5, 10.5})
	require.NoError(t, err)
	require.Len(t, result.Lines, 3)

	for _, lp := range result.Lines {
		assert.GreaterOrEqual(t, lp.OverProb, 0.0)
		assert.LessOrEqual(t, lp.OverProb, 1.0)
		assert.InDelta(t, 1.0, lp.OverProb+lp.UnderProb, 1e-12)
	}

	// Higher lines cannot be more likely to clear.
	assert.GreaterOrEqual(t, result.Lines[0].OverProb, result.Lines[1].OverProb)
	assert.GreaterOrEqual(t, result.Lines[1].OverProb, result.Lines[2].OverProb)
}

func TestPredictClipsPointEstimate(t *testing.T) {
	artifact := trainedArtifact(t)
	cfg := DefaultPredictConfig()
	cfg.PhysiologicalMax = 35
	p := NewPredictor(cfg, testLogger())

	vec := vectorFromRow(syntheticRows(1, 13)[0])
	// Degenerate inputs push the linear score far out of range.
	vec.Values[models.FeatReboundRate] = 500
	vec.Values[models.FeatReboundEWMA] = 500

	result, err := p.Predict(vec, artifact, []float64{7.5})
	require.NoError(t, err)
	assert.LessOrEqual(t, result.PointEstimate, 35.0)
	assert.GreaterOrEqual(t, result.PointEstimate, 0.0)

	vec.Values[models.FeatReboundRate] = -500
	vec.Values[models.FeatReboundEWMA] = -500
	result, err = p.Predict(vec, artifact, []float64{7.5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.PointEstimate)
}

func TestPredictIncompleteFeatureError(t *testing.T) {
	artifact := trainedArtifact(t)
	p := NewPredictor(DefaultPredictConfig(), testLogger())

	vec := vectorFromRow(syntheticRows(1, 14)[0])
	delete(vec.Values, models.FeatReboundRate)
	delete(vec.Values, models.FeatOppPace)

	_, err := p.Predict(vec, artifact, []float64{7.5})
	require.Error(t, err)
	var incomplete *models.IncompleteFeatureError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []string{models.FeatReboundRate, models.FeatOppPace}, incomplete.Missing)
}

func TestPredictSchemaMismatch(t *testing.T) {
	artifact := trainedArtifact(t)
	p := NewPredictor(DefaultPredictConfig(), testLogger())

	vec := vectorFromRow(syntheticRows(1, 15)[0])
	vec.SchemaVersion = "v0"

	_, err := p.Predict(vec, artifact, []float64{7.5})
	require.ErrorIs(t, err, models.ErrSchemaMismatch)
}

func TestPredictConfidenceIntervals(t *testing.T) {
	artifact := trainedArtifact(t)
	p := NewPredictor(DefaultPredictConfig(), testLogger())

	result, err := p.Predict(vectorFromRow(syntheticRows(1, 16)[0]), artifact, nil)
	require.NoError(t, err)
	require.Len(t, result.Intervals, 3)

	var width68, width95 float64
	for _, iv := range result.Intervals {
		assert.LessOrEqual(t, iv.Low, result.PointEstimate)
		assert.GreaterOrEqual(t, iv.High, result.PointEstimate)
		assert.GreaterOrEqual(t, iv.Low, 0.0)
		switch iv.Level {
		case 0.68:
			width68 = iv.High - iv.Low
		case 0.95:
			width95 = iv.High - iv.Low
		}
	}
	assert.Greater(t, width95, width68)
}

func TestPredictIntegerLineContinuity(t *testing.T) {
	// Zero coefficients pin the point estimate to the intercept, so only the
	// residual distribution sets the line probabilities.
	artifact := &models.ModelArtifact{
		ID:                uuid.New(),
		SchemaVersion:     models.FeatureSchemaVersion,
		FeatureOrder:      append([]string(nil), models.FeatureOrder...),
		Coefficients:      make([]float64, len(models.FeatureOrder)),
		Intercept:         8.0,
		ResidualQuantiles: []float64{-3, -2, -1, 0, 1, 2, 3},
		ResidualStd:       2.0,
	}
	p := NewPredictor(DefaultPredictConfig(), testLogger())
	vec := vectorFromRow(syntheticRows(1, 17)[0])

	result, err := p.Predict(vec, artifact, []float64{7.5, 8.0, 8.5})
	require.NoError(t, err)
	require.Len(t, result.Lines, 3)

	// Clearing a whole-number line requires the next integer, so an 8-rebound
	// line prices identically to 8.5 and strictly below 7.5.
	assert.Equal(t, result.Lines[2].OverProb, result.Lines[1].OverProb)
	assert.Greater(t, result.Lines[0].OverProb, result.Lines[1].OverProb)
}

func TestPredictionCache(t *testing.T) {
	pc := NewPredictionCache(time.Minute, 100)
	key := CacheKey{PlayerID: "p1", GameDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), ArtifactID: uuid.New()}

	assert.Nil(t, pc.Get(key))

	pred := &models.PredictionResult{PlayerID: "p1", PointEstimate: 8.2}
	pc.Set(key, pred)
	cached := pc.Get(key)
	require.NotNil(t, cached)
	assert.Equal(t, 8.2, cached.PointEstimate)

	// A different artifact never sees the old entry.
	other := key
	other.ArtifactID = uuid.New()
	assert.Nil(t, pc.Get(other))

	hits, misses := pc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}
