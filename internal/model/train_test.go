package model

import (
	"math"
	"math/rand"
	"testing"
	"time"

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

// syntheticRows generates training rows where rebounds depend linearly on
// rebound_rate and minutes_expected plus noise, so the fit is recoverable.
func syntheticRows(n int, seed int64) []models.TrainingRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]models.TrainingRow, 0, n)
	start := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		rate := 4 + rng.Float64()*8
		minutes := 20 + rng.Float64()*16
		values := map[string]float64{
			models.FeatReboundRate:       rate,
			models.FeatUsageProxy:        rate / minutes * 36,
			models.FeatMinutesTrend:      rng.NormFloat64() * 0.5,
			models.FeatMinutesExpected:   minutes,
			models.FeatOppDefReboundRate: 40 + rng.Float64()*10,
			models.FeatOppPace:           85 + rng.Float64()*10,
			models.FeatHomeGame:          float64(rng.Intn(2)),
			models.FeatBackToBack:        float64(rng.Intn(2)),
			models.FeatTeamKnown:         1,
			models.FeatReboundEWMA:       rate + rng.NormFloat64()*0.5,
			models.FeatSeasonTrend:       rng.NormFloat64() * 0.05,
		}
		target := 0.8*rate + 0.05*minutes + rng.NormFloat64()*1.5
		rebounds := int(math.Round(math.Max(0, target)))

		rows = append(rows, models.TrainingRow{
			Vector: &models.FeatureVector{
				PlayerID:      "synthetic",
				GameDate:      start.AddDate(0, 0, i),
				SchemaVersion: models.FeatureSchemaVersion,
				Values:        values,
			},
			Rebounds: rebounds,
		})
	}
	return rows
}

func TestTrainProducesUsableArtifact(t *testing.T) {
	rows := syntheticRows(300, 1)

	artifact, err := Train(rows, DefaultTrainConfig(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, models.FeatureSchemaVersion, artifact.SchemaVersion)
	assert.Equal(t, models.FeatureOrder, artifact.FeatureOrder)
	assert.Len(t, artifact.Coefficients, len(models.FeatureOrder))
	assert.Equal(t, 300, artifact.TrainingRows)
	assert.NotEmpty(t, artifact.ResidualQuantiles)
	assert.Greater(t, artifact.ResidualStd, 0.0)

	// Noise std is 1.5; out-of-sample MAE should land in that vicinity.
	assert.Less(t, artifact.CrossValMAE, 2.5)

	// Residual quantiles are kept sorted for lookup.
	for i := 1; i < len(artifact.ResidualQuantiles); i++ {
		assert.GreaterOrEqual(t, artifact.ResidualQuantiles[i], artifact.ResidualQuantiles[i-1])
	}
}

func TestTrainInsufficientRows(t *testing.T) {
	rows := syntheticRows(500, 2)
	cfg := DefaultTrainConfig()
	cfg.MinTrainingRows = 30
	cfg.MinFamilyCoverage = 10

	_, err := Train(rows[:20], cfg, testLogger())
	require.Error(t, err)
	var insufficient *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
}

func TestTrainInsufficientFamilyCoverage(t *testing.T) {
	rows := syntheticRows(120, 3)
	// Flag the opponent family missing on most rows.
	for i, row := range rows {
		if i%5 != 0 {
			row.Vector.Missing = map[string]bool{models.FeatOppDefReboundRate: true}
		}
	}

	cfg := DefaultTrainConfig()
	cfg.MinTrainingRows = 10
	cfg.MinFamilyCoverage = 60

	_, err := Train(rows, cfg, testLogger())
	require.Error(t, err)
	var insufficient *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "opponent", insufficient.Family)
}

func TestTrainExcludesImputedRows(t *testing.T) {
	rows := syntheticRows(200, 4)
	for i := 0; i < 50; i++ {
		rows[i].Vector.Missing = map[string]bool{models.FeatReboundRate: true}
	}

	cfg := DefaultTrainConfig()
	cfg.MinFamilyCoverage = 100

	artifact, err := Train(rows, cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 150, artifact.TrainingRows)
}

func TestArtifactRoundTrip(t *testing.T) {
	artifact, err := Train(syntheticRows(150, 5), DefaultTrainConfig(), testLogger())
	require.NoError(t, err)

	data, err := artifact.Marshal()
	require.NoError(t, err)

	restored, err := models.UnmarshalArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, artifact.ID, restored.ID)
	assert.Equal(t, artifact.Coefficients, restored.Coefficients)
	assert.Equal(t, artifact.ResidualQuantiles, restored.ResidualQuantiles)
	assert.Equal(t, artifact.Lambda, restored.Lambda)
}
