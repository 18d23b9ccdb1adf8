//go:build integration

package integration

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rebound-edge/internal/batch"
	"github.com/yourusername/rebound-edge/internal/edge"
	"github.com/yourusername/rebound-edge/internal/features"
	"github.com/yourusername/rebound-edge/internal/model"
	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/test/helpers"
)

const skipIntegration = "Skipping integration test in short mode"

// pipelineSink captures everything the orchestrator flushes. Flushing is
// serialized by the orchestrator, so no locking is needed here.
type pipelineSink struct {
	records     []*models.EdgeRecord
	predictions []*models.PredictionResult
}

func (s *pipelineSink) SaveEdgeRecord(_ context.Context, rec *models.EdgeRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *pipelineSink) SavePrediction(_ context.Context, pred *models.PredictionResult) error {
	s.predictions = append(s.predictions, pred)
	return nil
}

// TestTrainAndValuate runs the full pipeline on a synthetic season: build a
// training set, fit an artifact, then price quotes for a full slate.
func TestTrainAndValuate(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegration)
	}

	logger := helpers.QuietLogger()
	lastDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	gameDate := lastDate.AddDate(0, 0, 1)

	reg, roster, league := helpers.LeagueFixture(t, 2, 30, lastDate)
	require.GreaterOrEqual(t, len(league), 300)

	builder := features.NewBuilder(features.DefaultConfig(), logger)

	rows := builder.BuildTrainingSet(league, reg.Snapshot())
	require.GreaterOrEqual(t, len(rows), model.DefaultTrainConfig().MinTrainingRows)

	artifact, err := model.Train(rows, model.DefaultTrainConfig(), logger)
	require.NoError(t, err)
	require.NotNil(t, artifact)

	quotes := make([]*models.MarketQuote, 0, len(roster))
	for _, playerID := range roster {
		quotes = append(quotes, helpers.QuoteFor(playerID, gameDate, 6.5))
	}

	sink := &pipelineSink{}
	orch := batch.NewOrchestrator(
		batch.DefaultConfig(),
		builder,
		model.NewPredictor(model.DefaultPredictConfig(), logger),
		edge.NewDetector(edge.DefaultConfig(), logger),
		sink,
		logger,
	)

	result, err := orch.Run(context.Background(), batch.Request{
		Roster:   roster,
		AsOfDate: gameDate,
		Artifact: artifact,
		Quotes:   quotes,
		Schedule: helpers.RoundRobinSchedule(gameDate),
		History:  league,
	}, reg.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, models.BatchComplete, result.Status)
	assert.Empty(t, result.Failures)
	require.Len(t, result.Records, len(roster))

	assert.True(t, sort.SliceIsSorted(result.Records, func(i, j int) bool {
		return result.Records[i].PlayerID < result.Records[j].PlayerID
	}))

	for _, rec := range result.Records {
		assert.Equal(t, artifact.ID, rec.ArtifactID)
		assert.Equal(t, 6.5, rec.Line)
		assert.GreaterOrEqual(t, rec.ModelProbability, 0.0)
		assert.LessOrEqual(t, rec.ModelProbability, 1.0)
		assert.Greater(t, rec.ImpliedProbability, 0.0)
		assert.Less(t, rec.ImpliedProbability, 1.0)
		assert.Contains(t, []models.Recommendation{models.RecommendBet, models.RecommendPass}, rec.Recommendation)
	}

	require.Len(t, sink.records, len(roster))
	require.Len(t, sink.predictions, len(roster))
	for _, pred := range sink.predictions {
		assert.Greater(t, pred.PointEstimate, 0.0)
		assert.LessOrEqual(t, pred.PointEstimate, model.DefaultPredictConfig().PhysiologicalMax)
		assert.Greater(t, pred.ResidualStd, 0.0)
	}
}

// TestValuateIsDeterministic reruns the same batch and expects identical
// pricing despite the concurrent worker pool.
func TestValuateIsDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegration)
	}

	logger := helpers.QuietLogger()
	lastDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	gameDate := lastDate.AddDate(0, 0, 1)

	reg, roster, league := helpers.LeagueFixture(t, 2, 30, lastDate)
	builder := features.NewBuilder(features.DefaultConfig(), logger)

	artifact, err := model.Train(builder.BuildTrainingSet(league, reg.Snapshot()), model.DefaultTrainConfig(), logger)
	require.NoError(t, err)

	quotes := make([]*models.MarketQuote, 0, len(roster))
	for _, playerID := range roster {
		quotes = append(quotes, helpers.QuoteFor(playerID, gameDate, 7.5))
	}

	req := batch.Request{
		Roster:   roster,
		AsOfDate: gameDate,
		Artifact: artifact,
		Quotes:   quotes,
		Schedule: helpers.RoundRobinSchedule(gameDate),
		History:  league,
	}

	orch := batch.NewOrchestrator(
		batch.DefaultConfig(),
		builder,
		model.NewPredictor(model.DefaultPredictConfig(), logger),
		edge.NewDetector(edge.DefaultConfig(), logger),
		nil,
		logger,
	)

	first, err := orch.Run(context.Background(), req, reg.Snapshot())
	require.NoError(t, err)
	second, err := orch.Run(context.Background(), req, reg.Snapshot())
	require.NoError(t, err)

	require.Len(t, second.Records, len(first.Records))
	for i, rec := range first.Records {
		assert.Equal(t, rec.PlayerID, second.Records[i].PlayerID)
		assert.Equal(t, rec.Side, second.Records[i].Side)
		assert.InDelta(t, rec.ModelProbability, second.Records[i].ModelProbability, 1e-12)
		assert.InDelta(t, rec.ExpectedValue, second.Records[i].ExpectedValue, 1e-12)
	}
}
