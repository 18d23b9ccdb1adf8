package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rebound-edge/internal/models"
)

type memPredictionRepo struct {
	stored []*models.PredictionResult
}

func (r *memPredictionRepo) Insert(ctx context.Context, p *models.PredictionResult) error {
	r.stored = append(r.stored, p)
	return nil
}

func (r *memPredictionRepo) GetByPlayer(ctx context.Context, playerID string, gameDate time.Time) (*models.PredictionResult, error) {
	for _, p := range r.stored {
		if p.PlayerID == playerID && p.GameDate.Equal(gameDate) {
			return p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memPredictionRepo) GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.PredictionResult, error) {
	var out []*models.PredictionResult
	for _, p := range r.stored {
		if p.GameDate.Equal(gameDate) {
			out = append(out, p)
		}
	}
	return out, nil
}

type memEdgeRecordRepo struct {
	stored []*models.EdgeRecord
}

func (r *memEdgeRecordRepo) Insert(ctx context.Context, rec *models.EdgeRecord) error {
	r.stored = append(r.stored, rec)
	return nil
}

func (r *memEdgeRecordRepo) GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.EdgeRecord, error) {
	var out []*models.EdgeRecord
	for _, rec := range r.stored {
		if rec.GameDate.Equal(gameDate) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memEdgeRecordRepo) GetRecommended(ctx context.Context, gameDate time.Time) ([]*models.EdgeRecord, error) {
	var out []*models.EdgeRecord
	for _, rec := range r.stored {
		if rec.GameDate.Equal(gameDate) && rec.Recommendation == models.RecommendBet {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newReportFixture() (*ReportService, *memObservationRepo, *memPredictionRepo, *memEdgeRecordRepo) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	obsRepo := newMemObservationRepo()
	predRepo := &memPredictionRepo{}
	edgeRepo := &memEdgeRecordRepo{}
	return NewReportService(obsRepo, predRepo, edgeRepo, logger), obsRepo, predRepo, edgeRepo
}

func storedObservation(playerID string, gameDate time.Time, rebounds int) *models.GameObservation {
	return &models.GameObservation{
		ID:             uuid.New(),
		PlayerID:       playerID,
		GameDate:       gameDate,
		TeamID:         "DEN",
		OpponentTeamID: "LAL",
		MinutesPlayed:  32,
		Rebounds:       rebounds,
		HomeAway:       models.HomeGame,
	}
}

func storedPrediction(playerID string, gameDate time.Time, estimate float64) *models.PredictionResult {
	return &models.PredictionResult{
		ID:            uuid.New(),
		ArtifactID:    uuid.New(),
		PlayerID:      playerID,
		GameDate:      gameDate,
		PointEstimate: estimate,
		ResidualStd:   2.1,
		PredictedAt:   gameDate,
	}
}

func TestBuildPerformanceReport(t *testing.T) {
	svc, obsRepo, predRepo, _ := newReportFixture()
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, obsRepo.Insert(ctx, storedObservation("player-a", day, 12)))
	require.NoError(t, obsRepo.Insert(ctx, storedObservation("player-b", day, 6)))
	require.NoError(t, predRepo.Insert(ctx, storedPrediction("player-a", day, 10)))
	require.NoError(t, predRepo.Insert(ctx, storedPrediction("player-b", day, 8)))
	require.NoError(t, predRepo.Insert(ctx, storedPrediction("player-c", day, 5))) // no actual

	report, err := svc.BuildPerformanceReport(ctx, day, day)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.Unmatched)
	require.Len(t, report.Rows, 2)

	// Errors are +2 and -2, so MAE is 2 and signed bias cancels to zero.
	assert.InDelta(t, 2.0, report.MAE, 1e-9)
	assert.InDelta(t, 0.0, report.Bias, 1e-9)

	assert.Equal(t, "player-a", report.Rows[0].PlayerID)
	assert.InDelta(t, 2.0, report.Rows[0].Error, 1e-9)
	assert.Equal(t, "player-b", report.Rows[1].PlayerID)
	assert.InDelta(t, -2.0, report.Rows[1].Error, 1e-9)
}

func TestBuildPerformanceReportRejectsInvertedRange(t *testing.T) {
	svc, _, _, _ := newReportFixture()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.BuildPerformanceReport(context.Background(), day, day.AddDate(0, 0, -1))
	require.Error(t, err)
}

func TestBuildValuationReport(t *testing.T) {
	svc, _, predRepo, edgeRepo := newReportFixture()
	ctx := context.Background()
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	pred := storedPrediction("player-a", day, 9.4)
	pred.Intervals = []models.ConfidenceInterval{
		{Level: 0.68, Low: 7.2, High: 11.6},
		{Level: 0.90, Low: 5.8, High: 13.0},
		{Level: 0.95, Low: 5.1, High: 13.7},
	}
	require.NoError(t, predRepo.Insert(ctx, pred))

	require.NoError(t, edgeRepo.Insert(ctx, &models.EdgeRecord{
		ID:                 uuid.New(),
		PlayerID:           "player-a",
		GameDate:           day,
		Line:               8.5,
		Side:               models.SideOver,
		ModelProbability:   0.61,
		ImpliedProbability: 0.524,
		ExpectedValue:      0.11,
		Recommendation:     models.RecommendBet,
	}))
	require.NoError(t, edgeRepo.Insert(ctx, &models.EdgeRecord{
		ID:                 uuid.New(),
		PlayerID:           "player-a",
		GameDate:           day,
		Line:               7.5,
		Side:               models.SideUnder,
		ModelProbability:   0.31,
		ImpliedProbability: 0.524,
		ExpectedValue:      -0.41,
		Recommendation:     models.RecommendPass,
	}))

	rows, err := svc.BuildValuationReport(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by line within a player.
	assert.InDelta(t, 7.5, rows[0].Line, 1e-9)
	assert.InDelta(t, 8.5, rows[1].Line, 1e-9)

	assert.InDelta(t, 9.4, rows[1].PointEstimate, 1e-9)
	require.Len(t, rows[1].Intervals, 3)
	assert.Equal(t, models.RecommendBet, rows[1].Recommendation)
}
