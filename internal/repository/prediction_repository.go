package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Insert inserts a prediction result. Intervals and line probabilities are
// stored as JSON alongside the scalar columns
func (r *PostgresPredictionRepository) Insert(ctx context.Context, prediction *models.PredictionResult) error {
	if prediction.ID == uuid.Nil {
		prediction.ID = uuid.New()
	}

	intervals, err := json.Marshal(prediction.Intervals)
	if err != nil {
		return fmt.Errorf("failed to marshal intervals: %w", err)
	}
	lines, err := json.Marshal(prediction.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal line probabilities: %w", err)
	}

	query := `
		INSERT INTO predictions (id, artifact_id, player_id, game_date, point_estimate, residual_std, intervals, lines, predicted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.ArtifactID, prediction.PlayerID, prediction.GameDate,
		prediction.PointEstimate, prediction.ResidualStd, intervals, lines, prediction.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

const predictionColumns = `id, artifact_id, player_id, game_date, point_estimate, residual_std, intervals, lines, predicted_at`

// GetByPlayer retrieves the latest prediction for one player and game date
func (r *PostgresPredictionRepository) GetByPlayer(ctx context.Context, playerID string, gameDate time.Time) (*models.PredictionResult, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM predictions
		WHERE player_id = $1 AND game_date = $2
		ORDER BY predicted_at DESC
		LIMIT 1
	`, predictionColumns)

	rows, err := r.db.GetPool().Query(ctx, query, playerID, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query prediction: %w", err)
		}
		return nil, models.ErrNotFound
	}
	return scanPrediction(rows)
}

// GetByGameDate retrieves all predictions for a game date
func (r *PostgresPredictionRepository) GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.PredictionResult, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM predictions
		WHERE game_date = $1
		ORDER BY player_id ASC, predicted_at DESC
	`, predictionColumns)

	rows, err := r.db.GetPool().Query(ctx, query, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []*models.PredictionResult
	for rows.Next() {
		pred, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pred)
	}
	return out, rows.Err()
}

func scanPrediction(rows pgx.Rows) (*models.PredictionResult, error) {
	pred := &models.PredictionResult{}
	var intervals, lines []byte
	err := rows.Scan(
		&pred.ID, &pred.ArtifactID, &pred.PlayerID, &pred.GameDate,
		&pred.PointEstimate, &pred.ResidualStd, &intervals, &lines, &pred.PredictedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}
	if err := json.Unmarshal(intervals, &pred.Intervals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intervals: %w", err)
	}
	if err := json.Unmarshal(lines, &pred.Lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line probabilities: %w", err)
	}
	return pred, nil
}
