package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/models"
)

// PostgresEdgeRecordRepository implements EdgeRecordRepository for PostgreSQL
type PostgresEdgeRecordRepository struct {
	db *database.DB
}

// NewPostgresEdgeRecordRepository creates a new edge record repository
func NewPostgresEdgeRecordRepository(db *database.DB) EdgeRecordRepository {
	return &PostgresEdgeRecordRepository{db: db}
}

// Insert inserts an edge record
func (r *PostgresEdgeRecordRepository) Insert(ctx context.Context, record *models.EdgeRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := `
		INSERT INTO edge_records (id, artifact_id, player_id, game_date, line, side, model_probability, implied_probability, expected_value, recommendation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.ArtifactID, record.PlayerID, record.GameDate, record.Line,
		record.Side, record.ModelProbability, record.ImpliedProbability,
		record.ExpectedValue, record.Recommendation,
	)
	if err != nil {
		return fmt.Errorf("failed to insert edge record: %w", err)
	}

	return nil
}

const edgeRecordColumns = `id, artifact_id, player_id, game_date, line, side, model_probability, implied_probability, expected_value, recommendation, created_at`

// GetByGameDate retrieves all edge records for a game date
func (r *PostgresEdgeRecordRepository) GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.EdgeRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM edge_records
		WHERE game_date = $1
		ORDER BY player_id ASC, game_date ASC
	`, edgeRecordColumns)

	rows, err := r.db.GetPool().Query(ctx, query, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query edge records: %w", err)
	}
	defer rows.Close()

	return scanEdgeRecords(rows)
}

// GetRecommended retrieves edge records flagged as bets for a game date
func (r *PostgresEdgeRecordRepository) GetRecommended(ctx context.Context, gameDate time.Time) ([]*models.EdgeRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM edge_records
		WHERE game_date = $1 AND recommendation = $2
		ORDER BY expected_value DESC
	`, edgeRecordColumns)

	rows, err := r.db.GetPool().Query(ctx, query, gameDate, models.RecommendBet)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommended edge records: %w", err)
	}
	defer rows.Close()

	return scanEdgeRecords(rows)
}

func scanEdgeRecords(rows pgx.Rows) ([]*models.EdgeRecord, error) {
	var out []*models.EdgeRecord
	for rows.Next() {
		rec := &models.EdgeRecord{}
		err := rows.Scan(
			&rec.ID, &rec.ArtifactID, &rec.PlayerID, &rec.GameDate, &rec.Line,
			&rec.Side, &rec.ModelProbability, &rec.ImpliedProbability,
			&rec.ExpectedValue, &rec.Recommendation, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edge record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
