package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/models"
)

// PostgresArtifactRepository implements ArtifactRepository for PostgreSQL.
// The full artifact payload (coefficients, residual quantiles, population
// means) is stored as JSON; scalar columns exist for querying
type PostgresArtifactRepository struct {
	db *database.DB
}

// NewPostgresArtifactRepository creates a new artifact repository
func NewPostgresArtifactRepository(db *database.DB) ArtifactRepository {
	return &PostgresArtifactRepository{db: db}
}

// Create inserts a new model artifact
func (r *PostgresArtifactRepository) Create(ctx context.Context, artifact *models.ModelArtifact) error {
	if artifact.ID == uuid.Nil {
		artifact.ID = uuid.New()
	}

	payload, err := artifact.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	query := `
		INSERT INTO model_artifacts (id, version, schema_version, payload, training_rows, cross_val_mae, trained_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		artifact.ID, artifact.Version, artifact.SchemaVersion, payload,
		artifact.TrainingRows, artifact.CrossValMAE, artifact.TrainedAt, artifact.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	return nil
}

// GetByID retrieves an artifact by ID
func (r *PostgresArtifactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ModelArtifact, error) {
	return r.getOne(ctx, "SELECT payload FROM model_artifacts WHERE id = $1", id)
}

// GetByVersion retrieves an artifact by version string
func (r *PostgresArtifactRepository) GetByVersion(ctx context.Context, version string) (*models.ModelArtifact, error) {
	return r.getOne(ctx, "SELECT payload FROM model_artifacts WHERE version = $1", version)
}

// GetActive retrieves the single active artifact
func (r *PostgresArtifactRepository) GetActive(ctx context.Context) (*models.ModelArtifact, error) {
	artifact, err := r.getOne(ctx, "SELECT payload FROM model_artifacts WHERE active = true ORDER BY trained_at DESC LIMIT 1")
	if err != nil {
		return nil, err
	}
	// The active flag lives on the row, not in the payload.
	artifact.Active = true
	return artifact, nil
}

func (r *PostgresArtifactRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.ModelArtifact, error) {
	var payload []byte
	err := r.db.GetPool().QueryRow(ctx, query, args...).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	artifact, err := models.UnmarshalArtifact(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return artifact, nil
}

// SetActive activates one artifact and deactivates every other
func (r *PostgresArtifactRepository) SetActive(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, "UPDATE model_artifacts SET active = false WHERE id != $1", id); err != nil {
		return fmt.Errorf("failed to deactivate artifacts: %w", err)
	}

	commandTag, err := tx.Exec(ctx, "UPDATE model_artifacts SET active = true WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to activate artifact: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
