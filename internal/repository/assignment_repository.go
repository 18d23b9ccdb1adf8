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

// PostgresAssignmentRepository implements AssignmentRepository for PostgreSQL
type PostgresAssignmentRepository struct {
	db *database.DB
}

// NewPostgresAssignmentRepository creates a new assignment repository
func NewPostgresAssignmentRepository(db *database.DB) AssignmentRepository {
	return &PostgresAssignmentRepository{db: db}
}

// Insert inserts a new player-team assignment interval
func (r *PostgresAssignmentRepository) Insert(ctx context.Context, assignment *models.PlayerTeamAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}

	query := `
		INSERT INTO player_team_assignments (id, player_id, team_id, effective_start, effective_end)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		assignment.ID, assignment.PlayerID, assignment.TeamID,
		assignment.EffectiveStart, assignment.EffectiveEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	return nil
}

// CloseInterval sets the end date of an open assignment interval
func (r *PostgresAssignmentRepository) CloseInterval(ctx context.Context, id uuid.UUID, end time.Time) error {
	commandTag, err := r.db.GetPool().Exec(ctx,
		"UPDATE player_team_assignments SET effective_end = $2 WHERE id = $1 AND effective_end IS NULL",
		id, end,
	)
	if err != nil {
		return fmt.Errorf("failed to close assignment interval: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByPlayer retrieves all assignment intervals for one player, ordered by start
func (r *PostgresAssignmentRepository) GetByPlayer(ctx context.Context, playerID string) ([]*models.PlayerTeamAssignment, error) {
	query := `
		SELECT id, player_id, team_id, effective_start, effective_end, created_at
		FROM player_team_assignments
		WHERE player_id = $1
		ORDER BY effective_start ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

// GetAll retrieves every assignment interval, ordered by player then start
func (r *PostgresAssignmentRepository) GetAll(ctx context.Context) ([]*models.PlayerTeamAssignment, error) {
	query := `
		SELECT id, player_id, team_id, effective_start, effective_end, created_at
		FROM player_team_assignments
		ORDER BY player_id ASC, effective_start ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all assignments: %w", err)
	}
	defer rows.Close()

	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]*models.PlayerTeamAssignment, error) {
	var out []*models.PlayerTeamAssignment
	for rows.Next() {
		a := &models.PlayerTeamAssignment{}
		if err := rows.Scan(&a.ID, &a.PlayerID, &a.TeamID, &a.EffectiveStart, &a.EffectiveEnd, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
