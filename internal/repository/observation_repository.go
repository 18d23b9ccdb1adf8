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

// PostgresObservationRepository implements ObservationRepository for PostgreSQL
type PostgresObservationRepository struct {
	db *database.DB
}

// NewPostgresObservationRepository creates a new observation repository
func NewPostgresObservationRepository(db *database.DB) ObservationRepository {
	return &PostgresObservationRepository{db: db}
}

// Insert inserts a single game observation
func (r *PostgresObservationRepository) Insert(ctx context.Context, obs *models.GameObservation) error {
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}

	query := `
		INSERT INTO game_observations (id, player_id, game_date, team_id, opponent_team_id, minutes_played, rebounds, home_away, back_to_back, injury_flag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		obs.ID, obs.PlayerID, obs.GameDate, obs.TeamID, obs.OpponentTeamID,
		obs.MinutesPlayed, obs.Rebounds, obs.HomeAway, obs.BackToBack, obs.InjuryFlag,
	)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}

	return nil
}

// InsertBatch inserts multiple observations using high-performance batch insert
func (r *PostgresObservationRepository) InsertBatch(ctx context.Context, obs []*models.GameObservation) error {
	if len(obs) == 0 {
		return nil
	}

	columns := []string{"id", "player_id", "game_date", "team_id", "opponent_team_id", "minutes_played", "rebounds", "home_away", "back_to_back", "injury_flag"}

	copyFromSource := make([][]interface{}, len(obs))
	for i, o := range obs {
		id := o.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		copyFromSource[i] = []interface{}{
			id, o.PlayerID, o.GameDate, o.TeamID, o.OpponentTeamID,
			o.MinutesPlayed, o.Rebounds, o.HomeAway, o.BackToBack, o.InjuryFlag,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"game_observations"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert observations: %w", err)
	}

	if count != int64(len(obs)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(obs))
	}

	return nil
}

const observationColumns = `id, player_id, game_date, team_id, opponent_team_id, minutes_played, rebounds, home_away, back_to_back, injury_flag, created_at`

// GetByPlayer retrieves one player's observations strictly before the cutoff
func (r *PostgresObservationRepository) GetByPlayer(ctx context.Context, playerID string, before time.Time) ([]*models.GameObservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM game_observations
		WHERE player_id = $1 AND game_date < $2
		ORDER BY game_date ASC
	`, observationColumns)

	rows, err := r.db.GetPool().Query(ctx, query, playerID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetLeague retrieves every observation strictly before the cutoff
func (r *PostgresObservationRepository) GetLeague(ctx context.Context, before time.Time) ([]*models.GameObservation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM game_observations
		WHERE game_date < $1
		ORDER BY player_id ASC, game_date ASC
	`, observationColumns)

	rows, err := r.db.GetPool().Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query league observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// Exists reports whether an observation exists for the player and game date
func (r *PostgresObservationRepository) Exists(ctx context.Context, playerID string, gameDate time.Time) (bool, error) {
	var exists bool
	err := r.db.GetPool().QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM game_observations WHERE player_id = $1 AND game_date = $2)",
		playerID, gameDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check observation existence: %w", err)
	}
	return exists, nil
}

func scanObservations(rows pgx.Rows) ([]*models.GameObservation, error) {
	var out []*models.GameObservation
	for rows.Next() {
		obs := &models.GameObservation{}
		err := rows.Scan(
			&obs.ID, &obs.PlayerID, &obs.GameDate, &obs.TeamID, &obs.OpponentTeamID,
			&obs.MinutesPlayed, &obs.Rebounds, &obs.HomeAway, &obs.BackToBack, &obs.InjuryFlag, &obs.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}
