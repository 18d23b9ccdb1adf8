package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/rebound-edge/internal/database"
	"github.com/yourusername/rebound-edge/internal/models"
)

// PostgresQuoteRepository implements QuoteRepository for PostgreSQL
type PostgresQuoteRepository struct {
	db *database.DB
}

// NewPostgresQuoteRepository creates a new quote repository
func NewPostgresQuoteRepository(db *database.DB) QuoteRepository {
	return &PostgresQuoteRepository{db: db}
}

// Insert inserts a market quote, replacing an earlier quote for the same
// player, game, line and book
func (r *PostgresQuoteRepository) Insert(ctx context.Context, quote *models.MarketQuote) error {
	query := `
		INSERT INTO market_quotes (player_id, game_date, line, over_odds_format, over_odds_value, under_odds_format, under_odds_value, book, quoted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (player_id, game_date, line, book)
		DO UPDATE SET over_odds_format = $4, over_odds_value = $5, under_odds_format = $6, under_odds_value = $7, quoted_at = $9
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		quote.PlayerID, quote.GameDate, quote.Line,
		quote.OverOdds.Format, quote.OverOdds.Value,
		quote.UnderOdds.Format, quote.UnderOdds.Value,
		quote.Book, quote.QuotedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert market quote: %w", err)
	}

	return nil
}

const quoteColumns = `player_id, game_date, line, over_odds_format, over_odds_value, under_odds_format, under_odds_value, book, quoted_at`

// GetByGameDate retrieves the latest quote per player for a game date
func (r *PostgresQuoteRepository) GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.MarketQuote, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT ON (player_id) %s
		FROM market_quotes
		WHERE game_date = $1
		ORDER BY player_id ASC, quoted_at DESC
	`, quoteColumns)

	rows, err := r.db.GetPool().Query(ctx, query, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query market quotes: %w", err)
	}
	defer rows.Close()

	var out []*models.MarketQuote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, quote)
	}
	return out, rows.Err()
}

// GetByPlayer retrieves the latest quote for one player and game date
func (r *PostgresQuoteRepository) GetByPlayer(ctx context.Context, playerID string, gameDate time.Time) (*models.MarketQuote, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM market_quotes
		WHERE player_id = $1 AND game_date = $2
		ORDER BY quoted_at DESC
		LIMIT 1
	`, quoteColumns)

	rows, err := r.db.GetPool().Query(ctx, query, playerID, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query market quote: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query market quote: %w", err)
		}
		return nil, models.ErrMarketDataMissing
	}
	return scanQuote(rows)
}

func scanQuote(rows pgx.Rows) (*models.MarketQuote, error) {
	quote := &models.MarketQuote{}
	err := rows.Scan(
		&quote.PlayerID, &quote.GameDate, &quote.Line,
		&quote.OverOdds.Format, &quote.OverOdds.Value,
		&quote.UnderOdds.Format, &quote.UnderOdds.Value,
		&quote.Book, &quote.QuotedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan market quote: %w", err)
	}
	return quote, nil
}
