package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// GameLogSource defines the interface for fetching raw game-log and roster
// data from external stats providers
type GameLogSource interface {
	// FetchGameLogs retrieves game-log rows within the specified date range
	FetchGameLogs(ctx context.Context, startDate, endDate time.Time) ([]GameLogRow, error)

	// FetchRosterTransactions retrieves roster events since the given date
	FetchRosterTransactions(ctx context.Context, since time.Time) ([]RosterEvent, error)

	// Name returns the name of the data source
	Name() string
}

// GameLogRow represents a raw game-log row as delivered by a provider,
// before validation and normalization
type GameLogRow struct {
	PlayerID   string           `json:"player_id"`
	GameDate   string           `json:"game_date"`
	TeamID     string           `json:"team_id"`
	OpponentID string           `json:"opponent_id"`
	Minutes    *decimal.Decimal `json:"minutes"`
	Rebounds   *int             `json:"rebounds"`
	HomeAway   string           `json:"home_away"`
	InjuryFlag bool             `json:"injury_flag"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// RosterEvent represents a raw roster transaction from a provider
type RosterEvent struct {
	PlayerID      string `json:"player_id"`
	NewTeamID     string `json:"new_team_id"`
	EffectiveDate string `json:"effective_date"`
}

// SourceError represents errors from data source operations
type SourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidData          = errors.New("invalid data format")
)

// NewSourceError creates a new data source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
