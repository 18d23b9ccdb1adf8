package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const statsSourceName = "stats_api"

// StatsAPIClient implements GameLogSource for the stats API
type StatsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *log.Logger
}

// statsGameLog is the provider's own game-log row shape
type statsGameLog struct {
	PlayerID   string `json:"playerId"`
	GameDate   string `json:"gameDate"`
	TeamID     string `json:"teamId"`
	OpponentID string `json:"opponentId"`
	Minutes    string `json:"minutes"`
	Rebounds   *int   `json:"totalRebounds"`
	Venue      string `json:"venue"`
	InjuryFlag bool   `json:"injuryDesignation"`
}

// statsRosterEvent is the provider's roster transaction shape
type statsRosterEvent struct {
	PlayerID      string `json:"playerId"`
	NewTeamID     string `json:"teamId"`
	EffectiveDate string `json:"effectiveDate"`
}

// NewStatsAPIClient creates a new stats API client
func NewStatsAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *log.Logger) *StatsAPIClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &StatsAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// FetchGameLogs retrieves game-log rows within the specified date range
func (c *StatsAPIClient) FetchGameLogs(ctx context.Context, startDate, endDate time.Time) ([]GameLogRow, error) {
	url := fmt.Sprintf("%s/gamelogs?from=%s&to=%s",
		c.baseURL, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var raw []statsGameLog
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, NewSourceError(statsSourceName, ErrCodeInvalidData, "failed to parse game logs", err)
	}

	rows := make([]GameLogRow, 0, len(raw))
	now := time.Now().UTC()
	for _, entry := range raw {
		row := GameLogRow{
			PlayerID:   entry.PlayerID,
			GameDate:   entry.GameDate,
			TeamID:     entry.TeamID,
			OpponentID: entry.OpponentID,
			Rebounds:   entry.Rebounds,
			HomeAway:   entry.Venue,
			InjuryFlag: entry.InjuryFlag,
			FetchedAt:  now,
		}
		if minutes := parseMinutes(entry.Minutes); minutes != nil {
			row.Minutes = minutes
		} else if entry.Minutes != "" {
			c.logger.Printf("Failed to parse minutes %q for player %s", entry.Minutes, entry.PlayerID)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// FetchRosterTransactions retrieves roster events since the given date
func (c *StatsAPIClient) FetchRosterTransactions(ctx context.Context, since time.Time) ([]RosterEvent, error) {
	url := fmt.Sprintf("%s/transactions?since=%s", c.baseURL, since.Format("2006-01-02"))

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var raw []statsRosterEvent
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, NewSourceError(statsSourceName, ErrCodeInvalidData, "failed to parse roster transactions", err)
	}

	events := make([]RosterEvent, 0, len(raw))
	for _, entry := range raw {
		events = append(events, RosterEvent{
			PlayerID:      entry.PlayerID,
			NewTeamID:     entry.NewTeamID,
			EffectiveDate: entry.EffectiveDate,
		})
	}

	return events, nil
}

// Name returns the data source name
func (c *StatsAPIClient) Name() string {
	return statsSourceName
}

func (c *StatsAPIClient) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewSourceError(statsSourceName, ErrCodeNetworkError, "failed to create request", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewSourceError(statsSourceName, ErrCodeNetworkError, "request failed", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusUnauthorized:
		resp.Body.Close()
		return nil, NewSourceError(statsSourceName, ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, NewSourceError(statsSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, NewSourceError(statsSourceName, ErrCodeNotFound, "resource not found", nil)
	default:
		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, NewSourceError(statsSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(payload)), nil)
	}
}

// parseMinutes parses provider minutes, accepting both decimal ("34.5")
// and clock ("34:30") formats
func parseMinutes(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}

	if d, err := decimal.NewFromString(s); err == nil {
		return &d
	}

	var mins, secs int
	if _, err := fmt.Sscanf(s, "%d:%d", &mins, &secs); err == nil && secs >= 0 && secs < 60 {
		d := decimal.NewFromInt(int64(mins)).Add(decimal.NewFromInt(int64(secs)).Div(decimal.NewFromInt(60)))
		return &d
	}

	return nil
}
