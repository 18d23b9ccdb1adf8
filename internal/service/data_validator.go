package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/datasource"
	"github.com/yourusername/rebound-edge/internal/models"
)

// DataValidator validates raw game-log rows and normalized observations.
type DataValidator struct {
	logger *logrus.Logger
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	return &DataValidator{logger: logger}
}

// ValidateGameLogRow validates a raw provider row before normalization.
func (v *DataValidator) ValidateGameLogRow(row *datasource.GameLogRow) []string {
	var errors []string

	if row.PlayerID == "" {
		errors = append(errors, "player_id is required")
	}

	if row.TeamID == "" {
		errors = append(errors, "team_id is required")
	}

	if row.OpponentID == "" {
		errors = append(errors, "opponent_id is required")
	}

	if row.TeamID != "" && row.TeamID == row.OpponentID {
		errors = append(errors, fmt.Sprintf("team_id and opponent_id are identical: %s", row.TeamID))
	}

	if row.GameDate == "" {
		errors = append(errors, "game_date is required")
	} else if _, err := time.Parse("2006-01-02", row.GameDate); err != nil {
		errors = append(errors, fmt.Sprintf("game_date not parseable as YYYY-MM-DD: %s", row.GameDate))
	}

	if row.Rebounds == nil {
		errors = append(errors, "rebounds is required")
	} else if *row.Rebounds < 0 {
		errors = append(errors, fmt.Sprintf("rebounds cannot be negative, got %d", *row.Rebounds))
	}

	if row.Minutes != nil {
		mins, _ := row.Minutes.Float64()
		if mins < 0 || mins > 60 {
			errors = append(errors, fmt.Sprintf("minutes out of range (0-60), got %.1f", mins))
		}
	}

	if row.HomeAway != "" && !isKnownVenue(row.HomeAway) {
		errors = append(errors, fmt.Sprintf("home_away must be home or away, got %s", row.HomeAway))
	}

	return errors
}

// ValidateObservation validates a normalized observation before persistence.
func (v *DataValidator) ValidateObservation(obs *models.GameObservation) []string {
	var errors []string

	if obs.PlayerID == "" {
		errors = append(errors, "player_id is required")
	}

	if obs.GameDate.IsZero() {
		errors = append(errors, "game_date is required")
	}

	if obs.MinutesPlayed < 0 || obs.MinutesPlayed > 60 {
		errors = append(errors, fmt.Sprintf("minutes_played out of range (0-60), got %.1f", obs.MinutesPlayed))
	}

	if obs.Rebounds < 0 {
		errors = append(errors, fmt.Sprintf("rebounds cannot be negative, got %d", obs.Rebounds))
	}

	if obs.HomeAway != models.HomeGame && obs.HomeAway != models.AwayGame {
		errors = append(errors, fmt.Sprintf("home_away must be home or away, got %s", obs.HomeAway))
	}

	// A completed game log should not postdate ingestion time.
	if obs.GameDate.After(time.Now().Add(24 * time.Hour)) {
		errors = append(errors, fmt.Sprintf("game_date is in the future: %s", obs.GameDate.Format("2006-01-02")))
	}

	return errors
}

// ValidateRosterEvent validates a raw roster event before it reaches the registry.
func (v *DataValidator) ValidateRosterEvent(ev *datasource.RosterEvent) []string {
	var errors []string

	if ev.PlayerID == "" {
		errors = append(errors, "player_id is required")
	}

	if ev.NewTeamID == "" {
		errors = append(errors, "new_team_id is required")
	}

	if ev.EffectiveDate == "" {
		errors = append(errors, "effective_date is required")
	} else if _, err := time.Parse("2006-01-02", ev.EffectiveDate); err != nil {
		errors = append(errors, fmt.Sprintf("effective_date not parseable as YYYY-MM-DD: %s", ev.EffectiveDate))
	}

	return errors
}

// IsValidTeamCode checks if a team code is a known NBA tri-code
func (v *DataValidator) IsValidTeamCode(code string) bool {
	return knownTeamCodes[code]
}

func isKnownVenue(s string) bool {
	switch s {
	case "home", "HOME", "Home", "H", "away", "AWAY", "Away", "A", "@", "vs":
		return true
	}
	return false
}

var knownTeamCodes = map[string]bool{
	"ATL": true, "BOS": true, "BKN": true, "CHA": true, "CHI": true, "CLE": true,
	"DAL": true, "DEN": true, "DET": true, "GSW": true, "HOU": true, "IND": true,
	"LAC": true, "LAL": true, "MEM": true, "MIA": true, "MIL": true, "MIN": true,
	"NOP": true, "NYK": true, "OKC": true, "ORL": true, "PHI": true, "PHX": true,
	"POR": true, "SAC": true, "SAS": true, "TOR": true, "UTA": true, "WAS": true,
}
