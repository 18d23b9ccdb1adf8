package models

import (
	"time"

	"github.com/google/uuid"
)

// HomeAway indicates game venue from the player's perspective.
type HomeAway string

const (
	HomeGame HomeAway = "home"
	AwayGame HomeAway = "away"
)

// GameObservation represents one player's stat line for one completed game.
// Immutable once ingested; one row per player per game date.
type GameObservation struct {
	ID             uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	PlayerID       string    `db:"player_id" json:"player_id" validate:"required"`
	GameDate       time.Time `db:"game_date" json:"game_date" validate:"required"`
	TeamID         string    `db:"team_id" json:"team_id" validate:"required"`
	OpponentTeamID string    `db:"opponent_team_id" json:"opponent_team_id" validate:"required"`
	MinutesPlayed  float64   `db:"minutes_played" json:"minutes_played" validate:"gte=0,lte=60"`
	Rebounds       int       `db:"rebounds" json:"rebounds" validate:"gte=0"`
	HomeAway       HomeAway  `db:"home_away" json:"home_away" validate:"required,oneof=home away"`
	BackToBack     bool      `db:"back_to_back" json:"back_to_back"`
	InjuryFlag     bool      `db:"injury_flag" json:"injury_flag"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// IsBefore reports whether the observation predates the cutoff (strictly).
func (o *GameObservation) IsBefore(cutoff time.Time) bool {
	return o.GameDate.Before(cutoff)
}
