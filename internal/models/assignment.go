package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamUnknown is the team resolved for a player with no assignment covering a date.
// It is a legitimate categorical value downstream, not an error condition.
const TeamUnknown = "UNKNOWN"

// PlayerTeamAssignment represents an effective-dated player-team relationship.
// Assignments are append-only: a trade closes the open interval and opens a new one.
type PlayerTeamAssignment struct {
	ID             uuid.UUID  `db:"id" json:"id" validate:"required,uuid4"`
	PlayerID       string     `db:"player_id" json:"player_id" validate:"required"`
	TeamID         string     `db:"team_id" json:"team_id" validate:"required"`
	EffectiveStart time.Time  `db:"effective_start" json:"effective_start" validate:"required"`
	EffectiveEnd   *time.Time `db:"effective_end" json:"effective_end"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// IsOpen reports whether the assignment has no end date (current team).
func (a *PlayerTeamAssignment) IsOpen() bool {
	return a.EffectiveEnd == nil
}

// Covers reports whether the assignment interval contains the given date.
// Start is inclusive, end is inclusive (the end date is the last day on the team).
func (a *PlayerTeamAssignment) Covers(date time.Time) bool {
	if date.Before(a.EffectiveStart) {
		return false
	}
	if a.EffectiveEnd == nil {
		return true
	}
	return !date.After(*a.EffectiveEnd)
}

// RosterTransaction represents an external roster-sync event (trade, signing).
type RosterTransaction struct {
	PlayerID      string    `json:"player_id" validate:"required"`
	NewTeamID     string    `json:"new_team_id" validate:"required"`
	EffectiveDate time.Time `json:"effective_date" validate:"required"`
}
