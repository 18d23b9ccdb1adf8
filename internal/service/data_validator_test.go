package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/rebound-edge/internal/datasource"
	"github.com/yourusername/rebound-edge/internal/models"
)

func newTestValidator() *DataValidator {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewDataValidator(logger)
}

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validRow() datasource.GameLogRow {
	return datasource.GameLogRow{
		PlayerID:   "jokic-nikola",
		GameDate:   "2024-01-10",
		TeamID:     "DEN",
		OpponentID: "LAL",
		Minutes:    decPtr("34.5"),
		Rebounds:   intPtr(14),
		HomeAway:   "home",
	}
}

// TestGameLogRowValidation tests raw row validation rules using the production validator
func TestGameLogRowValidation(t *testing.T) {
	validator := newTestValidator()

	tests := []struct {
		name        string
		mutate      func(*datasource.GameLogRow)
		expectValid bool
		shouldHave  string // error message substring to check
	}{
		{
			name:        "Valid row",
			mutate:      func(r *datasource.GameLogRow) {},
			expectValid: true,
		},
		{
			name:        "Missing player id",
			mutate:      func(r *datasource.GameLogRow) { r.PlayerID = "" },
			expectValid: false,
			shouldHave:  "player_id is required",
		},
		{
			name:        "Missing team id",
			mutate:      func(r *datasource.GameLogRow) { r.TeamID = "" },
			expectValid: false,
			shouldHave:  "team_id is required",
		},
		{
			name:        "Missing opponent id",
			mutate:      func(r *datasource.GameLogRow) { r.OpponentID = "" },
			expectValid: false,
			shouldHave:  "opponent_id is required",
		},
		{
			name:        "Team playing itself",
			mutate:      func(r *datasource.GameLogRow) { r.OpponentID = "DEN" },
			expectValid: false,
			shouldHave:  "identical",
		},
		{
			name:        "Missing game date",
			mutate:      func(r *datasource.GameLogRow) { r.GameDate = "" },
			expectValid: false,
			shouldHave:  "game_date is required",
		},
		{
			name:        "Malformed game date",
			mutate:      func(r *datasource.GameLogRow) { r.GameDate = "01/10/2024" },
			expectValid: false,
			shouldHave:  "not parseable",
		},
		{
			name:        "Missing rebounds",
			mutate:      func(r *datasource.GameLogRow) { r.Rebounds = nil },
			expectValid: false,
			shouldHave:  "rebounds is required",
		},
		{
			name:        "Negative rebounds",
			mutate:      func(r *datasource.GameLogRow) { r.Rebounds = intPtr(-1) },
			expectValid: false,
			shouldHave:  "cannot be negative",
		},
		{
			name:        "Minutes above ceiling",
			mutate:      func(r *datasource.GameLogRow) { r.Minutes = decPtr("61") },
			expectValid: false,
			shouldHave:  "minutes out of range",
		},
		{
			name:        "Nil minutes is a DNP row, not an error",
			mutate:      func(r *datasource.GameLogRow) { r.Minutes = nil },
			expectValid: true,
		},
		{
			name:        "Unknown venue notation",
			mutate:      func(r *datasource.GameLogRow) { r.HomeAway = "neutral" },
			expectValid: false,
			shouldHave:  "home_away must be home or away",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(&row)

			errors := validator.ValidateGameLogRow(&row)
			if tt.expectValid {
				assert.Empty(t, errors)
				return
			}

			assert.NotEmpty(t, errors, "expected validation errors")
			found := false
			for _, e := range errors {
				if strings.Contains(e, tt.shouldHave) {
					found = true
					break
				}
			}
			assert.True(t, found, "expected error containing %q, got %v", tt.shouldHave, errors)
		})
	}
}

// TestObservationValidation tests normalized observation validation
func TestObservationValidation(t *testing.T) {
	validator := newTestValidator()

	valid := models.GameObservation{
		ID:             uuid.New(),
		PlayerID:       "sabonis-domantas",
		GameDate:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		TeamID:         "SAC",
		OpponentTeamID: "PHX",
		MinutesPlayed:  36,
		Rebounds:       13,
		HomeAway:       models.HomeGame,
	}

	t.Run("Valid observation", func(t *testing.T) {
		obs := valid
		assert.Empty(t, validator.ValidateObservation(&obs))
	})

	t.Run("Bad venue enum", func(t *testing.T) {
		obs := valid
		obs.HomeAway = "neutral"
		errors := validator.ValidateObservation(&obs)
		assert.NotEmpty(t, errors)
	})

	t.Run("Future game date", func(t *testing.T) {
		obs := valid
		obs.GameDate = time.Now().Add(72 * time.Hour)
		errors := validator.ValidateObservation(&obs)
		assert.NotEmpty(t, errors)
		assert.Contains(t, errors[0], "future")
	})

	t.Run("Negative minutes", func(t *testing.T) {
		obs := valid
		obs.MinutesPlayed = -1
		assert.NotEmpty(t, validator.ValidateObservation(&obs))
	})
}

// TestRosterEventValidation tests raw roster event checks
func TestRosterEventValidation(t *testing.T) {
	validator := newTestValidator()

	tests := []struct {
		name        string
		event       datasource.RosterEvent
		expectValid bool
	}{
		{
			name:        "Valid event",
			event:       datasource.RosterEvent{PlayerID: "murray-dejounte", NewTeamID: "NOP", EffectiveDate: "2024-07-06"},
			expectValid: true,
		},
		{
			name:        "Missing player",
			event:       datasource.RosterEvent{NewTeamID: "NOP", EffectiveDate: "2024-07-06"},
			expectValid: false,
		},
		{
			name:        "Missing team",
			event:       datasource.RosterEvent{PlayerID: "murray-dejounte", EffectiveDate: "2024-07-06"},
			expectValid: false,
		},
		{
			name:        "Malformed date",
			event:       datasource.RosterEvent{PlayerID: "murray-dejounte", NewTeamID: "NOP", EffectiveDate: "July 6"},
			expectValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := validator.ValidateRosterEvent(&tt.event)
			if tt.expectValid {
				assert.Empty(t, errors)
			} else {
				assert.NotEmpty(t, errors, "expected validation errors")
			}
		})
	}
}

func TestIsValidTeamCode(t *testing.T) {
	validator := newTestValidator()

	assert.True(t, validator.IsValidTeamCode("DEN"))
	assert.True(t, validator.IsValidTeamCode("BKN"))
	assert.False(t, validator.IsValidTeamCode("SEA"))
	assert.False(t, validator.IsValidTeamCode("den"))
	assert.False(t, validator.IsValidTeamCode(""))
}
