package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/datasource"
	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/internal/registry"
)

// DataNormalizer converts raw provider rows to internal models.
type DataNormalizer struct {
	teamCodeMap map[string]string // Maps provider team names to canonical tri-codes
	logger      *logrus.Logger
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(logger *logrus.Logger) *DataNormalizer {
	return &DataNormalizer{
		teamCodeMap: buildTeamCodeMap(),
		logger:      logger,
	}
}

// NormalizeObservation converts a GameLogRow from any source to an internal
// GameObservation. Back-to-back is derived later by the ingestion service,
// which sees the player's surrounding schedule.
func (n *DataNormalizer) NormalizeObservation(row *datasource.GameLogRow) (*models.GameObservation, error) {
	if row == nil {
		return nil, fmt.Errorf("source row is nil")
	}

	gameDate, err := time.Parse("2006-01-02", row.GameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse game_date %q: %w", row.GameDate, err)
	}

	if row.Rebounds == nil {
		return nil, fmt.Errorf("rebounds missing for player %s on %s", row.PlayerID, row.GameDate)
	}

	// A nil minutes value is a DNP row: zero minutes, flagged.
	minutes := 0.0
	injuryFlag := row.InjuryFlag
	if row.Minutes != nil {
		minutes, _ = row.Minutes.Float64()
	} else {
		injuryFlag = true
	}

	venue, err := n.normalizeVenue(row.HomeAway)
	if err != nil {
		return nil, err
	}

	obs := &models.GameObservation{
		ID:             uuid.New(),
		PlayerID:       strings.TrimSpace(row.PlayerID),
		GameDate:       registry.DateOnly(gameDate),
		TeamID:         n.NormalizeTeamCode(row.TeamID),
		OpponentTeamID: n.NormalizeTeamCode(row.OpponentID),
		MinutesPlayed:  minutes,
		Rebounds:       *row.Rebounds,
		HomeAway:       venue,
		InjuryFlag:     injuryFlag,
		CreatedAt:      time.Now().UTC(),
	}

	return obs, nil
}

// NormalizeRosterEvent converts a raw roster event to a RosterTransaction.
func (n *DataNormalizer) NormalizeRosterEvent(ev *datasource.RosterEvent) (models.RosterTransaction, error) {
	if ev == nil {
		return models.RosterTransaction{}, fmt.Errorf("source event is nil")
	}

	effective, err := time.Parse("2006-01-02", ev.EffectiveDate)
	if err != nil {
		return models.RosterTransaction{}, fmt.Errorf("failed to parse effective_date %q: %w", ev.EffectiveDate, err)
	}

	return models.RosterTransaction{
		PlayerID:      strings.TrimSpace(ev.PlayerID),
		NewTeamID:     n.NormalizeTeamCode(ev.NewTeamID),
		EffectiveDate: registry.DateOnly(effective),
	}, nil
}

// NormalizeTeamCode converts provider-specific team identifiers to canonical
// NBA tri-codes. Unrecognized identifiers pass through uppercased so they stay
// joinable within a single provider's data.
func (n *DataNormalizer) NormalizeTeamCode(team string) string {
	trimmed := strings.TrimSpace(team)
	if trimmed == "" {
		return trimmed
	}

	upper := strings.ToUpper(trimmed)
	if canonical, ok := n.teamCodeMap[upper]; ok {
		return canonical
	}

	return upper
}

// normalizeVenue maps provider venue notation to the home/away enum.
func (n *DataNormalizer) normalizeVenue(venue string) (models.HomeAway, error) {
	switch strings.ToLower(strings.TrimSpace(venue)) {
	case "home", "h", "vs":
		return models.HomeGame, nil
	case "away", "a", "@":
		return models.AwayGame, nil
	default:
		return "", fmt.Errorf("unrecognized venue notation: %q", venue)
	}
}

// buildTeamCodeMap returns mapping of team name variations to canonical tri-codes
func buildTeamCodeMap() map[string]string {
	return map[string]string{
		"ATLANTA HAWKS":          "ATL",
		"BOSTON CELTICS":         "BOS",
		"BROOKLYN NETS":          "BKN",
		"BRK":                    "BKN",
		"CHARLOTTE HORNETS":      "CHA",
		"CHO":                    "CHA",
		"CHICAGO BULLS":          "CHI",
		"CLEVELAND CAVALIERS":    "CLE",
		"DALLAS MAVERICKS":       "DAL",
		"DENVER NUGGETS":         "DEN",
		"DETROIT PISTONS":        "DET",
		"GOLDEN STATE WARRIORS":  "GSW",
		"GS":                     "GSW",
		"HOUSTON ROCKETS":        "HOU",
		"INDIANA PACERS":         "IND",
		"LA CLIPPERS":            "LAC",
		"LOS ANGELES CLIPPERS":   "LAC",
		"LOS ANGELES LAKERS":     "LAL",
		"L.A. LAKERS":            "LAL",
		"MEMPHIS GRIZZLIES":      "MEM",
		"MIAMI HEAT":             "MIA",
		"MILWAUKEE BUCKS":        "MIL",
		"MINNESOTA TIMBERWOLVES": "MIN",
		"NEW ORLEANS PELICANS":   "NOP",
		"NO":                     "NOP",
		"NEW YORK KNICKS":        "NYK",
		"NY":                     "NYK",
		"OKLAHOMA CITY THUNDER":  "OKC",
		"ORLANDO MAGIC":          "ORL",
		"PHILADELPHIA 76ERS":     "PHI",
		"PHOENIX SUNS":           "PHX",
		"PHO":                    "PHX",
		"PORTLAND TRAIL BLAZERS": "POR",
		"SACRAMENTO KINGS":       "SAC",
		"SAN ANTONIO SPURS":      "SAS",
		"SA":                     "SAS",
		"TORONTO RAPTORS":        "TOR",
		"UTAH JAZZ":              "UTA",
		"UTAH":                   "UTA",
		"WASHINGTON WIZARDS":     "WAS",
		"WSH":                    "WAS",
	}
}
