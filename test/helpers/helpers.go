// Package helpers provides shared fixtures for integration and e2e tests.
package helpers

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rebound-edge/internal/batch"
	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/internal/registry"
)

// QuietLogger returns a logger that only reports errors.
func QuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// TeamCodes is a small rotation of opponents for synthetic seasons.
var TeamCodes = []string{"BOS", "DEN", "LAL", "MIA", "PHX", "MIL"}

// PlayerID returns a deterministic synthetic player identifier.
func PlayerID(team string, slot int) string {
	return fmt.Sprintf("%s-player-%02d", team, slot)
}

// SeasonObservations generates a deterministic season of game logs for one
// player: every other day, rotating opponents, alternating venue, rebounds
// oscillating around a per-player base so trained coefficients are stable.
func SeasonObservations(playerID, teamID string, games int, lastDate time.Time, baseRebounds float64) []*models.GameObservation {
	obs := make([]*models.GameObservation, 0, games)
	for i := 0; i < games; i++ {
		gameDate := lastDate.AddDate(0, 0, -2*i)

		opponent := TeamCodes[i%len(TeamCodes)]
		if opponent == teamID {
			opponent = TeamCodes[(i+1)%len(TeamCodes)]
		}

		venue := models.HomeGame
		if i%2 == 1 {
			venue = models.AwayGame
		}

		rebounds := int(math.Round(baseRebounds + 2*math.Sin(float64(i))))
		if rebounds < 0 {
			rebounds = 0
		}

		obs = append(obs, &models.GameObservation{
			ID:             uuid.New(),
			PlayerID:       playerID,
			GameDate:       gameDate,
			TeamID:         teamID,
			OpponentTeamID: opponent,
			MinutesPlayed:  28 + float64(i%3)*4,
			Rebounds:       rebounds,
			HomeAway:       venue,
		})
	}
	return obs
}

// LeagueFixture builds a registry and full observation history for a league
// of playersPerTeam players on every team in TeamCodes.
func LeagueFixture(t *testing.T, playersPerTeam, gamesEach int, lastDate time.Time) (*registry.Registry, []string, []*models.GameObservation) {
	t.Helper()

	reg := registry.New(QuietLogger())
	var roster []string
	var league []*models.GameObservation

	for ti, team := range TeamCodes {
		for slot := 0; slot < playersPerTeam; slot++ {
			playerID := PlayerID(team, slot)
			roster = append(roster, playerID)

			_, err := reg.ApplyTransaction(models.RosterTransaction{
				PlayerID:      playerID,
				NewTeamID:     team,
				EffectiveDate: lastDate.AddDate(0, -6, 0),
			})
			require.NoError(t, err)

			base := 5 + float64(ti) + float64(slot)*0.5
			league = append(league, SeasonObservations(playerID, team, gamesEach, lastDate, base)...)
		}
	}

	return reg, roster, league
}

// QuoteFor returns a standard two-way quote at the given line.
func QuoteFor(playerID string, gameDate time.Time, line float64) *models.MarketQuote {
	return &models.MarketQuote{
		PlayerID:  playerID,
		GameDate:  gameDate,
		Line:      line,
		OverOdds:  models.Odds{Format: models.OddsAmerican, Value: -110},
		UnderOdds: models.Odds{Format: models.OddsAmerican, Value: -110},
		Book:      "testbook",
		QuotedAt:  gameDate.Add(-6 * time.Hour),
	}
}

// RoundRobinSchedule pairs adjacent teams in TeamCodes for one game date.
func RoundRobinSchedule(gameDate time.Time) []*batch.UpcomingGame {
	games := make([]*batch.UpcomingGame, 0, len(TeamCodes))
	for i := 0; i+1 < len(TeamCodes); i += 2 {
		home, away := TeamCodes[i], TeamCodes[i+1]
		games = append(games,
			&batch.UpcomingGame{TeamID: home, OpponentTeamID: away, GameDate: gameDate, Home: true},
			&batch.UpcomingGame{TeamID: away, OpponentTeamID: home, GameDate: gameDate, Home: false},
		)
	}
	return games
}
