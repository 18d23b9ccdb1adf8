package service

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/rebound-edge/internal/datasource"
	"github.com/yourusername/rebound-edge/internal/models"
)

func newTestNormalizer() *DataNormalizer {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewDataNormalizer(logger)
}

func TestNormalizeObservation(t *testing.T) {
	normalizer := newTestNormalizer()

	row := validRow()
	obs, err := normalizer.NormalizeObservation(&row)
	require.NoError(t, err)

	assert.Equal(t, "jokic-nikola", obs.PlayerID)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), obs.GameDate)
	assert.Equal(t, "DEN", obs.TeamID)
	assert.Equal(t, "LAL", obs.OpponentTeamID)
	assert.InDelta(t, 34.5, obs.MinutesPlayed, 1e-9)
	assert.Equal(t, 14, obs.Rebounds)
	assert.Equal(t, models.HomeGame, obs.HomeAway)
	assert.False(t, obs.InjuryFlag)
	assert.False(t, obs.BackToBack)
	assert.NotEqual(t, "", obs.ID.String())
}

func TestNormalizeObservationDNP(t *testing.T) {
	normalizer := newTestNormalizer()

	row := validRow()
	row.Minutes = nil

	obs, err := normalizer.NormalizeObservation(&row)
	require.NoError(t, err)

	assert.Zero(t, obs.MinutesPlayed)
	assert.True(t, obs.InjuryFlag, "nil minutes should flag the row")
}

func TestNormalizeObservationRejectsBadRows(t *testing.T) {
	normalizer := newTestNormalizer()

	t.Run("Nil row", func(t *testing.T) {
		_, err := normalizer.NormalizeObservation(nil)
		assert.Error(t, err)
	})

	t.Run("Bad date", func(t *testing.T) {
		row := validRow()
		row.GameDate = "Jan 10"
		_, err := normalizer.NormalizeObservation(&row)
		assert.Error(t, err)
	})

	t.Run("Missing rebounds", func(t *testing.T) {
		row := validRow()
		row.Rebounds = nil
		_, err := normalizer.NormalizeObservation(&row)
		assert.Error(t, err)
	})

	t.Run("Unknown venue", func(t *testing.T) {
		row := validRow()
		row.HomeAway = "neutral"
		_, err := normalizer.NormalizeObservation(&row)
		assert.Error(t, err)
	})
}

func TestNormalizeTeamCode(t *testing.T) {
	normalizer := newTestNormalizer()

	tests := []struct {
		in   string
		want string
	}{
		{"DEN", "DEN"},
		{"den", "DEN"},
		{"Los Angeles Lakers", "LAL"},
		{"BRK", "BKN"},
		{"PHO", "PHX"},
		{"WSH", "WAS"},
		{" UTAH ", "UTA"},
		{"XYZ", "XYZ"}, // unrecognized codes pass through uppercased
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizer.NormalizeTeamCode(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeVenueNotation(t *testing.T) {
	normalizer := newTestNormalizer()

	for _, in := range []string{"home", "H", "vs"} {
		row := validRow()
		row.HomeAway = in
		obs, err := normalizer.NormalizeObservation(&row)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, models.HomeGame, obs.HomeAway, "input %q", in)
	}

	for _, in := range []string{"away", "A", "@"} {
		row := validRow()
		row.HomeAway = in
		obs, err := normalizer.NormalizeObservation(&row)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, models.AwayGame, obs.HomeAway, "input %q", in)
	}
}

func TestNormalizeRosterEvent(t *testing.T) {
	normalizer := newTestNormalizer()

	tx, err := normalizer.NormalizeRosterEvent(&datasource.RosterEvent{
		PlayerID:      " porzingis-kristaps ",
		NewTeamID:     "Boston Celtics",
		EffectiveDate: "2023-06-22",
	})
	require.NoError(t, err)

	assert.Equal(t, "porzingis-kristaps", tx.PlayerID)
	assert.Equal(t, "BOS", tx.NewTeamID)
	assert.Equal(t, time.Date(2023, 6, 22, 0, 0, 0, 0, time.UTC), tx.EffectiveDate)

	_, err = normalizer.NormalizeRosterEvent(&datasource.RosterEvent{
		PlayerID:      "porzingis-kristaps",
		NewTeamID:     "BOS",
		EffectiveDate: "22/06/2023",
	})
	assert.Error(t, err)
}
