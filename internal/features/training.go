package features

import (
	"sort"

	"github.com/yourusername/rebound-edge/internal/models"
)

// BuildTrainingSet replays the league history and builds one labeled row per
// observed game, each vector computed as of that game's date. Rows whose
// vectors required population fallback are excluded; inference-time builds
// keep them, training does not.
func (b *Builder) BuildTrainingSet(league []*models.GameObservation, resolver TeamResolver) []models.TrainingRow {
	byPlayer := make(map[string][]*models.GameObservation)
	for _, o := range league {
		byPlayer[o.PlayerID] = append(byPlayer[o.PlayerID], o)
	}
	for _, obs := range byPlayer {
		sort.Slice(obs, func(i, j int) bool { return obs[i].GameDate.Before(obs[j].GameDate) })
	}

	rows := make([]models.TrainingRow, 0, len(league))
	excluded := 0

	for playerID, playerObs := range byPlayer {
		for _, game := range playerObs {
			vec := b.Build(
				ObservationWindow{Player: playerObs, League: league},
				GameContext{
					PlayerID:       playerID,
					GameDate:       game.GameDate,
					OpponentTeamID: game.OpponentTeamID,
					HomeAway:       game.HomeAway,
					InjuryFlag:     game.InjuryFlag,
				},
				game.GameDate,
				resolver,
			)
			if vec.HasMissing() {
				excluded++
				continue
			}
			rows = append(rows, models.TrainingRow{Vector: vec, Rebounds: game.Rebounds})
		}
	}

	// Stable ordering for reproducible training runs.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Vector.PlayerID != rows[j].Vector.PlayerID {
			return rows[i].Vector.PlayerID < rows[j].Vector.PlayerID
		}
		return rows[i].Vector.GameDate.Before(rows[j].Vector.GameDate)
	})

	if excluded > 0 {
		b.logger.WithField("excluded_rows", excluded).Debug("Excluded low-coverage rows from training set")
	}
	return rows
}
