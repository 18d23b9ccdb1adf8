// Package features turns raw game observations and registry lookups into
// fixed-schema feature vectors.
//
// Building is pure and deterministic given identical inputs, and every window
// takes an explicit cutoff date: identical code runs at training time and at
// batch-inference time, so the two can never drift apart.
package features

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/models"
)

// TeamResolver is the registry lookup the builder depends on.
type TeamResolver interface {
	ResolveTeam(playerID string, asOf time.Time) string
}

// Config holds feature-engineering parameters.
type Config struct {
	TrailingWindow int     // games in the rolling player window
	MinCoverage    int     // games required before trailing stats are trusted
	EWMAAlpha      float64 // smoothing factor for the rebound EWMA
	InjuryMinutesFactor float64 // haircut applied to expected minutes under an injury flag
}

// DefaultConfig returns recommended defaults.
func DefaultConfig() Config {
	return Config{
		TrailingWindow:      10,
		MinCoverage:         3,
		EWMAAlpha:           0.3,
		InjuryMinutesFactor: 0.75,
	}
}

// ObservationWindow is the raw input for one build: the player's own game log
// and league-wide rows used for opponent aggregates and population fallbacks.
// The builder applies the cutoff itself; callers may pass full histories.
type ObservationWindow struct {
	Player []*models.GameObservation
	League []*models.GameObservation
}

// GameContext describes the upcoming game the vector is built for.
type GameContext struct {
	PlayerID       string
	GameDate       time.Time
	OpponentTeamID string
	HomeAway       models.HomeAway
	InjuryFlag     bool
}

// Builder computes feature vectors.
type Builder struct {
	cfg    Config
	logger *logrus.Logger
}

// NewBuilder creates a feature builder.
func NewBuilder(cfg Config, logger *logrus.Logger) *Builder {
	if cfg.TrailingWindow <= 0 {
		cfg.TrailingWindow = DefaultConfig().TrailingWindow
	}
	if cfg.MinCoverage <= 0 {
		cfg.MinCoverage = DefaultConfig().MinCoverage
	}
	if cfg.EWMAAlpha <= 0 || cfg.EWMAAlpha >= 1 {
		cfg.EWMAAlpha = DefaultConfig().EWMAAlpha
	}
	if cfg.InjuryMinutesFactor <= 0 || cfg.InjuryMinutesFactor > 1 {
		cfg.InjuryMinutesFactor = DefaultConfig().InjuryMinutesFactor
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Build computes the feature vector for the given game, using only
// observations strictly before asOf. Features that cannot be computed from
// the player's or opponent's trailing window fall back to league population
// means and are flagged missing; training excludes such rows, inference
// proceeds best-effort.
func (b *Builder) Build(window ObservationWindow, game GameContext, asOf time.Time, resolver TeamResolver) *models.FeatureVector {
	playerObs := cutoff(window.Player, asOf)
	leagueObs := cutoff(window.League, asOf)

	vec := &models.FeatureVector{
		PlayerID:      game.PlayerID,
		GameDate:      game.GameDate,
		SchemaVersion: models.FeatureSchemaVersion,
		Values:        make(map[string]float64, len(models.FeatureOrder)),
		Missing:       make(map[string]bool),
	}

	pop := populationMeans(leagueObs)

	b.playerFamily(vec, playerObs, game, pop)
	b.opponentFamily(vec, leagueObs, game.OpponentTeamID, pop)
	b.contextFamily(vec, playerObs, game, asOf, resolver)
	b.timeSeriesFamily(vec, playerObs, pop)

	if len(vec.Missing) == 0 {
		vec.Missing = nil
	}
	return vec
}

func (b *Builder) playerFamily(vec *models.FeatureVector, playerObs []*models.GameObservation, game GameContext, pop map[string]float64) {
	window := lastN(playerObs, b.cfg.TrailingWindow)

	if len(window) >= b.cfg.MinCoverage {
		vec.Values[models.FeatReboundRate] = meanRebounds(window)
		vec.Values[models.FeatUsageProxy] = reboundsPer36(window)
		vec.Values[models.FeatMinutesTrend] = minutesSlope(window)
		expected := meanMinutes(window)
		if game.InjuryFlag {
			expected *= b.cfg.InjuryMinutesFactor
		}
		vec.Values[models.FeatMinutesExpected] = expected
		return
	}

	for _, name := range []string{models.FeatReboundRate, models.FeatUsageProxy, models.FeatMinutesTrend, models.FeatMinutesExpected} {
		vec.Values[name] = pop[name]
		vec.Missing[name] = true
	}
}

func (b *Builder) opponentFamily(vec *models.FeatureVector, leagueObs []*models.GameObservation, opponentID string, pop map[string]float64) {
	conceded := make([]*models.GameObservation, 0)
	own := make([]*models.GameObservation, 0)
	for _, o := range leagueObs {
		if o.OpponentTeamID == opponentID {
			conceded = append(conceded, o)
		}
		if o.TeamID == opponentID {
			own = append(own, o)
		}
	}

	concededTotals := trailing(teamGameTotals(conceded), b.cfg.TrailingWindow)
	ownTotals := trailing(teamGameTotals(own), b.cfg.TrailingWindow)

	if len(concededTotals) >= b.cfg.MinCoverage && len(ownTotals) >= b.cfg.MinCoverage {
		// Boards conceded per game approximate how porous the opponent's
		// defensive glass is; combined board volume proxies their pace.
		vec.Values[models.FeatOppDefReboundRate] = meanFloat(concededTotals)
		vec.Values[models.FeatOppPace] = meanFloat(concededTotals) + meanFloat(ownTotals)
		return
	}

	vec.Values[models.FeatOppDefReboundRate] = pop[models.FeatOppDefReboundRate]
	vec.Values[models.FeatOppPace] = pop[models.FeatOppPace]
	vec.Missing[models.FeatOppDefReboundRate] = true
	vec.Missing[models.FeatOppPace] = true
}

func (b *Builder) contextFamily(vec *models.FeatureVector, playerObs []*models.GameObservation, game GameContext, asOf time.Time, resolver TeamResolver) {
	if game.HomeAway == models.HomeGame {
		vec.Values[models.FeatHomeGame] = 1
	} else {
		vec.Values[models.FeatHomeGame] = 0
	}

	vec.Values[models.FeatBackToBack] = 0
	if len(playerObs) > 0 {
		previous := playerObs[len(playerObs)-1].GameDate
		if game.GameDate.Sub(previous) <= 24*time.Hour {
			vec.Values[models.FeatBackToBack] = 1
		}
	}

	// Unknown team is a legitimate categorical value, carried as its own flag.
	vec.Values[models.FeatTeamKnown] = 1
	if resolver == nil || resolver.ResolveTeam(game.PlayerID, asOf) == models.TeamUnknown {
		vec.Values[models.FeatTeamKnown] = 0
	}
}

func (b *Builder) timeSeriesFamily(vec *models.FeatureVector, playerObs []*models.GameObservation, pop map[string]float64) {
	if len(playerObs) >= b.cfg.MinCoverage {
		vec.Values[models.FeatReboundEWMA] = ewma(playerObs, b.cfg.EWMAAlpha)
		vec.Values[models.FeatSeasonTrend] = seasonTrend(playerObs)
		return
	}

	vec.Values[models.FeatReboundEWMA] = pop[models.FeatReboundEWMA]
	vec.Values[models.FeatSeasonTrend] = 0
	vec.Missing[models.FeatReboundEWMA] = true
	vec.Missing[models.FeatSeasonTrend] = true
}

// populationMeans computes league-wide fallback values from pre-cutoff rows.
func populationMeans(leagueObs []*models.GameObservation) map[string]float64 {
	pop := map[string]float64{
		models.FeatReboundRate:       0,
		models.FeatUsageProxy:        0,
		models.FeatMinutesTrend:      0,
		models.FeatMinutesExpected:   0,
		models.FeatOppDefReboundRate: 0,
		models.FeatOppPace:           0,
		models.FeatReboundEWMA:       0,
	}
	if len(leagueObs) == 0 {
		return pop
	}

	pop[models.FeatReboundRate] = meanRebounds(leagueObs)
	pop[models.FeatUsageProxy] = reboundsPer36(leagueObs)
	pop[models.FeatMinutesExpected] = meanMinutes(leagueObs)
	pop[models.FeatReboundEWMA] = pop[models.FeatReboundRate]

	totals := teamGameTotals(leagueObs)
	perTeamGame := meanFloat(totals)
	pop[models.FeatOppDefReboundRate] = perTeamGame
	pop[models.FeatOppPace] = perTeamGame * 2

	return pop
}
