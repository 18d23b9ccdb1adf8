package models

import (
	"fmt"
	"time"
)

// FeatureSchemaVersion identifies the current feature layout. Bump whenever
// feature names, ordering, or semantics change so that artifact/vector
// mismatches fail fast instead of silently misaligning columns.
const FeatureSchemaVersion = "v1"

// Feature names in schema order.
const (
	FeatReboundRate       = "rebound_rate"
	FeatUsageProxy        = "usage_proxy"
	FeatMinutesTrend      = "minutes_trend"
	FeatMinutesExpected   = "minutes_expected"
	FeatOppDefReboundRate = "opp_def_rebound_rate"
	FeatOppPace           = "opp_pace"
	FeatHomeGame          = "home_game"
	FeatBackToBack        = "back_to_back"
	FeatTeamKnown         = "team_known"
	FeatReboundEWMA       = "rebound_ewma"
	FeatSeasonTrend       = "season_trend"
)

// FeatureOrder is the canonical column ordering for schema v1.
var FeatureOrder = []string{
	FeatReboundRate,
	FeatUsageProxy,
	FeatMinutesTrend,
	FeatMinutesExpected,
	FeatOppDefReboundRate,
	FeatOppPace,
	FeatHomeGame,
	FeatBackToBack,
	FeatTeamKnown,
	FeatReboundEWMA,
	FeatSeasonTrend,
}

// FeatureVector is a fixed-schema feature row for one player and game date.
// Derived and recomputable; never a source of truth.
type FeatureVector struct {
	PlayerID      string             `json:"player_id"`
	GameDate      time.Time          `json:"game_date"`
	SchemaVersion string             `json:"schema_version"`
	Values        map[string]float64 `json:"values"`
	Missing       map[string]bool    `json:"missing,omitempty"`
}

// Get returns the named feature value, failing if the schema does not carry it.
func (fv *FeatureVector) Get(name string) (float64, error) {
	v, ok := fv.Values[name]
	if !ok {
		return 0, fmt.Errorf("feature %q not present in vector (schema %s)", name, fv.SchemaVersion)
	}
	return v, nil
}

// IsMissing reports whether the named feature was imputed from a population fallback.
func (fv *FeatureVector) IsMissing(name string) bool {
	return fv.Missing[name]
}

// Ordered returns values in the given column order. An absent column is an error,
// never a silent zero.
func (fv *FeatureVector) Ordered(order []string) ([]float64, error) {
	out := make([]float64, len(order))
	for i, name := range order {
		v, ok := fv.Values[name]
		if !ok {
			return nil, fmt.Errorf("feature %q missing from vector (schema %s)", name, fv.SchemaVersion)
		}
		out[i] = v
	}
	return out, nil
}

// HasMissing reports whether any feature in the vector was population-imputed.
func (fv *FeatureVector) HasMissing() bool {
	return len(fv.Missing) > 0
}

// TrainingRow pairs a feature vector with its realized rebound count.
type TrainingRow struct {
	Vector   *FeatureVector `json:"vector"`
	Rebounds int            `json:"rebounds"`
}
