package models

import (
	"time"

	"github.com/google/uuid"
)

// ConfidenceInterval is a central interval on the predictive distribution.
type ConfidenceInterval struct {
	Level float64 `json:"level"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

// LineProbability is the model's tail probability at one market line.
type LineProbability struct {
	Line      float64 `json:"line"`
	OverProb  float64 `json:"over_prob"`
	UnderProb float64 `json:"under_prob"`
}

// PredictionResult is the full predictive output for one player and upcoming game.
type PredictionResult struct {
	ID            uuid.UUID            `db:"id" json:"id"`
	ArtifactID    uuid.UUID            `db:"artifact_id" json:"artifact_id"`
	PlayerID      string               `db:"player_id" json:"player_id" validate:"required"`
	GameDate      time.Time            `db:"game_date" json:"game_date" validate:"required"`
	PointEstimate float64              `db:"point_estimate" json:"point_estimate" validate:"gte=0"`
	ResidualStd   float64              `db:"residual_std" json:"residual_std" validate:"gte=0"`
	Intervals     []ConfidenceInterval `db:"-" json:"intervals"`
	Lines         []LineProbability    `db:"-" json:"lines"`
	PredictedAt   time.Time            `db:"predicted_at" json:"predicted_at"`
}

// ProbabilityOver returns P(rebounds > line) if the line was requested.
func (p *PredictionResult) ProbabilityOver(line float64) (float64, bool) {
	for _, lp := range p.Lines {
		if lp.Line == line {
			return lp.OverProb, true
		}
	}
	return 0, false
}
