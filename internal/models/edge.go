package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is the edge detector's verdict on a quote.
type Recommendation string

const (
	RecommendBet  Recommendation = "bet"
	RecommendPass Recommendation = "pass"
)

// BetSide identifies which side of the line was evaluated.
type BetSide string

const (
	SideOver  BetSide = "over"
	SideUnder BetSide = "under"
)

// EdgeRecord is the signed expected-value verdict for one player, game, and line.
// Derived output, independently valid, never authoritative state.
type EdgeRecord struct {
	ID                 uuid.UUID      `db:"id" json:"id"`
	ArtifactID         uuid.UUID      `db:"artifact_id" json:"artifact_id"`
	PlayerID           string         `db:"player_id" json:"player_id" validate:"required"`
	GameDate           time.Time      `db:"game_date" json:"game_date" validate:"required"`
	Line               float64        `db:"line" json:"line"`
	Side               BetSide        `db:"side" json:"side" validate:"required,oneof=over under"`
	ModelProbability   float64        `db:"model_probability" json:"model_probability" validate:"gte=0,lte=1"`
	ImpliedProbability float64        `db:"implied_probability" json:"implied_probability" validate:"gte=0,lte=1"`
	ExpectedValue      float64        `db:"expected_value" json:"expected_value"`
	Recommendation     Recommendation `db:"recommendation" json:"recommendation" validate:"required,oneof=bet pass"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// PerPlayerFailure captures a recoverable per-player error inside a batch run.
type PerPlayerFailure struct {
	PlayerID string `json:"player_id"`
	Reason   string `json:"reason"`
}

// BatchStatus describes how a batch run finished.
type BatchStatus string

const (
	BatchComplete   BatchStatus = "complete"
	BatchIncomplete BatchStatus = "incomplete"
)

// BatchResult is the ordered output of one orchestrated valuation run.
type BatchResult struct {
	RunID    uuid.UUID          `json:"run_id"`
	AsOfDate time.Time          `json:"as_of_date"`
	Status   BatchStatus        `json:"status"`
	Records  []*EdgeRecord      `json:"records"`
	Failures []PerPlayerFailure `json:"failures"`
}
