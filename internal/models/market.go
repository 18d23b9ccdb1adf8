package models

import (
	"time"
)

// OddsFormat identifies how a quoted price is expressed.
type OddsFormat string

const (
	OddsAmerican OddsFormat = "american"
	OddsDecimal  OddsFormat = "decimal"
)

// Odds is a quoted price in a declared format.
type Odds struct {
	Format OddsFormat `json:"format" validate:"required,oneof=american decimal"`
	Value  float64    `json:"value" validate:"required"`
}

// MarketQuote is a sportsbook line and two-way prices for one player prop.
type MarketQuote struct {
	PlayerID  string    `db:"player_id" json:"player_id" validate:"required"`
	GameDate  time.Time `db:"game_date" json:"game_date" validate:"required"`
	Line      float64   `db:"line" json:"line" validate:"gt=0"`
	OverOdds  Odds      `db:"-" json:"over_odds" validate:"required"`
	UnderOdds Odds      `db:"-" json:"under_odds" validate:"required"`
	Book      string    `db:"book" json:"book"`
	QuotedAt  time.Time `db:"quoted_at" json:"quoted_at"`
}
