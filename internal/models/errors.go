package models

import (
	"errors"
	"fmt"
	"time"
)

// Custom errors
var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateKey          = errors.New("duplicate key violation")
	ErrMarketDataMissing     = errors.New("no market quote for player")
	ErrSchemaMismatch        = errors.New("feature schema does not match artifact")
	ErrOutOfBoundsPrediction = errors.New("point estimate outside plausible range")
)

// ConflictError rejects a roster transaction that would overlap an existing
// assignment interval.
type ConflictError struct {
	PlayerID      string
	EffectiveDate time.Time
	IntervalStart time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("assignment conflict for player %s: effective date %s precedes open interval start %s",
		e.PlayerID, e.EffectiveDate.Format("2006-01-02"), e.IntervalStart.Format("2006-01-02"))
}

// InsufficientDataError fails a training run when a feature family has too
// little coverage.
type InsufficientDataError struct {
	Family   string
	Rows     int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data for %s: %d rows, need %d", e.Family, e.Rows, e.Required)
}

// IncompleteFeatureError fails a prediction when mandatory features are absent.
// Recoverable at the orchestrator level as a PerPlayerFailure.
type IncompleteFeatureError struct {
	PlayerID string
	Missing  []string
}

func (e *IncompleteFeatureError) Error() string {
	return fmt.Sprintf("incomplete feature vector for player %s: missing %v", e.PlayerID, e.Missing)
}
