package repository

import (
	"fmt"

	"github.com/yourusername/rebound-edge/internal/database"
)

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Observations: NewPostgresObservationRepository(db),
		Assignments:  NewPostgresAssignmentRepository(db),
		Quotes:       NewPostgresQuoteRepository(db),
		Predictions:  NewPostgresPredictionRepository(db),
		EdgeRecords:  NewPostgresEdgeRecordRepository(db),
		Artifacts:    NewPostgresArtifactRepository(db),
	}, nil
}
