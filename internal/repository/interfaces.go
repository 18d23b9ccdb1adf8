package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/rebound-edge/internal/models"
)

// ObservationRepository defines the interface for game observation data access
type ObservationRepository interface {
	Insert(ctx context.Context, obs *models.GameObservation) error
	InsertBatch(ctx context.Context, obs []*models.GameObservation) error
	GetByPlayer(ctx context.Context, playerID string, before time.Time) ([]*models.GameObservation, error)
	GetLeague(ctx context.Context, before time.Time) ([]*models.GameObservation, error)
	Exists(ctx context.Context, playerID string, gameDate time.Time) (bool, error)
}

// AssignmentRepository defines the interface for player-team assignment data access
type AssignmentRepository interface {
	Insert(ctx context.Context, assignment *models.PlayerTeamAssignment) error
	CloseInterval(ctx context.Context, id uuid.UUID, end time.Time) error
	GetByPlayer(ctx context.Context, playerID string) ([]*models.PlayerTeamAssignment, error)
	GetAll(ctx context.Context) ([]*models.PlayerTeamAssignment, error)
}

// QuoteRepository defines the interface for market quote data access
type QuoteRepository interface {
	Insert(ctx context.Context, quote *models.MarketQuote) error
	GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.MarketQuote, error)
	GetByPlayer(ctx context.Context, playerID string, gameDate time.Time) (*models.MarketQuote, error)
}

// PredictionRepository defines the interface for prediction data access
type PredictionRepository interface {
	Insert(ctx context.Context, prediction *models.PredictionResult) error
	GetByPlayer(ctx context.Context, playerID string, gameDate time.Time) (*models.PredictionResult, error)
	GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.PredictionResult, error)
}

// EdgeRecordRepository defines the interface for edge record data access
type EdgeRecordRepository interface {
	Insert(ctx context.Context, record *models.EdgeRecord) error
	GetByGameDate(ctx context.Context, gameDate time.Time) ([]*models.EdgeRecord, error)
	GetRecommended(ctx context.Context, gameDate time.Time) ([]*models.EdgeRecord, error)
}

// ArtifactRepository defines the interface for model artifact data access
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *models.ModelArtifact) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ModelArtifact, error)
	GetByVersion(ctx context.Context, version string) (*models.ModelArtifact, error)
	GetActive(ctx context.Context) (*models.ModelArtifact, error)
	SetActive(ctx context.Context, id uuid.UUID) error
}

// Repositories bundles every repository for dependency injection
type Repositories struct {
	Observations ObservationRepository
	Assignments  AssignmentRepository
	Quotes       QuoteRepository
	Predictions  PredictionRepository
	EdgeRecords  EdgeRecordRepository
	Artifacts    ArtifactRepository
}
