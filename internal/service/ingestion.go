package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/datasource"
	"github.com/yourusername/rebound-edge/internal/metrics"
	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/internal/registry"
	"github.com/yourusername/rebound-edge/internal/repository"
)

// IngestionService handles the game-log and roster ingestion workflow
type IngestionService struct {
	sources      []datasource.GameLogSource
	observations repository.ObservationRepository
	assignments  repository.AssignmentRepository
	registry     *registry.Registry
	validator    *DataValidator
	normalizer   *DataNormalizer
	metrics      *IngestionMetrics
	logger       *logrus.Logger
	batchSize    int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	sources []datasource.GameLogSource,
	observations repository.ObservationRepository,
	assignments repository.AssignmentRepository,
	reg *registry.Registry,
	validator *DataValidator,
	normalizer *DataNormalizer,
	logger *logrus.Logger,
	batchSize int,
) *IngestionService {
	if batchSize <= 0 {
		batchSize = 100
	}

	return &IngestionService{
		sources:      sources,
		observations: observations,
		assignments:  assignments,
		registry:     reg,
		validator:    validator,
		normalizer:   normalizer,
		metrics:      NewIngestionMetrics(),
		logger:       logger,
		batchSize:    batchSize,
	}
}

// IngestGameLogs fetches game-log rows from a named source for the date range,
// validates and normalizes them, and batch-inserts new observations.
func (s *IngestionService) IngestGameLogs(ctx context.Context, sourceName string, startDate, endDate time.Time) (*IngestionMetrics, error) {
	s.metrics.Reset()
	startTime := time.Now()

	s.logger.WithFields(logrus.Fields{
		"source": sourceName,
		"start":  startDate.Format("2006-01-02"),
		"end":    endDate.Format("2006-01-02"),
	}).Info("Starting game-log ingestion")

	source, err := s.findSource(sourceName)
	if err != nil {
		return nil, err
	}

	rows, err := source.FetchGameLogs(ctx, startDate, endDate)
	if err != nil {
		s.metrics.RecordError()
		return s.metrics, fmt.Errorf("failed to fetch game logs from %s: %w", sourceName, err)
	}

	s.logger.WithField("rows", len(rows)).Info("Fetched game-log rows")
	s.metrics.TotalRows = len(rows)

	observations := s.prepareObservations(rows)

	for i := 0; i < len(observations); i += s.batchSize {
		end := i + s.batchSize
		if end > len(observations) {
			end = len(observations)
		}

		if err := s.persistBatch(ctx, observations[i:end]); err != nil {
			s.metrics.RecordError()
			s.logger.WithError(err).Error("Failed to persist observation batch")
			// Continue processing other batches
		}
	}

	s.metrics.Duration = time.Since(startTime)
	s.logger.WithField("metrics", s.metrics.String()).Info("Game-log ingestion complete")

	return s.metrics, nil
}

// SyncRoster fetches roster events since the given date and applies them to
// the registry and the assignment store. Conflicting events are rejected and
// counted as errors; the remaining events still apply.
func (s *IngestionService) SyncRoster(ctx context.Context, sourceName string, since time.Time) (*IngestionMetrics, error) {
	s.metrics.Reset()
	startTime := time.Now()

	source, err := s.findSource(sourceName)
	if err != nil {
		return nil, err
	}

	events, err := source.FetchRosterTransactions(ctx, since)
	if err != nil {
		s.metrics.RecordError()
		return s.metrics, fmt.Errorf("failed to fetch roster events from %s: %w", sourceName, err)
	}

	s.logger.WithField("events", len(events)).Info("Fetched roster events")

	// Apply in effective-date order so multi-hop moves land correctly.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EffectiveDate < events[j].EffectiveDate
	})

	for i := range events {
		if err := s.applyRosterEvent(ctx, &events[i]); err != nil {
			s.logger.WithError(err).WithField("player_id", events[i].PlayerID).Warn("Roster event rejected")
			continue
		}
		s.metrics.RecordRosterEvent()
	}

	s.metrics.Duration = time.Since(startTime)
	return s.metrics, nil
}

// GetMetrics returns current ingestion metrics
func (s *IngestionService) GetMetrics() *IngestionMetrics {
	return s.metrics
}

func (s *IngestionService) findSource(name string) (datasource.GameLogSource, error) {
	for _, src := range s.sources {
		if src.Name() == name {
			return src, nil
		}
	}
	return nil, fmt.Errorf("data source not found: %s", name)
}

// prepareObservations validates and normalizes raw rows, then derives the
// back-to-back flag from each player's schedule within the fetched window.
func (s *IngestionService) prepareObservations(rows []datasource.GameLogRow) []*models.GameObservation {
	observations := make([]*models.GameObservation, 0, len(rows))
	gameDates := make(map[string]map[time.Time]bool)

	for i := range rows {
		row := &rows[i]

		if validationErrors := s.validator.ValidateGameLogRow(row); len(validationErrors) > 0 {
			s.metrics.RecordValidationError()
			s.logger.WithFields(logrus.Fields{
				"player_id": row.PlayerID,
				"game_date": row.GameDate,
				"errors":    validationErrors,
			}).Warn("Game-log row failed validation")
			continue
		}

		obs, err := s.normalizer.NormalizeObservation(row)
		if err != nil {
			s.metrics.RecordValidationError()
			s.logger.WithError(err).Warn("Failed to normalize game-log row")
			continue
		}

		if gameDates[obs.PlayerID] == nil {
			gameDates[obs.PlayerID] = make(map[time.Time]bool)
		}
		gameDates[obs.PlayerID][obs.GameDate] = true
		observations = append(observations, obs)
	}

	for _, obs := range observations {
		obs.BackToBack = gameDates[obs.PlayerID][obs.GameDate.AddDate(0, 0, -1)]
	}

	sort.Slice(observations, func(i, j int) bool {
		if observations[i].PlayerID != observations[j].PlayerID {
			return observations[i].PlayerID < observations[j].PlayerID
		}
		return observations[i].GameDate.Before(observations[j].GameDate)
	})

	return observations
}

// persistBatch skips rows already stored and batch-inserts the remainder.
func (s *IngestionService) persistBatch(ctx context.Context, batch []*models.GameObservation) error {
	fresh := make([]*models.GameObservation, 0, len(batch))
	for _, obs := range batch {
		exists, err := s.observations.Exists(ctx, obs.PlayerID, obs.GameDate)
		if err != nil {
			return fmt.Errorf("failed to check for existing observation: %w", err)
		}
		if exists {
			s.metrics.RecordDuplicate()
			continue
		}
		fresh = append(fresh, obs)
	}

	if len(fresh) == 0 {
		return nil
	}

	if err := s.observations.InsertBatch(ctx, fresh); err != nil {
		return fmt.Errorf("failed to insert observations: %w", err)
	}

	for range fresh {
		s.metrics.RecordRow()
	}
	metrics.RecordObservationsIngested(len(fresh))

	return nil
}

// applyRosterEvent validates the event, applies it to the in-memory registry,
// and mirrors the interval change into the assignment store.
func (s *IngestionService) applyRosterEvent(ctx context.Context, ev *datasource.RosterEvent) error {
	if validationErrors := s.validator.ValidateRosterEvent(ev); len(validationErrors) > 0 {
		s.metrics.RecordValidationError()
		return fmt.Errorf("roster event failed validation: %v", validationErrors)
	}

	tx, err := s.normalizer.NormalizeRosterEvent(ev)
	if err != nil {
		s.metrics.RecordValidationError()
		return fmt.Errorf("failed to normalize roster event: %w", err)
	}

	// Capture the open interval before the registry closes it, so the same
	// close can be mirrored to storage.
	var openBefore *models.PlayerTeamAssignment
	for _, interval := range s.registry.Assignments(tx.PlayerID) {
		if interval.IsOpen() {
			openBefore = interval
			break
		}
	}

	created, err := s.registry.ApplyTransaction(tx)
	if err != nil {
		s.metrics.RecordError()
		return fmt.Errorf("failed to apply roster transaction: %w", err)
	}

	if openBefore != nil {
		end := created.EffectiveStart.AddDate(0, 0, -1)
		if err := s.assignments.CloseInterval(ctx, openBefore.ID, end); err != nil {
			s.metrics.RecordError()
			return fmt.Errorf("failed to close assignment interval: %w", err)
		}
	}

	if err := s.assignments.Insert(ctx, created); err != nil {
		s.metrics.RecordError()
		return fmt.Errorf("failed to persist assignment: %w", err)
	}

	return nil
}
