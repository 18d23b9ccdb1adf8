// Package batch drives the per-player valuation pipeline across a roster.
//
// Each player runs feature build, prediction, and edge evaluation
// independently on a bounded worker pool. A failure for one player is
// captured as a PerPlayerFailure and never aborts the run. The registry
// snapshot and model artifact are read-only for the whole batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/edge"
	"github.com/yourusername/rebound-edge/internal/features"
	"github.com/yourusername/rebound-edge/internal/metrics"
	"github.com/yourusername/rebound-edge/internal/model"
	"github.com/yourusername/rebound-edge/internal/models"
)

// TeamResolver resolves a player to a team at a point in time.
// Satisfied by the registry snapshot.
type TeamResolver interface {
	ResolveTeam(playerID string, asOf time.Time) string
}

// Sink receives completed edge records as they are produced. Records are
// flushed even when the batch is later marked incomplete.
type Sink interface {
	SaveEdgeRecord(ctx context.Context, record *models.EdgeRecord) error
}

// PredictionSink is optionally implemented by sinks that also persist the
// underlying prediction, which the performance report later joins against
// realized observations.
type PredictionSink interface {
	SavePrediction(ctx context.Context, pred *models.PredictionResult) error
}

// UpcomingGame describes a team's next scheduled game.
type UpcomingGame struct {
	TeamID         string
	OpponentTeamID string
	GameDate       time.Time
	Home           bool
}

// Request carries everything one batch run needs. The artifact and the
// observation history are values owned by the caller and never mutated here.
type Request struct {
	Roster   []string
	AsOfDate time.Time
	Artifact *models.ModelArtifact
	Quotes   []*models.MarketQuote
	Schedule []*UpcomingGame
	History  []*models.GameObservation
	Injured  map[string]bool
}

// InjuredFromHistory flags every player whose most recent observation carried
// an injury designation. Callers without a live injury report derive the
// Request's Injured map from the same history they pass for features.
func InjuredFromHistory(history []*models.GameObservation) map[string]bool {
	latest := make(map[string]*models.GameObservation, len(history))
	for _, obs := range history {
		if cur, ok := latest[obs.PlayerID]; !ok || obs.GameDate.After(cur.GameDate) {
			latest[obs.PlayerID] = obs
		}
	}

	injured := make(map[string]bool)
	for playerID, obs := range latest {
		if obs.InjuryFlag {
			injured[playerID] = true
		}
	}
	return injured
}

// Config bounds the worker pool. PredictionCache is optional; when set,
// players are priced from cached predictions for the same artifact and game
// date instead of rebuilding features.
type Config struct {
	MaxConcurrency  int
	PredictionCache *model.PredictionCache
}

// DefaultConfig returns recommended defaults.
func DefaultConfig() Config {
	return Config{MaxConcurrency: 8}
}

// Orchestrator sequences the valuation pipeline across many players.
type Orchestrator struct {
	cfg       Config
	builder   *features.Builder
	predictor *model.Predictor
	detector  *edge.Detector
	sink      Sink
	logger    *logrus.Logger
}

// NewOrchestrator creates a batch orchestrator. sink may be nil; records are
// then only returned in the BatchResult.
func NewOrchestrator(
	cfg Config,
	builder *features.Builder,
	predictor *model.Predictor,
	detector *edge.Detector,
	sink Sink,
	logger *logrus.Logger,
) *Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Orchestrator{
		cfg:       cfg,
		builder:   builder,
		predictor: predictor,
		detector:  detector,
		sink:      sink,
		logger:    logger,
	}
}

type playerOutcome struct {
	record     *models.EdgeRecord
	prediction *models.PredictionResult
	failure    *models.PerPlayerFailure
}

// Run executes one valuation batch. Cooperative cancellation stops dispatching
// new players, flushes everything already completed, and marks the result
// incomplete. Output is sorted by player id then game date.
func (o *Orchestrator) Run(ctx context.Context, req Request, resolver TeamResolver) (*models.BatchResult, error) {
	if req.Artifact == nil {
		return nil, fmt.Errorf("batch run requires a model artifact")
	}
	start := time.Now()

	result := &models.BatchResult{
		RunID:    uuid.New(),
		AsOfDate: req.AsOfDate,
		Status:   models.BatchComplete,
	}

	quotesByPlayer := make(map[string]*models.MarketQuote, len(req.Quotes))
	for _, q := range req.Quotes {
		quotesByPlayer[q.PlayerID] = q
	}
	gamesByTeam := make(map[string]*UpcomingGame, len(req.Schedule))
	for _, g := range req.Schedule {
		gamesByTeam[g.TeamID] = g
	}
	historyByPlayer := make(map[string][]*models.GameObservation)
	for _, obs := range req.History {
		historyByPlayer[obs.PlayerID] = append(historyByPlayer[obs.PlayerID], obs)
	}

	o.logger.WithFields(logrus.Fields{
		"run_id":     result.RunID,
		"as_of_date": req.AsOfDate.Format("2006-01-02"),
		"players":    len(req.Roster),
		"quotes":     len(req.Quotes),
		"workers":    o.cfg.MaxConcurrency,
	}).Info("Batch run started")

	jobs := make(chan string)
	outcomes := make(chan playerOutcome, len(req.Roster))

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for playerID := range jobs {
				outcomes <- o.processPlayer(ctx, playerID, req, resolver, quotesByPlayer, gamesByTeam, historyByPlayer)
			}
		}()
	}

	cancelled := false
dispatch:
	for _, playerID := range req.Roster {
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		case jobs <- playerID:
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	predictionSink, _ := o.sink.(PredictionSink)

	for out := range outcomes {
		if out.record != nil {
			result.Records = append(result.Records, out.record)
			if o.sink != nil {
				if err := o.sink.SaveEdgeRecord(context.WithoutCancel(ctx), out.record); err != nil {
					o.logger.WithError(err).WithField("player_id", out.record.PlayerID).Error("Failed to flush edge record")
				}
			}
		}
		if out.prediction != nil && predictionSink != nil {
			if err := predictionSink.SavePrediction(context.WithoutCancel(ctx), out.prediction); err != nil {
				o.logger.WithError(err).WithField("player_id", out.prediction.PlayerID).Error("Failed to flush prediction")
			}
		}
		if out.failure != nil {
			result.Failures = append(result.Failures, *out.failure)
			metrics.RecordPlayerFailure()
		}
	}

	if cancelled || ctx.Err() != nil {
		result.Status = models.BatchIncomplete
	}

	sort.Slice(result.Records, func(i, j int) bool {
		if result.Records[i].PlayerID != result.Records[j].PlayerID {
			return result.Records[i].PlayerID < result.Records[j].PlayerID
		}
		return result.Records[i].GameDate.Before(result.Records[j].GameDate)
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].PlayerID < result.Failures[j].PlayerID
	})

	metrics.RecordBatchRun(string(result.Status), len(req.Roster), time.Since(start).Seconds())

	o.logger.WithFields(logrus.Fields{
		"run_id":   result.RunID,
		"status":   result.Status,
		"records":  len(result.Records),
		"failures": len(result.Failures),
		"duration": time.Since(start),
	}).Info("Batch run finished")

	return result, nil
}

func (o *Orchestrator) processPlayer(
	ctx context.Context,
	playerID string,
	req Request,
	resolver TeamResolver,
	quotesByPlayer map[string]*models.MarketQuote,
	gamesByTeam map[string]*UpcomingGame,
	historyByPlayer map[string][]*models.GameObservation,
) playerOutcome {
	if err := ctx.Err(); err != nil {
		return failure(playerID, "cancelled before processing")
	}

	quote, ok := quotesByPlayer[playerID]
	if !ok {
		o.logger.WithField("player_id", playerID).Debug("No market quote, skipping player")
		return failure(playerID, models.ErrMarketDataMissing.Error())
	}

	teamID := resolver.ResolveTeam(playerID, req.AsOfDate)
	game, ok := gamesByTeam[teamID]
	if !ok {
		return failure(playerID, fmt.Sprintf("no scheduled game for team %s", teamID))
	}

	cacheKey := model.CacheKey{PlayerID: playerID, GameDate: game.GameDate, ArtifactID: req.Artifact.ID}
	var pred, fresh *models.PredictionResult
	if o.cfg.PredictionCache != nil {
		if cached := o.cfg.PredictionCache.Get(cacheKey); cached != nil {
			if _, ok := cached.ProbabilityOver(quote.Line); ok {
				pred = cached
			}
		}
	}

	if pred == nil {
		homeAway := models.AwayGame
		if game.Home {
			homeAway = models.HomeGame
		}
		gameCtx := features.GameContext{
			PlayerID:       playerID,
			GameDate:       game.GameDate,
			OpponentTeamID: game.OpponentTeamID,
			HomeAway:       homeAway,
			InjuryFlag:     req.Injured[playerID],
		}
		window := features.ObservationWindow{
			Player: historyByPlayer[playerID],
			League: req.History,
		}
		vec := o.builder.Build(window, gameCtx, req.AsOfDate, resolver)

		predictStart := time.Now()
		result, err := o.predictor.Predict(vec, req.Artifact, []float64{quote.Line})
		if err != nil {
			var incomplete *models.IncompleteFeatureError
			if errors.As(err, &incomplete) {
				return failure(playerID, incomplete.Error())
			}
			return failure(playerID, fmt.Sprintf("prediction failed: %v", err))
		}
		metrics.RecordPrediction(time.Since(predictStart).Seconds())

		pred, fresh = result, result
		if o.cfg.PredictionCache != nil {
			o.cfg.PredictionCache.Set(cacheKey, result)
		}
	}

	record, err := o.detector.Evaluate(pred, quote)
	if err != nil {
		return failure(playerID, fmt.Sprintf("edge evaluation failed: %v", err))
	}
	if record.Recommendation == models.RecommendBet {
		metrics.RecordEdgeFlagged()
	}
	// Cache hits return a nil prediction so the sink never persists the same
	// prediction row twice.
	return playerOutcome{record: record, prediction: fresh}
}

func failure(playerID, reason string) playerOutcome {
	return playerOutcome{failure: &models.PerPlayerFailure{PlayerID: playerID, Reason: reason}}
}
