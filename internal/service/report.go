package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/models"
	"github.com/yourusername/rebound-edge/internal/repository"
)

// PerformanceRow pairs one prediction with the realized outcome.
type PerformanceRow struct {
	PlayerID          string    `json:"player_id"`
	GameDate          time.Time `json:"game_date"`
	ActualRebounds    int       `json:"actual_rebounds"`
	PredictedRebounds float64   `json:"predicted_rebounds"`
	ResidualStd       float64   `json:"residual_std"`
	Error             float64   `json:"error"`
}

// PerformanceReport summarizes prediction accuracy over a date range.
type PerformanceReport struct {
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Rows      []PerformanceRow `json:"rows"`
	MAE       float64          `json:"mae"`
	Bias      float64          `json:"bias"`
	Matched   int              `json:"matched"`
	Unmatched int              `json:"unmatched"`
}

// ValuationRow is one line of the prop-valuation table.
type ValuationRow struct {
	PlayerID           string                      `json:"player_id"`
	GameDate           time.Time                   `json:"game_date"`
	Line               float64                     `json:"line"`
	Side               models.BetSide              `json:"side"`
	PointEstimate      float64                     `json:"point_estimate"`
	Intervals          []models.ConfidenceInterval `json:"intervals"`
	ModelProbability   float64                     `json:"model_probability"`
	ImpliedProbability float64                     `json:"implied_probability"`
	ExpectedValue      float64                     `json:"expected_value"`
	Recommendation     models.Recommendation       `json:"recommendation"`
}

// ReportService builds the performance-tracking and prop-valuation tables.
type ReportService struct {
	observations repository.ObservationRepository
	predictions  repository.PredictionRepository
	edgeRecords  repository.EdgeRecordRepository
	logger       *logrus.Logger
}

// NewReportService creates a new report service
func NewReportService(
	observations repository.ObservationRepository,
	predictions repository.PredictionRepository,
	edgeRecords repository.EdgeRecordRepository,
	logger *logrus.Logger,
) *ReportService {
	return &ReportService{
		observations: observations,
		predictions:  predictions,
		edgeRecords:  edgeRecords,
		logger:       logger,
	}
}

// BuildPerformanceReport joins stored predictions against realized game
// observations for every game date in [startDate, endDate].
func (s *ReportService) BuildPerformanceReport(ctx context.Context, startDate, endDate time.Time) (*PerformanceReport, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date %s precedes start date %s",
			endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}

	actuals, err := s.observations.GetLeague(ctx, endDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}

	type key struct {
		playerID string
		date     time.Time
	}
	rebounds := make(map[key]int, len(actuals))
	for _, obs := range actuals {
		rebounds[key{obs.PlayerID, obs.GameDate}] = obs.Rebounds
	}

	report := &PerformanceReport{StartDate: startDate, EndDate: endDate}
	sumAbs, sumSigned := 0.0, 0.0

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		preds, err := s.predictions.GetByGameDate(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("failed to load predictions for %s: %w", d.Format("2006-01-02"), err)
		}

		for _, p := range preds {
			actual, ok := rebounds[key{p.PlayerID, p.GameDate}]
			if !ok {
				report.Unmatched++
				continue
			}

			residual := float64(actual) - p.PointEstimate
			report.Rows = append(report.Rows, PerformanceRow{
				PlayerID:          p.PlayerID,
				GameDate:          p.GameDate,
				ActualRebounds:    actual,
				PredictedRebounds: p.PointEstimate,
				ResidualStd:       p.ResidualStd,
				Error:             residual,
			})
			sumAbs += math.Abs(residual)
			sumSigned += residual
			report.Matched++
		}
	}

	if report.Matched > 0 {
		report.MAE = sumAbs / float64(report.Matched)
		report.Bias = sumSigned / float64(report.Matched)
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].PlayerID != report.Rows[j].PlayerID {
			return report.Rows[i].PlayerID < report.Rows[j].PlayerID
		}
		return report.Rows[i].GameDate.Before(report.Rows[j].GameDate)
	})

	s.logger.WithFields(logrus.Fields{
		"matched":   report.Matched,
		"unmatched": report.Unmatched,
		"mae":       report.MAE,
		"bias":      report.Bias,
	}).Info("Performance report built")

	return report, nil
}

// BuildValuationReport joins edge records against their predictions for one
// game date, ordered by player then line.
func (s *ReportService) BuildValuationReport(ctx context.Context, gameDate time.Time) ([]ValuationRow, error) {
	records, err := s.edgeRecords.GetByGameDate(ctx, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load edge records: %w", err)
	}

	preds, err := s.predictions.GetByGameDate(ctx, gameDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}

	predByPlayer := make(map[string]*models.PredictionResult, len(preds))
	for _, p := range preds {
		predByPlayer[p.PlayerID] = p
	}

	rows := make([]ValuationRow, 0, len(records))
	for _, rec := range records {
		row := ValuationRow{
			PlayerID:           rec.PlayerID,
			GameDate:           rec.GameDate,
			Line:               rec.Line,
			Side:               rec.Side,
			ModelProbability:   rec.ModelProbability,
			ImpliedProbability: rec.ImpliedProbability,
			ExpectedValue:      rec.ExpectedValue,
			Recommendation:     rec.Recommendation,
		}
		if p, ok := predByPlayer[rec.PlayerID]; ok {
			row.PointEstimate = p.PointEstimate
			row.Intervals = p.Intervals
		} else {
			s.logger.WithField("player_id", rec.PlayerID).Warn("Edge record has no stored prediction")
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PlayerID != rows[j].PlayerID {
			return rows[i].PlayerID < rows[j].PlayerID
		}
		return rows[i].Line < rows[j].Line
	})

	return rows, nil
}
