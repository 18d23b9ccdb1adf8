// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/models"
)

// AuditLogger provides a dedicated audit trail for emitted valuations.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogEdgeRecord logs one emitted edge record.
func (al *AuditLogger) LogEdgeRecord(rec *models.EdgeRecord) {
	al.WithFields(logrus.Fields{
		"player_id":           rec.PlayerID,
		"game_date":           rec.GameDate.Format("2006-01-02"),
		"line":                rec.Line,
		"side":                rec.Side,
		"model_probability":   rec.ModelProbability,
		"implied_probability": rec.ImpliedProbability,
		"expected_value":      rec.ExpectedValue,
		"recommendation":      rec.Recommendation,
		"artifact_id":         rec.ArtifactID.String(),
	}).Info("Edge record emitted")
}

// LogRosterTransaction logs an applied roster transaction.
func (al *AuditLogger) LogRosterTransaction(playerID, oldTeamID, newTeamID string, effectiveDate time.Time) {
	al.WithFields(logrus.Fields{
		"player_id":      playerID,
		"old_team_id":    oldTeamID,
		"new_team_id":    newTeamID,
		"effective_date": effectiveDate.Format("2006-01-02"),
	}).Info("Roster transaction applied")
}

// LogArtifactActivation logs a model artifact switchover.
func (al *AuditLogger) LogArtifactActivation(artifactID, version string, trainedAt time.Time, crossValMAE float64) {
	al.WithFields(logrus.Fields{
		"artifact_id":   artifactID,
		"version":       version,
		"trained_at":    trainedAt.Unix(),
		"cross_val_mae": crossValMAE,
	}).Info("Model artifact activated")
}

// LogBatchRun logs batch run completion.
func (al *AuditLogger) LogBatchRun(runID string, status models.BatchStatus, records, failures int, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"run_id":   runID,
		"status":   status,
		"records":  records,
		"failures": failures,
		"duration": duration.String(),
	}).Info("Batch run finished")
}
