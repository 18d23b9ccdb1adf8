package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ModelArtifact is an immutable trained model plus its calibration data.
// A new training run produces a new artifact; existing artifacts are never
// mutated, so concurrent readers need no synchronization.
type ModelArtifact struct {
	ID                uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	Version           string    `db:"version" json:"version" validate:"required"`
	SchemaVersion     string    `db:"schema_version" json:"schema_version" validate:"required"`
	FeatureOrder      []string  `db:"-" json:"feature_order" validate:"required,min=1"`
	Coefficients      []float64 `db:"-" json:"coefficients" validate:"required,min=1"`
	Intercept         float64   `db:"-" json:"intercept"`
	Lambda            float64   `db:"-" json:"lambda" validate:"gte=0"`
	ResidualQuantiles []float64 `db:"-" json:"residual_quantiles" validate:"required,min=1"`
	ResidualStd       float64   `db:"-" json:"residual_std" validate:"gte=0"`
	PopulationMeans   map[string]float64 `db:"-" json:"population_means"`
	TrainingRows      int       `db:"training_rows" json:"training_rows" validate:"gt=0"`
	CrossValMAE       float64   `db:"cross_val_mae" json:"cross_val_mae" validate:"gte=0"`
	TrainedAt         time.Time `db:"trained_at" json:"trained_at" validate:"required"`
	Active            bool      `db:"active" json:"active"`
}

// Marshal serializes the artifact payload for persistence.
func (a *ModelArtifact) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// UnmarshalArtifact deserializes a persisted artifact payload.
func UnmarshalArtifact(data []byte) (*ModelArtifact, error) {
	artifact := &ModelArtifact{}
	if err := json.Unmarshal(data, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// CompatibleWith reports whether the artifact was trained against the given
// feature schema version.
func (a *ModelArtifact) CompatibleWith(schemaVersion string) bool {
	return a.SchemaVersion == schemaVersion
}
