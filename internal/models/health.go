package models

import "time"

// HealthSnapshot is the derived urgency classification of an asset. It is
// a projection over maintenance history, never authoritative: the batch
// recompute or the event consumer may replace it at any time.
type HealthSnapshot struct {
	AssetID              int64        `json:"asset_id"`
	Bucket               HealthBucket `json:"bucket"`
	PredictedDaysToFail  *float64     `json:"predicted_days_to_failure"`
	MeanFailureInterval  *float64     `json:"mean_failure_interval_days"`
	CompletedCorrectives int          `json:"completed_correctives"`
	ComputedAt           time.Time    `json:"computed_at"`
}
