// Package health derives the urgency classification of an asset from its
// completed maintenance history. Classification degrades to INDETERMINATE
// instead of failing: a dashboard must render even for assets with no
// history at all.
package health

import (
	"sort"
	"time"

	"asset-service/internal/models"
)

// Bucket thresholds in predicted days to next failure.
const (
	criticalDays = 7
	alertDays    = 30
)

// Config tunes the classifier.
type Config struct {
	// MinCompletedCorrectives is the minimum number of completed
	// CORRECTIVE maintenances required before predicting.
	MinCompletedCorrectives int
}

// DefaultConfig returns the classifier defaults.
func DefaultConfig() Config {
	return Config{MinCompletedCorrectives: 1}
}

// Classify computes the health snapshot of an asset from its completed
// maintenance history, ordered by completion timestamp ascending.
//
// While the asset has an open (non-terminal) maintenance request the prior
// snapshot is returned unchanged, so the bucket does not flap mid-repair.
func Classify(asset *models.Asset, history []models.MaintenanceRequest, prior *models.HealthSnapshot, openRequest bool, asOf time.Time, cfg Config) models.HealthSnapshot {
	if openRequest && prior != nil {
		return *prior
	}
	if cfg.MinCompletedCorrectives < 1 {
		cfg.MinCompletedCorrectives = 1
	}

	completions := correctiveCompletions(history)
	if len(completions) < cfg.MinCompletedCorrectives {
		return indeterminate(asset.ID, len(completions), asOf)
	}

	mean := meanIntervalDays(asset, completions)
	if mean <= 0 {
		// Completions clustered on a single instant carry no signal.
		return indeterminate(asset.ID, len(completions), asOf)
	}

	sinceLast := asOf.Sub(completions[len(completions)-1]).Hours() / 24
	predicted := mean - sinceLast
	if predicted < 0 {
		predicted = 0
	}

	return models.HealthSnapshot{
		AssetID:              asset.ID,
		Bucket:               bucketFor(predicted),
		PredictedDaysToFail:  &predicted,
		MeanFailureInterval:  &mean,
		CompletedCorrectives: len(completions),
		ComputedAt:           asOf,
	}
}

func correctiveCompletions(history []models.MaintenanceRequest) []time.Time {
	var out []time.Time
	for _, req := range history {
		if req.Type == models.MaintenanceCorrective &&
			req.Status == models.MaintenanceCompleted &&
			req.CompletedAt != nil {
			out = append(out, *req.CompletedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// meanIntervalDays averages the gaps between consecutive corrective
// completions. With a single completion the gap from acquisition to that
// completion is the only observation available.
func meanIntervalDays(asset *models.Asset, completions []time.Time) float64 {
	if len(completions) == 1 {
		return completions[0].Sub(asset.AcquisitionDate).Hours() / 24
	}
	var total float64
	for i := 1; i < len(completions); i++ {
		total += completions[i].Sub(completions[i-1]).Hours() / 24
	}
	return total / float64(len(completions)-1)
}

func bucketFor(predictedDays float64) models.HealthBucket {
	switch {
	case predictedDays <= criticalDays:
		return models.HealthCritical
	case predictedDays <= alertDays:
		return models.HealthAlert
	default:
		return models.HealthSafe
	}
}

func indeterminate(assetID int64, completions int, asOf time.Time) models.HealthSnapshot {
	return models.HealthSnapshot{
		AssetID:              assetID,
		Bucket:               models.HealthIndeterminate,
		CompletedCorrectives: completions,
		ComputedAt:           asOf,
	}
}
