package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"asset-service/internal/models"
)

// SaveHealth upserts the asset's health snapshot. One row per asset: the
// snapshot is a projection, not history.
func (d *DB) SaveHealth(ctx context.Context, snap models.HealthSnapshot) error {
	query := `
    INSERT INTO asset_health (
        asset_id, bucket, predicted_days, mean_interval_days,
        completed_correctives, computed_at
    ) VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (asset_id) DO UPDATE SET
        bucket = EXCLUDED.bucket,
        predicted_days = EXCLUDED.predicted_days,
        mean_interval_days = EXCLUDED.mean_interval_days,
        completed_correctives = EXCLUDED.completed_correctives,
        computed_at = EXCLUDED.computed_at`

	_, err := d.Pool.Exec(ctx, query,
		snap.AssetID,
		snap.Bucket,
		snap.PredictedDaysToFail,
		snap.MeanFailureInterval,
		snap.CompletedCorrectives,
		snap.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save health snapshot for asset %d: %w", snap.AssetID, err)
	}
	return nil
}

// LatestHealth fetches the asset's snapshot, or nil when none was
// computed yet.
func (d *DB) LatestHealth(ctx context.Context, assetID int64) (*models.HealthSnapshot, error) {
	query := `
    SELECT asset_id, bucket, predicted_days, mean_interval_days,
           completed_correctives, computed_at
    FROM asset_health
    WHERE asset_id = $1`

	var snap models.HealthSnapshot
	err := d.Pool.QueryRow(ctx, query, assetID).Scan(
		&snap.AssetID,
		&snap.Bucket,
		&snap.PredictedDaysToFail,
		&snap.MeanFailureInterval,
		&snap.CompletedCorrectives,
		&snap.ComputedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get health snapshot for asset %d: %w", assetID, err)
	}
	return &snap, nil
}
