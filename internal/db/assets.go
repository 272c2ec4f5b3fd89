package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"asset-service/internal/models"
)

const assetColumns = `
	id, branch_id, name, type_id, patrimony_tag, location_id,
	responsible_id, supplier_id, status, acquisition_date,
	acquisition_value, residual_value, useful_life_months,
	depreciation_method, depreciation_start, created_at, updated_at, version`

// CreateAsset inserts a new asset and fills in its generated id. The
// patrimony tag is unique; a duplicate surfaces as a ConflictError.
func (d *DB) CreateAsset(ctx context.Context, asset *models.Asset) error {
	query := `
    INSERT INTO assets (
        branch_id, name, type_id, patrimony_tag, location_id,
        responsible_id, supplier_id, status, acquisition_date,
        acquisition_value, residual_value, useful_life_months,
        depreciation_method, depreciation_start, created_at, updated_at, version
    ) VALUES (
        $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now(), 1
    )
    ON CONFLICT (patrimony_tag) DO NOTHING
    RETURNING id, created_at, updated_at`

	err := d.Pool.QueryRow(ctx, query,
		asset.BranchID,
		asset.Name,
		asset.TypeID,
		asset.PatrimonyTag,
		asset.LocationID,
		asset.ResponsibleID,
		asset.SupplierID,
		asset.Status,
		asset.AcquisitionDate,
		asset.AcquisitionValue.String(),
		asset.ResidualValue.String(),
		asset.UsefulLifeMonths,
		asset.Method,
		asset.DepreciationStart,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.ConflictError{Entity: "asset", Reason: "patrimony tag already in use"}
	}
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	asset.Version = 1
	return nil
}

// GetAsset fetches a single asset by id.
func (d *DB) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	asset, err := scanAsset(d.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "asset", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %d: %w", id, err)
	}
	return asset, nil
}

// AssetsByBranch lists the assets registered under a branch.
func (d *DB) AssetsByBranch(ctx context.Context, branchID int64) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE branch_id = $1 ORDER BY id`
	rows, err := d.Pool.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets for branch %d: %w", branchID, err)
	}
	defer rows.Close()
	return collectAssets(rows)
}

// AllAssets lists every asset across branches, for the batch recompute.
func (d *DB) AllAssets(ctx context.Context) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY id`
	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()
	return collectAssets(rows)
}

// SaveDepreciation stores the derived financial triple on the asset row.
// The derived columns are a cache, not state: no version bump.
func (d *DB) SaveDepreciation(ctx context.Context, assetID int64, rate, accumulated, bookValue decimal.Decimal, asOf time.Time) error {
	query := `
    UPDATE assets
    SET monthly_rate = $2, accumulated_depreciation = $3, book_value = $4, depreciated_at = $5
    WHERE id = $1`

	tag, err := d.Pool.Exec(ctx, query, assetID, rate.String(), accumulated.String(), bookValue.String(), asOf)
	if err != nil {
		return fmt.Errorf("failed to save depreciation for asset %d: %w", assetID, err)
	}
	if tag.RowsAffected() == 0 {
		return &models.NotFoundError{Entity: "asset", ID: assetID}
	}
	return nil
}

// LatestDepreciation returns the batch-persisted triple for an asset, or
// nil when the batch has not computed one yet.
func (d *DB) LatestDepreciation(ctx context.Context, assetID int64) (*models.DepreciationSnapshot, error) {
	query := `
    SELECT monthly_rate, accumulated_depreciation, book_value, depreciated_at
    FROM assets WHERE id = $1`

	var (
		rate        *string
		accumulated *string
		bookValue   *string
		asOf        *time.Time
	)
	err := d.Pool.QueryRow(ctx, query, assetID).Scan(&rate, &accumulated, &bookValue, &asOf)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load depreciation for asset %d: %w", assetID, err)
	}
	if rate == nil || accumulated == nil || bookValue == nil || asOf == nil {
		return nil, nil
	}

	snap := models.DepreciationSnapshot{AssetID: assetID, AsOf: *asOf}
	if snap.MonthlyRate, err = decimal.NewFromString(*rate); err != nil {
		return nil, fmt.Errorf("failed to parse monthly rate for asset %d: %w", assetID, err)
	}
	if snap.Accumulated, err = decimal.NewFromString(*accumulated); err != nil {
		return nil, fmt.Errorf("failed to parse accumulated depreciation for asset %d: %w", assetID, err)
	}
	if snap.BookValue, err = decimal.NewFromString(*bookValue); err != nil {
		return nil, fmt.Errorf("failed to parse book value for asset %d: %w", assetID, err)
	}
	return &snap, nil
}

// UpdateAssetStatus moves an asset to a new operational status with a
// version check, returning ConflictError when a concurrent update won.
func (d *DB) UpdateAssetStatus(ctx context.Context, id int64, status models.AssetStatus, version int64) error {
	query := `
    UPDATE assets
    SET status = $2, updated_at = now(), version = version + 1
    WHERE id = $1 AND version = $3`

	tag, err := d.Pool.Exec(ctx, query, id, status, version)
	if err != nil {
		return fmt.Errorf("failed to update status for asset %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{Entity: "asset", ID: id, Reason: "asset was modified concurrently"}
	}
	return nil
}

func collectAssets(rows pgx.Rows) ([]models.Asset, error) {
	var out []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		out = append(out, *asset)
	}
	return out, rows.Err()
}

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var (
		asset       models.Asset
		acquisition string
		residual    string
		method      *string
	)
	err := row.Scan(
		&asset.ID,
		&asset.BranchID,
		&asset.Name,
		&asset.TypeID,
		&asset.PatrimonyTag,
		&asset.LocationID,
		&asset.ResponsibleID,
		&asset.SupplierID,
		&asset.Status,
		&asset.AcquisitionDate,
		&acquisition,
		&residual,
		&asset.UsefulLifeMonths,
		&method,
		&asset.DepreciationStart,
		&asset.CreatedAt,
		&asset.UpdatedAt,
		&asset.Version,
	)
	if err != nil {
		return nil, err
	}
	if asset.AcquisitionValue, err = decimal.NewFromString(acquisition); err != nil {
		return nil, fmt.Errorf("invalid acquisition value: %w", err)
	}
	if asset.ResidualValue, err = decimal.NewFromString(residual); err != nil {
		return nil, fmt.Errorf("invalid residual value: %w", err)
	}
	if method != nil {
		m := models.DepreciationMethod(*method)
		asset.Method = &m
	}
	return &asset, nil
}
