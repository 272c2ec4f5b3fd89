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

const requestColumns = `
	id, asset_id, branch_id, requester_id, type, description, status,
	requested_at, approved_at, started_at, completed_at, technician_id,
	service_description, actual_cost, execution_duration_secs,
	cancellation_reason, version`

// CreateRequest inserts a new maintenance request and fills in its id.
func (d *DB) CreateRequest(ctx context.Context, req *models.MaintenanceRequest) error {
	query := `
    INSERT INTO maintenance_requests (
        asset_id, branch_id, requester_id, type, description, status,
        requested_at, version
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
    RETURNING id`

	err := d.Pool.QueryRow(ctx, query,
		req.AssetID,
		req.BranchID,
		req.RequesterID,
		req.Type,
		req.Description,
		req.Status,
		req.RequestedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("failed to insert maintenance request: %w", err)
	}
	req.Version = 1
	return nil
}

// GetRequest fetches a single maintenance request by id.
func (d *DB) GetRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE id = $1`
	req, err := scanRequest(d.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "maintenance request", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get maintenance request %d: %w", id, err)
	}
	return req, nil
}

// UpdateRequest writes the request back under its optimistic version.
func (d *DB) UpdateRequest(ctx context.Context, req *models.MaintenanceRequest) error {
	tag, err := d.Pool.Exec(ctx, updateRequestQuery, requestUpdateArgs(req)...)
	if err != nil {
		return fmt.Errorf("failed to update maintenance request %d: %w", req.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{Entity: "maintenance request", ID: req.ID, Reason: "version changed"}
	}
	req.Version++
	return nil
}

// UpdateRequestAndAsset commits the request transition and the asset
// status flip in one transaction; a version mismatch on either side rolls
// both back.
func (d *DB) UpdateRequestAndAsset(ctx context.Context, req *models.MaintenanceRequest, assetStatus models.AssetStatus, assetVersion int64) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateRequestQuery, requestUpdateArgs(req)...)
	if err != nil {
		return fmt.Errorf("failed to update maintenance request %d: %w", req.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{Entity: "maintenance request", ID: req.ID, Reason: "version changed"}
	}

	assetQuery := `
    UPDATE assets SET status = $2, updated_at = now(), version = version + 1
    WHERE id = $1 AND version = $3`
	tag, err = tx.Exec(ctx, assetQuery, req.AssetID, assetStatus, assetVersion)
	if err != nil {
		return fmt.Errorf("failed to update asset %d status: %w", req.AssetID, err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{Entity: "asset", ID: req.AssetID, Reason: "version changed"}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	req.Version++
	return nil
}

// DeleteRequest removes a request entirely.
func (d *DB) DeleteRequest(ctx context.Context, id int64) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM maintenance_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete maintenance request %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &models.NotFoundError{Entity: "maintenance request", ID: id}
	}
	return nil
}

// HasOpenRequest reports whether the asset has a non-terminal request.
func (d *DB) HasOpenRequest(ctx context.Context, assetID int64) (bool, error) {
	query := `
    SELECT EXISTS (
        SELECT 1 FROM maintenance_requests
        WHERE asset_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED')
    )`
	var open bool
	if err := d.Pool.QueryRow(ctx, query, assetID).Scan(&open); err != nil {
		return false, fmt.Errorf("failed to check open requests for asset %d: %w", assetID, err)
	}
	return open, nil
}

// RequestsByAsset lists the asset's requests, completed ones ordered by
// completion time and the rest by request time.
func (d *DB) RequestsByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error) {
	query := `
    SELECT ` + requestColumns + `
    FROM maintenance_requests
    WHERE asset_id = $1
    ORDER BY COALESCE(completed_at, requested_at), id`

	rows, err := d.Pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for asset %d: %w", assetID, err)
	}
	defer rows.Close()

	var out []models.MaintenanceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan maintenance request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// TotalCompletedCost sums actual cost over the asset's COMPLETED requests.
func (d *DB) TotalCompletedCost(ctx context.Context, assetID int64) (decimal.Decimal, error) {
	query := `
    SELECT COALESCE(SUM(actual_cost), 0)
    FROM maintenance_requests
    WHERE asset_id = $1 AND status = 'COMPLETED'`

	var total string
	if err := d.Pool.QueryRow(ctx, query, assetID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum completed cost for asset %d: %w", assetID, err)
	}
	sum, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid cost total: %w", err)
	}
	return sum, nil
}

// CompletedCorrectivesByBranchSince lists completion timestamps of the
// branch's completed CORRECTIVE requests from the given instant on.
func (d *DB) CompletedCorrectivesByBranchSince(ctx context.Context, branchID int64, since time.Time) ([]time.Time, error) {
	query := `
    SELECT completed_at
    FROM maintenance_requests
    WHERE branch_id = $1 AND type = 'CORRECTIVE' AND status = 'COMPLETED' AND completed_at >= $2
    ORDER BY completed_at`

	rows, err := d.Pool.Query(ctx, query, branchID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrective completions for branch %d: %w", branchID, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("failed to scan completion time: %w", err)
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

const updateRequestQuery = `
    UPDATE maintenance_requests
    SET status = $2, approved_at = $3, started_at = $4, completed_at = $5,
        technician_id = $6, service_description = $7, actual_cost = $8,
        execution_duration_secs = $9, cancellation_reason = $10,
        version = version + 1
    WHERE id = $1 AND version = $11`

func requestUpdateArgs(req *models.MaintenanceRequest) []interface{} {
	var cost *string
	if req.ActualCost != nil {
		s := req.ActualCost.String()
		cost = &s
	}
	var durationSecs *int64
	if req.ExecutionDuration != nil {
		secs := int64(req.ExecutionDuration.Seconds())
		durationSecs = &secs
	}
	return []interface{}{
		req.ID,
		req.Status,
		req.ApprovedAt,
		req.StartedAt,
		req.CompletedAt,
		req.TechnicianID,
		req.ServiceDescription,
		cost,
		durationSecs,
		req.CancellationReason,
		req.Version,
	}
}

func scanRequest(row pgx.Row) (*models.MaintenanceRequest, error) {
	var (
		req          models.MaintenanceRequest
		cost         *string
		durationSecs *int64
	)
	err := row.Scan(
		&req.ID,
		&req.AssetID,
		&req.BranchID,
		&req.RequesterID,
		&req.Type,
		&req.Description,
		&req.Status,
		&req.RequestedAt,
		&req.ApprovedAt,
		&req.StartedAt,
		&req.CompletedAt,
		&req.TechnicianID,
		&req.ServiceDescription,
		&cost,
		&durationSecs,
		&req.CancellationReason,
		&req.Version,
	)
	if err != nil {
		return nil, err
	}
	if cost != nil {
		c, err := decimal.NewFromString(*cost)
		if err != nil {
			return nil, fmt.Errorf("invalid actual cost: %w", err)
		}
		req.ActualCost = &c
	}
	if durationSecs != nil {
		d := time.Duration(*durationSecs) * time.Second
		req.ExecutionDuration = &d
	}
	return &req, nil
}
