package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"asset-service/internal/models"
)

// Reference data (employees, asset types) is owned elsewhere; this layer
// only performs the existence checks the workflow guards need.

// EmployeeExists reports whether an employee id is known.
func (d *DB) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := d.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check employee %d: %w", id, err)
	}
	return exists, nil
}

// AssetTypeName resolves an asset type id to its display name.
func (d *DB) AssetTypeName(ctx context.Context, id int64) (string, error) {
	var name string
	err := d.Pool.QueryRow(ctx, `SELECT name FROM asset_types WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &models.NotFoundError{Entity: "asset type", ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("failed to get asset type %d: %w", id, err)
	}
	return name, nil
}
