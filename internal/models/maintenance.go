package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceRequest tracks a single maintenance engagement on an asset
// from request to completion or cancellation. Timestamp pointers are set
// only by the transition that owns them.
type MaintenanceRequest struct {
	ID                 int64             `json:"id"`
	AssetID            int64             `json:"asset_id"`
	BranchID           int64             `json:"branch_id"`
	RequesterID        int64             `json:"requester_id"`
	Type               MaintenanceType   `json:"type"`
	Description        string            `json:"description"`
	Status             MaintenanceStatus `json:"status"`
	RequestedAt        time.Time         `json:"requested_at"`
	ApprovedAt         *time.Time        `json:"approved_at"`
	StartedAt          *time.Time        `json:"started_at"`
	CompletedAt        *time.Time        `json:"completed_at"`
	TechnicianID       *int64            `json:"technician_id"`
	ServiceDescription string            `json:"service_description,omitempty"`
	ActualCost         *decimal.Decimal  `json:"actual_cost"`
	ExecutionDuration  *time.Duration    `json:"execution_duration"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	Version            int64             `json:"version"`
}
