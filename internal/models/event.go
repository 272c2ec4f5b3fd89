package models

import "time"

// Maintenance lifecycle event types published to Kafka.
const (
	EventMaintenanceCreated   = "maintenance.created"
	EventMaintenanceApproved  = "maintenance.approved"
	EventMaintenanceStarted   = "maintenance.started"
	EventMaintenanceCompleted = "maintenance.completed"
	EventMaintenanceCancelled = "maintenance.cancelled"
	EventMaintenanceDeleted   = "maintenance.deleted"
)

// MaintenanceEvent is the message emitted on every workflow transition.
// The health consumer and the websocket hub both feed off it. EventID
// identifies one emission so downstream consumers can deduplicate
// redelivered messages.
type MaintenanceEvent struct {
	EventID   string            `json:"event_id"`
	Event     string            `json:"event"`
	RequestID int64             `json:"request_id"`
	AssetID   int64             `json:"asset_id"`
	BranchID  int64             `json:"branch_id"`
	Status    MaintenanceStatus `json:"status"`
	Type      MaintenanceType   `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
}
