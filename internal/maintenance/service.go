// Package maintenance implements the maintenance-request workflow: a
// closed state machine REQUESTED -> APPROVED -> IN_PROGRESS -> COMPLETED,
// with CANCELLED reachable from any non-terminal state and deletion
// permitted only while still REQUESTED.
package maintenance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"asset-service/internal/logging"
	"asset-service/internal/models"
)

// Store is the persistence surface the workflow needs. Implementations
// must make UpdateRequest and UpdateRequestAndAsset atomic and enforce the
// version check, returning *models.ConflictError when the check fails.
type Store interface {
	GetAsset(ctx context.Context, id int64) (*models.Asset, error)
	GetRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error)
	CreateRequest(ctx context.Context, req *models.MaintenanceRequest) error
	UpdateRequest(ctx context.Context, req *models.MaintenanceRequest) error
	UpdateRequestAndAsset(ctx context.Context, req *models.MaintenanceRequest, assetStatus models.AssetStatus, assetVersion int64) error
	DeleteRequest(ctx context.Context, id int64) error
	HasOpenRequest(ctx context.Context, assetID int64) (bool, error)
	EmployeeExists(ctx context.Context, id int64) (bool, error)
	RequestsByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error)
	TotalCompletedCost(ctx context.Context, assetID int64) (decimal.Decimal, error)
}

// EventPublisher emits a lifecycle event after a committed transition.
type EventPublisher interface {
	Publish(ctx context.Context, evt models.MaintenanceEvent) error
}

// Service runs the workflow over a Store, serializing mutations per asset.
type Service struct {
	store     Store
	logger    *logging.Logger
	publisher EventPublisher
	locks     *keyedMutex
	now       func() time.Time
}

// New constructs a workflow Service. publisher may be nil when no broker
// is configured.
func New(store Store, logger *logging.Logger, publisher EventPublisher) *Service {
	return &Service{
		store:     store,
		logger:    logger,
		publisher: publisher,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// CreateInput is the payload for opening a maintenance request.
type CreateInput struct {
	AssetID     int64                  `json:"asset_id"`
	RequesterID int64                  `json:"requester_id"`
	Type        models.MaintenanceType `json:"type"`
	Description string                 `json:"description"`
}

// Create opens a new request in REQUESTED. The asset must exist, must not
// be decommissioned, and must not already have another open request.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.MaintenanceRequest, error) {
	if in.Type != models.MaintenancePreventive && in.Type != models.MaintenanceCorrective {
		return nil, &models.ValidationError{Field: "type", Reason: "must be PREVENTIVE or CORRECTIVE"}
	}
	if in.Description == "" {
		return nil, &models.ValidationError{Field: "description", Reason: "must not be empty"}
	}

	unlock := s.locks.Lock(in.AssetID)
	defer unlock()

	asset, err := s.store.GetAsset(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}
	if asset.Status == models.AssetDecommissioned {
		return nil, &models.ConflictError{Entity: "asset", ID: asset.ID, Reason: "asset is decommissioned"}
	}
	if ok, err := s.store.EmployeeExists(ctx, in.RequesterID); err != nil {
		return nil, err
	} else if !ok {
		return nil, &models.NotFoundError{Entity: "employee", ID: in.RequesterID}
	}
	if open, err := s.store.HasOpenRequest(ctx, in.AssetID); err != nil {
		return nil, err
	} else if open {
		return nil, &models.ConflictError{Entity: "asset", ID: asset.ID, Reason: "asset already has an open maintenance request"}
	}

	req := &models.MaintenanceRequest{
		AssetID:     in.AssetID,
		BranchID:    asset.BranchID,
		RequesterID: in.RequesterID,
		Type:        in.Type,
		Description: in.Description,
		Status:      models.MaintenanceRequested,
		RequestedAt: s.now(),
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Infof("Created maintenance request %d for asset %d (%s)", req.ID, req.AssetID, req.Type)
	s.emit(ctx, models.EventMaintenanceCreated, req)
	return req, nil
}

// Approve moves a request from REQUESTED to APPROVED.
func (s *Service) Approve(ctx context.Context, requestID int64) (*models.MaintenanceRequest, error) {
	return s.transition(ctx, requestID, "approved", func(ctx context.Context, req *models.MaintenanceRequest, asset *models.Asset) error {
		if req.Status != models.MaintenanceRequested {
			return &models.InvalidTransitionError{RequestID: req.ID, Current: req.Status, Transition: "approved"}
		}
		now := s.now()
		req.Status = models.MaintenanceApproved
		req.ApprovedAt = &now
		return s.store.UpdateRequest(ctx, req)
	}, models.EventMaintenanceApproved)
}

// Start moves a request from APPROVED to IN_PROGRESS, assigns the
// technician, and flips the asset into IN_MAINTENANCE.
func (s *Service) Start(ctx context.Context, requestID, technicianID int64) (*models.MaintenanceRequest, error) {
	return s.transition(ctx, requestID, "started", func(ctx context.Context, req *models.MaintenanceRequest, asset *models.Asset) error {
		if req.Status != models.MaintenanceApproved {
			return &models.InvalidTransitionError{RequestID: req.ID, Current: req.Status, Transition: "started"}
		}
		if ok, err := s.store.EmployeeExists(ctx, technicianID); err != nil {
			return err
		} else if !ok {
			return &models.NotFoundError{Entity: "employee", ID: technicianID}
		}
		now := s.now()
		req.Status = models.MaintenanceInProgress
		req.StartedAt = &now
		req.TechnicianID = &technicianID
		return s.store.UpdateRequestAndAsset(ctx, req, models.AssetInMaintenance, asset.Version)
	}, models.EventMaintenanceStarted)
}

// CompleteInput is the payload recorded when work finishes.
type CompleteInput struct {
	ServiceDescription string          `json:"service_description"`
	ActualCost         decimal.Decimal `json:"actual_cost"`
	ExecutionDuration  time.Duration   `json:"execution_duration"`
}

// Complete moves a request from IN_PROGRESS to COMPLETED, records cost and
// duration, and reverts the asset to ACTIVE unless it was independently
// decommissioned.
func (s *Service) Complete(ctx context.Context, requestID int64, in CompleteInput) (*models.MaintenanceRequest, error) {
	if in.ActualCost.IsNegative() {
		return nil, &models.ValidationError{Field: "actual_cost", Reason: "must not be negative"}
	}
	if in.ExecutionDuration <= 0 {
		return nil, &models.ValidationError{Field: "execution_duration", Reason: "must be positive"}
	}
	return s.transition(ctx, requestID, "completed", func(ctx context.Context, req *models.MaintenanceRequest, asset *models.Asset) error {
		if req.Status != models.MaintenanceInProgress {
			return &models.InvalidTransitionError{RequestID: req.ID, Current: req.Status, Transition: "completed"}
		}
		now := s.now()
		req.Status = models.MaintenanceCompleted
		req.CompletedAt = &now
		req.ServiceDescription = in.ServiceDescription
		cost := in.ActualCost
		req.ActualCost = &cost
		duration := in.ExecutionDuration
		req.ExecutionDuration = &duration

		next := models.AssetActive
		if asset.Status == models.AssetDecommissioned {
			next = models.AssetDecommissioned
		}
		return s.store.UpdateRequestAndAsset(ctx, req, next, asset.Version)
	}, models.EventMaintenanceCompleted)
}

// Cancel terminates a request from any non-terminal state, recording the
// reason. If this request had the asset in maintenance the asset reverts
// to ACTIVE.
func (s *Service) Cancel(ctx context.Context, requestID int64, reason string) (*models.MaintenanceRequest, error) {
	if reason == "" {
		return nil, &models.ValidationError{Field: "reason", Reason: "must not be empty"}
	}
	return s.transition(ctx, requestID, "cancelled", func(ctx context.Context, req *models.MaintenanceRequest, asset *models.Asset) error {
		if req.Status.Terminal() {
			return &models.InvalidTransitionError{RequestID: req.ID, Current: req.Status, Transition: "cancelled"}
		}
		wasInProgress := req.Status == models.MaintenanceInProgress
		req.Status = models.MaintenanceCancelled
		req.CancellationReason = reason

		if wasInProgress && asset.Status == models.AssetInMaintenance {
			return s.store.UpdateRequestAndAsset(ctx, req, models.AssetActive, asset.Version)
		}
		return s.store.UpdateRequest(ctx, req)
	}, models.EventMaintenanceCancelled)
}

// Delete removes a request entirely. Only REQUESTED requests may be
// deleted; anything further along must be cancelled to preserve history.
func (s *Service) Delete(ctx context.Context, requestID int64) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(req.AssetID)
	defer unlock()

	// Re-read under the lock; a racing transition may have advanced it.
	req, err = s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != models.MaintenanceRequested {
		return &models.InvalidTransitionError{RequestID: req.ID, Current: req.Status, Transition: "deleted"}
	}
	if err := s.store.DeleteRequest(ctx, requestID); err != nil {
		return err
	}

	s.logger.Infof("Deleted maintenance request %d for asset %d", requestID, req.AssetID)
	s.emit(ctx, models.EventMaintenanceDeleted, req)
	return nil
}

// Get returns a single request.
func (s *Service) Get(ctx context.Context, requestID int64) (*models.MaintenanceRequest, error) {
	return s.store.GetRequest(ctx, requestID)
}

// ListByAsset returns every request targeting the asset.
func (s *Service) ListByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error) {
	if _, err := s.store.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.store.RequestsByAsset(ctx, assetID)
}

// TotalCompletedCost sums the actual cost of every COMPLETED request for
// the asset, for total-cost-of-ownership reporting.
func (s *Service) TotalCompletedCost(ctx context.Context, assetID int64) (decimal.Decimal, error) {
	if _, err := s.store.GetAsset(ctx, assetID); err != nil {
		return decimal.Zero, err
	}
	return s.store.TotalCompletedCost(ctx, assetID)
}

// transition loads the request and its asset under the per-asset lock,
// applies fn, and emits the event only after the store committed. fn must
// leave req untouched in the store when it returns an error.
func (s *Service) transition(ctx context.Context, requestID int64, name string,
	fn func(ctx context.Context, req *models.MaintenanceRequest, asset *models.Asset) error,
	event string) (*models.MaintenanceRequest, error) {

	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.AssetID)
	defer unlock()

	req, err = s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	asset, err := s.store.GetAsset(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}

	if err := fn(ctx, req, asset); err != nil {
		return nil, err
	}

	s.logger.Infof("Maintenance request %d %s (asset %d)", req.ID, name, req.AssetID)
	s.emit(ctx, event, req)
	return req, nil
}

// emit publishes the lifecycle event. Publishing is best-effort: a broker
// outage must not roll back a committed transition.
func (s *Service) emit(ctx context.Context, event string, req *models.MaintenanceRequest) {
	if s.publisher == nil {
		return
	}
	evt := models.MaintenanceEvent{
		EventID:   uuid.NewString(),
		Event:     event,
		RequestID: req.ID,
		AssetID:   req.AssetID,
		BranchID:  req.BranchID,
		Status:    req.Status,
		Type:      req.Type,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Errorf("Failed to publish %s for request %d: %v", event, req.ID, err)
	}
}
