package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-service/internal/db"
	"asset-service/internal/logging"
	"asset-service/internal/models"
)

const (
	requesterID  = int64(3)
	technicianID = int64(7)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.MaintenanceEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, evt models.MaintenanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, evt := range p.events {
		out = append(out, evt.Event)
	}
	return out
}

func newTestService(t *testing.T) (*Service, *db.MemoryStore, *recordingPublisher, int64) {
	t.Helper()
	store := db.NewMemoryStore()
	store.AddEmployee(requesterID)
	store.AddEmployee(technicianID)

	asset := &models.Asset{
		BranchID:         1,
		Name:             "Forklift 02",
		PatrimonyTag:     "PAT-0002",
		Status:           models.AssetActive,
		AcquisitionDate:  time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		AcquisitionValue: decimal.NewFromInt(50000),
		ResidualValue:    decimal.NewFromInt(5000),
	}
	require.NoError(t, store.CreateAsset(context.Background(), asset))

	pub := &recordingPublisher{}
	return New(store, logging.NewNop(), pub), store, pub, asset.ID
}

func createRequest(t *testing.T, svc *Service, assetID int64) *models.MaintenanceRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), CreateInput{
		AssetID:     assetID,
		RequesterID: requesterID,
		Type:        models.MaintenanceCorrective,
		Description: "hydraulic leak",
	})
	require.NoError(t, err)
	require.Equal(t, models.MaintenanceRequested, req.Status)
	return req
}

func TestFullLifecycleReachesCompleted(t *testing.T) {
	svc, store, pub, assetID := newTestService(t)
	ctx := context.Background()
	req := createRequest(t, svc, assetID)

	req, err := svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceApproved, req.Status)
	require.NotNil(t, req.ApprovedAt)

	req, err = svc.Start(ctx, req.ID, technicianID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceInProgress, req.Status)
	require.NotNil(t, req.StartedAt)
	require.NotNil(t, req.TechnicianID)
	assert.Equal(t, technicianID, *req.TechnicianID)

	asset, err := store.GetAsset(ctx, assetID)
	require.NoError(t, err)
	assert.Equal(t, models.AssetInMaintenance, asset.Status)

	req, err = svc.Complete(ctx, req.ID, CompleteInput{
		ServiceDescription: "replaced hydraulic hose",
		ActualCost:         decimal.RequireFromString("450.00"),
		ExecutionDuration:  2 * time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCompleted, req.Status)
	require.NotNil(t, req.CompletedAt)
	require.NotNil(t, req.ActualCost)
	require.NotNil(t, req.ExecutionDuration)
	assert.Equal(t, 2*time.Hour, *req.ExecutionDuration)

	// Timestamps are monotonically non-decreasing across the lifecycle.
	assert.False(t, req.ApprovedAt.Before(req.RequestedAt))
	assert.False(t, req.StartedAt.Before(*req.ApprovedAt))
	assert.False(t, req.CompletedAt.Before(*req.StartedAt))

	asset, err = store.GetAsset(ctx, assetID)
	require.NoError(t, err)
	assert.Equal(t, models.AssetActive, asset.Status)

	total, err := svc.TotalCompletedCost(ctx, assetID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("450.00")))

	assert.Equal(t, []string{
		models.EventMaintenanceCreated,
		models.EventMaintenanceApproved,
		models.EventMaintenanceStarted,
		models.EventMaintenanceCompleted,
	}, pub.names())
}

func TestCompleteFromRequestedFails(t *testing.T) {
	svc, _, _, assetID := newTestService(t)
	ctx := context.Background()
	req := createRequest(t, svc, assetID)

	_, err := svc.Complete(ctx, req.ID, CompleteInput{
		ServiceDescription: "noop",
		ActualCost:         decimal.NewFromInt(1),
		ExecutionDuration:  time.Minute,
	})
	var itErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, models.MaintenanceRequested, itErr.Current)

	// State is unchanged.
	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceRequested, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestCancelFromInProgressRevertsAsset(t *testing.T) {
	svc, store, _, assetID := newTestService(t)
	ctx := context.Background()
	req := createRequest(t, svc, assetID)

	_, err := svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	_, err = svc.Start(ctx, req.ID, technicianID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, req.ID, "part unavailable")
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCancelled, cancelled.Status)
	assert.Equal(t, "part unavailable", cancelled.CancellationReason)

	asset, err := store.GetAsset(ctx, assetID)
	require.NoError(t, err)
	assert.Equal(t, models.AssetActive, asset.Status)

	// A second cancel is rejected.
	_, err = svc.Cancel(ctx, req.ID, "again")
	var itErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, models.MaintenanceCancelled, itErr.Current)
}

func TestCancelRequiresReason(t *testing.T) {
	svc, _, _, assetID := newTestService(t)
	req := createRequest(t, svc, assetID)

	_, err := svc.Cancel(context.Background(), req.ID, "")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reason", verr.Field)
}

func TestDeleteOnlyFromRequested(t *testing.T) {
	svc, _, _, assetID := newTestService(t)
	ctx := context.Background()
	req := createRequest(t, svc, assetID)

	_, err := svc.Approve(ctx, req.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, req.ID)
	var itErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, models.MaintenanceApproved, itErr.Current)

	// The request survives the rejected delete.
	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceApproved, got.Status)

	// A fresh REQUESTED one can be deleted after the first cancels.
	_, err = svc.Cancel(ctx, req.ID, "obsolete")
	require.NoError(t, err)
	second := createRequest(t, svc, assetID)
	require.NoError(t, svc.Delete(ctx, second.ID))
	_, err = svc.Get(ctx, second.ID)
	var nfErr *models.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestCreateGuards(t *testing.T) {
	svc, store, _, assetID := newTestService(t)
	ctx := context.Background()

	t.Run("unknown asset", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{AssetID: 999, RequesterID: requesterID, Type: models.MaintenanceCorrective, Description: "x"})
		var nfErr *models.NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, "asset", nfErr.Entity)
	})

	t.Run("unknown requester", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateInput{AssetID: assetID, RequesterID: 999, Type: models.MaintenanceCorrective, Description: "x"})
		var nfErr *models.NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, "employee", nfErr.Entity)
	})

	t.Run("second open request rejected", func(t *testing.T) {
		first := createRequest(t, svc, assetID)
		_, err := svc.Create(ctx, CreateInput{AssetID: assetID, RequesterID: requesterID, Type: models.MaintenancePreventive, Description: "routine"})
		var cErr *models.ConflictError
		require.ErrorAs(t, err, &cErr)
		require.NoError(t, svc.Delete(ctx, first.ID))
	})

	t.Run("decommissioned asset rejected", func(t *testing.T) {
		decommissioned := &models.Asset{
			BranchID:         1,
			Name:             "Retired press",
			PatrimonyTag:     "PAT-9999",
			Status:           models.AssetDecommissioned,
			AcquisitionDate:  time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			AcquisitionValue: decimal.NewFromInt(1000),
			ResidualValue:    decimal.Zero,
		}
		require.NoError(t, store.CreateAsset(ctx, decommissioned))
		_, err := svc.Create(ctx, CreateInput{AssetID: decommissioned.ID, RequesterID: requesterID, Type: models.MaintenanceCorrective, Description: "x"})
		var cErr *models.ConflictError
		require.ErrorAs(t, err, &cErr)
	})
}

func TestConcurrentCreatesAllowOnlyOneOpenRequest(t *testing.T) {
	svc, store, _, assetID := newTestService(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, CreateInput{
				AssetID:     assetID,
				RequesterID: requesterID,
				Type:        models.MaintenanceCorrective,
				Description: "racing create",
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var cErr *models.ConflictError
		require.True(t, errors.As(err, &cErr), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	open, err := store.HasOpenRequest(ctx, assetID)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestCompleteValidation(t *testing.T) {
	svc, _, _, assetID := newTestService(t)
	req := createRequest(t, svc, assetID)

	_, err := svc.Complete(context.Background(), req.ID, CompleteInput{
		ActualCost:        decimal.NewFromInt(-1),
		ExecutionDuration: time.Hour,
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "actual_cost", verr.Field)

	_, err = svc.Complete(context.Background(), req.ID, CompleteInput{
		ActualCost: decimal.NewFromInt(10),
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "execution_duration", verr.Field)
}
