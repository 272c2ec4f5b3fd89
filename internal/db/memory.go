package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"asset-service/internal/models"
)

// MemoryStore is an in-memory implementation of the same storage surface
// DB exposes. It backs tests and local runs without Postgres, with the
// same optimistic-version semantics.
type MemoryStore struct {
	mu           sync.Mutex
	assets       map[int64]models.Asset
	requests     map[int64]models.MaintenanceRequest
	health       map[int64]models.HealthSnapshot
	depreciation map[int64]models.DepreciationSnapshot
	employees    map[int64]bool
	typeNames    map[int64]string

	nextAssetID   int64
	nextRequestID int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assets:       make(map[int64]models.Asset),
		requests:     make(map[int64]models.MaintenanceRequest),
		health:       make(map[int64]models.HealthSnapshot),
		depreciation: make(map[int64]models.DepreciationSnapshot),
		employees:    make(map[int64]bool),
		typeNames:    make(map[int64]string),
	}
}

// AddEmployee registers an employee id for existence checks.
func (m *MemoryStore) AddEmployee(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[id] = true
}

// AddAssetType registers an asset type name for dashboard grouping.
func (m *MemoryStore) AddAssetType(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeNames[id] = name
}

func (m *MemoryStore) CreateAsset(ctx context.Context, asset *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.assets {
		if existing.PatrimonyTag == asset.PatrimonyTag {
			return &models.ConflictError{Entity: "asset", ID: existing.ID, Reason: "patrimony tag already in use"}
		}
	}

	m.nextAssetID++
	asset.ID = m.nextAssetID
	asset.Version = 1
	now := time.Now()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	m.assets[asset.ID] = *asset
	return nil
}

func (m *MemoryStore) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "asset", ID: id}
	}
	out := asset
	return &out, nil
}

func (m *MemoryStore) AssetsByBranch(ctx context.Context, branchID int64) ([]models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Asset
	for _, asset := range m.assets {
		if asset.BranchID == branchID {
			out = append(out, asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AllAssets(ctx context.Context) ([]models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Asset
	for _, asset := range m.assets {
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) AssetTypeName(ctx context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.typeNames[id]; ok {
		return name, nil
	}
	return "", &models.NotFoundError{Entity: "asset type", ID: id}
}

func (m *MemoryStore) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.employees[id], nil
}

func (m *MemoryStore) CreateRequest(ctx context.Context, req *models.MaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRequestID++
	req.ID = m.nextRequestID
	req.Version = 1
	m.requests[req.ID] = *req
	return nil
}

func (m *MemoryStore) GetRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "maintenance request", ID: id}
	}
	out := req
	return &out, nil
}

func (m *MemoryStore) UpdateRequest(ctx context.Context, req *models.MaintenanceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRequestLocked(req)
}

// UpdateRequestAndAsset commits the request transition and the asset
// status flip together; neither lands if either version check fails.
func (m *MemoryStore) UpdateRequestAndAsset(ctx context.Context, req *models.MaintenanceRequest, assetStatus models.AssetStatus, assetVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	asset, ok := m.assets[req.AssetID]
	if !ok {
		return &models.NotFoundError{Entity: "asset", ID: req.AssetID}
	}
	if asset.Version != assetVersion {
		return &models.ConflictError{Entity: "asset", ID: asset.ID, Reason: "version changed"}
	}
	if err := m.updateRequestLocked(req); err != nil {
		return err
	}
	asset.Status = assetStatus
	asset.Version++
	asset.UpdatedAt = time.Now()
	m.assets[asset.ID] = asset
	return nil
}

func (m *MemoryStore) updateRequestLocked(req *models.MaintenanceRequest) error {
	stored, ok := m.requests[req.ID]
	if !ok {
		return &models.NotFoundError{Entity: "maintenance request", ID: req.ID}
	}
	if stored.Version != req.Version {
		return &models.ConflictError{Entity: "maintenance request", ID: req.ID, Reason: "version changed"}
	}
	req.Version++
	m.requests[req.ID] = *req
	return nil
}

func (m *MemoryStore) DeleteRequest(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return &models.NotFoundError{Entity: "maintenance request", ID: id}
	}
	delete(m.requests, id)
	return nil
}

func (m *MemoryStore) HasOpenRequest(ctx context.Context, assetID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.AssetID == assetID && !req.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// RequestsByAsset returns the asset's requests, completed ones ordered by
// completion time and the rest by request time.
func (m *MemoryStore) RequestsByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MaintenanceRequest
	for _, req := range m.requests {
		if req.AssetID == assetID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return requestOrder(out[i]).Before(requestOrder(out[j])) })
	return out, nil
}

func requestOrder(req models.MaintenanceRequest) time.Time {
	if req.CompletedAt != nil {
		return *req.CompletedAt
	}
	return req.RequestedAt
}

func (m *MemoryStore) TotalCompletedCost(ctx context.Context, assetID int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, req := range m.requests {
		if req.AssetID == assetID && req.Status == models.MaintenanceCompleted && req.ActualCost != nil {
			total = total.Add(*req.ActualCost)
		}
	}
	return total, nil
}

func (m *MemoryStore) CompletedCorrectivesByBranchSince(ctx context.Context, branchID int64, since time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for _, req := range m.requests {
		if req.BranchID == branchID &&
			req.Type == models.MaintenanceCorrective &&
			req.Status == models.MaintenanceCompleted &&
			req.CompletedAt != nil &&
			!req.CompletedAt.Before(since) {
			out = append(out, *req.CompletedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (m *MemoryStore) SaveHealth(ctx context.Context, snap models.HealthSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[snap.AssetID]; !ok {
		return &models.NotFoundError{Entity: "asset", ID: snap.AssetID}
	}
	m.health[snap.AssetID] = snap
	return nil
}

// LatestHealth returns the stored snapshot, or nil when none was computed
// yet.
func (m *MemoryStore) LatestHealth(ctx context.Context, assetID int64) (*models.HealthSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.health[assetID]
	if !ok {
		return nil, nil
	}
	out := snap
	return &out, nil
}

func (m *MemoryStore) SaveDepreciation(ctx context.Context, assetID int64, rate, accumulated, bookValue decimal.Decimal, asOf time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[assetID]; !ok {
		return &models.NotFoundError{Entity: "asset", ID: assetID}
	}
	m.depreciation[assetID] = models.DepreciationSnapshot{
		AssetID:     assetID,
		MonthlyRate: rate,
		Accumulated: accumulated,
		BookValue:   bookValue,
		AsOf:        asOf,
	}
	return nil
}

func (m *MemoryStore) LatestDepreciation(ctx context.Context, assetID int64) (*models.DepreciationSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.depreciation[assetID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *MemoryStore) UpdateAssetStatus(ctx context.Context, id int64, status models.AssetStatus, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[id]
	if !ok {
		return &models.NotFoundError{Entity: "asset", ID: id}
	}
	if asset.Version != version {
		return &models.ConflictError{Entity: "asset", ID: id, Reason: "asset was modified concurrently"}
	}
	asset.Status = status
	asset.Version++
	asset.UpdatedAt = time.Now()
	m.assets[id] = asset
	return nil
}
