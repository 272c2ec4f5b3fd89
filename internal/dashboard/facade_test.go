package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-service/internal/db"
	"asset-service/internal/health"
	"asset-service/internal/logging"
	"asset-service/internal/models"
)

const branchID = int64(1)

var asOf = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func seedAsset(t *testing.T, store *db.MemoryStore, name, tag string, status models.AssetStatus, typeID int64, value string) *models.Asset {
	t.Helper()
	asset := &models.Asset{
		BranchID:         branchID,
		Name:             name,
		PatrimonyTag:     tag,
		TypeID:           typeID,
		Status:           status,
		AcquisitionDate:  asOf.AddDate(-2, 0, 0),
		AcquisitionValue: decimal.RequireFromString(value),
		ResidualValue:    decimal.Zero,
	}
	require.NoError(t, store.CreateAsset(context.Background(), asset))
	return asset
}

func seedCompletedCorrective(t *testing.T, store *db.MemoryStore, assetID int64, completedAt time.Time, cost string) {
	t.Helper()
	c := decimal.RequireFromString(cost)
	req := &models.MaintenanceRequest{
		AssetID:     assetID,
		BranchID:    branchID,
		RequesterID: 3,
		Type:        models.MaintenanceCorrective,
		Status:      models.MaintenanceCompleted,
		Description: "failure",
		RequestedAt: completedAt.AddDate(0, 0, -2),
		CompletedAt: &completedAt,
		ActualCost:  &c,
	}
	require.NoError(t, store.CreateRequest(context.Background(), req))
}

func TestStatsComposesCountsAndValue(t *testing.T) {
	store := db.NewMemoryStore()
	store.AddAssetType(10, "SERVER")
	store.AddAssetType(20, "VEHICLE")

	seedAsset(t, store, "web-01", "PAT-1", models.AssetActive, 10, "12000")
	seedAsset(t, store, "web-02", "PAT-2", models.AssetActive, 10, "8000")
	seedAsset(t, store, "van-01", "PAT-3", models.AssetInMaintenance, 20, "30000")

	f := New(store, logging.NewNop(), health.DefaultConfig())
	stats, err := f.Stats(context.Background(), branchID, asOf)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalAssets)
	assert.True(t, stats.TotalValue.Equal(decimal.RequireFromString("50000")))
	assert.Equal(t, []models.ChartPoint{
		{Label: "ACTIVE", Count: 2},
		{Label: "IN_MAINTENANCE", Count: 1},
	}, stats.AssetsByStatus)
	assert.Equal(t, []models.ChartPoint{
		{Label: "SERVER", Count: 2},
		{Label: "VEHICLE", Count: 1},
	}, stats.AssetsByType)

	// No history at all: everything is INDETERMINATE, nothing errored.
	assert.Equal(t, int64(3), stats.IndeterminateCount)
	assert.Zero(t, stats.CriticalCount)
	assert.Len(t, stats.RecentAssets, 3)
	assert.Len(t, stats.FailureTrend, 8)
}

func TestStatsUsesPersistedHealthSnapshots(t *testing.T) {
	store := db.NewMemoryStore()
	a := seedAsset(t, store, "chiller", "PAT-10", models.AssetActive, 10, "9000")
	b := seedAsset(t, store, "press", "PAT-11", models.AssetActive, 10, "7000")
	seedAsset(t, store, "mystery", "PAT-12", models.AssetActive, 10, "100")

	require.NoError(t, store.SaveHealth(context.Background(), models.HealthSnapshot{
		AssetID: a.ID, Bucket: models.HealthCritical, ComputedAt: asOf,
	}))
	require.NoError(t, store.SaveHealth(context.Background(), models.HealthSnapshot{
		AssetID: b.ID, Bucket: models.HealthSafe, ComputedAt: asOf,
	}))

	f := New(store, logging.NewNop(), health.DefaultConfig())
	stats, err := f.Stats(context.Background(), branchID, asOf)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.CriticalCount)
	assert.Equal(t, int64(1), stats.SafeCount)
	assert.Equal(t, int64(1), stats.IndeterminateCount)
}

func TestStatsFailureTrendBucketsByWeek(t *testing.T) {
	store := db.NewMemoryStore()
	asset := seedAsset(t, store, "conveyor", "PAT-20", models.AssetActive, 10, "15000")

	// Two failures last week, one five weeks back, one outside the window.
	seedCompletedCorrective(t, store, asset.ID, asOf.AddDate(0, 0, -3), "100")
	seedCompletedCorrective(t, store, asset.ID, asOf.AddDate(0, 0, -5), "150")
	seedCompletedCorrective(t, store, asset.ID, asOf.AddDate(0, 0, -33), "200")
	seedCompletedCorrective(t, store, asset.ID, asOf.AddDate(0, 0, -90), "999")

	f := New(store, logging.NewNop(), health.DefaultConfig())
	stats, err := f.Stats(context.Background(), branchID, asOf)
	require.NoError(t, err)

	require.Len(t, stats.FailureTrend, 8)
	var total int64
	for _, pt := range stats.FailureTrend {
		total += pt.Count
	}
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), stats.FailureTrend[7].Count, "most recent week holds the two fresh failures")
	assert.Equal(t, int64(1), stats.FailureTrend[3].Count, "failure 33 days back lands in the fifth-to-last week")
}

func TestStatsRecentAssetsCarryBookValue(t *testing.T) {
	store := db.NewMemoryStore()
	life := 36
	method := models.DepreciationLinear
	start := asOf.AddDate(-1, 0, 0)
	asset := &models.Asset{
		BranchID:          branchID,
		Name:              "laptop fleet batch",
		PatrimonyTag:      "PAT-30",
		Status:            models.AssetActive,
		AcquisitionDate:   start,
		AcquisitionValue:  decimal.NewFromInt(10000),
		ResidualValue:     decimal.NewFromInt(1000),
		UsefulLifeMonths:  &life,
		Method:            &method,
		DepreciationStart: &start,
	}
	require.NoError(t, store.CreateAsset(context.Background(), asset))

	f := New(store, logging.NewNop(), health.DefaultConfig())
	stats, err := f.Stats(context.Background(), branchID, asOf)
	require.NoError(t, err)

	require.Len(t, stats.RecentAssets, 1)
	got := stats.RecentAssets[0]
	assert.True(t, got.BookValue.Equal(decimal.NewFromInt(7000)), "book = %s", got.BookValue)
	assert.True(t, got.AccumulatedDepreciation.Equal(decimal.NewFromInt(3000)))
}

func TestStatsEmptyBranch(t *testing.T) {
	store := db.NewMemoryStore()
	f := New(store, logging.NewNop(), health.DefaultConfig())

	stats, err := f.Stats(context.Background(), 77, asOf)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalAssets)
	assert.True(t, stats.TotalValue.IsZero())
	assert.Len(t, stats.FailureTrend, 8)
	assert.Empty(t, stats.RecentAssets)
}
