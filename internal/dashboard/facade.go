// Package dashboard composes depreciation, health, and maintenance data
// into the aggregate read model the dashboard consumes. Everything here is
// read-only and tolerates partial data: an asset the facade cannot
// classify counts as INDETERMINATE instead of failing the whole call.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"asset-service/internal/depreciation"
	"asset-service/internal/health"
	"asset-service/internal/logging"
	"asset-service/internal/models"
)

const (
	trendWeeks       = 8
	recentAssetLimit = 5
)

// Store is the read surface the facade aggregates over.
type Store interface {
	AssetsByBranch(ctx context.Context, branchID int64) ([]models.Asset, error)
	RequestsByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error)
	HasOpenRequest(ctx context.Context, assetID int64) (bool, error)
	LatestHealth(ctx context.Context, assetID int64) (*models.HealthSnapshot, error)
	AssetTypeName(ctx context.Context, id int64) (string, error)
	CompletedCorrectivesByBranchSince(ctx context.Context, branchID int64, since time.Time) ([]time.Time, error)
}

// Facade aggregates dashboard statistics for a branch.
type Facade struct {
	store      Store
	logger     *logging.Logger
	classifier health.Config
}

// New constructs a Facade.
func New(store Store, logger *logging.Logger, classifier health.Config) *Facade {
	return &Facade{store: store, logger: logger, classifier: classifier}
}

// Stats builds the dashboard read model for the branch as of the given
// timestamp.
func (f *Facade) Stats(ctx context.Context, branchID int64, asOf time.Time) (*models.DashboardStats, error) {
	assets, err := f.store.AssetsByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalAssets: int64(len(assets)),
		TotalValue:  decimal.Zero,
		GeneratedAt: asOf,
	}

	byStatus := make(map[string]int64)
	byType := make(map[string]int64)
	for _, asset := range assets {
		stats.TotalValue = stats.TotalValue.Add(asset.AcquisitionValue)
		byStatus[string(asset.Status)]++
		byType[f.typeName(ctx, asset.TypeID)]++

		switch f.bucketFor(ctx, &asset, asOf) {
		case models.HealthCritical:
			stats.CriticalCount++
		case models.HealthAlert:
			stats.AlertCount++
		case models.HealthSafe:
			stats.SafeCount++
		default:
			stats.IndeterminateCount++
		}
	}
	stats.AssetsByStatus = toChartPoints(byStatus)
	stats.AssetsByType = toChartPoints(byType)
	stats.RecentAssets = f.recentAssets(assets, asOf)

	trend, err := f.failureTrend(ctx, branchID, asOf)
	if err != nil {
		// Partial data beats no dashboard.
		f.logger.Warnf("Failure trend unavailable for branch %d: %v", branchID, err)
		trend = emptyTrend(asOf)
	}
	stats.FailureTrend = trend

	return stats, nil
}

// bucketFor resolves the asset's bucket, preferring the persisted snapshot
// and recomputing only when none exists. Any failure degrades to
// INDETERMINATE.
func (f *Facade) bucketFor(ctx context.Context, asset *models.Asset, asOf time.Time) models.HealthBucket {
	snap, err := f.store.LatestHealth(ctx, asset.ID)
	if err != nil {
		f.logger.Warnf("Health lookup failed for asset %d: %v", asset.ID, err)
		return models.HealthIndeterminate
	}

	// A persisted snapshot also serves the frozen-bucket rule while a
	// request is open.
	if snap != nil {
		return snap.Bucket
	}

	open, err := f.store.HasOpenRequest(ctx, asset.ID)
	if err != nil {
		f.logger.Warnf("Open-request lookup failed for asset %d: %v", asset.ID, err)
		return models.HealthIndeterminate
	}
	history, err := f.store.RequestsByAsset(ctx, asset.ID)
	if err != nil {
		f.logger.Warnf("History lookup failed for asset %d: %v", asset.ID, err)
		return models.HealthIndeterminate
	}
	return health.Classify(asset, history, nil, open, asOf, f.classifier).Bucket
}

func (f *Facade) typeName(ctx context.Context, typeID int64) string {
	name, err := f.store.AssetTypeName(ctx, typeID)
	if err != nil || name == "" {
		return "UNKNOWN"
	}
	return name
}

// recentAssets returns the newest registrations with their derived
// financial triple.
func (f *Facade) recentAssets(assets []models.Asset, asOf time.Time) []models.AssetReadModel {
	sorted := make([]models.Asset, len(assets))
	copy(sorted, assets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > recentAssetLimit {
		sorted = sorted[:recentAssetLimit]
	}

	out := make([]models.AssetReadModel, 0, len(sorted))
	for _, asset := range sorted {
		read := models.AssetReadModel{Asset: asset, BookValue: asset.AcquisitionValue}
		if res, err := depreciation.Compute(&asset, asOf); err == nil {
			read.MonthlyRate = res.MonthlyRate
			read.AccumulatedDepreciation = res.Accumulated
			read.BookValue = res.BookValue
		} else {
			f.logger.Warnf("Depreciation failed for asset %d: %v", asset.ID, err)
		}
		out = append(out, read)
	}
	return out
}

// failureTrend buckets completed CORRECTIVE maintenances of the trailing
// eight weeks, oldest bucket first, labelled by week start (dd/MM).
func (f *Facade) failureTrend(ctx context.Context, branchID int64, asOf time.Time) ([]models.ChartPoint, error) {
	since := asOf.AddDate(0, 0, -7*trendWeeks)
	completions, err := f.store.CompletedCorrectivesByBranchSince(ctx, branchID, since)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64)
	for _, at := range completions {
		if at.After(asOf) {
			continue
		}
		week := trendWeeks - 1 - int(asOf.Sub(at).Hours()/(24*7))
		if week >= 0 && week < trendWeeks {
			counts[week]++
		}
	}

	trend := emptyTrend(asOf)
	for i := range trend {
		trend[i].Count = counts[i]
	}
	return trend, nil
}

func emptyTrend(asOf time.Time) []models.ChartPoint {
	trend := make([]models.ChartPoint, trendWeeks)
	for i := 0; i < trendWeeks; i++ {
		weekStart := asOf.AddDate(0, 0, -7*(trendWeeks-i))
		trend[i] = models.ChartPoint{Label: weekStart.Format("02/01")}
	}
	return trend
}

func toChartPoints(counts map[string]int64) []models.ChartPoint {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]models.ChartPoint, 0, len(labels))
	for _, label := range labels {
		out = append(out, models.ChartPoint{Label: label, Count: counts[label]})
	}
	return out
}
