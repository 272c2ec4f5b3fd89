package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChartPoint is one labelled value in a dashboard series.
type ChartPoint struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// DashboardStats is the aggregate read model served to the dashboard,
// scoped to a single branch.
type DashboardStats struct {
	TotalAssets        int64            `json:"total_assets"`
	TotalValue         decimal.Decimal  `json:"total_value"`
	AssetsByStatus     []ChartPoint     `json:"assets_by_status"`
	AssetsByType       []ChartPoint     `json:"assets_by_type"`
	CriticalCount      int64            `json:"critical_count"`
	AlertCount         int64            `json:"alert_count"`
	SafeCount          int64            `json:"safe_count"`
	IndeterminateCount int64            `json:"indeterminate_count"`
	RecentAssets       []AssetReadModel `json:"recent_assets"`
	FailureTrend       []ChartPoint     `json:"failure_trend"`
	GeneratedAt        time.Time        `json:"generated_at"`
}
