package models

// AssetStatus is the operational state of an asset.
type AssetStatus string

const (
	AssetActive         AssetStatus = "ACTIVE"
	AssetInMaintenance  AssetStatus = "IN_MAINTENANCE"
	AssetInactive       AssetStatus = "INACTIVE"
	AssetDecommissioned AssetStatus = "DECOMMISSIONED"
)

// DepreciationMethod selects how book value decays over the useful life.
type DepreciationMethod string

const (
	DepreciationLinear      DepreciationMethod = "LINEAR"
	DepreciationAccelerated DepreciationMethod = "ACCELERATED"
)

// MaintenanceType distinguishes planned work from failure response.
type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "PREVENTIVE"
	MaintenanceCorrective MaintenanceType = "CORRECTIVE"
)

// MaintenanceStatus is the lifecycle state of a maintenance request.
type MaintenanceStatus string

const (
	MaintenanceRequested  MaintenanceStatus = "REQUESTED"
	MaintenanceApproved   MaintenanceStatus = "APPROVED"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceCancelled  MaintenanceStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s MaintenanceStatus) Terminal() bool {
	return s == MaintenanceCompleted || s == MaintenanceCancelled
}

// HealthBucket is the urgency classification of an asset.
type HealthBucket string

const (
	HealthCritical      HealthBucket = "CRITICAL"
	HealthAlert         HealthBucket = "ALERT"
	HealthSafe          HealthBucket = "SAFE"
	HealthIndeterminate HealthBucket = "INDETERMINATE"
)
