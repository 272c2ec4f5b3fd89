package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is a tracked piece of equipment with financial and operational
// attributes. Depreciation fields are optional: an asset without a method
// or a useful life never depreciates.
type Asset struct {
	ID                int64               `json:"id"`
	BranchID          int64               `json:"branch_id"`
	Name              string              `json:"name"`
	TypeID            int64               `json:"type_id"`
	PatrimonyTag      string              `json:"patrimony_tag"`
	LocationID        int64               `json:"location_id"`
	ResponsibleID     int64               `json:"responsible_id"`
	SupplierID        int64               `json:"supplier_id"`
	Status            AssetStatus         `json:"status"`
	AcquisitionDate   time.Time           `json:"acquisition_date"`
	AcquisitionValue  decimal.Decimal     `json:"acquisition_value"`
	ResidualValue     decimal.Decimal     `json:"residual_value"`
	UsefulLifeMonths  *int                `json:"useful_life_months"`
	Method            *DepreciationMethod `json:"depreciation_method"`
	DepreciationStart *time.Time          `json:"depreciation_start"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Version           int64               `json:"version"`
}

// DepreciationBase returns the date depreciation accrues from, defaulting
// to the acquisition date when no explicit start was set.
func (a *Asset) DepreciationBase() time.Time {
	if a.DepreciationStart != nil {
		return *a.DepreciationStart
	}
	return a.AcquisitionDate
}

// Depreciable reports whether the asset carries everything needed to
// accrue depreciation.
func (a *Asset) Depreciable() bool {
	return a.Method != nil && a.UsefulLifeMonths != nil
}

// DepreciationSnapshot is the financial triple the nightly batch persists
// for an asset. Read paths prefer it over recomputing and fall back to a
// fresh computation when the batch has not reached the asset yet.
type DepreciationSnapshot struct {
	AssetID     int64           `json:"asset_id"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	Accumulated decimal.Decimal `json:"accumulated_depreciation"`
	BookValue   decimal.Decimal `json:"book_value"`
	AsOf        time.Time       `json:"as_of"`
}

// AssetReadModel is the asset plus its derived financial triple, as served
// by the read endpoints.
type AssetReadModel struct {
	Asset
	MonthlyRate             decimal.Decimal `json:"monthly_depreciation_rate"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	BookValue               decimal.Decimal `json:"current_book_value"`
}
