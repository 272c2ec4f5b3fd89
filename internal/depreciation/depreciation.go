// Package depreciation computes the derived financial triple of an asset.
// Computation is pure: the evaluation timestamp is always injected, so two
// calls with the same inputs produce identical results.
package depreciation

import (
	"time"

	"github.com/shopspring/decimal"

	"asset-service/internal/models"
)

var two = decimal.NewFromInt(2)

// Result is the derived financial triple of an asset at a point in time.
type Result struct {
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	Accumulated decimal.Decimal `json:"accumulated"`
	BookValue   decimal.Decimal `json:"book_value"`
}

// Compute evaluates the asset's depreciation as of the given timestamp.
// Assets without a method or a useful life are non-depreciable and keep
// their full acquisition value. Decommissioned assets stop accruing at
// their last computed state; callers are expected not to refresh them.
func Compute(asset *models.Asset, asOf time.Time) (Result, error) {
	if asset.Method != nil {
		if asset.AcquisitionValue.LessThan(asset.ResidualValue) {
			return Result{}, &models.ValidationError{
				Field:  "residual_value",
				Reason: "residual value exceeds acquisition value",
			}
		}
		if asset.UsefulLifeMonths != nil && *asset.UsefulLifeMonths <= 0 {
			return Result{}, &models.ValidationError{
				Field:  "useful_life_months",
				Reason: "useful life must be positive",
			}
		}
	}

	if !asset.Depreciable() {
		return Result{
			MonthlyRate: decimal.Zero,
			Accumulated: decimal.Zero,
			BookValue:   asset.AcquisitionValue,
		}, nil
	}

	months := monthsBetween(asset.DepreciationBase(), asOf)
	life := int64(*asset.UsefulLifeMonths)
	depreciable := asset.AcquisitionValue.Sub(asset.ResidualValue)

	switch *asset.Method {
	case models.DepreciationAccelerated:
		return computeAccelerated(asset, depreciable, life, months), nil
	default:
		return computeLinear(asset, depreciable, life, months), nil
	}
}

func computeLinear(asset *models.Asset, depreciable decimal.Decimal, life, months int64) Result {
	rate := depreciable.Div(decimal.NewFromInt(life)).Round(6)
	accumulated := rate.Mul(decimal.NewFromInt(months))
	if accumulated.GreaterThan(depreciable) {
		accumulated = depreciable
	}
	accumulated = accumulated.Round(2)
	return Result{
		MonthlyRate: rate,
		Accumulated: accumulated,
		BookValue:   asset.AcquisitionValue.Sub(accumulated),
	}
}

// computeAccelerated applies double-declining balance month over month:
// each month depreciates the remaining book value by 2/life, clamped so
// the book value never drops below the residual value.
func computeAccelerated(asset *models.Asset, depreciable decimal.Decimal, life, months int64) Result {
	factor := two.Div(decimal.NewFromInt(life))
	book := asset.AcquisitionValue
	for m := int64(0); m < months; m++ {
		if book.LessThanOrEqual(asset.ResidualValue) {
			break
		}
		charge := book.Mul(factor)
		if book.Sub(charge).LessThan(asset.ResidualValue) {
			charge = book.Sub(asset.ResidualValue)
		}
		book = book.Sub(charge)
	}
	book = book.Round(2)
	if book.LessThan(asset.ResidualValue) {
		book = asset.ResidualValue
	}

	// Rate reported is the charge the next month would take.
	rate := decimal.Zero
	if book.GreaterThan(asset.ResidualValue) {
		rate = book.Mul(factor)
		if book.Sub(rate).LessThan(asset.ResidualValue) {
			rate = book.Sub(asset.ResidualValue)
		}
		rate = rate.Round(6)
	}

	return Result{
		MonthlyRate: rate,
		Accumulated: asset.AcquisitionValue.Sub(book),
		BookValue:   book,
	}
}

// monthsBetween counts whole calendar months from start to end, truncated
// and never negative.
func monthsBetween(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	months := int64(end.Year()-start.Year())*12 + int64(end.Month()-start.Month())
	// Back off one month when the day of month has not been reached yet.
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
