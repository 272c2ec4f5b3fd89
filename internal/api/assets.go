package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"asset-service/internal/depreciation"
	"asset-service/internal/health"
	"asset-service/internal/models"
)

type createAssetRequest struct {
	Name              string                     `json:"name"`
	TypeID            int64                      `json:"type_id"`
	PatrimonyTag      string                     `json:"patrimony_tag"`
	LocationID        int64                      `json:"location_id"`
	ResponsibleID     int64                      `json:"responsible_id"`
	SupplierID        int64                      `json:"supplier_id"`
	AcquisitionDate   time.Time                  `json:"acquisition_date"`
	AcquisitionValue  decimal.Decimal            `json:"acquisition_value"`
	ResidualValue     decimal.Decimal            `json:"residual_value"`
	UsefulLifeMonths  *int                       `json:"useful_life_months"`
	Method            *models.DepreciationMethod `json:"depreciation_method"`
	DepreciationStart *time.Time                 `json:"depreciation_start"`
}

func (h *Handler) CreateAsset(c *gin.Context) {
	var in createAssetRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if in.Name == "" {
		writeError(c, h.logger, &models.ValidationError{Field: "name", Reason: "must not be empty"})
		return
	}
	if in.PatrimonyTag == "" {
		writeError(c, h.logger, &models.ValidationError{Field: "patrimony_tag", Reason: "must not be empty"})
		return
	}
	if in.AcquisitionValue.IsNegative() {
		writeError(c, h.logger, &models.ValidationError{Field: "acquisition_value", Reason: "must not be negative"})
		return
	}
	if in.ResidualValue.IsNegative() {
		writeError(c, h.logger, &models.ValidationError{Field: "residual_value", Reason: "must not be negative"})
		return
	}
	// Holds for every asset, depreciable or not.
	if in.AcquisitionValue.LessThan(in.ResidualValue) {
		writeError(c, h.logger, &models.ValidationError{Field: "residual_value", Reason: "residual value exceeds acquisition value"})
		return
	}
	if in.Method != nil && *in.Method != models.DepreciationLinear && *in.Method != models.DepreciationAccelerated {
		writeError(c, h.logger, &models.ValidationError{Field: "depreciation_method", Reason: "must be LINEAR or ACCELERATED"})
		return
	}

	asset := models.Asset{
		BranchID:          branchID(c),
		Name:              in.Name,
		TypeID:            in.TypeID,
		PatrimonyTag:      in.PatrimonyTag,
		LocationID:        in.LocationID,
		ResponsibleID:     in.ResponsibleID,
		SupplierID:        in.SupplierID,
		Status:            models.AssetActive,
		AcquisitionDate:   in.AcquisitionDate,
		AcquisitionValue:  in.AcquisitionValue,
		ResidualValue:     in.ResidualValue,
		UsefulLifeMonths:  in.UsefulLifeMonths,
		Method:            in.Method,
		DepreciationStart: in.DepreciationStart,
	}

	// Reject inconsistent depreciation parameters before anything is stored.
	if _, err := depreciation.Compute(&asset, time.Now()); err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.store.CreateAsset(c.Request.Context(), &asset); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.logger.Infof("Registered asset %d (%s) in branch %d", asset.ID, asset.PatrimonyTag, asset.BranchID)
	c.JSON(http.StatusCreated, h.readModel(c.Request.Context(), &asset, time.Now()))
}

func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.store.AssetsByBranch(c.Request.Context(), branchID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	asOf := time.Now()
	out := make([]models.AssetReadModel, 0, len(assets))
	for i := range assets {
		out = append(out, h.readModel(c.Request.Context(), &assets[i], asOf))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAsset(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	asset, err := h.branchAsset(c, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.readModel(c.Request.Context(), asset, time.Now()))
}

type updateStatusRequest struct {
	Status models.AssetStatus `json:"status"`
}

// UpdateAssetStatus moves an asset between the operator-settable statuses.
// IN_MAINTENANCE is owned by the workflow and cannot be set here, and no
// status change is allowed while a maintenance request is open.
func (h *Handler) UpdateAssetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in updateStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	switch in.Status {
	case models.AssetActive, models.AssetInactive, models.AssetDecommissioned:
	default:
		writeError(c, h.logger, &models.ValidationError{Field: "status", Reason: "must be ACTIVE, INACTIVE or DECOMMISSIONED"})
		return
	}

	asset, err := h.branchAsset(c, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	open, err := h.store.HasOpenRequest(ctx, asset.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if open {
		writeError(c, h.logger, &models.ConflictError{Entity: "asset", ID: asset.ID, Reason: "asset has an open maintenance request"})
		return
	}

	if err := h.store.UpdateAssetStatus(ctx, asset.ID, in.Status, asset.Version); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.logger.Infof("Asset %d status changed to %s", asset.ID, in.Status)

	updated, err := h.store.GetAsset(ctx, asset.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.readModel(ctx, updated, time.Now()))
}

// GetAssetHealth serves the latest persisted snapshot, classifying on the
// fly when the batch has not reached this asset yet.
func (h *Handler) GetAssetHealth(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	asset, err := h.branchAsset(c, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	snap, err := h.store.LatestHealth(ctx, asset.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if snap == nil {
		history, err := h.store.RequestsByAsset(ctx, asset.ID)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		open, err := h.store.HasOpenRequest(ctx, asset.ID)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		fresh := health.Classify(asset, history, nil, open, time.Now(), h.classifier)
		snap = &fresh
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) ListAssetMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.branchAsset(c, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	requests, err := h.workflow.ListByAsset(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) GetAssetMaintenanceCost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.branchAsset(c, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	total, err := h.workflow.TotalCompletedCost(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "total_completed_cost": total})
}

// RecomputeAssets triggers the depreciation and health batch outside its
// nightly schedule and reports the run summary.
func (h *Handler) RecomputeAssets(c *gin.Context) {
	summary := h.recomputer.Run(c.Request.Context(), time.Now())
	c.JSON(http.StatusOK, summary)
}

// readModel decorates an asset with its financial triple, preferring the
// batch-persisted snapshot and recomputing when none exists yet. A stored
// asset whose parameters fail to compute is served with a zero triple
// rather than failing the whole response.
func (h *Handler) readModel(ctx context.Context, asset *models.Asset, asOf time.Time) models.AssetReadModel {
	rm := models.AssetReadModel{Asset: *asset}

	snap, err := h.store.LatestDepreciation(ctx, asset.ID)
	if err != nil {
		h.logger.Warnf("Depreciation lookup failed for asset %d: %v", asset.ID, err)
	}
	if snap != nil {
		rm.MonthlyRate = snap.MonthlyRate
		rm.AccumulatedDepreciation = snap.Accumulated
		rm.BookValue = snap.BookValue
		return rm
	}

	result, err := depreciation.Compute(asset, asOf)
	if err != nil {
		h.logger.Warnf("Depreciation compute failed for asset %d: %v", asset.ID, err)
		return rm
	}
	rm.MonthlyRate = result.MonthlyRate
	rm.AccumulatedDepreciation = result.Accumulated
	rm.BookValue = result.BookValue
	return rm
}
