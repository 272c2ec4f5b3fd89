package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"asset-service/internal/dashboard"
	"asset-service/internal/health"
	"asset-service/internal/logging"
	"asset-service/internal/maintenance"
	"asset-service/internal/models"
	"asset-service/internal/scheduler"
	"asset-service/internal/ws"
)

// Store is the persistence surface the HTTP layer reads from directly.
// Writes to maintenance requests always go through the workflow service.
type Store interface {
	CreateAsset(ctx context.Context, asset *models.Asset) error
	GetAsset(ctx context.Context, id int64) (*models.Asset, error)
	AssetsByBranch(ctx context.Context, branchID int64) ([]models.Asset, error)
	UpdateAssetStatus(ctx context.Context, id int64, status models.AssetStatus, version int64) error
	LatestDepreciation(ctx context.Context, assetID int64) (*models.DepreciationSnapshot, error)
	LatestHealth(ctx context.Context, assetID int64) (*models.HealthSnapshot, error)
	RequestsByAsset(ctx context.Context, assetID int64) ([]models.MaintenanceRequest, error)
	HasOpenRequest(ctx context.Context, assetID int64) (bool, error)
}

type Handler struct {
	store      Store
	workflow   *maintenance.Service
	facade     *dashboard.Facade
	recomputer *scheduler.Recomputer
	hub        *ws.Hub
	classifier health.Config
	logger     *logging.Logger
}

func NewHandler(store Store, workflow *maintenance.Service, facade *dashboard.Facade, recomputer *scheduler.Recomputer, hub *ws.Hub, classifier health.Config, logger *logging.Logger) *Handler {
	return &Handler{
		store:      store,
		workflow:   workflow,
		facade:     facade,
		recomputer: recomputer,
		hub:        hub,
		classifier: classifier,
		logger:     logger,
	}
}

// pathID parses the :id path parameter, writing a 400 itself on failure.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// branchAsset loads an asset and hides it when it belongs to another
// branch, so cross-branch probing is indistinguishable from a missing id.
func (h *Handler) branchAsset(c *gin.Context, assetID int64) (*models.Asset, error) {
	asset, err := h.store.GetAsset(c.Request.Context(), assetID)
	if err != nil {
		return nil, err
	}
	if asset.BranchID != branchID(c) {
		return nil, &models.NotFoundError{Entity: "asset", ID: assetID}
	}
	return asset, nil
}

// branchRequest loads a maintenance request and applies the same
// branch-scoping rule through its asset.
func (h *Handler) branchRequest(c *gin.Context, requestID int64) (*models.MaintenanceRequest, error) {
	req, err := h.workflow.Get(c.Request.Context(), requestID)
	if err != nil {
		return nil, err
	}
	if _, err := h.branchAsset(c, req.AssetID); err != nil {
		return nil, &models.NotFoundError{Entity: "maintenance request", ID: requestID}
	}
	return req, nil
}
