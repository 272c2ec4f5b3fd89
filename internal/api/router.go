package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-service/internal/config"
	"asset-service/internal/dashboard"
	"asset-service/internal/health"
	"asset-service/internal/logging"
	"asset-service/internal/maintenance"
	"asset-service/internal/scheduler"
	"asset-service/internal/ws"
)

func NewRouter(store Store, workflow *maintenance.Service, facade *dashboard.Facade, recomputer *scheduler.Recomputer, hub *ws.Hub, logger *logging.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	classifier := health.Config{MinCompletedCorrectives: cfg.Classifier.MinCompletedCorrectives}
	h := NewHandler(store, workflow, facade, recomputer, hub, classifier, logger)
	api := r.Group(cfg.API.BasePath)
	api.Use(BranchContextMiddleware(logger))
	{
		// Assets
		api.POST("/assets", h.CreateAsset)
		api.GET("/assets", h.ListAssets)
		api.GET("/assets/:id", h.GetAsset)
		api.PATCH("/assets/:id/status", h.UpdateAssetStatus)
		api.GET("/assets/:id/health", h.GetAssetHealth)
		api.GET("/assets/:id/maintenance", h.ListAssetMaintenance)
		api.GET("/assets/:id/maintenance-cost", h.GetAssetMaintenanceCost)
		api.POST("/assets/recompute", h.RecomputeAssets)

		// Maintenance workflow
		api.POST("/maintenance", h.CreateMaintenance)
		api.GET("/maintenance/:id", h.GetMaintenance)
		api.POST("/maintenance/:id/approve", h.ApproveMaintenance)
		api.POST("/maintenance/:id/start", h.StartMaintenance)
		api.POST("/maintenance/:id/complete", h.CompleteMaintenance)
		api.POST("/maintenance/:id/cancel", h.CancelMaintenance)
		api.DELETE("/maintenance/:id", h.DeleteMaintenance)

		// Dashboard
		api.GET("/dashboard/stats", h.GetDashboardStats)
		api.GET("/ws", h.ServeWebsocket)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
