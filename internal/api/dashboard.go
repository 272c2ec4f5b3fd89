package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.facade.Stats(c.Request.Context(), branchID(c), time.Now())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ServeWebsocket upgrades the connection and subscribes it to the
// caller's branch feed of maintenance lifecycle events.
func (h *Handler) ServeWebsocket(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request, branchID(c)); err != nil {
		h.logger.Errorf("Websocket upgrade failed for branch %d: %v", branchID(c), err)
	}
}
