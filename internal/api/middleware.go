package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asset-service/internal/logging"
)

const branchContextKey = "branch_id"

func RequestLoggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		logger.Infof("Request: %s %s, Status: %d, Latency: %v", method, path, status, latency)
	}
}

// BranchContextMiddleware resolves the caller's branch from the X-Branch-ID
// header. Every route under the API group is scoped to a single branch.
func BranchContextMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Branch-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing X-Branch-ID header"})
			return
		}
		branchID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || branchID <= 0 {
			logger.Warnf("Rejected request with invalid branch header %q", raw)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Branch-ID header"})
			return
		}
		c.Set(branchContextKey, branchID)
		c.Next()
	}
}

func branchID(c *gin.Context) int64 {
	return c.GetInt64(branchContextKey)
}
