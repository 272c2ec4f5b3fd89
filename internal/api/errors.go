package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-service/internal/logging"
	"asset-service/internal/models"
)

// writeError maps the domain error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an internal failure and gets logged with detail
// while the client sees a generic message.
func writeError(c *gin.Context, logger *logging.Logger, err error) {
	var validation *models.ValidationError
	var notFound *models.NotFoundError
	var transition *models.InvalidTransitionError
	var conflict *models.ConflictError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"error":          transition.Error(),
			"current_status": transition.Current,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		logger.Errorf("Unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
