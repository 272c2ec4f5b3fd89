package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"asset-service/internal/maintenance"
	"asset-service/internal/models"
)

func (h *Handler) CreateMaintenance(c *gin.Context) {
	var in maintenance.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := h.branchAsset(c, in.AssetID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	req, err := h.workflow.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) GetMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := h.branchRequest(c, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) ApproveMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.branchRequest(c, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	req, err := h.workflow.Approve(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type startRequest struct {
	TechnicianID int64 `json:"technician_id"`
}

func (h *Handler) StartMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in startRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := h.branchRequest(c, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	req, err := h.workflow.Start(c.Request.Context(), id, in.TechnicianID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type completeRequest struct {
	ServiceDescription string          `json:"service_description"`
	ActualCost         decimal.Decimal `json:"actual_cost"`
	ExecutionDuration  string          `json:"execution_duration"`
}

func (h *Handler) CompleteMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in completeRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	duration, err := time.ParseDuration(in.ExecutionDuration)
	if err != nil {
		writeError(c, h.logger, &models.ValidationError{Field: "execution_duration", Reason: "must be a duration string such as 2h30m"})
		return
	}
	if _, err := h.branchRequest(c, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	req, err := h.workflow.Complete(c.Request.Context(), id, maintenance.CompleteInput{
		ServiceDescription: in.ServiceDescription,
		ActualCost:         in.ActualCost,
		ExecutionDuration:  duration,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in cancelRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := h.branchRequest(c, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	req, err := h.workflow.Cancel(c.Request.Context(), id, in.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) DeleteMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.branchRequest(c, id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.workflow.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
