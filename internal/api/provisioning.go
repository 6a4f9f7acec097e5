package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/models"
)

// ProvisioningHandler serves retry queue inspection and control endpoints.
type ProvisioningHandler struct {
	svc domain.ProvisioningService
	log *logrus.Logger
}

// NewProvisioningHandler creates a ProvisioningHandler.
func NewProvisioningHandler(svc domain.ProvisioningService, log *logrus.Logger) *ProvisioningHandler {
	return &ProvisioningHandler{svc: svc, log: log}
}

// ListOperations handles GET /api/v1/provisioning/operations.
func (h *ProvisioningHandler) ListOperations(c *gin.Context) {
	state := models.OperationState(c.DefaultQuery("state", string(models.OperationCreated)))
	switch state {
	case models.OperationCreated, models.OperationExecuted, models.OperationException, models.OperationNotExecuted:
	default:
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unknown operation state")

		return
	}

	limit := parseInt(c.DefaultQuery("limit", "50"), 50)

	ops, err := h.svc.ListOperations(c.Request.Context(), state, limit)
	if err != nil {
		respondServiceError(c, h.log, err, "listing provisioning operations")

		return
	}

	c.JSON(http.StatusOK, gin.H{"operations": ops})
}

// QueueDepth handles GET /api/v1/provisioning/queue.
func (h *ProvisioningHandler) QueueDepth(c *gin.Context) {
	depth, err := h.svc.QueueDepth(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "reading queue depth")

		return
	}

	c.JSON(http.StatusOK, gin.H{"depth": depth})
}

// RetryBatch handles POST /api/v1/provisioning/batches/:id/retry. It clears
// the batch backoff so the next worker poll picks it up immediately.
func (h *ProvisioningHandler) RetryBatch(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.RetryNow(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "retrying batch")

		return
	}

	h.log.WithField("batch_id", id).Info("batch retry requested")

	c.JSON(http.StatusOK, gin.H{"batch_id": id, "status": "scheduled"})
}

// ExecuteBatch handles POST /api/v1/provisioning/batches/:id/execute. It runs
// the batch synchronously, bypassing the poll interval.
func (h *ProvisioningHandler) ExecuteBatch(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.ExecuteBatch(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "executing batch")

		return
	}

	c.JSON(http.StatusOK, gin.H{"batch_id": id, "status": "executed"})
}
