package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/models"
)

// SyncHandler serves synchronization run control endpoints.
type SyncHandler struct {
	// runCtx outlives individual requests so started runs survive the
	// request and stop on daemon shutdown.
	runCtx context.Context
	svc    domain.SyncService
	log    *logrus.Logger
}

// NewSyncHandler creates a SyncHandler. Runs started through it are bound to
// the given application context.
func NewSyncHandler(ctx context.Context, svc domain.SyncService, log *logrus.Logger) *SyncHandler {
	return &SyncHandler{runCtx: ctx, svc: svc, log: log}
}

// Start handles POST /api/v1/sync-configs/:id/start. The run executes in the
// background; progress is observable through the log endpoints.
func (h *SyncHandler) Start(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	running, err := h.svc.RunningSync(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "checking running sync")

		return
	}
	if running != nil {
		respondError(c, http.StatusConflict, ErrCodeConflict, models.ErrSyncAlreadyRunning.Error())

		return
	}

	go func() {
		if _, err := h.svc.StartSync(h.runCtx, id); err != nil {
			h.log.WithError(err).WithField("config_id", id).Error("background sync failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"config_id": id, "status": "started"})
}

// Stop handles POST /api/v1/sync-configs/:id/stop. Cancellation is
// cooperative; the run finishes its current item first.
func (h *SyncHandler) Stop(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.StopSync(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "stopping sync")

		return
	}

	c.JSON(http.StatusOK, gin.H{"config_id": id, "status": "stopping"})
}

// Running handles GET /api/v1/sync-configs/:id/running.
func (h *SyncHandler) Running(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	log, err := h.svc.RunningSync(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "querying running sync")

		return
	}

	if log == nil {
		c.JSON(http.StatusOK, gin.H{"running": false})

		return
	}

	c.JSON(http.StatusOK, gin.H{"running": true, "log": log})
}

// Logs handles GET /api/v1/sync-configs/:id/logs.
func (h *SyncHandler) Logs(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	limit := parseInt(c.DefaultQuery("limit", "50"), 50)

	logs, err := h.svc.ListLogs(c.Request.Context(), id, limit)
	if err != nil {
		respondServiceError(c, h.log, err, "listing sync logs")

		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ActionLogs handles GET /api/v1/sync-logs/:id/actions.
func (h *SyncHandler) ActionLogs(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	actions, err := h.svc.ListActionLogs(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "listing action logs")

		return
	}

	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

// ItemLogs handles GET /api/v1/sync-actions/:id/items.
func (h *SyncHandler) ItemLogs(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	items, err := h.svc.ListItemLogs(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "listing item logs")

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

type resolveItemRequest struct {
	Situation models.Situation  `json:"situation" binding:"required"`
	Action    models.SyncAction `json:"action" binding:"required"`
	UID       string            `json:"uid" binding:"required"`
}

// ResolveItem handles POST /api/v1/sync-configs/:id/resolve. An operator
// picks an explicit action for one remote object, typically after reviewing
// an item that a run left unresolved.
func (h *SyncHandler) ResolveItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req resolveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := models.ValidateAction(req.Situation, req.Action); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	if err := h.svc.ResolveItem(c.Request.Context(), id, req.Situation, req.Action, req.UID); err != nil {
		respondServiceError(c, h.log, err, "resolving item")

		return
	}

	h.log.WithFields(logrus.Fields{
		"config_id": id,
		"situation": req.Situation,
		"action":    req.Action,
		"uid":       req.UID,
	}).Info("item resolved manually")

	c.JSON(http.StatusOK, gin.H{"config_id": id, "uid": req.UID, "status": "resolved"})
}
