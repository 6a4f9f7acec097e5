package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/models"
)

// SyncConfigHandler serves sync configuration CRUD endpoints.
type SyncConfigHandler struct {
	svc domain.SyncConfigService
	log *logrus.Logger
}

// NewSyncConfigHandler creates a SyncConfigHandler.
func NewSyncConfigHandler(svc domain.SyncConfigService, log *logrus.Logger) *SyncConfigHandler {
	return &SyncConfigHandler{svc: svc, log: log}
}

// Create handles POST /api/v1/sync-configs.
func (h *SyncConfigHandler) Create(c *gin.Context) {
	var cfg models.SyncConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	if err := cfg.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	created, err := h.svc.CreateConfig(c.Request.Context(), cfg)
	if err != nil {
		respondServiceError(c, h.log, err, "creating sync config")

		return
	}

	c.JSON(http.StatusCreated, created)
}

// List handles GET /api/v1/sync-configs.
func (h *SyncConfigHandler) List(c *gin.Context) {
	configs, err := h.svc.ListConfigs(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "listing sync configs")

		return
	}

	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// Get handles GET /api/v1/sync-configs/:id.
func (h *SyncConfigHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	cfg, err := h.svc.GetConfig(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "getting sync config")

		return
	}

	c.JSON(http.StatusOK, cfg)
}

// Update handles PUT /api/v1/sync-configs/:id. Rejected while the config has
// a running synchronization.
func (h *SyncConfigHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var cfg models.SyncConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	cfg.ID = id
	if err := cfg.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	updated, err := h.svc.UpdateConfig(c.Request.Context(), cfg)
	if err != nil {
		respondServiceError(c, h.log, err, "updating sync config")

		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/v1/sync-configs/:id.
func (h *SyncConfigHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteConfig(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "deleting sync config")

		return
	}

	c.Status(http.StatusNoContent)
}
