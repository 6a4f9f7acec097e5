package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/crossidm/idsync/internal/domain"
	"github.com/crossidm/idsync/internal/models"
)

// SystemHandler serves system and attribute mapping endpoints.
type SystemHandler struct {
	svc domain.SystemService
	log *logrus.Logger
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(svc domain.SystemService, log *logrus.Logger) *SystemHandler {
	return &SystemHandler{svc: svc, log: log}
}

type createSystemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Virtual     bool   `json:"virtual"`
}

// Create handles POST /api/v1/systems.
func (h *SystemHandler) Create(c *gin.Context) {
	var req createSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	system, err := h.svc.CreateSystem(c.Request.Context(), req.Name, req.Description, req.Virtual)
	if err != nil {
		respondServiceError(c, h.log, err, "creating system")

		return
	}

	c.JSON(http.StatusCreated, system)
}

// List handles GET /api/v1/systems.
func (h *SystemHandler) List(c *gin.Context) {
	systems, err := h.svc.ListSystems(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "listing systems")

		return
	}

	c.JSON(http.StatusOK, gin.H{"systems": systems})
}

// Get handles GET /api/v1/systems/:id.
func (h *SystemHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	system, err := h.svc.GetSystem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, "getting system")

		return
	}

	c.JSON(http.StatusOK, system)
}

// Disable handles POST /api/v1/systems/:id/disable. A disabled system keeps
// accepting provisioning operations but the worker postpones its batches.
func (h *SystemHandler) Disable(c *gin.Context) {
	h.setDisabled(c, true)
}

// Enable handles POST /api/v1/systems/:id/enable.
func (h *SystemHandler) Enable(c *gin.Context) {
	h.setDisabled(c, false)
}

func (h *SystemHandler) setDisabled(c *gin.Context, disabled bool) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.SetSystemDisabled(c.Request.Context(), id, disabled); err != nil {
		respondServiceError(c, h.log, err, "updating system state")

		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "disabled": disabled})
}

// Delete handles DELETE /api/v1/systems/:id.
func (h *SystemHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteSystem(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "deleting system")

		return
	}

	c.Status(http.StatusNoContent)
}

// CreateMapping handles POST /api/v1/systems/:id/mappings.
func (h *SystemHandler) CreateMapping(c *gin.Context) {
	systemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var m models.AttributeMapping
	if err := c.ShouldBindJSON(&m); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	m.SystemID = systemID
	if m.Name == "" || m.Property == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "name and property are required")

		return
	}
	if !m.EntityType.Valid() {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "unknown entity_type")

		return
	}

	created, err := h.svc.CreateMapping(c.Request.Context(), m)
	if err != nil {
		respondServiceError(c, h.log, err, "creating mapping")

		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListMappings handles GET /api/v1/systems/:id/mappings.
func (h *SystemHandler) ListMappings(c *gin.Context) {
	systemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	mappings, err := h.svc.ListMappings(c.Request.Context(), systemID)
	if err != nil {
		respondServiceError(c, h.log, err, "listing mappings")

		return
	}

	c.JSON(http.StatusOK, gin.H{"mappings": mappings})
}

// UpdateMapping handles PUT /api/v1/mappings/:id.
func (h *SystemHandler) UpdateMapping(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var m models.AttributeMapping
	if err := c.ShouldBindJSON(&m); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	m.ID = id

	updated, err := h.svc.UpdateMapping(c.Request.Context(), m)
	if err != nil {
		respondServiceError(c, h.log, err, "updating mapping")

		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteMapping handles DELETE /api/v1/mappings/:id.
func (h *SystemHandler) DeleteMapping(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteMapping(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, "deleting mapping")

		return
	}

	c.Status(http.StatusNoContent)
}
