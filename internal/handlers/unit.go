package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/history"
	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/services"
)

type UnitHandler struct {
	log          *logger.Logger
	storyService services.StoryService
}

func NewUnitHandler(log *logger.Logger, ssvc services.StoryService) *UnitHandler {
	return &UnitHandler{
		log:          log.With("handler", "UnitHandler"),
		storyService: ssvc,
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/projects/:projectID/units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	var input services.CreateUnitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	unit, err := h.storyService.CreateUnit(c.Request.Context(), projectID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"unit": unit})
}

// GET /api/projects/:projectID/units
// Lists units with their resolved timeline positions.
func (h *UnitHandler) ListUnits(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	views, err := h.storyService.ListUnits(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"units": views})
}

// GET /api/projects/:projectID/units/:unitID/position
func (h *UnitHandler) GetPosition(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	unitID, ok := pathUUID(c, "unitID")
	if !ok {
		return
	}
	position, err := h.storyService.ResolveUnit(c.Request.Context(), projectID, unitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"position": position})
}

// PATCH /api/projects/:projectID/units/:unitID
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	unitID, ok := pathUUID(c, "unitID")
	if !ok {
		return
	}
	var patch history.FieldPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	unit, err := h.storyService.UpdateUnit(c.Request.Context(), projectID, unitID, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"unit": unit})
}

type moveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// POST /api/projects/:projectID/units/:unitID/move
func (h *UnitHandler) MoveUnit(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	unitID, ok := pathUUID(c, "unitID")
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	unit, err := h.storyService.MoveUnit(c.Request.Context(), projectID, unitID, req.X, req.Y)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"unit": unit})
}

// POST /api/projects/:projectID/units/:unitID/attach
// A rejected attachment is 422 with the reason for inline display.
func (h *UnitHandler) AttachUnit(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	unitID, ok := pathUUID(c, "unitID")
	if !ok {
		return
	}
	var input services.AttachInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	verdict, unit, err := h.storyService.AttachUnit(c.Request.Context(), projectID, unitID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !verdict.Accepted {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"verdict": verdict})
		return
	}
	RespondOK(c, gin.H{"verdict": verdict, "unit": unit})
}

// POST /api/projects/:projectID/units/:unitID/detach
func (h *UnitHandler) DetachUnit(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	unitID, ok := pathUUID(c, "unitID")
	if !ok {
		return
	}
	unit, err := h.storyService.DetachUnit(c.Request.Context(), projectID, unitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"unit": unit})
}

type parkRequest struct {
	AtticParentID *uuid.UUID `json:"attic_parent_id"`
}

// POST /api/projects/:projectID/units/:unitID/park
// A nil attic_parent_id unparks the unit.
func (h *UnitHandler) ParkUnit(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	unitID, ok := pathUUID(c, "unitID")
	if !ok {
		return
	}
	var req parkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	unit, err := h.storyService.ParkUnit(c.Request.Context(), projectID, unitID, req.AtticParentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"unit": unit})
}

// DELETE /api/projects/:projectID/units/:unitID
func (h *UnitHandler) DeleteUnit(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	unitID, ok := pathUUID(c, "unitID")
	if !ok {
		return
	}
	if err := h.storyService.DeleteUnit(c.Request.Context(), projectID, unitID); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": unitID})
}
