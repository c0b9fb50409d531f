package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/services"
)

type HistoryHandler struct {
	log          *logger.Logger
	storyService services.StoryService
}

func NewHistoryHandler(log *logger.Logger, ssvc services.StoryService) *HistoryHandler {
	return &HistoryHandler{
		log:          log.With("handler", "HistoryHandler"),
		storyService: ssvc,
	}
}

// POST /api/projects/:projectID/undo
// Undoing with an empty history is a no-op, reported via "applied".
func (h *HistoryHandler) Undo(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	state, err := h.storyService.Undo(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"history": state})
}

// POST /api/projects/:projectID/redo
func (h *HistoryHandler) Redo(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	state, err := h.storyService.Redo(c.Request.Context(), projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"history": state})
}
