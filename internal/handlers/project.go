package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/services"
)

type ProjectHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
	storyService   services.StoryService
}

func NewProjectHandler(log *logger.Logger, psvc services.ProjectService, ssvc services.StoryService) *ProjectHandler {
	return &ProjectHandler{
		log:            log.With("handler", "ProjectHandler"),
		projectService: psvc,
		storyService:   ssvc,
	}
}

type createProjectRequest struct {
	Title string `json:"title" binding:"required"`
}

// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	project, err := h.projectService.CreateProject(c.Request.Context(), req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// GET /api/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"projects": projects})
}

// POST /api/projects/:projectID/open
// (Re)loads the project session; the command log resets here.
func (h *ProjectHandler) OpenProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_project_id", err)
		return
	}
	if err := h.storyService.OpenProject(c.Request.Context(), projectID); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"opened": projectID})
}

// DELETE /api/projects/:projectID
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_project_id", err)
		return
	}
	if err := h.projectService.DeleteProject(c.Request.Context(), projectID); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": projectID})
}
