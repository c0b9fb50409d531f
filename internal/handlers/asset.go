package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/services"
)

type AssetHandler struct {
	log          *logger.Logger
	assetService services.AssetService
}

func NewAssetHandler(log *logger.Logger, asvc services.AssetService) *AssetHandler {
	return &AssetHandler{
		log:          log.With("handler", "AssetHandler"),
		assetService: asvc,
	}
}

type registerAssetRequest struct {
	Name      string  `json:"name" binding:"required"`
	MediaType string  `json:"media_type"`
	Duration  float64 `json:"duration"`
}

// POST /api/assets
// Registers media that an external ingest has already probed.
func (h *AssetHandler) RegisterAsset(c *gin.Context) {
	var req registerAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	asset, err := h.assetService.RegisterAsset(c.Request.Context(), req.Name, req.MediaType, req.Duration)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GET /api/assets
func (h *AssetHandler) ListAssets(c *gin.Context) {
	assets, err := h.assetService.ListAssets(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assets": assets})
}
