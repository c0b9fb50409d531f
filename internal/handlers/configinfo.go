package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Leeloo90/storygraph-backend/internal/graph"
	"github.com/Leeloo90/storygraph-backend/internal/types"
)

// GET /api/config
// Serves the canvas scale constants so the rendering layer converts
// pixels with exactly the values the drift solver uses.
func CanvasConfig(c *gin.Context) {
	RespondOK(c, gin.H{
		"pixels_per_second": graph.PixelsPerSecond,
		"pixels_per_track":  graph.PixelsPerTrack,
		"connection_modes":  []types.ConnectionMode{types.ModeStack, types.ModePrepend, types.ModeAppend},
	})
}
