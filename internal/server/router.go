package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Leeloo90/storygraph-backend/internal/handlers"
	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/middleware"
)

type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string
	ProjectHandler *handlers.ProjectHandler
	AssetHandler   *handlers.AssetHandler
	UnitHandler    *handlers.UnitHandler
	HistoryHandler *handlers.HistoryHandler
	SSEHandler     *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(otelgin.Middleware("storygraph"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/sse/stream", cfg.SSEHandler.Stream)

	api := router.Group("/api")
	{
		api.GET("/config", handlers.CanvasConfig)

		api.POST("/assets", cfg.AssetHandler.RegisterAsset)
		api.GET("/assets", cfg.AssetHandler.ListAssets)

		api.POST("/projects", cfg.ProjectHandler.CreateProject)
		api.GET("/projects", cfg.ProjectHandler.ListProjects)
		api.DELETE("/projects/:projectID", cfg.ProjectHandler.DeleteProject)
		api.POST("/projects/:projectID/open", cfg.ProjectHandler.OpenProject)

		api.POST("/projects/:projectID/undo", cfg.HistoryHandler.Undo)
		api.POST("/projects/:projectID/redo", cfg.HistoryHandler.Redo)

		units := api.Group("/projects/:projectID/units")
		{
			units.POST("", cfg.UnitHandler.CreateUnit)
			units.GET("", cfg.UnitHandler.ListUnits)
			units.GET("/:unitID/position", cfg.UnitHandler.GetPosition)
			units.PATCH("/:unitID", cfg.UnitHandler.UpdateUnit)
			units.POST("/:unitID/move", cfg.UnitHandler.MoveUnit)
			units.POST("/:unitID/attach", cfg.UnitHandler.AttachUnit)
			units.POST("/:unitID/detach", cfg.UnitHandler.DetachUnit)
			units.POST("/:unitID/park", cfg.UnitHandler.ParkUnit)
			units.DELETE("/:unitID", cfg.UnitHandler.DeleteUnit)
		}
	}

	return router
}
