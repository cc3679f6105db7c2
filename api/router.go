package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/dlqueue/api/handlers"
	"github.com/yourusername/dlqueue/api/middleware"
	"github.com/yourusername/dlqueue/internal/app"
	"github.com/yourusername/dlqueue/internal/domain"
)

// RouterConfig wires the collaborators the HTTP API serves
type RouterConfig struct {
	QueueManager *app.QueueManager
	StorageDirs  domain.StorageDirs
	Store        handlers.Pinger
	Logger       *zap.Logger
	LogsDir      string // enables the /logs endpoints when set
}

// SetupRouter sets up the HTTP router
func SetupRouter(config RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(config.Logger))
	router.Use(middleware.Recovery(config.Logger))

	healthHandler := handlers.NewHealthHandler(config.Store)
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		downloadHandler := handlers.NewDownloadHandler(config.QueueManager, config.StorageDirs, config.Logger)
		downloads := v1.Group("/downloads")
		{
			downloads.POST("", downloadHandler.AddDownload)
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.DELETE("", downloadHandler.RemoveDownloads)
			downloads.GET("/stats", downloadHandler.GetStats)
			downloads.POST("/pause", downloadHandler.PauseDownloads)
			downloads.POST("/resume", downloadHandler.ResumeDownloads)
			downloads.POST("/restart", downloadHandler.RestartDownloads)
			downloads.POST("/delete", downloadHandler.MarkDeleted)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.GET("/:id/file", downloadHandler.GetFile)
		}

		if config.LogsDir != "" {
			logHandler := handlers.NewLogHandler(config.LogsDir)
			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
