package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/traffic-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName     string
	IngestionMode   string
	TrafficHandler  *handlers.TrafficHandler
	RealtimeHandler *handlers.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Customer Traffic Dashboard API",
			"mode":    cfg.IngestionMode,
		})
	})

	api := router.Group("/api")
	{
		api.GET("/locations", cfg.TrafficHandler.ListLocations)
		api.GET("/locations/:id", cfg.TrafficHandler.GetLocation)
		api.GET("/history", cfg.TrafficHandler.GetHistory)
		api.GET("/latest-event", cfg.TrafficHandler.GetLatestEvent)
		api.GET("/stream", cfg.RealtimeHandler.Stream)
	}

	return router
}
