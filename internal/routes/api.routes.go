package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netsentry/internal/controllers"
	"netsentry/internal/middleware"
)

// Deps bundles everything the HTTP surface needs
type Deps struct {
	Ingest      *controllers.IngestController
	Devices     *controllers.DeviceController
	Anomalies   *controllers.AnomalyController
	RequireAuth bool
}

// Register wires all HTTP and WebSocket endpoints onto the engine
func Register(r *gin.Engine, deps Deps) {
	limiter := middleware.NewRateLimiter()
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RateLimitMiddleware(limiter))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		ingest := api.Group("/")
		ingest.Use(middleware.AgentAuthMiddleware(deps.RequireAuth))
		{
			ingest.POST("/metrics", deps.Ingest.HandleMetrics)
			ingest.POST("/ping", deps.Ingest.HandlePing)
		}

		api.GET("/token", deps.Devices.HandleGetToken)
		api.GET("/devices", deps.Devices.HandleListDevices)
		api.GET("/devices/:id/anomalies/summary", deps.Anomalies.HandleSummary)
		api.GET("/devices/:id/anomalies/recent", deps.Anomalies.HandleRecentForDevice)
		api.GET("/metrics_logs", deps.Devices.HandleRecentMetrics)
		api.GET("/ping_logs", deps.Devices.HandleRecentPings)

		api.GET("/anomalies", deps.Anomalies.HandleListAnomalies)
		api.POST("/anomalies/:id/ack", deps.Anomalies.HandleAcknowledge)
		api.DELETE("/anomalies", deps.Anomalies.HandlePurge)
	}

	r.GET("/ws", controllers.HandleWebSocket(deps.RequireAuth))
}
