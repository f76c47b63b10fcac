package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/dss-scanner/internal/api/handlers"
)

// Dependencies are the handlers and collaborators the router serves.
type Dependencies struct {
	Health  *handlers.HealthHandler
	Scan    *handlers.ScanHandler
	Metrics http.Handler
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", deps.Health.HealthCheck)
	router.GET("/live", deps.Health.LivenessCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	v1 := router.Group("/api/v1")
	{
		scan := v1.Group("/scan")
		{
			scan.GET("", deps.Scan.GetLatest)
			scan.POST("/refresh", deps.Scan.Refresh)
			scan.GET("/progress", deps.Scan.GetProgress)
		}
	}
}
