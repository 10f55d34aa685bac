package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"aptsurge/server/internal/metrics"
)

// SetupRoutes registers the API, the metrics endpoint and the static site
func SetupRoutes(router *gin.Engine, handler *Handler, httpMetrics *metrics.HTTP, allowOrigins []string, docsDir string) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsConfig))

	if httpMetrics != nil {
		router.Use(httpMetrics.Middleware())
		router.GET("/metrics", gin.WrapH(httpMetrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/summary", handler.GetSummary)
		api.GET("/search", handler.Search)
		api.GET("/apartments/:id/history", handler.GetHistory)
		api.GET("/index", handler.GetIndex)
		api.GET("/regions", handler.ListRegions)
		api.GET("/runs", handler.GetRuns)
	}

	if docsDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(docsDir))))
	}
}
