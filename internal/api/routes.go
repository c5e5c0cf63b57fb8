// Package api exposes the redirect path and the owner API over gin.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/metrics"
	"github.com/axellelanca/redirector/internal/services"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Links      *services.LinkService
	Resolver   *services.Resolver
	Analytics  *services.AnalyticsService
	Verifier   TokenVerifier
	Metrics    *metrics.Metrics
	Log        logger.Logger
	BaseURL    string
	CookieName string
}

// NewRouter builds a gin engine with recovery, request logging and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(deps.Log, deps.Metrics))
	SetupRoutes(router, deps)
	return router
}

// SetupRoutes registers the public and the authenticated routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheckHandler)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1", AuthMiddleware(deps.Verifier, deps.CookieName))
	{
		v1.POST("/links", CreateLinkHandler(deps.Links, deps.BaseURL))
		v1.GET("/links", ListLinksHandler(deps.Links))
		v1.PATCH("/links/:id", UpdateLinkHandler(deps.Links))
		v1.DELETE("/links/:id", DeleteLinkHandler(deps.Links))
		v1.GET("/links/:id/stats", LinkStatsHandler(deps.Analytics))
		v1.GET("/stats", AccountStatsHandler(deps.Analytics))
	}

	router.GET("/:slug", RedirectHandler(deps.Resolver))
}
