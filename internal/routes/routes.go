package routes

import (
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"beacon/internal/config"
	"beacon/internal/middleware"
	"beacon/internal/service/dashboard"
	"beacon/internal/service/healthcheck"
)

// InitiateRoutes is a function that initializes the routes for the application
func InitiateRoutes(engine *gin.Engine, cfg *config.App) {

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	health := healthcheck.Health(cfg)
	engine.GET("/healthcheck", health)
	engine.GET("/health", health)

	// Board pages. /display is the same board without chrome, meant for
	// unattended wall screens.
	engine.GET("/", dashboard.RedirectDefault())
	engine.GET("/display/:view_slug", dashboard.Display(cfg))
	engine.GET("/:view_slug", dashboard.Board(cfg))

	// The JSON API only requires a service token when a shared secret is
	// configured; standalone deployments run it open.
	apiGroup := engine.Group("/api")
	if os.Getenv("CORE_JWT_SECRET") != "" {
		apiGroup.Use(middleware.ServiceAuth(config.ServiceName))
	}
	{
		apiGroup.GET("/tickets/:view_slug", dashboard.APITickets(cfg))
	}
}
