package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imyashkale/geoconnect/internal/handlers"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Health      *handlers.HealthHandler
	Catalog     *handlers.CatalogHandler
	Servers     *handlers.ServerHandler
	Connections *handlers.ConnectionHandler
	// Metrics is served unauthenticated at /metrics when set
	Metrics http.Handler
}

// Setup configures and returns the application router. auth authenticates
// every /api/v1 route; global middleware such as CORS runs first.
func Setup(h Handlers, auth gin.HandlerFunc, global ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(global...)

	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(auth)

	v1.GET("/health", h.Health.Check)
	v1.GET("/catalog", h.Catalog.Get)

	servers := v1.Group("/servers")
	{
		servers.POST("", h.Servers.Create)
		servers.GET("", h.Servers.List)
		servers.GET("/:id", h.Servers.Get)
		servers.PATCH("/:id", h.Servers.Update)
		servers.DELETE("/:id", h.Servers.Delete)
		servers.GET("/:id/alive", h.Servers.Alive)
		servers.POST("/:id/probe", h.Servers.Probe)
	}

	connections := v1.Group("/connections")
	{
		connections.POST("/simple", h.Connections.CreateSimple)
		connections.POST("/token", h.Connections.CreateToken)
		connections.GET("", h.Connections.List)
		connections.GET("/:id", h.Connections.Get)
		connections.DELETE("/:id", h.Connections.Delete)
		connections.GET("/:id/session", h.Connections.Session)
	}

	return router
}
