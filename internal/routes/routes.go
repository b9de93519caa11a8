package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigsos_backend/internal/handlers"
	"gigsos_backend/internal/logger"
	"gigsos_backend/internal/metrics"
	"gigsos_backend/internal/middleware"
	"gigsos_backend/internal/models"
	"gigsos_backend/ws"
)

// Guards - middleware, которые зависят от сервисов
type Guards struct {
	Auth        middleware.Authenticator
	Bans        middleware.BanChecker
	RateLimiter *middleware.RateLimiter
}

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	guards Guards,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	ginRouter.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := ginRouter.Group("/api/v1")
	public := api.Group("", guards.RateLimiter.Handler())
	protected := api.Group("",
		middleware.AuthMiddleware(guards.Auth),
		middleware.BanGate(guards.Bans),
		guards.RateLimiter.Handler(),
	)
	admin := protected.Group("/admin", middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleSuperAdmin))

	groups := handlers.RouteGroups{Public: public, Protected: protected, Admin: admin}
	for _, h := range appHandlers.All() {
		h.RegisterRoutes(groups)
	}

	if wsHandler != nil {
		ginRouter.GET("/ws", wsHandler.ServeWS)
		logger.Info("WebSocket route /ws registered")
	}
}
