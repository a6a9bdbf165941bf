package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/handy-backend/internal/config"
	"github.com/ignatzorin/handy-backend/internal/http/handlers"
	"github.com/ignatzorin/handy-backend/internal/http/middleware"
	"github.com/ignatzorin/handy-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	redeemHandler *handlers.RedeemHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Логин и регистрация под rate limit, чтобы не перебирали пароли.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// WebSocket авторизуется сам по query-токену.
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.PATCH("/auth/me", authHandler.UpdateProfile)
		protected.GET("/auth/sessions", authHandler.Sessions)
		protected.DELETE("/auth/sessions/:id", middleware.UUIDValidator("id"), authHandler.RevokeSession)

		// Статические сегменты регистрируются до :id, иначе gin сматчит
		// "available" как идентификатор.
		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports/my-reports", reportHandler.ListMine)
		protected.GET("/reports/available-cases", reportHandler.ListAvailable)
		protected.GET("/reports/my-cases", reportHandler.ListMyCases)
		protected.GET("/reports/:id", middleware.UUIDValidator("id"), reportHandler.Get)
		protected.POST("/reports/:id/accept", middleware.UUIDValidator("id"), reportHandler.Accept)
		protected.POST("/reports/:id/complete", middleware.UUIDValidator("id"), reportHandler.Complete)
		protected.PATCH("/reports/:id/status", middleware.UUIDValidator("id"), reportHandler.UpdateStatus)

		protected.POST("/redeem", redeemHandler.Create)
		protected.GET("/redeem/my-redeems", redeemHandler.ListMine)
		protected.GET("/redeem/:id", middleware.UUIDValidator("id"), redeemHandler.Get)

		protected.POST("/notifications/token", notificationHandler.RegisterToken)
		protected.DELETE("/notifications/token", notificationHandler.RemoveToken)
	}

	return r
}
