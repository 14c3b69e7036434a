package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/qs3c/phim_premium_server/config"
	"github.com/qs3c/phim_premium_server/internal/api/handler"
	"github.com/qs3c/phim_premium_server/internal/api/middleware"
	"github.com/qs3c/phim_premium_server/internal/pkg/logger"
	"github.com/qs3c/phim_premium_server/internal/pkg/metrics"
)

type Router struct {
	authHandler         *handler.AuthHandler
	premiumHandler      *handler.PremiumHandler
	memberHandler       *handler.MemberHandler
	premiumMovieHandler *handler.PremiumMovieHandler
	websocketHandler    *handler.WebSocketHandler
	healthHandler       *handler.HealthHandler
	entitlement         middleware.EntitlementChecker
	registry            *prometheus.Registry
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	premiumHandler *handler.PremiumHandler,
	memberHandler *handler.MemberHandler,
	premiumMovieHandler *handler.PremiumMovieHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	entitlement middleware.EntitlementChecker,
	registry *prometheus.Registry,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		premiumHandler:      premiumHandler,
		memberHandler:       memberHandler,
		premiumMovieHandler: premiumMovieHandler,
		websocketHandler:    websocketHandler,
		healthHandler:       healthHandler,
		entitlement:         entitlement,
		registry:            registry,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinLogger())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", r.healthHandler.Healthz)
	if r.registry != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(r.registry)))
	}

	secret := r.cfg.JWT.Secret

	api := engine.Group("/api/v1")
	{
		// WebSocket 结算推送
		api.GET("/ws", r.websocketHandler.Handle)

		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		premium := api.Group("/premium")
		{
			premium.GET("/plans", r.premiumHandler.Plans)
			// 网关回跳不带登录态
			premium.GET("/vnpay-return", r.premiumHandler.VNPayReturn)
			premium.POST("/create-payment", middleware.Auth(secret), r.premiumHandler.CreatePayment)

			optional := premium.Group("")
			optional.Use(middleware.OptionalAuth(secret))
			{
				optional.GET("/status", r.premiumHandler.Status)
				optional.GET("/can-watch", r.premiumHandler.CanWatch)
			}

			members := premium.Group("/members")
			members.Use(middleware.Auth(secret), middleware.RequirePremium(r.entitlement))
			{
				members.GET("", r.memberHandler.List)
				members.POST("", r.memberHandler.Add)
				members.DELETE("/:userId", r.memberHandler.Remove)
			}
		}

		api.GET("/premium-check/check", r.premiumMovieHandler.Check)

		admin := api.Group("/admin")
		admin.Use(middleware.Auth(secret), middleware.AdminOnly())
		{
			admin.GET("/premium-movies", r.premiumMovieHandler.List)
			admin.POST("/premium-movies", r.premiumMovieHandler.Mark)
			admin.DELETE("/premium-movies", r.premiumMovieHandler.Unmark)
		}
	}

	return engine
}
