package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wavechat/wavechat-server/internal/auth"
	"github.com/wavechat/wavechat-server/internal/config"
	"github.com/wavechat/wavechat-server/internal/core"
	"github.com/wavechat/wavechat-server/internal/store"
)

// NewServer builds the HTTP server: REST auth and history endpoints plus the
// websocket upgrade route.
func NewServer(hub *core.Hub, router *core.Router, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(st, logger)
	messageHandlers := NewMessageHandlers(st, logger)

	limiter := newRateLimiter(cfg.AuthRateLimit)
	limiterStop := make(chan struct{})
	limiter.startReset(limiterStop)

	api := engine.Group("/api")
	api.POST("/register", RateLimitMiddleware(limiter), apiHandlers.Register)
	api.POST("/login", RateLimitMiddleware(limiter), apiHandlers.Login)
	api.POST("/logout", apiHandlers.Logout)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.GET("/profile", apiHandlers.Profile)
	authed.GET("/people", userHandlers.ListPeople)
	authed.GET("/messages/:userId", messageHandlers.Conversation)

	engine.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	engine.GET("/ws", gin.WrapH(NewWSHandler(hub, router, authService, cfg.PingInterval, cfg.PongTimeout, logger)))

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	server.RegisterOnShutdown(func() { close(limiterStop) })

	return server
}
