package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vibechat/vibe-server/internal/adapters/signal"
	"github.com/vibechat/vibe-server/internal/app"
	"github.com/vibechat/vibe-server/internal/config"
	"github.com/vibechat/vibe-server/internal/metrics"
)

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, h *Handler, reg *prometheus.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("VibeSessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(IdentityMiddleware(cfg.Secret, cfg.Mode == "debug"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/stats", func(c *gin.Context) {
		rooms, members := coord.Rooms.Stats()
		c.JSON(http.StatusOK, gin.H{
			"online":  coord.Registry.Count(),
			"rooms":   rooms,
			"members": members,
		})
	})
	if reg != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	}

	api := r.Group("/api")
	api.POST("/party", h.StartParty)
	api.GET("/messages/:id", h.Conversation)

	ctl := signal.NewController(coord, cfg)
	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	return r
}
