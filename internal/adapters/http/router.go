package http

import (
	"context"
	"net/http"

	"github.com/dkeye/voxroom/internal/adapters/signal"
	"github.com/dkeye/voxroom/internal/app/orch"
	"github.com/dkeye/voxroom/internal/config"
	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

type Deps struct {
	Orch    *orch.Orchestrator
	History core.MessageStore
	Metrics *metrics.Metrics
	// MediaDir, when set, is served under cfg.Blob.PublicPrefix.
	MediaDir string
	// Ready reports whether backing services are reachable.
	Ready func(context.Context) error
}

// ClientTokenMiddleware gives every browser a stable token kept in the
// session cookie. It is informational only; identity comes from user-online.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Server.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Server.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("VoiceSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.Server.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.Server.StaticPath + "/index.html")
	})
	if d.MediaDir != "" {
		r.Static(cfg.Blob.PublicPrefix, d.MediaDir)
	}

	r.GET("/healthz", healthHandler(d))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.Server.StaticPath).Msg("router setup")

	api := r.Group("/api")
	rooms := &roomHandlers{orch: d.Orch, history: d.History}
	api.GET("/rooms", rooms.list)
	api.GET("/rooms/:id/users", rooms.users)
	api.GET("/rooms/:id/messages", rooms.messages)

	ctrl := signal.NewSignalWSController(d.Orch, cfg.WebSocket, cfg.Relay)
	api.GET("/ws/signal", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
