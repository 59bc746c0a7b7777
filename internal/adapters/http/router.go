package http

import (
	"context"
	"time"

	"github.com/dkeye/livepoll/internal/adapters/signal"
	"github.com/dkeye/livepoll/internal/app"
	"github.com/dkeye/livepoll/internal/app/orch"
	"github.com/dkeye/livepoll/internal/config"
	"github.com/dkeye/livepoll/internal/core"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sessionName = "LivepollSessions"

// Deps are the services the HTTP surface talks to.
type Deps struct {
	Orch     *orch.Orchestrator
	Accounts *app.Accounts
	Polls    *app.Polls
	Votes    *app.VoteService
	Auth     core.CredentialVerifier
	Limiter  *UserRateLimiter
}

type handlers struct {
	Deps
	tokenTTL time.Duration
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Limiter == nil {
		d.Limiter = NewUserRateLimiter(cfg.VoteRate.Limit, cfg.VoteRate.Window)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: int(cfg.TokenTTL / time.Second), HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(AuthMiddleware(d.Auth))

	h := &handlers{Deps: d, tokenTTL: cfg.TokenTTL}
	ctrl := signal.NewSignalWSController(d.Orch, signal.Settings{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  cfg.WriteWait,
		SendBuffer: cfg.SendBuffer,
	})

	api := r.Group("/api")

	api.GET("/healthz", h.healthz)

	api.POST("/users", h.register)
	api.POST("/sessions", h.login)
	api.DELETE("/sessions", h.logout)

	api.GET("/polls", h.listPolls)
	api.POST("/polls", RequireAuth(), h.createPoll)
	api.GET("/polls/:id", h.getPoll)
	api.PATCH("/polls/:id", RequireAuth(), h.updatePoll)
	api.POST("/polls/:id/votes", RequireAuth(), h.castVote)

	api.GET("/rooms", h.listRooms)

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("request_id", c.GetString(requestIDKey)).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
