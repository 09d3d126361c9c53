package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/postpilot/api/internal/auth"
	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/http/handlers"
	"github.com/postpilot/api/internal/http/middlewares"
	"github.com/postpilot/api/internal/observability"
	"github.com/postpilot/api/internal/repo/postgres"
	"github.com/postpilot/api/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// NewRouter wires the full HTTP surface. All dependencies come in explicitly;
// nothing is read from package-level state.
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, store session.Store, reg *prometheus.Registry, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	prom := observability.NewProm(reg)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("postpilot-api"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health + metrics
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories and services
	usersRepo := postgres.NewUsersRepo(pool, prom)
	profilesRepo := postgres.NewProfilesRepo(pool, prom)

	authn := auth.NewAuthenticator(usersRepo)
	sessions := session.NewManager(store, cfg.SessionTTL())
	resetTokens := auth.NewResetTokenManager(cfg.ResetTokenSecret, cfg.ResetTokenTTL)

	authHandler := handlers.NewAuthHandler(authn, usersRepo, sessions, resetTokens, prom, cfg)
	profilesHandler := handlers.NewProfilesHandler(profilesRepo, usersRepo)

	sessionMW := middlewares.NewSessionMiddleware(sessions)

	// credential endpoints get a tight per-IP limit
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Register)
		authGroup.POST("/login", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)
		authGroup.POST("/reset-password", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.ResetPassword)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", sessionMW.RequireSession(), authHandler.Me)
	}

	profileGroup := r.Group("/api/business-profiles")
	profileGroup.Use(sessionMW.RequireSession())
	{
		profileGroup.POST("", profilesHandler.CreateProfile)
		profileGroup.GET("", profilesHandler.ListProfiles)
		profileGroup.GET("/can-create", profilesHandler.CanCreate)
		profileGroup.GET("/:id", profilesHandler.GetProfileById)
		profileGroup.PUT("/:id", profilesHandler.UpdateProfile)
		profileGroup.DELETE("/:id", profilesHandler.DeleteProfile)
	}

	return r
}
