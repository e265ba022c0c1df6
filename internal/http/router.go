package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/profilehub/profilehub/internal/access"
	"github.com/profilehub/profilehub/internal/cache"
	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/http/handlers"
	"github.com/profilehub/profilehub/internal/http/middlewares"
	"github.com/profilehub/profilehub/internal/observability"
)

const maxBodyBytes = 5 << 20 // multipart image uploads included

// Deps carries everything the router wires together. Handlers depend on
// small interfaces, so tests can hand in the memory store end to end.
type Deps struct {
	Cfg config.Config

	JWT       middlewares.TokenVerifier
	TokenGen  handlers.TokenIssuer
	Bootstrap handlers.Bootstrapper
	Roles     handlers.RoleService
	Users     handlers.UserService
	Profiles  handlers.ProfileService
	Blocks    handlers.BlockService

	// login lookups go straight at the store
	UserStore handlers.UserReader
	RoleStore handlers.RoleReader

	RoleCache    *cache.Cache
	LoginLimiter middlewares.AttemptLimiter

	Prom     *observability.Prom
	Registry *prometheus.Registry

	// named dependency pings for /readyz
	Pings map[string]func() error
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(otelgin.Middleware("profilehub"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// ops surface
	health := handlers.NewHealthHandler(d.Pings)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	if d.Cfg.StaticDir != "" {
		r.Static("/static", d.Cfg.StaticDir)
	}

	// handlers
	initHandler := handlers.NewInitHandler(d.Bootstrap)
	authHandler := handlers.NewAuthHandler(d.UserStore, d.RoleStore, d.TokenGen)
	rolesHandler := handlers.NewRolesHandler(d.Roles, d.RoleCache)
	usersHandler := handlers.NewUsersHandler(d.Users)
	profilesHandler := handlers.NewProfilesHandler(d.Profiles, d.TokenGen)
	blocksHandler := handlers.NewBlocksHandler(d.Blocks)

	authn := middlewares.NewAuthMiddleware(d.JWT)
	requireJSON := middlewares.RequireJSON()

	throttle := func() gin.HandlerFunc {
		if d.LoginLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}

		return middlewares.RateLimit(d.LoginLimiter, middlewares.KeyByIP)
	}()

	// bootstrap + sessions
	r.POST("/init", throttle, requireJSON, initHandler.Initialize)
	r.POST("/auth/login", throttle, requireJSON, authHandler.Login)

	// profiles
	r.POST("/profiles/registration", requireJSON, profilesHandler.Register)

	profilesGroup := r.Group("/profiles", authn.RequireAuth())
	profilesGroup.GET("", profilesHandler.List)
	profilesGroup.GET("/:email", profilesHandler.Get)
	profilesGroup.PUT("/:email", requireJSON, profilesHandler.Update)
	profilesGroup.DELETE("/:email", profilesHandler.Delete)

	// roles: reads are public, mutations authenticated
	r.GET("/roles", rolesHandler.List)
	r.GET("/roles/:name", rolesHandler.GetByName)
	r.POST("/roles", authn.RequireAuth(), requireJSON, rolesHandler.Create)
	r.PUT("/roles/:name", authn.RequireAuth(), requireJSON, rolesHandler.Update)
	r.DELETE("/roles/:name", authn.RequireAuth(), rolesHandler.Delete)

	// role assignment
	r.POST("/users/role", authn.RequireAuth(), requireJSON, usersHandler.AssignRole)

	// text blocks (multipart allowed, so no RequireJSON here). The rank gate
	// runs before the handler so forbidden callers never get their upload read.
	minRank := d.Cfg.RoleMinValue
	if minRank <= 0 {
		minRank = access.MinRoleMutationValue
	}

	blocksGroup := r.Group("/text-blocks", authn.RequireAuth())
	blocksGroup.GET("", blocksHandler.List)
	blocksGroup.GET("/:searchName", blocksHandler.Get)
	blocksGroup.POST("", authn.RequireMinValue(minRank), blocksHandler.Create)
	blocksGroup.PUT("/:searchName", authn.RequireMinValue(minRank), blocksHandler.Update)
	blocksGroup.DELETE("/:searchName", authn.RequireMinValue(minRank), blocksHandler.Delete)

	log.Debug("router wired", "routes", len(r.Routes()))

	return r
}
