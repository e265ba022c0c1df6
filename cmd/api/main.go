package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/profilehub/profilehub/internal/auth"
	"github.com/profilehub/profilehub/internal/blocks"
	"github.com/profilehub/profilehub/internal/bootstrap"
	"github.com/profilehub/profilehub/internal/cache"
	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/db"
	"github.com/profilehub/profilehub/internal/files"
	httpx "github.com/profilehub/profilehub/internal/http"
	"github.com/profilehub/profilehub/internal/http/middlewares"
	"github.com/profilehub/profilehub/internal/observability"
	"github.com/profilehub/profilehub/internal/profiles"
	"github.com/profilehub/profilehub/internal/redisclient"
	"github.com/profilehub/profilehub/internal/repo/postgres"
	"github.com/profilehub/profilehub/internal/roles"
	"github.com/profilehub/profilehub/internal/users"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "profilehub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	store := postgres.NewStore(pool, prom)

	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	fileStore, err := files.NewDiskStore(cfg.StaticDir)

	if err != nil {
		log.Error("static dir setup failed", "err", err, "dir", cfg.StaticDir)
		os.Exit(1)
	}

	pings := map[string]func() error{
		"db": func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
	}

	// Redis is optional: with an address we get a sliding login window shared
	// across replicas, without one we fall back to the in-process limiter.
	var limiter middlewares.AttemptLimiter = middlewares.NewWindowLimiter(10, time.Minute)

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		defer rc.Close()

		limiter = redisclient.NewSlidingWindowLimiter(rc.Raw(), "login_attempts", 10, time.Minute)

		pings["redis"] = func() error {
			ctx, cancel := config.WithTimeout(1 * time.Second)
			defer cancel()
			return rc.Ping(ctx)
		}
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	deps := httpx.Deps{
		Cfg:       cfg,
		JWT:       jwtManager,
		TokenGen:  jwtManager,
		Bootstrap: bootstrap.NewController(store),
		Roles:     roles.NewService(store, cfg.RoleMinValue, prom),
		Users:     users.NewService(store, cfg.RoleMinValue, prom),
		Profiles:  profiles.NewService(store, cfg.RoleMinValue, prom),
		Blocks:    blocks.NewService(store, fileStore, cfg.RoleMinValue, prom),

		UserStore: store,
		RoleStore: store,

		RoleCache:    cache.New(5 * time.Second),
		LoginLimiter: limiter,

		Prom:     prom,
		Registry: registry,

		Pings: pings,
	}

	router := httpx.NewRouter(log, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
