package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/auth"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/config"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/httpapi"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/identity"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/project"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/push"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/ws"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/pkg/logger"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/pkg/storage"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := storage.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), storage.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := storage.OpenRedis(rootCtx, storage.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Identity: one store per user partition, probed in a fixed order.
	stores, err := identity.NewPostgresStores(db)
	if err != nil {
		log.Error("identity stores init failed", "err", err)
		os.Exit(1)
	}
	sources := make([]identity.Source, len(stores))
	idStores := make([]identity.Store, len(stores))
	for i, st := range stores {
		sources[i] = st
		idStores[i] = st
	}
	resolver, err := identity.NewResolver(sources...)
	if err != nil {
		log.Error("identity resolver init failed", "err", err)
		os.Exit(1)
	}
	idSvc := identity.NewService(resolver, idStores...)
	authn := auth.NewAuthenticator(tokens, resolver)

	// Chat: persistence, then push. The redis bridge fans messages out across
	// instances; each instance delivers to its locally connected sessions.
	hub := push.NewHub()
	bridge := push.NewRedisBridge(rdb, hub, logger.Component(log, "push"))
	go func() {
		if err := bridge.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("push bridge stopped", "err", err)
			stop()
		}
	}()
	chatSvc := chat.NewService(chat.NewPostgresRepo(db), bridge, logger.Component(log, "chat"), cfg.Chat.HistoryLimit)

	projSvc := project.NewService(project.NewPostgresRepo(db))

	// Websocket surface. Authentication happens inside the STOMP CONNECT frame,
	// not at upgrade time.
	interceptor := ws.NewInterceptor(authn, logger.Component(log, "ws"))
	wsRouter := ws.NewRouter(chatSvc, logger.Component(log, "ws"))
	wsHandler := ws.NewHandler(interceptor, wsRouter, hub, logger.Component(log, "ws"), cfg.Chat.ReadLimitBytes, cfg.Chat.WriteTimeout)

	handlers := httpapi.Handlers{
		Tokens:   tokens,
		Identity: idSvc,
		Chat:     chatSvc,
		Projects: projSvc,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, wsHandler, authn, db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Websocket connections are hijacked from the HTTP server, so these
		// timeouts only bound the plain REST requests.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
