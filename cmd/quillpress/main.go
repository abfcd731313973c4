package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quillpress/quillpress/internal/app"
	"github.com/quillpress/quillpress/internal/auth"
	"github.com/quillpress/quillpress/internal/categories"
	"github.com/quillpress/quillpress/internal/comments"
	"github.com/quillpress/quillpress/internal/dashboard"
	"github.com/quillpress/quillpress/internal/observability"
	"github.com/quillpress/quillpress/internal/platform/cache"
	"github.com/quillpress/quillpress/internal/platform/db"
	"github.com/quillpress/quillpress/internal/posts"
	"github.com/quillpress/quillpress/internal/rbac"
	"github.com/quillpress/quillpress/internal/roles"
	"github.com/quillpress/quillpress/internal/shared"
	"github.com/quillpress/quillpress/internal/token"
	"github.com/quillpress/quillpress/internal/users"
	"github.com/quillpress/quillpress/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenService := token.NewService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	auditLogger := shared.NewAuditLogger(dbpool)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, auditLogger)
	rbacMiddleware := rbac.Middleware{Tokens: tokenService, Resolver: rbacService, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware)

	mailClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := mailClient.Close(); err != nil {
			logger.Warn("mail client close", slog.Any("error", err))
		}
	}()

	blacklist := auth.NewBlacklist(redisClient)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, blacklist, tokenService, rbacService, mailClient, cfg.ClientURL, logger)
	authHandler := auth.NewHandler(logger, authService, cfg.IsProduction())

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService, rbacMiddleware)

	postsRepo := posts.NewRepository(dbpool)
	postsService := posts.NewService(postsRepo)
	postsHandler := posts.NewHandler(logger, postsService, rbacMiddleware, tokenService)

	commentsRepo := comments.NewRepository(dbpool)
	commentsService := comments.NewService(commentsRepo)
	commentsHandler := comments.NewHandler(logger, commentsService, rbacMiddleware)

	categoriesRepo := categories.NewRepository(dbpool)
	categoriesService := categories.NewService(categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService, rbacMiddleware)

	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardService := dashboard.NewService(dashboardRepo)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		PostsHandler:       postsHandler,
		CommentsHandler:    commentsHandler,
		CategoriesHandler:  categoriesHandler,
		DashboardHandler:   dashboardHandler,
		JobHandler:         jobHandler,
		RBACMiddleware:     rbacMiddleware,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
