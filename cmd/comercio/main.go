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

	"github.com/comercio-cloud/comercio/internal/app"
	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/auth"
	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/branches"
	"github.com/comercio-cloud/comercio/internal/catalog"
	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/notify"
	"github.com/comercio-cloud/comercio/internal/platform/cache"
	"github.com/comercio-cloud/comercio/internal/platform/db"
	"github.com/comercio-cloud/comercio/internal/shared"
	"github.com/comercio-cloud/comercio/internal/tenant"
	"github.com/comercio-cloud/comercio/internal/users"
	"github.com/comercio-cloud/comercio/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "comercio_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	recorder := audit.NewRecorder(pool)

	policyCache := authz.NewPolicyCache(redisClient, cfg.PolicyCacheTTL)
	authzRepo := authz.NewRepository(pool)
	authzService := authz.NewService(authzRepo, policyCache, logger)
	authzMW := authz.Middleware{Service: authzService, Logger: logger}
	authzHandler := authz.NewHandler(logger, authzService, authzMW)

	auditService := audit.NewService(audit.NewTimeline(pool))
	auditHandler := audit.NewHandler(logger, auditService, authzMW)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	dispatcher := notify.NewDispatcher(asynqClient, logger)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, recorder, logger)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	userStore := users.NewStore(pool)
	userController := users.NewController(authzService, userStore, recorder, logger).WithEvents(dispatcher)
	usersHandler := users.NewHandler(logger, userController)
	principalMW := users.PrincipalMiddleware{Lookup: userStore, Logger: logger}

	companyController := lifecycle.New(tenant.ModuleName, authzService, tenant.NewStore(pool), recorder, logger).WithEvents(dispatcher)
	tenantService := tenant.NewService(companyController, authzService, logger)
	tenantHandler := tenant.NewHandler(logger, tenantService)

	productController := lifecycle.New(catalog.ProductModule, authzService, catalog.NewProductStore(pool), recorder, logger).WithEvents(dispatcher)
	brandController := lifecycle.New(catalog.BrandModule, authzService, catalog.NewBrandStore(pool), recorder, logger).WithEvents(dispatcher)
	catalogHandler := catalog.NewHandler(logger, productController, brandController)

	branchController := lifecycle.New(branches.ModuleName, authzService, branches.NewStore(pool), recorder, logger).WithEvents(dispatcher)
	branchHandler := branches.NewHandler(logger, branchController)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Principal:      principalMW.Resolve,
		AuthHandler:    authHandler,
		AuthzHandler:   authzHandler,
		AuditHandler:   auditHandler,
		TenantHandler:  tenantHandler,
		UsersHandler:   usersHandler,
		CatalogHandler: catalogHandler,
		BranchHandler:  branchHandler,
		JobHandler:     jobHandler,
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
