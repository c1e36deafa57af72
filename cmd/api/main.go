package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/assessment-api/api/swagger"
	"github.com/noah-isme/assessment-api/internal/handler"
	"github.com/noah-isme/assessment-api/internal/middleware"
	"github.com/noah-isme/assessment-api/internal/repository"
	"github.com/noah-isme/assessment-api/internal/service"
	"github.com/noah-isme/assessment-api/internal/validation"
	"github.com/noah-isme/assessment-api/pkg/cache"
	"github.com/noah-isme/assessment-api/pkg/config"
	"github.com/noah-isme/assessment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/assessment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/assessment-api/pkg/middleware/requestid"
)

// @title Assessment API
// @version 1.0.0
// @description Exam authoring and account administration for the recruitment assessment platform
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStores(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := store.closer(context.Background()); err != nil {
			logr.Warn("failed to close storage", zap.Error(err))
		}
	}()

	var metrics *service.MetricsService
	if cfg.HTTP.MetricsEnabled {
		metrics = service.NewMetricsService()
	}

	pingers := map[string]handler.Pinger{"database": store.ping}

	var listCache *service.ListCache
	if cfg.ListCache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("list cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
			listCache = service.NewListCache(cacheRepo, metrics, cfg.ListCache.TTL, logr, true)
			pingers["cache"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	validate := validation.NewValidator()
	authCfg := service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiry:     cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
		AdminEmail: cfg.Auth.AdminEmail,
		BcryptCost: cfg.Auth.BcryptCost,
	}

	authSvc := service.NewAuthService(store.users, store.audit, validate, logr, authCfg)
	userSvc := service.NewUserService(store.users, store.audit, validate, logr, authCfg)
	examSvc := service.NewExamService(store.exams, store.audit, listCache, metrics, logr)
	exportSvc := service.NewExportService(examSvc, logr, nil, nil)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	if cfg.HTTP.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}

	ops := handler.NewMetricsHandler(metrics, pingers, logr)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if metrics != nil {
		r.GET("/metrics", ops.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Auth:     handler.NewAuthHandler(authSvc),
		Exams:    handler.NewExamHandler(examSvc, exportSvc),
		Users:    handler.NewUserHandler(userSvc),
		Identity: authSvc,
	}.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
