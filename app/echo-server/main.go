package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpmetrics "myLearnCore/app/echo-server/metrics"
	"myLearnCore/app/echo-server/router"
	"myLearnCore/business/behavior"
	"myLearnCore/business/eventlog"
	"myLearnCore/business/experiment"
	"myLearnCore/business/recommendation"
	"myLearnCore/business/studylog"
	"myLearnCore/internal/middleware"
	"myLearnCore/internal/rest"
	"myLearnCore/pkg/config"
	"myLearnCore/pkg/logger"
	"myLearnCore/pkg/metrics"
	"myLearnCore/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	defer logger.Sync()
	logger.Info("Starting myLearnCore", "version", cfg.App.Version, "storage", cfg.Storage.Backend)

	metrics.Init()
	httpmetrics.Init()
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", "backend", cfg.Storage.Backend, "error", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	logger.Info("Storage ready", "backend", cfg.Storage.Backend, "namespace", cfg.Storage.Namespace)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)

	// Init service
	experimentService := experiment.NewService(bootCtx, store)
	recommendationService := recommendation.NewService(bootCtx, store, experimentService)
	studyService := studylog.NewService(bootCtx, store)
	behaviorService := behavior.NewService(bootCtx, store, studyService)
	eventService := eventlog.NewService(store)

	if cfg.App.SeedDemo {
		ids, err := experimentService.SeedDemoTests(bootCtx)
		if err != nil {
			logger.Error("Failed to seed demo experiments", "error", err)
		} else if len(ids) > 0 {
			logger.Info("Seeded demo experiments", "ids", ids)
		}
	}
	bootCancel()

	// Init handler
	experimentHandler := rest.NewExperimentHandler(experimentService)
	recommendationHandler := rest.NewRecommendationHandler(recommendationService)
	analyticsHandler := rest.NewAnalyticsHandler(behaviorService)
	studyHandler := rest.NewStudyHandler(studyService)
	eventHandler := rest.NewEventHandler(eventService)
	healthHandler := rest.NewHealthHandler(store, cfg.Storage.Backend, cfg.App.Version)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceMiddleware())
	e.Use(httpmetrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderAdminKey},
	}))
	e.Use(echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimit))))

	authRequired := middleware.AuthMiddleware()
	adminOnly := middleware.AdminKeyMiddleware(cfg.Admin.KeyHash)
	if cfg.Admin.KeyHash == "" {
		logger.Warn("ADMIN_KEY_HASH is empty, operator routes will reject every request")
	}

	// Setup routes
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	router.SetupHealthRoutes(e, healthHandler)

	api := e.Group("/api/v1")
	router.SetupExperimentRoutes(api, experimentHandler, authRequired, adminOnly)
	router.SetupRecommendationRoutes(api, recommendationHandler, authRequired, adminOnly)
	router.SetupAnalyticsRoutes(api, analyticsHandler, authRequired, adminOnly)
	router.SetupStudyRoutes(api, studyHandler, authRequired)
	router.SetupEventRoutes(api, eventHandler, authRequired)

	runCtx, stopRecompute := context.WithCancel(context.Background())
	defer stopRecompute()
	if cfg.Analytics.RecomputeInterval > 0 {
		logger.Info("Cohort recompute scheduled", "interval", cfg.Analytics.RecomputeInterval.String())
		go behaviorService.RunCohortRecompute(runCtx, cfg.Analytics.RecomputeInterval)
	}

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopRecompute()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
