package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-sync-service/bootstrap"
	"catalog-sync-service/config"
	"catalog-sync-service/controllers"
	apperrors "catalog-sync-service/errors"
	"catalog-sync-service/middleware"
	"catalog-sync-service/routes"
	"catalog-sync-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(context.Background())
	if err != nil {
		// The real logger needs the config; fall back to a plain one.
		l, _ := zap.NewProduction()
		l.Fatal("Failed to load configuration", zap.Error(err))
	}

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		l, _ := zap.NewProduction()
		l.Fatal("Failed to initialize catalog sync", zap.Error(err))
	}
	defer app.Close()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if cfg.WorkerEnabled {
		services.StartSyncWorker(workerCtx, app.Jobs)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(app.Logger))
	r.Use(middleware.MetricsMiddleware(app.Metrics, cfg.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	syncController := controllers.NewSyncController(app.Imports, app.Removal, app.Jobs)
	routes.RegisterRoutes(r, syncController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Catalog Sync Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Catalog Sync Service...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Catalog Sync Service stopped gracefully")
}
