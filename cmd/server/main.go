package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"sitepanel/internal/config"
	"sitepanel/internal/database"
	"sitepanel/internal/handlers"
	"sitepanel/internal/logging"
	"sitepanel/internal/metrics"
	"sitepanel/internal/services"
	"sitepanel/internal/web"
)

func main() {
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}

	// 2. Init DB (activity journal only, the roster always comes from the backend)
	if err := database.InitDB(cfg.DatabasePath, logger); err != nil {
		logger.Fatal("failed to init database", zap.Error(err))
	}

	// 3. Backend client + site list controller
	m := metrics.New()
	backend := services.NewBackendClient(cfg, nil, logger, m)
	sites := services.NewSiteList(backend, logger,
		services.WithJournal(services.NewJournal(database.DB)),
		services.WithMetrics(m),
		services.WithRefetchAfterRename(cfg.RefetchAfterRename),
	)

	// 4. HTTP server & HTML renderer
	renderer, err := web.NewTemplateRenderer(loc)
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	e := newEcho(logger, m)
	e.Renderer = renderer
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	handlers.RegisterRoutes(e, e.Group("/api"), sites, cfg.JournalSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("sitepanel starting", zap.String("addr", cfg.ListenAddr), zap.String("api_base", cfg.APIBase))
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newEcho(logger *zap.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(m.Middleware())
	return e
}
