package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/jengzang/safewalk-backend/internal/api"
	"github.com/jengzang/safewalk-backend/internal/auth"
	"github.com/jengzang/safewalk-backend/internal/config"
	"github.com/jengzang/safewalk-backend/internal/database"
	"github.com/jengzang/safewalk-backend/internal/handler"
	"github.com/jengzang/safewalk-backend/internal/middleware"
	"github.com/jengzang/safewalk-backend/internal/observability"
	"github.com/jengzang/safewalk-backend/internal/repository"
	"github.com/jengzang/safewalk-backend/internal/service"
	"github.com/jengzang/safewalk-backend/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// 初始化数据库
	db, err := database.Open(ctx, database.Config{
		Path:    cfg.DBPath,
		Retries: uint64(cfg.StorageRetries),
		OnRetry: func(err error, wait time.Duration) {
			metrics.StorageRetries.Inc()
			logger.Warn("storage busy, retrying", "error", err, "wait", wait)
		},
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	jwtManager := auth.NewJWTManager(secret, cfg.JWTTTL, clock)

	pointService := service.NewDangerPointService(db, cfg.MaxPointsPerUser, clock, metrics, logger)
	zoneService := service.NewDangerZoneService(repository.NewDangerPointRepository(db), clock, metrics, logger)
	identityService := service.NewIdentityService(repository.NewIdentityRepository(db), jwtManager, clock, logger)
	signalService := service.NewSignalService(db, cfg.GridSizeDeg, clock, metrics, logger)

	// 初始化路由
	router := api.SetupRouter(api.Dependencies{
		Logger:         logger,
		Metrics:        metrics,
		RateLimiter:    middleware.NewRateLimiter(ctx, cfg.RateLimitMaxRequests, cfg.RateLimitWindow, clock),
		JWT:            jwtManager,
		AuthEnabled:    cfg.AuthEnabled,
		MetricsHandler: api.PrometheusHandler(),
		Points:         handler.NewPointHandler(pointService),
		Zones:          handler.NewZoneHandler(zoneService),
		Auth:           handler.NewAuthHandler(identityService),
		Signals:        handler.NewSignalHandler(signalService),
		Health:         handler.NewHealthHandler(db),
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Port, "auth_enabled", cfg.AuthEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
