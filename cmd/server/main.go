// Package main runs the HR portal HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-hr/portal/config"
	"github.com/aura-hr/portal/internal/apiclient"
	"github.com/aura-hr/portal/internal/auth"
	"github.com/aura-hr/portal/internal/directory"
	"github.com/aura-hr/portal/internal/middleware"
	"github.com/aura-hr/portal/internal/scheduler"
	"github.com/aura-hr/portal/internal/views"
	"github.com/aura-hr/portal/internal/workspace"
	"github.com/aura-hr/portal/pkg/redis"
	"github.com/aura-hr/portal/pkg/response"
	"github.com/aura-hr/portal/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	jwtService := auth.NewJWTService(cfg.Session.Secret, cfg.Session.ExpireHours)

	var store auth.SessionStore
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: 5 * time.Second,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		store = auth.NewRedisStore(rdb.Client, jwtService.Expiry())
	} else {
		logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		store = auth.NewMemoryStore(jwtService.Expiry())
	}

	var images directory.ImageResolver = directory.Passthrough{}
	if cfg.AWS.Region != "" && cfg.AWS.AvatarsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AvatarsBucket:        cfg.AWS.AvatarsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			images = s3Client
		}
	}

	backend := apiclient.New(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSec)*time.Second, logger)
	registry := workspace.NewRegistry(
		workspace.NewFactory(backend, images, cfg.Directory.PageSize, logger),
		time.Duration(cfg.Session.IdleTTLMinutes)*time.Minute,
		logger,
	)
	backend.OnUnauthorized(func(token string) {
		n := registry.DropToken(token)
		logger.Info("backend rejected credential", zap.Int("workspaces_dropped", n))
	})

	cookie := auth.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.SecureCookie}
	authHandler := auth.NewHandler(backend, store, jwtService, cookie, registry.Drop, logger)
	directoryHandler := directory.NewHandler(registry.Directory, logger)
	schedulerHandler := scheduler.NewHandler(registry.Scheduler, logger)
	loginLimiter := middleware.NewRateLimiter(cfg.Login.RatePerSecond, cfg.Login.Burst)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Fatal("trusted proxies", zap.Error(err))
	}
	router.SetHTMLTemplate(views.Must())
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/employees") })

	// Auth (public)
	router.GET(auth.LoginPath, authHandler.LoginPage)
	router.POST(auth.LoginPath, middleware.RateLimit(loginLimiter), authHandler.Login)
	router.OPTIONS("/events/feed", middleware.FeedCORS(cfg.Server.FeedOrigins))

	// Pages (session required)
	pages := router.Group("")
	pages.Use(middleware.RequireSession(jwtService, store, cookie, logger))
	pages.Use(middleware.AuthFailure(authHandler.Revoke, cookie))
	{
		pages.POST("/auth/logout", authHandler.Logout)

		employees := pages.Group("/employees")
		employees.GET("", directoryHandler.Index)
		employees.POST("/next", directoryHandler.Next)
		employees.POST("/prev", directoryHandler.Prev)
		employees.POST("/jump", directoryHandler.Jump)
		employees.POST("/panel", directoryHandler.Panel)
		employees.POST("/created", directoryHandler.Created)

		events := pages.Group("/events")
		events.GET("", schedulerHandler.Index)
		events.POST("/slot", schedulerHandler.Slot)
		events.POST("/select", schedulerHandler.Select)
		events.POST("/draft", schedulerHandler.Draft)
		events.GET("/suggestions", schedulerHandler.Suggestions)
		events.POST("/receivers", schedulerHandler.AddReceiver)
		events.POST("/receivers/accept", schedulerHandler.AcceptReceiver)
		events.POST("/receivers/remove", schedulerHandler.RemoveReceiver)
		events.POST("/submit", schedulerHandler.Submit)
		events.POST("/delete", schedulerHandler.Delete)
		events.POST("/delete/confirm", schedulerHandler.ConfirmDelete)
		events.POST("/delete/cancel", schedulerHandler.CancelDelete)
		events.GET("/feed", middleware.FeedCORS(cfg.Server.FeedOrigins), schedulerHandler.Feed)
		events.GET("/calendar.ics", schedulerHandler.Calendar)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background janitors (idle workspaces, login limiter buckets)
	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	go registry.Run(janitorCtx, time.Minute)
	go loginLimiter.Run(janitorCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	janitorCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
