package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/lamngoc/student-portal/internal/handler"
	"github.com/lamngoc/student-portal/internal/middleware"
	"github.com/lamngoc/student-portal/internal/repository"
	"github.com/lamngoc/student-portal/internal/service"
	"github.com/lamngoc/student-portal/internal/session"
	"github.com/lamngoc/student-portal/pkg/cache"
	"github.com/lamngoc/student-portal/pkg/config"
	"github.com/lamngoc/student-portal/pkg/database"
	"github.com/lamngoc/student-portal/pkg/logger"
	corsmiddleware "github.com/lamngoc/student-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/lamngoc/student-portal/pkg/middleware/requestid"
	"github.com/lamngoc/student-portal/pkg/storage"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, falling back to in-memory sessions", "error", err)
			redisClient = nil
		}
	}

	var sessionRepo repository.SessionRepository = repository.NewMemorySessionRepository()
	if redisClient != nil {
		sessionRepo = repository.NewRedisSessionRepository(redisClient)
	}
	sessions := session.NewManager(sessionRepo, logr, cfg.Session)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	validate := validator.New()
	authSvc := service.NewAuthService(userRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, cacheRepo, logr, cfg.Dashboard.CacheTTL)
	metricsSvc := service.NewMetricsService()

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signSecret := cfg.Export.SignSecret
	if signSecret == "" {
		// links signed with an ephemeral secret stop working on restart
		signSecret = randomSecret()
		logr.Warn("EXPORT_SIGN_SECRET not set, using an ephemeral signing secret")
	}
	signer := storage.NewSignedURLSigner(signSecret, cfg.Export.ResultTTL)
	exportSvc := service.NewExportService(studentRepo, exportStore, signer, cfg.Export.Workers, logr)
	exportSvc.Start(context.Background())
	defer exportSvc.Stop()
	exportSvc.Cleanup(cfg.Export.ResultTTL)

	authHandler := handler.NewAuthHandler(authSvc, sessions, logr)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, dashboardSvc, logr)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Authentication(sessions))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/login")
	})
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	r.GET("/dashboard", dashboardHandler.Show)

	students := r.Group("/student", middleware.AdminOnly())
	students.GET("", studentHandler.HandleGet)
	students.POST("", studentHandler.HandlePost)

	exports := r.Group("/export")
	exports.GET("", exportHandler.Request)
	exports.GET("/status", exportHandler.Status)
	exports.GET("/download", exportHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate signing secret: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
