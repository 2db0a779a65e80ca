package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mirai-juku/scheduling-api/api/swagger"
	"github.com/mirai-juku/scheduling-api/internal/handler"
	"github.com/mirai-juku/scheduling-api/internal/middleware"
	"github.com/mirai-juku/scheduling-api/internal/repository"
	"github.com/mirai-juku/scheduling-api/internal/service"
	"github.com/mirai-juku/scheduling-api/pkg/cache"
	"github.com/mirai-juku/scheduling-api/pkg/config"
	"github.com/mirai-juku/scheduling-api/pkg/database"
	"github.com/mirai-juku/scheduling-api/pkg/logger"
	corsmiddleware "github.com/mirai-juku/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mirai-juku/scheduling-api/pkg/middleware/requestid"
)

// @title Juku Scheduling API
// @version 1.0.0
// @description Tutoring-center scheduling: availability windows, conflict detection, and recurring series materialization
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	boothRepo := repository.NewBoothRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	seriesRepo := repository.NewSeriesRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Date exceptions older than a year only slow down window lookups.
	go func() {
		cutoff := time.Now().UTC().AddDate(-1, 0, 0)
		if n, err := availabilityRepo.DeleteExceptionsBefore(context.Background(), cutoff); err != nil {
			logr.Sugar().Warnw("failed to prune stale availability exceptions", "error", err)
		} else if n > 0 {
			logr.Sugar().Infow("pruned stale availability exceptions", "count", n)
		}
	}()

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduling.PreviewCacheTTL, logr, true)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "scheduling-api",
	})

	teacherSvc := service.NewTeacherService(teacherRepo, subjectRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, subjectRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	boothSvc := service.NewBoothService(boothRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, teacherRepo, studentRepo, validate, logr)
	compatibilitySvc := service.NewCompatibilityService(teacherRepo, studentRepo, subjectRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, availabilityRepo, teacherRepo, studentRepo, boothRepo, metricsSvc, validate, logr)
	seriesSvc := service.NewSeriesService(availabilityRepo, sessionRepo, seriesRepo, teacherRepo, studentRepo, boothRepo, cacheSvc, metricsSvc, cfg.Scheduling, validate, logr)
	selectedDatesSvc := service.NewSelectedDatesService(cacheRepo, cfg.Calendar.SelectedDatesTTL, validate, logr)
	exportSvc := service.NewExportService(sessionRepo, teacherRepo, studentRepo, subjectRepo, boothRepo, cfg.Export.Enabled, logr)

	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Teachers:      handler.NewTeacherHandler(teacherSvc),
		Students:      handler.NewStudentHandler(studentSvc),
		Subjects:      handler.NewSubjectHandler(subjectSvc),
		Booths:        handler.NewBoothHandler(boothSvc),
		Availability:  handler.NewAvailabilityHandler(availabilitySvc),
		Compatibility: handler.NewCompatibilityHandler(compatibilitySvc),
		Series:        handler.NewSeriesHandler(seriesSvc),
		Sessions:      handler.NewSessionHandler(sessionSvc, exportSvc),
		Calendar:      handler.NewCalendarHandler(selectedDatesSvc),
		Metrics:       metricsHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
