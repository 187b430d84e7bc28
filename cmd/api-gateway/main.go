package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/suivi-academique-api/api/swagger"
	"github.com/noah-isme/suivi-academique-api/internal/handler"
	"github.com/noah-isme/suivi-academique-api/internal/middleware"
	"github.com/noah-isme/suivi-academique-api/internal/repository"
	"github.com/noah-isme/suivi-academique-api/internal/router"
	"github.com/noah-isme/suivi-academique-api/internal/service"
	"github.com/noah-isme/suivi-academique-api/pkg/cache"
	"github.com/noah-isme/suivi-academique-api/pkg/config"
	"github.com/noah-isme/suivi-academique-api/pkg/database"
	"github.com/noah-isme/suivi-academique-api/pkg/events"
	"github.com/noah-isme/suivi-academique-api/pkg/export"
	"github.com/noah-isme/suivi-academique-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/suivi-academique-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/suivi-academique-api/pkg/middleware/requestid"
)

// @title Suivi Academique API
// @version 1.0.0
// @description Room booking and academic catalog service
// @BasePath /
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.CacheEnabled {
		if redisClient, err = cache.NewRedis(cfg.Redis); err != nil {
			logr.Warn("redis unavailable, cache disabled", zap.Error(err))
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		rabbit, err := events.NewRabbitPublisher(cfg.Events, logr)
		if err != nil {
			logr.Warn("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			publisher = rabbit
		}
	}
	defer publisher.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Redis.CacheTTL, logr, redisClient != nil)

	bookingRepo := repository.NewBookingRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	codes := service.NewStaffCodeGenerator(staffRepo, cfg.Booking.StaffCodeMaxAttempts)
	staffSvc := service.NewStaffService(staffRepo, codes, cacheSvc, validate, logr)
	authSvc := service.NewAuthService(staffRepo, staffSvc, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	bookingSvc := service.NewBookingService(bookingRepo, cacheSvc, metricsSvc, publisher, logr)
	roomSvc := service.NewRoomService(roomRepo, cacheSvc, validate, logr, cfg.Booking.MinRoomCapacity)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, courseRepo, staffRepo, logr)
	exportSvc := service.NewExportService(bookingRepo, export.NewCSVExporter(export.WithBOM()), nil, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	router.Register(r, router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Bookings:    handler.NewBookingHandler(bookingSvc, exportSvc),
		Rooms:       handler.NewRoomHandler(roomSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Staff:       handler.NewStaffHandler(staffSvc),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc, checks),
	}, authSvc, router.Options{Docs: cfg.Env != config.EnvProduction})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "events", cfg.Events.Enabled)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
