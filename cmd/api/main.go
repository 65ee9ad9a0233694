package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/database"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
	"github.com/noah-isme/gema-lms-api/internal/router"
	"github.com/noah-isme/gema-lms-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(context.Background(), cfg.DatabaseURL, cfg.DatabasePool)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured; progress events stay in process")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), redisClient, "lms", natsConn, validate, logger)
	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	catalogService := service.NewCatalogService(courseRepo, redisClient, cfg.CatalogCacheTTL, logger)
	badgeService := service.NewBadgeService(repository.NewBadgeRepository(db), userRepo, notificationService, logger)

	dashboardService := service.NewStudentDashboardService(enrollmentRepo, userRepo, redisClient, cfg.DashboardCacheTTL, logger)

	analyticsService := service.NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(db), redisClient, cfg.DashboardCacheTTL, logger)

	events := service.NewEventHub(logger)
	events.Subscribe(service.NewBadgeListener(badgeService))
	events.Subscribe(service.NewDashboardListener(dashboardService))
	if natsConn != nil {
		events.Subscribe(service.NewEventPublisher(natsConn, cfg.EventSubject, logger))
	}

	enrollmentService := service.NewEnrollmentService(service.EnrollmentDependencies{
		Enrollments: enrollmentRepo,
		Courses:     courseRepo,
		Payments:    repository.NewPaymentRepository(db),
		Users:       userRepo,
		Notifier:    notificationService,
		Activity:    activityService,
		Events:      events,
	}, validate, logger)
	progressService := service.NewProgressService(progressRepo, catalogService, events, validate, logger)
	assessmentService := service.NewAssessmentService(service.AssessmentDependencies{
		Assessments: repository.NewAssessmentRepository(db),
		Progress:    progressRepo,
		Users:       userRepo,
		Catalog:     catalogService,
		Events:      events,
		Activity:    activityService,
	}, validate, logger)
	otpService := service.NewOTPService(redisClient, service.LogOTPSender{Logger: logger}, cfg.OTPTTL, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		EnrollmentHandler:    handler.NewEnrollmentHandler(enrollmentService, logger),
		ProgressHandler:      handler.NewProgressHandler(progressService, logger),
		AssessmentHandler:    handler.NewAssessmentHandler(assessmentService, logger),
		BadgeHandler:         handler.NewBadgeHandler(badgeService, logger),
		NotificationHandler:  handler.NewNotificationHandler(notificationService, logger),
		OTPHandler:           handler.NewOTPHandler(otpService, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activityService, logger),
		CatalogHandler:       handler.NewCatalogHandler(catalogService, logger),
		DashboardHandler:     handler.NewStudentDashboardHandler(dashboardService, logger),
		AnalyticsHandler:     handler.NewAdminAnalyticsHandler(analyticsService, logger),
		HealthProbes:         healthProbes(db, redisClient, natsConn),
		JWTMiddleware:        middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("nats status %s", natsConn.Status())
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
