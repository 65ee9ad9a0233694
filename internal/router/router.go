package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EnrollmentHandler    *handler.EnrollmentHandler
	ProgressHandler      *handler.ProgressHandler
	AssessmentHandler    *handler.AssessmentHandler
	BadgeHandler         *handler.BadgeHandler
	NotificationHandler  *handler.NotificationHandler
	OTPHandler           *handler.OTPHandler
	AdminActivityHandler *handler.AdminActivityHandler
	CatalogHandler       *handler.CatalogHandler
	DashboardHandler     *handler.StudentDashboardHandler
	AnalyticsHandler     *handler.AdminAnalyticsHandler
	HealthProbes         map[string]handler.HealthProbe
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.OTPHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("otp", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.OTPHandler.Register(auth)
	}

	student := api.Group("/student",
		jwtMiddleware,
		middleware.Guard(middleware.AuthOptions{Role: middleware.AuthRoleStudent}),
		middleware.RateLimit("student", cfg.RateLimitMax, cfg.RateLimitWindow),
	)
	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(student)
	}
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(student)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(student)
	}
	if deps.BadgeHandler != nil {
		deps.BadgeHandler.Register(student)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(student)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(student)
	}

	instructor := api.Group("/instructor",
		jwtMiddleware,
		middleware.Guard(middleware.AuthOptions{Role: middleware.AuthRoleInstructor}),
	)
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.RegisterInstructor(instructor)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterInstructor(instructor)
	}

	admin := api.Group("/admin",
		jwtMiddleware,
		middleware.Guard(middleware.AuthOptions{RequireUser: true}),
		middleware.RequireRole(middleware.AuthRoleAdmin),
	)
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin)
	}
	if deps.BadgeHandler != nil {
		deps.BadgeHandler.RegisterAdmin(admin)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.RegisterAdmin(admin)
	}
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterAdmin(admin)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterAdmin(admin)
	}
	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(admin)
	}
}
