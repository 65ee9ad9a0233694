package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
	"github.com/noah-isme/gema-lms-api/internal/router"
	"github.com/noah-isme/gema-lms-api/internal/service"
)

type testApp struct {
	app  *fiber.App
	db   *gorm.DB
	mini *miniredis.Miniredis
}

type otpRecorder struct {
	codes map[string]string
}

func (r *otpRecorder) SendOTP(_ context.Context, phone, code string) error {
	r.codes[phone] = code
	return nil
}

// headerAuth stands in for JWT validation: X-User-ID and X-User-Role become the request identity.
func headerAuth(c *fiber.Ctx) error {
	if raw := c.Get("X-User-ID"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err == nil {
			c.Locals("user_id", uint(id))
		}
	}
	if role := c.Get("X-User-Role"); role != "" {
		c.Locals("user_role", strings.ToLower(role))
	}
	return c.Next()
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setupAppWithOTP(t, nil)
}

func setupAppWithOTP(t *testing.T, sender service.OTPSender) *testApp {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	users := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	courses := repository.NewCourseRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), client, "lms", nil, validate, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	catalog := service.NewCatalogService(courses, client, time.Minute, logger)
	badges := service.NewBadgeService(repository.NewBadgeRepository(db), users, notifications, logger)

	dashboards := service.NewStudentDashboardService(repository.NewEnrollmentRepository(db), users, client, time.Minute, logger)

	hub := service.NewEventHub(logger)
	hub.Subscribe(service.NewBadgeListener(badges))
	hub.Subscribe(service.NewDashboardListener(dashboards))

	enrollments := service.NewEnrollmentService(service.EnrollmentDependencies{
		Enrollments: repository.NewEnrollmentRepository(db),
		Courses:     courses,
		Payments:    repository.NewPaymentRepository(db),
		Users:       users,
		Notifier:    notifications,
		Activity:    activity,
		Events:      hub,
	}, validate, logger)
	progress := service.NewProgressService(progressRepo, catalog, hub, validate, logger)
	assessments := service.NewAssessmentService(service.AssessmentDependencies{
		Assessments: repository.NewAssessmentRepository(db),
		Progress:    progressRepo,
		Users:       users,
		Catalog:     catalog,
		Events:      hub,
		Activity:    activity,
	}, validate, logger)
	if sender == nil {
		sender = service.LogOTPSender{Logger: logger}
	}
	otp := service.NewOTPService(client, sender, time.Minute, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", AppEnv: "test", RateLimitMax: 1000, RateLimitWindow: time.Minute}, router.Dependencies{
		EnrollmentHandler:    handler.NewEnrollmentHandler(enrollments, logger),
		ProgressHandler:      handler.NewProgressHandler(progress, logger),
		AssessmentHandler:    handler.NewAssessmentHandler(assessments, logger),
		BadgeHandler:         handler.NewBadgeHandler(badges, logger),
		NotificationHandler:  handler.NewNotificationHandler(notifications, logger),
		OTPHandler:           handler.NewOTPHandler(otp, logger),
		AdminActivityHandler: handler.NewAdminActivityHandler(activity, logger),
		CatalogHandler:       handler.NewCatalogHandler(catalog, logger),
		DashboardHandler:     handler.NewStudentDashboardHandler(dashboards, logger),
		AnalyticsHandler:     handler.NewAdminAnalyticsHandler(service.NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(db), client, time.Minute, logger), logger),
		JWTMiddleware:        headerAuth,
	})

	return &testApp{app: app, db: db, mini: mini}
}

type identity struct {
	id   uint
	role models.UserRole
}

func (a *testApp) do(t *testing.T, who *identity, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		req.Header.Set("X-User-ID", strconv.FormatUint(uint64(who.id), 10))
		req.Header.Set("X-User-Role", string(who.role))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (a *testApp) seedUser(t *testing.T, role models.UserRole, email string) identity {
	t.Helper()
	user := models.User{FirstName: "Test", LastName: string(role), Email: email, Role: role, IsActive: true}
	require.NoError(t, a.db.Create(&user).Error)
	return identity{id: user.ID, role: role}
}

func (a *testApp) seedCourse(t *testing.T, instructorID uint, lectures int) models.Course {
	t.Helper()
	section := models.CourseSection{Title: "Basics"}
	for i := 0; i < lectures; i++ {
		section.Lectures = append(section.Lectures, models.CourseLecture{Title: fmt.Sprintf("Lecture %d", i+1), Position: i})
	}
	course := models.Course{Title: "Go Fundamentals", InstructorID: instructorID, Status: models.CourseStatusPublished, Sections: []models.CourseSection{section}}
	require.NoError(t, a.db.Create(&course).Error)
	return course
}

func (a *testApp) seedPayment(t *testing.T, studentID, courseID uint) models.Payment {
	t.Helper()
	payment := models.Payment{StudentID: studentID, CourseID: courseID, Amount: 25, Currency: "USD", Status: models.PaymentStatusCompleted}
	require.NoError(t, a.db.Create(&payment).Error)
	return payment
}

func (a *testApp) seedQuiz(t *testing.T, courseID, instructorID uint) models.Assessment {
	t.Helper()
	quiz := models.Assessment{
		CourseID:     courseID,
		InstructorID: instructorID,
		Title:        "Checkpoint",
		IsPublished:  true,
		Questions: []models.AssessmentQuestion{{
			Text:    "Is Go statically typed?",
			Type:    models.QuestionMultipleChoice,
			Points:  10,
			Options: []models.QuestionOption{{Text: "yes", IsCorrect: true}, {Text: "no"}},
		}},
	}
	require.NoError(t, a.db.Create(&quiz).Error)
	return quiz
}
