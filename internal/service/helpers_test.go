package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type recordingListener struct {
	mu     sync.Mutex
	events []ProgressEvent
	err    error
}

func (l *recordingListener) Name() string { return "recorder" }

func (l *recordingListener) HandleProgressEvent(_ context.Context, event ProgressEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return l.err
}

func (l *recordingListener) count(eventType ProgressEventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, event := range l.events {
		if event.Type == eventType {
			total++
		}
	}
	return total
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{}, errors.New("notification gateway unavailable")
}

type testEngine struct {
	db            *gorm.DB
	mini          *miniredis.Miniredis
	redis         *redis.Client
	hub           *EventHub
	recorder      *recordingListener
	catalog       CatalogService
	notifications NotificationService
	activity      ActivityService
	enrollments   EnrollmentService
	progress      ProgressService
	assessments   AssessmentService
	badges        BadgeService
}

type engineOption func(*engineConfig)

type engineConfig struct {
	notifier Notifier
}

func withNotifier(notifier Notifier) engineOption {
	return func(cfg *engineConfig) { cfg.notifier = notifier }
}

func newTestEngine(t *testing.T, opts ...engineOption) *testEngine {
	t.Helper()

	db := setupTestDB(t)
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := testLogger()
	validate := testValidator()

	users := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	notifications := NewNotificationService(repository.NewNotificationRepository(db), client, "lms", nil, validate, logger)
	cfg := engineConfig{notifier: notifications}
	for _, opt := range opts {
		opt(&cfg)
	}

	activity := NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	catalog := NewCatalogService(repository.NewCourseRepository(db), client, time.Minute, logger)
	badges := NewBadgeService(repository.NewBadgeRepository(db), users, cfg.notifier, logger)

	hub := NewEventHub(logger)
	recorder := &recordingListener{}
	hub.Subscribe(NewBadgeListener(badges))
	hub.Subscribe(recorder)

	engine := &testEngine{
		db:            db,
		mini:          mini,
		redis:         client,
		hub:           hub,
		recorder:      recorder,
		catalog:       catalog,
		notifications: notifications,
		activity:      activity,
		badges:        badges,
		progress:      NewProgressService(progressRepo, catalog, hub, validate, logger),
		enrollments: NewEnrollmentService(EnrollmentDependencies{
			Enrollments: repository.NewEnrollmentRepository(db),
			Courses:     repository.NewCourseRepository(db),
			Payments:    repository.NewPaymentRepository(db),
			Users:       users,
			Notifier:    cfg.notifier,
			Activity:    activity,
			Events:      hub,
		}, validate, logger),
		assessments: NewAssessmentService(AssessmentDependencies{
			Assessments: repository.NewAssessmentRepository(db),
			Progress:    progressRepo,
			Users:       users,
			Catalog:     catalog,
			Events:      hub,
			Activity:    activity,
		}, validate, logger),
	}
	return engine
}

func (e *testEngine) seedUser(t *testing.T, role models.UserRole) models.User {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.User{}).Count(&count).Error)
	user := models.User{
		FirstName: "User",
		LastName:  fmt.Sprintf("%d", count+1),
		Email:     fmt.Sprintf("%s%d@example.com", role, count+1),
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEngine) seedCourse(t *testing.T, instructorID uint, lectures ...int) models.Course {
	t.Helper()
	course := models.Course{Title: "Distributed Systems", InstructorID: instructorID, Status: models.CourseStatusPublished}
	for i, count := range lectures {
		section := models.CourseSection{Title: fmt.Sprintf("Section %d", i+1), Position: i}
		for j := 0; j < count; j++ {
			section.Lectures = append(section.Lectures, models.CourseLecture{Title: fmt.Sprintf("Lecture %d.%d", i+1, j+1), Position: j})
		}
		course.Sections = append(course.Sections, section)
	}
	require.NoError(t, e.db.Create(&course).Error)
	return course
}

func (e *testEngine) seedPayment(t *testing.T, studentID, courseID uint, status string) models.Payment {
	t.Helper()
	payment := models.Payment{StudentID: studentID, CourseID: courseID, Amount: 49, Currency: "USD", Method: "card", Status: status}
	require.NoError(t, e.db.Create(&payment).Error)
	return payment
}

func (e *testEngine) enroll(t *testing.T, studentID, courseID uint) dto.EnrollmentResult {
	t.Helper()
	payment := e.seedPayment(t, studentID, courseID, models.PaymentStatusCompleted)
	result, err := e.enrollments.Enroll(context.Background(), studentID, dto.EnrollRequest{CourseID: courseID, PaymentID: payment.ID})
	require.NoError(t, err)
	return result
}

// seedQuiz creates a published assessment of multiple choice questions worth pointsEach.
func (e *testEngine) seedQuiz(t *testing.T, courseID, instructorID uint, questions int, pointsEach float64) models.Assessment {
	t.Helper()
	assessment := models.Assessment{CourseID: courseID, InstructorID: instructorID, Title: "Quiz", Type: "quiz", IsPublished: true}
	for i := 0; i < questions; i++ {
		assessment.Questions = append(assessment.Questions, models.AssessmentQuestion{
			Text:     fmt.Sprintf("Question %d", i+1),
			Type:     models.QuestionMultipleChoice,
			Points:   pointsEach,
			Position: i,
			Options: []models.QuestionOption{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			},
		})
	}
	require.NoError(t, e.db.Create(&assessment).Error)

	loaded, err := repository.NewAssessmentRepository(e.db).GetWithQuestions(context.Background(), assessment.ID)
	require.NoError(t, err)
	return loaded
}

// correctAnswers selects the correct option of every question.
func correctAnswers(assessment models.Assessment) map[string]string {
	answers := map[string]string{}
	for _, question := range assessment.Questions {
		if option, ok := question.CorrectOption(); ok {
			answers[fmt.Sprintf("%d", question.ID)] = fmt.Sprintf("%d", option.ID)
		}
	}
	return answers
}

func (e *testEngine) lectureIDs(course models.Course) []uint {
	ids := make([]uint, 0)
	for _, section := range course.Sections {
		for _, lecture := range section.Lectures {
			ids = append(ids, lecture.ID)
		}
	}
	return ids
}

func (e *testEngine) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var total int64
	require.NoError(t, e.db.Model(model).Count(&total).Error)
	return total
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrInt(v int) *int {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}
