package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// EnrollmentService turns completed course payments into enrollments.
type EnrollmentService interface {
	Enroll(ctx context.Context, studentID uint, payload dto.EnrollRequest) (dto.EnrollmentResult, error)
	ListEnrollments(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
	CertificateEligibility(ctx context.Context, studentID, courseID uint) (dto.CertificateEligibilityResponse, error)
}

// EnrollmentDependencies groups the collaborators of the enrollment service.
type EnrollmentDependencies struct {
	Enrollments repository.EnrollmentRepository
	Courses     repository.CourseRepository
	Payments    repository.PaymentRepository
	Users       repository.UserRepository
	Notifier    Notifier
	Activity    ActivityRecorder
	Events      *EventHub
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	payments    repository.PaymentRepository
	users       repository.UserRepository
	notifier    Notifier
	activity    ActivityRecorder
	events      *EventHub
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(deps EnrollmentDependencies, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: deps.Enrollments,
		courses:     deps.Courses,
		payments:    deps.Payments,
		users:       deps.Users,
		notifier:    deps.Notifier,
		activity:    deps.Activity,
		events:      deps.Events,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/enrollment"),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID uint, payload dto.EnrollRequest) (dto.EnrollmentResult, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.enroll", trace.WithAttributes(
		attribute.Int64("enrollment.student_id", int64(studentID)),
		attribute.Int64("enrollment.course_id", int64(payload.CourseID)),
		attribute.Int64("enrollment.payment_id", int64(payload.PaymentID)),
	))
	defer span.End()

	result, err := s.enroll(ctx, studentID, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enrollment_failed")
		observability.Enrollments().WithLabelValues(enrollmentResultLabel(err)).Inc()
		return dto.EnrollmentResult{}, err
	}

	observability.Enrollments().WithLabelValues("created").Inc()
	span.SetAttributes(attribute.Bool("enrollment.degraded", result.Degraded))
	return result, nil
}

func (s *enrollmentService) enroll(ctx context.Context, studentID uint, payload dto.EnrollRequest) (dto.EnrollmentResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResult{}, validationError("enrollment.Enroll", err)
	}

	if err := requireStudent(ctx, s.users, studentID); err != nil {
		return dto.EnrollmentResult{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		return dto.EnrollmentResult{}, storeError("enrollment.Enroll", err, ErrCourseNotFound)
	}

	payment, err := s.payments.GetByID(ctx, payload.PaymentID)
	if err != nil {
		return dto.EnrollmentResult{}, storeError("enrollment.Enroll", err, ErrPaymentNotFound)
	}
	switch {
	case !payment.IsCompleted():
		return dto.EnrollmentResult{}, ErrPaymentNotCompleted
	case payment.StudentID != studentID:
		return dto.EnrollmentResult{}, ErrPaymentOwnerMismatch
	case payment.CourseID != course.ID:
		return dto.EnrollmentResult{}, ErrPaymentCourseMismatch
	}

	exists, err := s.enrollments.ExistsForStudentAndCourse(ctx, studentID, course.ID)
	if err != nil {
		return dto.EnrollmentResult{}, fmt.Errorf("enrollment.Enroll: %w", err)
	}
	if exists {
		return dto.EnrollmentResult{}, ErrEnrollmentExists
	}

	used, err := s.enrollments.ExistsForPayment(ctx, payment.ID)
	if err != nil {
		return dto.EnrollmentResult{}, fmt.Errorf("enrollment.Enroll: %w", err)
	}
	if used {
		return dto.EnrollmentResult{}, ErrPaymentAlreadyUsed
	}

	now := s.now().UTC()
	paymentID := payment.ID
	enrollment := models.Enrollment{
		StudentID:      studentID,
		CourseID:       course.ID,
		PaymentID:      &paymentID,
		Status:         models.EnrollmentStatusActive,
		EnrollmentDate: now,
	}
	progress := models.Progress{}

	if err := s.enrollments.Enroll(ctx, &enrollment, &progress); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResult{}, wrapError("enrollment.Enroll", ErrConflict, ErrEnrollmentExists.Message, err)
		}
		if errors.Is(err, repository.ErrCourseCounterNotUpdated) {
			return dto.EnrollmentResult{}, ErrCourseNotFound
		}
		s.logger.Error().Err(err).Uint("student_id", studentID).Uint("course_id", course.ID).Msg("enrollment transaction failed")
		return dto.EnrollmentResult{}, fmt.Errorf("enrollment.Enroll: %w", err)
	}

	result := dto.EnrollmentResult{
		Enrollment: dto.NewEnrollmentResponse(enrollment),
		Progress:   dto.NewProgressResponse(progress),
	}

	s.afterEnroll(ctx, &result.Outcome, enrollment, course)
	return result, nil
}

// afterEnroll runs the best-effort side effects of a committed enrollment.
func (s *enrollmentService) afterEnroll(ctx context.Context, outcome *dto.Outcome, enrollment models.Enrollment, course models.Course) {
	if s.notifier != nil {
		_, err := s.notifier.Notify(ctx, dto.NotificationCreateRequest{
			UserID:  enrollment.StudentID,
			Title:   "Enrollment confirmed",
			Message: fmt.Sprintf("You are now enrolled in %s.", course.Title),
			Type:    string(models.NotificationTypeCourse),
			Related: &dto.RelatedEntityPayload{Kind: string(models.RelatedCourse), ID: course.ID},
		})
		if err != nil {
			observability.SideEffectFailures().WithLabelValues("notification").Inc()
			s.logger.Warn().Err(err).Uint("student_id", enrollment.StudentID).Uint("course_id", course.ID).Msg("failed to send enrollment notification")
			warnOutcome(outcome, "notification", err)
		}
	}

	if s.activity != nil {
		entityID := enrollment.ID
		_, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    enrollment.StudentID,
			ActorRole:  string(models.UserRoleStudent),
			Action:     models.ActivityActionEnrollmentCreated,
			EntityType: models.ActivityEntityEnrollment,
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"course_id":  course.ID,
				"payment_id": enrollment.PaymentID,
			},
		})
		if err != nil {
			observability.SideEffectFailures().WithLabelValues("activity").Inc()
			s.logger.Warn().Err(err).Uint("enrollment_id", enrollment.ID).Msg("failed to record enrollment activity")
			warnOutcome(outcome, "activity", err)
		}
	}

	s.events.Dispatch(ctx, outcome, ProgressEvent{
		Type:       EventEnrollmentCreated,
		StudentID:  enrollment.StudentID,
		CourseID:   course.ID,
		OccurredAt: enrollment.EnrollmentDate,
	})
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("enrollment.List: %w", err)
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}
	return responses, nil
}

// CertificateEligibility exposes the completion state certificate issuance relies on.
func (s *enrollmentService) CertificateEligibility(ctx context.Context, studentID, courseID uint) (dto.CertificateEligibilityResponse, error) {
	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return dto.CertificateEligibilityResponse{}, storeError("enrollment.CertificateEligibility", err, ErrEnrollmentNotFound)
	}

	return dto.CertificateEligibilityResponse{
		StudentID:      studentID,
		CourseID:       courseID,
		Eligible:       enrollment.IsCompleted(),
		Status:         string(enrollment.Status),
		CompletionDate: enrollment.CompletionDate,
	}, nil
}

func requireStudent(ctx context.Context, users repository.UserRepository, studentID uint) error {
	if studentID == 0 {
		return newError("user.Get", ErrInvalidInput, "student id is required")
	}
	user, err := users.GetByID(ctx, studentID)
	if err != nil {
		return storeError("user.Get", err, ErrStudentNotFound)
	}
	if !user.IsStudent() {
		return ErrStudentNotFound
	}
	return nil
}

func enrollmentResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
