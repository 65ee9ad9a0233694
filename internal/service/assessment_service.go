package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

const scoreTolerance = 1e-9

// AssessmentService handles submission scoring and instructor grading.
type AssessmentService interface {
	Submit(ctx context.Context, studentID, courseID, assessmentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmissionResult, error)
	Grade(ctx context.Context, actor ActivityActor, assessmentID uint, payload dto.GradeAssessmentRequest) (dto.GradeResult, error)
	GetResult(ctx context.Context, studentID, courseID, assessmentID uint) (dto.AssessmentEntryResponse, error)
}

// AssessmentDependencies groups the collaborators of the assessment service.
type AssessmentDependencies struct {
	Assessments repository.AssessmentRepository
	Progress    repository.ProgressRepository
	Users       repository.UserRepository
	Catalog     CourseCatalog
	Events      *EventHub
	Activity    ActivityRecorder
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	progress    repository.ProgressRepository
	users       repository.UserRepository
	catalog     CourseCatalog
	events      *EventHub
	activity    ActivityRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAssessmentService constructs the assessment service.
func NewAssessmentService(deps AssessmentDependencies, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments: deps.Assessments,
		progress:    deps.Progress,
		users:       deps.Users,
		catalog:     deps.Catalog,
		events:      deps.Events,
		activity:    deps.Activity,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assessment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/assessment"),
		now:         time.Now,
	}
}

// Submit auto-scores the answers and records the single submission of the student.
func (s *assessmentService) Submit(ctx context.Context, studentID, courseID, assessmentID uint, payload dto.SubmitAssessmentRequest) (dto.SubmissionResult, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.submit", trace.WithAttributes(
		attribute.Int64("assessment.id", int64(assessmentID)),
		attribute.Int64("assessment.student_id", int64(studentID)),
		attribute.Int64("assessment.course_id", int64(courseID)),
	))
	defer span.End()

	fail := func(status string, err error) (dto.SubmissionResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.SubmissionResult{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return fail("validation_failed", validationError("assessment.Submit", err))
	}

	assessment, err := s.assessments.GetWithQuestions(ctx, assessmentID)
	if err != nil {
		return fail("assessment_not_found", storeError("assessment.Submit", err, ErrAssessmentNotFound))
	}
	if assessment.CourseID != courseID {
		return fail("assessment_course_mismatch", ErrAssessmentCourseMismatch)
	}

	record, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return fail("progress_not_found", storeError("assessment.Submit", err, ErrProgressNotFound))
	}
	if _, exists := record.AssessmentEntry(assessmentID); exists {
		return fail("already_submitted", ErrAlreadySubmitted)
	}

	score := ScoreSubmission(assessment, payload.Answers)
	now := s.now().UTC()

	answers := datatypes.JSONMap{}
	for questionID, answer := range payload.Answers {
		answers[questionID] = answer
	}

	entry := models.AssessmentProgress{
		ProgressID:     record.ID,
		AssessmentID:   assessment.ID,
		Status:         models.AssessmentStatusSubmitted,
		Score:          score.Score,
		TotalPoints:    score.TotalPoints,
		Answers:        answers,
		SubmissionDate: &now,
	}
	history := models.AssessmentResult{
		UserID:       studentID,
		CourseID:     courseID,
		AssessmentID: assessment.ID,
		Score:        score.Score,
		TotalPoints:  score.TotalPoints,
		Passed:       score.Passed,
		TakenAt:      now,
	}

	if err := s.progress.SubmitAssessment(ctx, &entry, &history); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail("already_submitted", wrapError("assessment.Submit", ErrConflict, ErrAlreadySubmitted.Message, err))
		}
		return fail("submission_failed", storeError("assessment.Submit", err, ErrProgressNotFound))
	}

	observability.AssessmentsSubmitted().WithLabelValues(strconv.FormatBool(score.Passed)).Inc()
	span.SetAttributes(
		attribute.Float64("assessment.score", score.Score),
		attribute.Bool("assessment.passed", score.Passed),
	)

	result := dto.SubmissionResult{
		AssessmentID: assessment.ID,
		Score:        score.Score,
		TotalPoints:  score.TotalPoints,
		Percentage:   score.Percentage,
		Passed:       score.Passed,
	}

	s.events.Dispatch(ctx, &result.Outcome, ProgressEvent{
		Type:            EventAssessmentSubmitted,
		StudentID:       studentID,
		CourseID:        courseID,
		AssessmentID:    assessment.ID,
		OverallProgress: record.OverallProgress,
		OccurredAt:      now,
	})

	return result, nil
}

// Grade moves a submission to graded and recomputes overall progress using its score.
func (s *assessmentService) Grade(ctx context.Context, actor ActivityActor, assessmentID uint, payload dto.GradeAssessmentRequest) (dto.GradeResult, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.grade", trace.WithAttributes(
		attribute.Int64("assessment.id", int64(assessmentID)),
		attribute.Int64("assessment.actor_id", int64(actor.ID)),
		attribute.Int64("assessment.student_id", int64(payload.StudentID)),
	))
	defer span.End()

	fail := func(status string, err error) (dto.GradeResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.GradeResult{}, err
	}

	if err := s.validator.Struct(payload); err != nil {
		return fail("validation_failed", validationError("assessment.Grade", err))
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		return fail("assessment_not_found", storeError("assessment.Grade", err, ErrAssessmentNotFound))
	}
	if !actor.IsAdmin() && assessment.InstructorID != actor.ID {
		return fail("not_owner", ErrNotAssessmentOwner)
	}
	if payload.Score < 0 || payload.Score > assessment.TotalPoints+scoreTolerance {
		return fail("score_out_of_range", ErrScoreOutOfRange)
	}

	if err := requireStudent(ctx, s.users, payload.StudentID); err != nil {
		return fail("student_not_found", err)
	}

	record, err := s.progress.GetByStudentAndCourse(ctx, payload.StudentID, assessment.CourseID)
	if err != nil {
		return fail("progress_not_found", storeError("assessment.Grade", err, ErrSubmissionNotFound))
	}
	entry, ok := record.AssessmentEntry(assessmentID)
	if !ok {
		return fail("submission_not_found", ErrSubmissionNotFound)
	}
	if entry.IsGraded() {
		return fail("already_graded", ErrAlreadyGraded)
	}

	curriculum, err := s.catalog.GetCurriculum(ctx, assessment.CourseID)
	if err != nil {
		return fail("curriculum_lookup_failed", err)
	}

	now := s.now().UTC()
	feedback := strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	recomputed, err := s.progress.GradeAssessment(ctx, record.ID, repository.AssessmentGrade{
		EntryID:  entry.ID,
		Score:    payload.Score,
		Feedback: feedback,
		GradedBy: actor.ID,
		At:       now,
	}, overallProgressFor(curriculum.TotalLectures()))
	if err != nil {
		if errors.Is(err, repository.ErrAssessmentEntryGraded) {
			return fail("already_graded", ErrAlreadyGraded)
		}
		return fail("grading_failed", storeError("assessment.Grade", err, ErrSubmissionNotFound))
	}

	observability.AssessmentsGraded().Inc()
	span.SetAttributes(
		attribute.Float64("assessment.score", payload.Score),
		attribute.Int("progress.overall", recomputed.Overall),
	)

	result := dto.GradeResult{}

	if s.activity != nil {
		entityID := entry.ID
		_, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     models.ActivityActionAssessmentGraded,
			EntityType: models.ActivityEntityAssessmentSubmission,
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"assessment_id": assessment.ID,
				"student_id":    payload.StudentID,
				"score":         payload.Score,
				"overall":       recomputed.Overall,
			},
		})
		if err != nil {
			observability.SideEffectFailures().WithLabelValues("activity").Inc()
			s.logger.Warn().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to record grading activity")
			warnOutcome(&result.Outcome, "activity", err)
		}
	}

	events := []ProgressEvent{{
		Type:            EventAssessmentGraded,
		StudentID:       payload.StudentID,
		CourseID:        assessment.CourseID,
		AssessmentID:    assessment.ID,
		OverallProgress: recomputed.Overall,
		OccurredAt:      now,
	}}
	events = append(events, completionEvents(recomputed, now)...)
	s.events.Dispatch(ctx, &result.Outcome, events...)

	refreshed, err := s.progress.GetByStudentAndCourse(ctx, payload.StudentID, assessment.CourseID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", payload.StudentID).Msg("failed to reload progress after grading")
		return result, nil
	}
	result.Progress = dto.NewProgressResponse(refreshed)
	if graded, ok := refreshed.AssessmentEntry(assessmentID); ok {
		result.Entry = dto.NewAssessmentEntryResponse(graded)
	}
	return result, nil
}

// GetResult returns the student's entry for an assessment once it was submitted.
func (s *assessmentService) GetResult(ctx context.Context, studentID, courseID, assessmentID uint) (dto.AssessmentEntryResponse, error) {
	record, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return dto.AssessmentEntryResponse{}, storeError("assessment.GetResult", err, ErrProgressNotFound)
	}

	entry, ok := record.AssessmentEntry(assessmentID)
	if !ok || !entry.IsSubmitted() {
		return dto.AssessmentEntryResponse{}, ErrSubmissionNotFound
	}
	return dto.NewAssessmentEntryResponse(entry), nil
}
