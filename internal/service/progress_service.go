package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// ProgressService records curriculum activity and maintains overall progress.
type ProgressService interface {
	GetProgress(ctx context.Context, studentID, courseID uint) (dto.ProgressResponse, error)
	RecordLectureTouch(ctx context.Context, studentID, courseID uint, payload dto.LectureTouchRequest) (dto.CurriculumEntryResponse, error)
	CompleteLecture(ctx context.Context, studentID, courseID, lectureID uint) (dto.LectureCompletionResult, error)
	ListCourseProgress(ctx context.Context, actor ActivityActor, courseID uint) ([]dto.ProgressResponse, error)
}

type progressService struct {
	progress  repository.ProgressRepository
	catalog   CourseCatalog
	events    *EventHub
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewProgressService constructs the progress service.
func NewProgressService(progress repository.ProgressRepository, catalog CourseCatalog, events *EventHub, validate *validator.Validate, logger zerolog.Logger) ProgressService {
	return &progressService{
		progress:  progress,
		catalog:   catalog,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "progress_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/progress"),
		now:       time.Now,
	}
}

func (s *progressService) GetProgress(ctx context.Context, studentID, courseID uint) (dto.ProgressResponse, error) {
	record, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return dto.ProgressResponse{}, storeError("progress.Get", err, ErrProgressNotFound)
	}
	return dto.NewProgressResponse(record), nil
}

// RecordLectureTouch accumulates time spent on a lecture. It never changes completion or overall progress.
func (s *progressService) RecordLectureTouch(ctx context.Context, studentID, courseID uint, payload dto.LectureTouchRequest) (dto.CurriculumEntryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CurriculumEntryResponse{}, validationError("progress.RecordLectureTouch", err)
	}

	exists, err := s.catalog.LectureExists(ctx, courseID, payload.SectionID, payload.LectureID)
	if err != nil {
		return dto.CurriculumEntryResponse{}, err
	}
	if !exists {
		return dto.CurriculumEntryResponse{}, ErrLectureNotFound
	}

	record, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return dto.CurriculumEntryResponse{}, storeError("progress.RecordLectureTouch", err, ErrProgressNotFound)
	}

	entry, err := s.progress.TouchLecture(ctx, repository.LectureActivity{
		ProgressID: record.ID,
		SectionID:  payload.SectionID,
		LectureID:  payload.LectureID,
		TimeSpent:  payload.TimeSpent,
		At:         s.now().UTC(),
	})
	if err != nil {
		return dto.CurriculumEntryResponse{}, storeError("progress.RecordLectureTouch", err, ErrProgressNotFound)
	}

	return dto.NewCurriculumEntryResponse(entry), nil
}

// CompleteLecture marks a lecture completed, recomputes overall progress and,
// on the crossing to 100, completes the enrollment. Listeners run after commit.
func (s *progressService) CompleteLecture(ctx context.Context, studentID, courseID, lectureID uint) (dto.LectureCompletionResult, error) {
	ctx, span := s.tracer.Start(ctx, "progress.complete_lecture", trace.WithAttributes(
		attribute.Int64("progress.student_id", int64(studentID)),
		attribute.Int64("progress.course_id", int64(courseID)),
		attribute.Int64("progress.lecture_id", int64(lectureID)),
	))
	defer span.End()

	curriculum, err := s.catalog.GetCurriculum(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "curriculum_lookup_failed")
		return dto.LectureCompletionResult{}, err
	}

	lecture, ok := curriculum.FindLecture(lectureID)
	if !ok {
		span.SetStatus(codes.Error, "lecture_not_found")
		return dto.LectureCompletionResult{}, ErrLectureNotFound
	}

	record, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "progress_not_found")
		return dto.LectureCompletionResult{}, storeError("progress.CompleteLecture", err, ErrProgressNotFound)
	}

	recomputed, err := s.progress.CompleteLecture(ctx, repository.LectureActivity{
		ProgressID: record.ID,
		SectionID:  lecture.SectionID,
		LectureID:  lecture.ID,
		At:         s.now().UTC(),
	}, overallProgressFor(curriculum.TotalLectures()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion_failed")
		return dto.LectureCompletionResult{}, storeError("progress.CompleteLecture", err, ErrProgressNotFound)
	}

	observability.LecturesCompleted().Inc()
	span.SetAttributes(
		attribute.Int("progress.overall", recomputed.Overall),
		attribute.Bool("progress.course_completed", recomputed.CompletedNow),
	)

	result := dto.LectureCompletionResult{
		OverallProgress: recomputed.Overall,
		CourseCompleted: recomputed.CompletedNow,
	}

	events := []ProgressEvent{{
		Type:            EventLectureCompleted,
		StudentID:       studentID,
		CourseID:        courseID,
		LectureID:       lecture.ID,
		OverallProgress: recomputed.Overall,
		OccurredAt:      s.now().UTC(),
	}}
	events = append(events, completionEvents(recomputed, s.now().UTC())...)
	s.events.Dispatch(ctx, &result.Outcome, events...)

	refreshed, err := s.progress.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Uint("course_id", courseID).Msg("failed to reload progress after completion")
	} else {
		result.Progress = dto.NewProgressResponse(refreshed)
	}

	return result, nil
}

// ListCourseProgress returns every student's progress in a course the actor teaches.
func (s *progressService) ListCourseProgress(ctx context.Context, actor ActivityActor, courseID uint) ([]dto.ProgressResponse, error) {
	curriculum, err := s.catalog.GetCurriculum(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && curriculum.InstructorID != actor.ID {
		return nil, ErrNotCourseOwner
	}

	records, err := s.progress.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, storeError("progress.ListCourse", err, nil)
	}
	return dto.NewProgressResponseSlice(records), nil
}

// completionEvents returns the course.completed event when the recomputation crossed into completion.
func completionEvents(result repository.RecomputeResult, at time.Time) []ProgressEvent {
	if !result.CompletedNow {
		return nil
	}
	observability.CourseCompletions().Inc()
	return []ProgressEvent{{
		Type:            EventCourseCompleted,
		StudentID:       result.StudentID,
		CourseID:        result.CourseID,
		OverallProgress: result.Overall,
		OccurredAt:      at,
	}}
}
