package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

const dashboardRecentResults = 5

// StudentDashboardService produces aggregated dashboard metrics.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
	Invalidate(ctx context.Context, studentID uint) error
}

type studentDashboardService struct {
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(enrollments repository.EnrollmentRepository, users repository.UserRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &studentDashboardService{
		enrollments: enrollments,
		users:       users,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func dashboardCacheKey(studentID uint) string {
	return fmt.Sprintf("dashboard:student:%d", studentID)
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	if err := requireStudent(ctx, s.users, studentID); err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	cacheKey := dashboardCacheKey(studentID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, fmt.Errorf("dashboard.Get: %w", err)
	}
	badges, err := s.users.ListBadges(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, fmt.Errorf("dashboard.Get: %w", err)
	}
	results, err := s.users.ListAssessmentResults(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, fmt.Errorf("dashboard.Get: %w", err)
	}

	response := s.buildResponse(enrollments, len(badges), results)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) Invalidate(ctx context.Context, studentID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, dashboardCacheKey(studentID)).Err()
}

func (s *studentDashboardService) buildResponse(enrollments []models.Enrollment, badges int, results []models.AssessmentResult) dto.StudentDashboardResponse {
	summary := dto.DashboardSummary{Badges: badges}
	courses := make([]dto.DashboardCourse, 0, len(enrollments))
	progressTotal := 0

	for _, enrollment := range enrollments {
		if enrollment.Status == models.EnrollmentStatusCancelled {
			continue
		}
		summary.TotalCourses++
		progressTotal += enrollment.Progress
		if enrollment.IsCompleted() {
			summary.CompletedCourses++
		}
		courses = append(courses, dto.DashboardCourse{
			CourseID:       enrollment.CourseID,
			Title:          enrollment.Course.Title,
			Progress:       enrollment.Progress,
			Completed:      enrollment.IsCompleted(),
			CompletionDate: enrollment.CompletionDate,
			LastAccessed:   enrollment.LastAccessed,
		})
	}
	if summary.TotalCourses > 0 {
		summary.AverageProgress = roundTenth(float64(progressTotal) / float64(summary.TotalCourses))
	}

	var scoreTotal float64
	recent := make([]dto.DashboardResult, 0, dashboardRecentResults)
	for _, result := range results {
		summary.AssessmentsTaken++
		if result.Passed {
			summary.AssessmentsPassed++
		}
		scoreTotal += result.Percentage()
	}
	if summary.AssessmentsTaken > 0 {
		summary.AverageScore = roundTenth(scoreTotal / float64(summary.AssessmentsTaken))
	}

	for idx := len(results) - 1; idx >= 0 && len(recent) < dashboardRecentResults; idx-- {
		result := results[idx]
		recent = append(recent, dto.DashboardResult{
			AssessmentID: result.AssessmentID,
			CourseID:     result.CourseID,
			Percentage:   roundTenth(result.Percentage()),
			Passed:       result.Passed,
			TakenAt:      result.TakenAt,
		})
	}

	return dto.StudentDashboardResponse{
		Summary:       summary,
		Courses:       courses,
		RecentResults: recent,
		GeneratedAt:   s.now().UTC(),
	}
}

func roundTenth(value float64) float64 {
	return math.Round(value*10) / 10
}

// DashboardListener drops cached dashboards when a student's progress changes.
type DashboardListener struct {
	dashboards StudentDashboardService
}

// NewDashboardListener wraps the dashboard service as a progress listener.
func NewDashboardListener(dashboards StudentDashboardService) *DashboardListener {
	return &DashboardListener{dashboards: dashboards}
}

// Name identifies the listener in logs and metrics.
func (l *DashboardListener) Name() string { return "dashboard_cache" }

// HandleProgressEvent invalidates the student's cached dashboard.
func (l *DashboardListener) HandleProgressEvent(ctx context.Context, event ProgressEvent) error {
	return l.dashboards.Invalidate(ctx, event.StudentID)
}
