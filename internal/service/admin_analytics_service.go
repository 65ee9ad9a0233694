package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

const (
	analyticsCacheKey    = "analytics:summary"
	analyticsWeeks       = 8
	analyticsTopStudents = 10
)

// AdminAnalyticsService aggregates analytics for the admin dashboard.
type AdminAnalyticsService interface {
	GetSummary(ctx context.Context) (dto.AdminAnalyticsResponse, error)
	Invalidate(ctx context.Context) error
}

type adminAnalyticsService struct {
	repo     repository.AdminAnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminAnalyticsService constructs the analytics service.
func NewAdminAnalyticsService(repo repository.AdminAnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AdminAnalyticsService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &adminAnalyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "admin_analytics_service").Logger(),
		now:      time.Now,
	}
}

func (s *adminAnalyticsService) GetSummary(ctx context.Context) (dto.AdminAnalyticsResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/admin_analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", analyticsCacheKey))
	defer span.End()

	fail := func(status string, err error) (dto.AdminAnalyticsResponse, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.AdminAnalyticsResponse{}, fmt.Errorf("analytics.Summary: %w", err)
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, analyticsCacheKey).Result()
		if err == nil {
			var response dto.AdminAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	activeCount, err := s.repo.CountActiveStudents(ctx)
	if err != nil {
		return fail("count_active_students_failed", err)
	}
	statuses, err := s.repo.CountEnrollmentsByStatus(ctx)
	if err != nil {
		return fail("count_enrollments_failed", err)
	}
	graded, err := s.repo.ListGradedEntries(ctx)
	if err != nil {
		return fail("list_graded_failed", err)
	}

	now := s.now().UTC()
	completions, err := s.repo.ListCompletionsSince(ctx, startOfWeek(now).AddDate(0, 0, -7*(analyticsWeeks-1)))
	if err != nil {
		return fail("list_completions_failed", err)
	}
	top, err := s.repo.TopStudentsByCompletions(ctx, analyticsTopStudents)
	if err != nil {
		return fail("top_students_failed", err)
	}

	summary := buildAnalytics(now, activeCount, statuses, graded, completions, top)
	span.SetAttributes(
		attribute.Int64("analytics.active_students", activeCount),
		attribute.Int64("analytics.graded_assessments", summary.GradedAssessments),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, analyticsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

// Invalidate drops the cached summary so the next read recomputes it.
func (s *adminAnalyticsService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, analyticsCacheKey).Err(); err != nil {
		return fmt.Errorf("analytics.Invalidate: %w", err)
	}
	return nil
}

func buildAnalytics(now time.Time, activeCount int64, statuses []repository.EnrollmentStatusCount, graded []models.AssessmentProgress, completions []models.CompletedCourse, top []repository.StudentCompletionCount) dto.AdminAnalyticsResponse {
	response := dto.AdminAnalyticsResponse{
		ActiveStudents: activeCount,
		GradeDistribution: dto.GradeDistributionResponse{
			"90-100": 0,
			"75-89":  0,
			"60-74":  0,
			"0-59":   0,
		},
		WeeklyCompletions: make([]dto.WeeklyCompletionPoint, 0, analyticsWeeks),
		TopStudents:       make([]dto.TopStudentResponse, 0, len(top)),
		GeneratedAt:       now,
	}

	for _, row := range statuses {
		switch models.EnrollmentStatus(row.Status) {
		case models.EnrollmentStatusActive:
			response.ActiveEnrollments = row.Total
		case models.EnrollmentStatusCompleted:
			response.CompletedEnrollments = row.Total
		}
	}
	if started := response.ActiveEnrollments + response.CompletedEnrollments; started > 0 {
		response.CompletionRate = roundTenth(float64(response.CompletedEnrollments) / float64(started) * 100)
	}

	for _, entry := range graded {
		if entry.TotalPoints <= 0 {
			continue
		}
		response.GradedAssessments++
		percent := entry.Score / entry.TotalPoints * 100
		switch {
		case percent >= 90:
			response.GradeDistribution["90-100"]++
		case percent >= 75:
			response.GradeDistribution["75-89"]++
		case percent >= 60:
			response.GradeDistribution["60-74"]++
		default:
			response.GradeDistribution["0-59"]++
		}
	}

	weekly := map[time.Time]int64{}
	for _, completion := range completions {
		weekly[startOfWeek(completion.CompletedAt)]++
	}
	weeks := make([]time.Time, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	for _, week := range weeks {
		response.WeeklyCompletions = append(response.WeeklyCompletions, dto.WeeklyCompletionPoint{WeekStart: week, Completions: weekly[week]})
	}

	for _, row := range top {
		response.TopStudents = append(response.TopStudents, dto.TopStudentResponse{
			StudentID:        row.UserID,
			Name:             strings.TrimSpace(row.FirstName + " " + row.LastName),
			CompletedCourses: row.Completed,
		})
	}

	return response
}

func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	weekday := int(utc.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := utc.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
