package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// StudentCompletionCount is one row of the completion leaderboard.
type StudentCompletionCount struct {
	UserID    uint
	FirstName string
	LastName  string
	Completed int64
}

// EnrollmentStatusCount is the number of enrollments in one status.
type EnrollmentStatusCount struct {
	Status string
	Total  int64
}

// AdminAnalyticsRepository supplies data for administrator analytics dashboards.
type AdminAnalyticsRepository interface {
	CountActiveStudents(ctx context.Context) (int64, error)
	CountEnrollmentsByStatus(ctx context.Context) ([]EnrollmentStatusCount, error)
	ListGradedEntries(ctx context.Context) ([]models.AssessmentProgress, error)
	ListCompletionsSince(ctx context.Context, since time.Time) ([]models.CompletedCourse, error)
	TopStudentsByCompletions(ctx context.Context, limit int) ([]StudentCompletionCount, error)
}

type adminAnalyticsRepository struct {
	db *gorm.DB
}

// NewAdminAnalyticsRepository constructs the analytics repository.
func NewAdminAnalyticsRepository(db *gorm.DB) AdminAnalyticsRepository {
	return &adminAnalyticsRepository{db: db}
}

func (r *adminAnalyticsRepository) CountActiveStudents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.UserRoleStudent, true).
		Count(&count).Error
	return count, err
}

func (r *adminAnalyticsRepository) CountEnrollmentsByStatus(ctx context.Context) ([]EnrollmentStatusCount, error) {
	var rows []EnrollmentStatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

func (r *adminAnalyticsRepository) ListGradedEntries(ctx context.Context) ([]models.AssessmentProgress, error) {
	var entries []models.AssessmentProgress
	err := r.db.WithContext(ctx).
		Where("status = ?", models.AssessmentStatusGraded).
		Find(&entries).Error
	return entries, err
}

func (r *adminAnalyticsRepository) ListCompletionsSince(ctx context.Context, since time.Time) ([]models.CompletedCourse, error) {
	var completions []models.CompletedCourse
	err := r.db.WithContext(ctx).
		Where("completed_at >= ?", since).
		Order("completed_at ASC").
		Find(&completions).Error
	return completions, err
}

func (r *adminAnalyticsRepository) TopStudentsByCompletions(ctx context.Context, limit int) ([]StudentCompletionCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []StudentCompletionCount
	err := r.db.WithContext(ctx).
		Table("user_completed_courses AS cc").
		Select("cc.user_id AS user_id, u.first_name AS first_name, u.last_name AS last_name, COUNT(*) AS completed").
		Joins("JOIN users u ON u.id = cc.user_id").
		Group("cc.user_id, u.first_name, u.last_name").
		Order("completed DESC, cc.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
