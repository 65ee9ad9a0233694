package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// UserRepository provides access to accounts and the student history tables.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	ListCompletedCourses(ctx context.Context, userID uint) ([]models.CompletedCourse, error)
	ListEnrolledCourses(ctx context.Context, userID uint) ([]models.EnrolledCourse, error)
	ListAssessmentResults(ctx context.Context, userID uint) ([]models.AssessmentResult, error)
	ListBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
	GrantBadges(ctx context.Context, userID uint, badgeIDs []uint, at time.Time) ([]uint, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) ListCompletedCourses(ctx context.Context, userID uint) ([]models.CompletedCourse, error) {
	var courses []models.CompletedCourse
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at ASC").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *userRepository) ListEnrolledCourses(ctx context.Context, userID uint) ([]models.EnrolledCourse, error) {
	var courses []models.EnrolledCourse
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("enrollment_date ASC, id ASC").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *userRepository) ListAssessmentResults(ctx context.Context, userID uint) ([]models.AssessmentResult, error) {
	var results []models.AssessmentResult
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("taken_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepository) ListBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	if err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("granted_at ASC, badge_id ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

// GrantBadges inserts the grants with set semantics and returns the ids that
// were not held before the call.
func (r *userRepository) GrantBadges(ctx context.Context, userID uint, badgeIDs []uint, at time.Time) ([]uint, error) {
	if len(badgeIDs) == 0 {
		return nil, nil
	}

	granted := make([]uint, 0, len(badgeIDs))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, badgeID := range badgeIDs {
			grant := models.UserBadge{UserID: userID, BadgeID: badgeID, GrantedAt: at}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Omit(clause.Associations).
				Create(&grant)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				granted = append(granted, badgeID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}
