package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// AssessmentRepository reads assessments and their question banks.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	GetWithQuestions(ctx context.Context, id uint) (models.Assessment, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository constructs an assessment repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}

func (r *assessmentRepository) GetWithQuestions(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&assessment, id).Error
	if err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}
