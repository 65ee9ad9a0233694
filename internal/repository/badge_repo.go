package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// BadgeRepository reads the badge catalog.
type BadgeRepository interface {
	ListActive(ctx context.Context) ([]models.Badge, error)
	GetByID(ctx context.Context, id uint) (models.Badge, error)
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository constructs a badge repository.
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListActive(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *badgeRepository) GetByID(ctx context.Context, id uint) (models.Badge, error) {
	var badge models.Badge
	if err := r.db.WithContext(ctx).First(&badge, id).Error; err != nil {
		return models.Badge{}, err
	}
	return badge, nil
}
