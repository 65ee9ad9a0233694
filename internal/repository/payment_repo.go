package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// PaymentRepository exposes the read side of course payments.
type PaymentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository constructs a payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByID(ctx context.Context, id uint) (models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}
