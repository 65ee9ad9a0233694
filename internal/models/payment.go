package models

import "time"

// Payment status values.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is the read model of a gateway payment for a course purchase.
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentID     uint      `gorm:"index;not null" json:"student_id"`
	CourseID      uint      `gorm:"index;not null" json:"course_id"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"size:8;not null;default:USD" json:"currency"`
	Method        string    `gorm:"size:32" json:"method"`
	TransactionID string    `gorm:"size:128" json:"transaction_id"`
	Status        string    `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsCompleted reports whether the gateway settled the payment.
func (p Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
