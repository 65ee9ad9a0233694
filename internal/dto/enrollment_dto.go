package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// EnrollRequest is the payload of a course purchase enrollment.
type EnrollRequest struct {
	CourseID  uint `json:"course_id" validate:"required"`
	PaymentID uint `json:"payment_id" validate:"required"`
}

// EnrollmentResponse represents an enrollment returned to clients.
type EnrollmentResponse struct {
	ID             uint       `json:"id"`
	StudentID      uint       `json:"student_id"`
	CourseID       uint       `json:"course_id"`
	PaymentID      *uint      `json:"payment_id"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	CompletionDate *time.Time `json:"completion_date"`
	LastAccessed   *time.Time `json:"last_accessed"`
}

// NewEnrollmentResponse converts an enrollment model.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		CourseID:       model.CourseID,
		PaymentID:      model.PaymentID,
		Status:         string(model.Status),
		Progress:       model.Progress,
		EnrollmentDate: model.EnrollmentDate,
		CompletionDate: model.CompletionDate,
		LastAccessed:   model.LastAccessed,
	}
}

// EnrollmentResult is returned after a successful enrollment.
type EnrollmentResult struct {
	Enrollment EnrollmentResponse `json:"enrollment"`
	Progress   ProgressResponse   `json:"progress"`
	Outcome
}

// CertificateEligibilityResponse is the read model consumed by certificate issuance.
type CertificateEligibilityResponse struct {
	StudentID      uint       `json:"student_id"`
	CourseID       uint       `json:"course_id"`
	Eligible       bool       `json:"eligible"`
	Status         string     `json:"status"`
	CompletionDate *time.Time `json:"completion_date"`
}
