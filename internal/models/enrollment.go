package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment authorises a student's access to a course. Progress mirrors the
// overall progress of the matching Progress record.
type Enrollment struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	StudentID      uint             `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID       uint             `gorm:"not null;uniqueIndex:idx_enrollment_student_course;index" json:"course_id"`
	PaymentID      *uint            `gorm:"uniqueIndex" json:"payment_id"`
	Status         EnrollmentStatus `gorm:"size:16;not null;default:pending" json:"status"`
	Progress       int              `gorm:"not null;default:0" json:"progress"`
	EnrollmentDate time.Time        `gorm:"not null" json:"enrollment_date"`
	CompletionDate *time.Time       `json:"completion_date"`
	LastAccessed   *time.Time       `json:"last_accessed"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Course         Course           `json:"-"`
}

// IsCompleted reports whether the enrollment reached completion.
func (e Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentStatusCompleted
}
