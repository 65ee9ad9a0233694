package models

import "time"

// UserRole discriminates the kind of account stored in the users table.
type UserRole string

// Supported user roles.
const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleInstructor UserRole = "instructor"
	UserRoleStudent    UserRole = "student"
)

// User is a single account record. Role-specific data for students lives in the
// user_* tables keyed by the user id.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:120;not null" json:"first_name"`
	LastName  string    `gorm:"size:120;not null" json:"last_name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Role      UserRole  `gorm:"size:16;index;not null" json:"role"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStudent reports whether the account carries the student role.
func (u User) IsStudent() bool {
	return u.Role == UserRoleStudent
}

// IsInstructor reports whether the account carries the instructor role.
func (u User) IsInstructor() bool {
	return u.Role == UserRoleInstructor
}

// FullName joins first and last name.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// EnrolledCourse is an entry in a student's enrolled-course history.
type EnrolledCourse struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index;not null" json:"user_id"`
	CourseID       uint       `gorm:"index;not null" json:"course_id"`
	EnrollmentDate time.Time  `gorm:"not null" json:"enrollment_date"`
	Completed      bool       `gorm:"not null;default:false" json:"completed"`
	CompletionDate *time.Time `json:"completion_date"`
}

// TableName overrides the default table name.
func (EnrolledCourse) TableName() string { return "user_enrolled_courses" }

// CompletedCourse records that a student reached 100% in a course. The composite
// primary key makes the history duplicate-free.
type CompletedCourse struct {
	UserID      uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CourseID    uint      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

// TableName overrides the default table name.
func (CompletedCourse) TableName() string { return "user_completed_courses" }

// AssessmentResult is appended once per assessment submission.
type AssessmentResult struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	CourseID     uint      `gorm:"index;not null" json:"course_id"`
	AssessmentID uint      `gorm:"index;not null" json:"assessment_id"`
	Score        float64   `gorm:"not null" json:"score"`
	TotalPoints  float64   `gorm:"not null" json:"total_points"`
	Passed       bool      `gorm:"not null" json:"passed"`
	TakenAt      time.Time `gorm:"not null" json:"taken_at"`
}

// TableName overrides the default table name.
func (AssessmentResult) TableName() string { return "user_assessment_results" }

// Percentage returns the score as a percentage of total points, or zero when
// the result carries no points.
func (r AssessmentResult) Percentage() float64 {
	if r.TotalPoints <= 0 {
		return 0
	}
	return r.Score / r.TotalPoints * 100
}

// UserBadge is a grant of a catalog badge to a user.
type UserBadge struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	BadgeID   uint      `gorm:"primaryKey;autoIncrement:false" json:"badge_id"`
	GrantedAt time.Time `gorm:"not null" json:"granted_at"`
	Badge     Badge     `gorm:"foreignKey:BadgeID" json:"badge"`
}

// TableName overrides the default table name.
func (UserBadge) TableName() string { return "user_badges" }
