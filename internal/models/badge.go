package models

import "time"

// BadgeCriteria enumerates how a badge is earned.
type BadgeCriteria string

// Badge criteria. Streak, community and custom badges are never granted by the evaluator.
const (
	BadgeCriteriaCourseCompletion BadgeCriteria = "course_completion"
	BadgeCriteriaStreak           BadgeCriteria = "streak"
	BadgeCriteriaAssessmentScore  BadgeCriteria = "assessment_score"
	BadgeCriteriaCommunity        BadgeCriteria = "community"
	BadgeCriteriaCustom           BadgeCriteria = "custom"
)

// Badge is an immutable catalog entry shared by all students.
type Badge struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Icon        string        `gorm:"size:255;not null" json:"icon"`
	Criteria    BadgeCriteria `gorm:"size:32;index;not null" json:"criteria"`
	Threshold   *int          `json:"threshold"`
	MinScore    *float64      `json:"min_score"`
	CourseID    *uint         `gorm:"index" json:"course_id"`
	IsSecret    bool          `gorm:"not null;default:false" json:"is_secret"`
	IsActive    bool          `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
}
