package models

import (
	"time"

	"gorm.io/gorm"
)

// QuestionType enumerates supported question kinds.
type QuestionType string

// Supported question types. Only multiple choice and true/false are auto-scored.
const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
	QuestionCode           QuestionType = "code"
)

// DefaultPassPercentage applies when an assessment does not set its own threshold.
const DefaultPassPercentage = 60.0

// Assessment is a gradable unit of a course owned by an instructor.
type Assessment struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	CourseID       uint                 `gorm:"index;not null" json:"course_id"`
	InstructorID   uint                 `gorm:"index;not null" json:"instructor_id"`
	Title          string               `gorm:"size:255;not null" json:"title"`
	Type           string               `gorm:"size:32;not null;default:quiz" json:"type"`
	TotalPoints    float64              `gorm:"not null;default:0" json:"total_points"`
	PassPercentage *float64             `json:"pass_percentage"`
	DueDate        *time.Time           `json:"due_date"`
	IsPublished    bool                 `gorm:"not null;default:false" json:"is_published"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Questions      []AssessmentQuestion `gorm:"foreignKey:AssessmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// BeforeSave recomputes total points from the attached questions.
func (a *Assessment) BeforeSave(tx *gorm.DB) error {
	if len(a.Questions) == 0 {
		return nil
	}

	total := 0.0
	for _, question := range a.Questions {
		total += question.EffectivePoints()
	}
	a.TotalPoints = total
	return nil
}

// PassThreshold returns the pass percentage, falling back to DefaultPassPercentage.
func (a Assessment) PassThreshold() float64 {
	if a.PassPercentage == nil || *a.PassPercentage <= 0 {
		return DefaultPassPercentage
	}
	return *a.PassPercentage
}

// AssessmentQuestion is a single question. CorrectAnswer holds the expected
// value for true/false, short answer and code questions.
type AssessmentQuestion struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	AssessmentID  uint             `gorm:"index;not null" json:"assessment_id"`
	Text          string           `gorm:"type:text;not null" json:"text"`
	Type          QuestionType     `gorm:"size:32;not null" json:"type"`
	CorrectAnswer string           `gorm:"type:text" json:"-"`
	Points        float64          `gorm:"not null;default:1" json:"points"`
	Position      int              `gorm:"not null;default:0" json:"position"`
	Options       []QuestionOption `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
}

// EffectivePoints returns the question weight, at least one point.
func (q AssessmentQuestion) EffectivePoints() float64 {
	if q.Points < 1 {
		return 1
	}
	return q.Points
}

// CorrectOption returns the option flagged correct, if any.
func (q AssessmentQuestion) CorrectOption() (QuestionOption, bool) {
	for _, option := range q.Options {
		if option.IsCorrect {
			return option, true
		}
	}
	return QuestionOption{}, false
}

// QuestionOption is a selectable answer for a multiple choice question.
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
}
