package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentProgressStatus enumerates the per-assessment states of a student.
type AssessmentProgressStatus string

// Assessment progress states. Grading is a one-way transition from submitted.
const (
	AssessmentStatusNotStarted AssessmentProgressStatus = "not_started"
	AssessmentStatusInProgress AssessmentProgressStatus = "in_progress"
	AssessmentStatusSubmitted  AssessmentProgressStatus = "submitted"
	AssessmentStatusGraded     AssessmentProgressStatus = "graded"
)

// Progress is the per-(student, course) record. OverallProgress is derived and
// only written by the recomputation step.
type Progress struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	StudentID       uint                 `gorm:"not null;uniqueIndex:idx_progress_student_course" json:"student_id"`
	CourseID        uint                 `gorm:"not null;uniqueIndex:idx_progress_student_course;index" json:"course_id"`
	EnrollmentID    uint                 `gorm:"not null;index" json:"enrollment_id"`
	OverallProgress int                  `gorm:"not null;default:0" json:"overall_progress"`
	LastAccessed    *time.Time           `json:"last_accessed"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Curriculum      []CurriculumProgress `gorm:"foreignKey:ProgressID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"curriculum_progress"`
	Assessments     []AssessmentProgress `gorm:"foreignKey:ProgressID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment_progress"`
}

// TableName overrides the default table name.
func (Progress) TableName() string { return "progress_records" }

// CompletedLectures counts curriculum entries marked completed.
func (p Progress) CompletedLectures() int {
	count := 0
	for _, entry := range p.Curriculum {
		if entry.Completed {
			count++
		}
	}
	return count
}

// AssessmentEntry returns the entry for the assessment, if one exists.
func (p Progress) AssessmentEntry(assessmentID uint) (AssessmentProgress, bool) {
	for _, entry := range p.Assessments {
		if entry.AssessmentID == assessmentID {
			return entry, true
		}
	}
	return AssessmentProgress{}, false
}

// CurriculumProgress is a lazily created per-lecture entry.
type CurriculumProgress struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ProgressID     uint       `gorm:"not null;uniqueIndex:idx_curriculum_entry" json:"progress_id"`
	SectionID      uint       `gorm:"not null;uniqueIndex:idx_curriculum_entry" json:"section_id"`
	LectureID      uint       `gorm:"not null;uniqueIndex:idx_curriculum_entry" json:"lecture_id"`
	Completed      bool       `gorm:"not null;default:false" json:"completed"`
	CompletionDate *time.Time `json:"completion_date"`
	TimeSpent      int64      `gorm:"not null;default:0" json:"time_spent"`
	LastAccessed   *time.Time `json:"last_accessed"`
}

// TableName overrides the default table name.
func (CurriculumProgress) TableName() string { return "curriculum_progress_entries" }

// AssessmentProgress is the single submission/grading entry of a student for an assessment.
type AssessmentProgress struct {
	ID             uint                     `gorm:"primaryKey" json:"id"`
	ProgressID     uint                     `gorm:"not null;uniqueIndex:idx_assessment_entry" json:"progress_id"`
	AssessmentID   uint                     `gorm:"not null;uniqueIndex:idx_assessment_entry;index" json:"assessment_id"`
	Status         AssessmentProgressStatus `gorm:"size:16;not null;default:not_started" json:"status"`
	Score          float64                  `gorm:"not null;default:0" json:"score"`
	TotalPoints    float64                  `gorm:"not null;default:0" json:"total_points"`
	Answers        datatypes.JSONMap        `gorm:"type:json" json:"answers,omitempty"`
	SubmissionDate *time.Time               `json:"submission_date"`
	GradingDate    *time.Time               `json:"grading_date"`
	GradedBy       *uint                    `json:"graded_by"`
	Feedback       string                   `gorm:"type:text" json:"feedback"`
}

// TableName overrides the default table name.
func (AssessmentProgress) TableName() string { return "assessment_progress_entries" }

// IsGraded reports whether the entry reached its terminal state.
func (a AssessmentProgress) IsGraded() bool {
	return a.Status == AssessmentStatusGraded
}

// IsSubmitted reports whether the entry was handed in, graded or not.
func (a AssessmentProgress) IsSubmitted() bool {
	return a.Status == AssessmentStatusSubmitted || a.Status == AssessmentStatusGraded
}
