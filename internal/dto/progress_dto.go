package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// LectureTouchRequest records time spent on a lecture.
type LectureTouchRequest struct {
	SectionID uint  `json:"section_id" validate:"required"`
	LectureID uint  `json:"lecture_id" validate:"required"`
	TimeSpent int64 `json:"time_spent" validate:"gte=0,lte=86400"`
}

// CurriculumEntryResponse is a single curriculum progress entry.
type CurriculumEntryResponse struct {
	SectionID      uint       `json:"section_id"`
	LectureID      uint       `json:"lecture_id"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completion_date"`
	TimeSpent      int64      `json:"time_spent"`
	LastAccessed   *time.Time `json:"last_accessed"`
}

// NewCurriculumEntryResponse converts a curriculum entry.
func NewCurriculumEntryResponse(model models.CurriculumProgress) CurriculumEntryResponse {
	return CurriculumEntryResponse{
		SectionID:      model.SectionID,
		LectureID:      model.LectureID,
		Completed:      model.Completed,
		CompletionDate: model.CompletionDate,
		TimeSpent:      model.TimeSpent,
		LastAccessed:   model.LastAccessed,
	}
}

// AssessmentEntryResponse is the per-assessment progress of a student.
type AssessmentEntryResponse struct {
	AssessmentID   uint       `json:"assessment_id"`
	Status         string     `json:"status"`
	Score          float64    `json:"score"`
	TotalPoints    float64    `json:"total_points"`
	Percentage     float64    `json:"percentage"`
	SubmissionDate *time.Time `json:"submission_date"`
	GradingDate    *time.Time `json:"grading_date"`
	GradedBy       *uint      `json:"graded_by"`
	Feedback       string     `json:"feedback"`
}

// NewAssessmentEntryResponse converts an assessment progress entry.
func NewAssessmentEntryResponse(model models.AssessmentProgress) AssessmentEntryResponse {
	percentage := 0.0
	if model.TotalPoints > 0 {
		percentage = model.Score / model.TotalPoints * 100
	}
	return AssessmentEntryResponse{
		AssessmentID:   model.AssessmentID,
		Status:         string(model.Status),
		Score:          model.Score,
		TotalPoints:    model.TotalPoints,
		Percentage:     percentage,
		SubmissionDate: model.SubmissionDate,
		GradingDate:    model.GradingDate,
		GradedBy:       model.GradedBy,
		Feedback:       model.Feedback,
	}
}

// ProgressResponse is the durable progress read model of one (student, course) pair.
type ProgressResponse struct {
	ID                 uint                      `json:"id"`
	StudentID          uint                      `json:"student_id"`
	CourseID           uint                      `json:"course_id"`
	EnrollmentID       uint                      `json:"enrollment_id"`
	OverallProgress    int                       `json:"overall_progress"`
	CompletedLectures  int                       `json:"completed_lectures"`
	LastAccessed       *time.Time                `json:"last_accessed"`
	CurriculumProgress []CurriculumEntryResponse `json:"curriculum_progress"`
	AssessmentProgress []AssessmentEntryResponse `json:"assessment_progress"`
}

// NewProgressResponse converts a progress record with its entries.
func NewProgressResponse(model models.Progress) ProgressResponse {
	curriculum := make([]CurriculumEntryResponse, 0, len(model.Curriculum))
	for _, entry := range model.Curriculum {
		curriculum = append(curriculum, NewCurriculumEntryResponse(entry))
	}
	assessments := make([]AssessmentEntryResponse, 0, len(model.Assessments))
	for _, entry := range model.Assessments {
		assessments = append(assessments, NewAssessmentEntryResponse(entry))
	}

	return ProgressResponse{
		ID:                 model.ID,
		StudentID:          model.StudentID,
		CourseID:           model.CourseID,
		EnrollmentID:       model.EnrollmentID,
		OverallProgress:    model.OverallProgress,
		CompletedLectures:  model.CompletedLectures(),
		LastAccessed:       model.LastAccessed,
		CurriculumProgress: curriculum,
		AssessmentProgress: assessments,
	}
}

// NewProgressResponseSlice converts a slice of progress records.
func NewProgressResponseSlice(items []models.Progress) []ProgressResponse {
	out := make([]ProgressResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewProgressResponse(item))
	}
	return out
}

// LectureCompletionResult is returned after a lecture completion.
type LectureCompletionResult struct {
	OverallProgress int              `json:"overall_progress"`
	CourseCompleted bool             `json:"course_completed"`
	Progress        ProgressResponse `json:"progress"`
	Outcome
}
