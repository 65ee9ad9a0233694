package dto

import "time"

// StudentDashboardResponse aggregates course and assessment progress for a student.
type StudentDashboardResponse struct {
	Summary       DashboardSummary  `json:"summary"`
	Courses       []DashboardCourse `json:"courses"`
	RecentResults []DashboardResult `json:"recent_results"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// DashboardSummary captures aggregated statistics for the dashboard.
type DashboardSummary struct {
	TotalCourses      int     `json:"total_courses"`
	CompletedCourses  int     `json:"completed_courses"`
	AverageProgress   float64 `json:"average_progress"`
	Badges            int     `json:"badges"`
	AssessmentsTaken  int     `json:"assessments_taken"`
	AssessmentsPassed int     `json:"assessments_passed"`
	AverageScore      float64 `json:"average_score"`
}

// DashboardCourse describes one enrollment relative to the student.
type DashboardCourse struct {
	CourseID       uint       `json:"course_id"`
	Title          string     `json:"title"`
	Progress       int        `json:"progress"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completion_date"`
	LastAccessed   *time.Time `json:"last_accessed"`
}

// DashboardResult is a recent assessment attempt.
type DashboardResult struct {
	AssessmentID uint      `json:"assessment_id"`
	CourseID     uint      `json:"course_id"`
	Percentage   float64   `json:"percentage"`
	Passed       bool      `json:"passed"`
	TakenAt      time.Time `json:"taken_at"`
}
