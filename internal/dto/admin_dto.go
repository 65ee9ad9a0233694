package dto

import "time"

// GradeDistributionResponse buckets graded assessment percentages.
type GradeDistributionResponse map[string]int64

// WeeklyCompletionPoint counts course completions in the week starting at WeekStart.
type WeeklyCompletionPoint struct {
	WeekStart   time.Time `json:"week_start"`
	Completions int64     `json:"completions"`
}

// TopStudentResponse is one leaderboard row.
type TopStudentResponse struct {
	StudentID        uint   `json:"student_id"`
	Name             string `json:"name"`
	CompletedCourses int64  `json:"completed_courses"`
}

// AdminAnalyticsResponse aggregates engine-wide metrics for administrators.
type AdminAnalyticsResponse struct {
	ActiveStudents       int64                     `json:"active_students"`
	ActiveEnrollments    int64                     `json:"active_enrollments"`
	CompletedEnrollments int64                     `json:"completed_enrollments"`
	CompletionRate       float64                   `json:"completion_rate"`
	GradedAssessments    int64                     `json:"graded_assessments"`
	GradeDistribution    GradeDistributionResponse `json:"grade_distribution"`
	WeeklyCompletions    []WeeklyCompletionPoint   `json:"weekly_completions"`
	TopStudents          []TopStudentResponse      `json:"top_students"`
	GeneratedAt          time.Time                 `json:"generated_at"`
	CacheHit             bool                      `json:"cache_hit"`
}
