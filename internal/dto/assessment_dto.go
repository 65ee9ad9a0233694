package dto

// SubmitAssessmentRequest carries answers keyed by question id. Multiple choice
// answers are the selected option id.
type SubmitAssessmentRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1,dive,keys,numeric,endkeys,max=10000"`
}

// SubmissionResult is returned after an assessment submission.
type SubmissionResult struct {
	AssessmentID uint    `json:"assessment_id"`
	Score        float64 `json:"score"`
	TotalPoints  float64 `json:"total_points"`
	Percentage   float64 `json:"percentage"`
	Passed       bool    `json:"passed"`
	Outcome
}

// GradeAssessmentRequest is the instructor grading payload.
type GradeAssessmentRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	Score     float64 `json:"score" validate:"gte=0"`
	Feedback  string  `json:"feedback" validate:"max=5000"`
}

// GradeResult is returned after grading.
type GradeResult struct {
	Entry    AssessmentEntryResponse `json:"entry"`
	Progress ProgressResponse        `json:"progress"`
	Outcome
}
