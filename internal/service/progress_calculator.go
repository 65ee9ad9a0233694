package service

import (
	"math"

	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

const (
	lectureWeight    = 50.0
	assessmentWeight = 50.0
)

// OverallProgress weights lecture completion and the most recently graded
// assessment at 50/50. Earlier graded assessments do not contribute.
func OverallProgress(totalLectures int, completedLectures int64, latestGraded *models.AssessmentProgress) int {
	lectureComponent := 0.0
	if totalLectures > 0 {
		completed := float64(completedLectures)
		if completed > float64(totalLectures) {
			completed = float64(totalLectures)
		}
		lectureComponent = completed / float64(totalLectures) * lectureWeight
	}

	assessmentComponent := 0.0
	if latestGraded != nil && latestGraded.TotalPoints > 0 {
		ratio := latestGraded.Score / latestGraded.TotalPoints
		ratio = math.Max(0, math.Min(1, ratio))
		assessmentComponent = ratio * assessmentWeight
	}

	overall := int(math.Round(lectureComponent + assessmentComponent))
	if overall > 100 {
		return 100
	}
	if overall < 0 {
		return 0
	}
	return overall
}

func overallProgressFor(totalLectures int) repository.OverallProgressFunc {
	return func(snapshot repository.ProgressSnapshot) int {
		return OverallProgress(totalLectures, snapshot.CompletedLectures, snapshot.LatestGraded)
	}
}
