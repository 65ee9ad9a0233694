package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

func TestOverallProgressLectureOnly(t *testing.T) {
	require.Equal(t, 25, OverallProgress(4, 2, nil))
	require.Equal(t, 50, OverallProgress(4, 4, nil))
	require.Equal(t, 0, OverallProgress(0, 3, nil))
}

func TestOverallProgressUsesGradedAssessment(t *testing.T) {
	graded := &models.AssessmentProgress{Score: 7, TotalPoints: 10, Status: models.AssessmentStatusGraded}

	require.Equal(t, 35, OverallProgress(0, 0, graded))
	require.Equal(t, 85, OverallProgress(4, 4, graded))
	require.Equal(t, 100, OverallProgress(4, 4, &models.AssessmentProgress{Score: 10, TotalPoints: 10}))
}

func TestOverallProgressClampsInputs(t *testing.T) {
	require.Equal(t, 50, OverallProgress(3, 9, nil))
	require.Equal(t, 100, OverallProgress(2, 2, &models.AssessmentProgress{Score: 15, TotalPoints: 10}))
	require.Equal(t, 50, OverallProgress(2, 2, &models.AssessmentProgress{Score: -4, TotalPoints: 10}))
	require.Equal(t, 50, OverallProgress(2, 2, &models.AssessmentProgress{Score: 4, TotalPoints: 0}))
}

func TestOverallProgressIsMonotonicInCompletedLectures(t *testing.T) {
	graded := &models.AssessmentProgress{Score: 3, TotalPoints: 9}
	previous := -1
	for completed := int64(0); completed <= 7; completed++ {
		overall := OverallProgress(7, completed, graded)
		require.GreaterOrEqual(t, overall, previous)
		require.GreaterOrEqual(t, overall, 0)
		require.LessOrEqual(t, overall, 100)
		previous = overall
	}
}
