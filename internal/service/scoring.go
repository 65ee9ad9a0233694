package service

import (
	"strconv"
	"strings"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// SubmissionScore is the outcome of auto-scoring a submission.
type SubmissionScore struct {
	Score       float64
	TotalPoints float64
	Percentage  float64
	Passed      bool
}

// ScoreSubmission auto-scores multiple choice and true/false questions. Answers
// are keyed by question id; a multiple choice answer is the selected option id.
// Short answer, essay and code questions contribute nothing until graded by hand.
func ScoreSubmission(assessment models.Assessment, answers map[string]string) SubmissionScore {
	result := SubmissionScore{TotalPoints: assessment.TotalPoints}

	for _, question := range assessment.Questions {
		answer, ok := answers[strconv.FormatUint(uint64(question.ID), 10)]
		if !ok {
			continue
		}
		answer = strings.TrimSpace(answer)

		switch question.Type {
		case models.QuestionMultipleChoice:
			correct, found := question.CorrectOption()
			if found && answer == strconv.FormatUint(uint64(correct.ID), 10) {
				result.Score += question.EffectivePoints()
			}
		case models.QuestionTrueFalse:
			expected := strings.TrimSpace(question.CorrectAnswer)
			if expected != "" && strings.EqualFold(answer, expected) {
				result.Score += question.EffectivePoints()
			}
		}
	}

	if result.TotalPoints > 0 {
		result.Percentage = result.Score / result.TotalPoints * 100
		result.Passed = result.Percentage >= assessment.PassThreshold()
	}
	return result
}
