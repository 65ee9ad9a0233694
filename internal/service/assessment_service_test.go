package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
)

type assessmentFixture struct {
	engine     *testEngine
	instructor models.User
	student    models.User
	course     models.Course
	quiz       models.Assessment
}

func newAssessmentFixture(t *testing.T, lectures int) assessmentFixture {
	t.Helper()
	engine := newTestEngine(t)
	instructor := engine.seedUser(t, models.UserRoleInstructor)
	student := engine.seedUser(t, models.UserRoleStudent)
	course := engine.seedCourse(t, instructor.ID, lectures)
	engine.enroll(t, student.ID, course.ID)
	quiz := engine.seedQuiz(t, course.ID, instructor.ID, 2, 5)
	return assessmentFixture{engine: engine, instructor: instructor, student: student, course: course, quiz: quiz}
}

func (f assessmentFixture) owner() ActivityActor {
	return ActivityActor{ID: f.instructor.ID, Role: string(models.UserRoleInstructor)}
}

func TestSubmitScoresAndRecordsHistory(t *testing.T) {
	f := newAssessmentFixture(t, 2)

	result, err := f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, f.quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(f.quiz)})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Score)
	require.Equal(t, 10.0, result.TotalPoints)
	require.Equal(t, 100.0, result.Percentage)
	require.True(t, result.Passed)

	var history []models.AssessmentResult
	require.NoError(t, f.engine.db.Where("user_id = ?", f.student.ID).Find(&history).Error)
	require.Len(t, history, 1)
	require.True(t, history[0].Passed)

	entry, err := f.engine.assessments.GetResult(context.Background(), f.student.ID, f.course.ID, f.quiz.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.AssessmentStatusSubmitted), entry.Status)

	progress, err := f.engine.progress.GetProgress(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.Zero(t, progress.OverallProgress)
	require.Equal(t, 1, f.engine.recorder.count(EventAssessmentSubmitted))
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	f := newAssessmentFixture(t, 1)
	payload := dto.SubmitAssessmentRequest{Answers: correctAnswers(f.quiz)}

	_, err := f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, f.quiz.ID, payload)
	require.NoError(t, err)

	_, err = f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, f.quiz.ID, payload)
	require.ErrorIs(t, err, ErrConflict)
	require.EqualValues(t, 1, f.engine.count(t, &models.AssessmentProgress{}))
	require.EqualValues(t, 1, f.engine.count(t, &models.AssessmentResult{}))
}

func TestSubmitValidatesTarget(t *testing.T) {
	f := newAssessmentFixture(t, 1)
	other := f.engine.seedCourse(t, f.instructor.ID, 1)

	_, err := f.engine.assessments.Submit(context.Background(), f.student.ID, other.ID, f.quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(f.quiz)})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, f.quiz.ID, dto.SubmitAssessmentRequest{})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.engine.assessments.GetResult(context.Background(), f.student.ID, f.course.ID, f.quiz.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestGradeRejectsScoreAboveTotal(t *testing.T) {
	f := newAssessmentFixture(t, 1)
	_, err := f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, f.quiz.ID, dto.SubmitAssessmentRequest{Answers: map[string]string{"1": "0"}})
	require.NoError(t, err)

	_, err = f.engine.assessments.Grade(context.Background(), f.owner(), f.quiz.ID, dto.GradeAssessmentRequest{StudentID: f.student.ID, Score: f.quiz.TotalPoints + 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	entry, err := f.engine.assessments.GetResult(context.Background(), f.student.ID, f.course.ID, f.quiz.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.AssessmentStatusSubmitted), entry.Status)
	require.Nil(t, entry.GradingDate)
}

func TestGradeCompletesCourseOnce(t *testing.T) {
	f := newAssessmentFixture(t, 2)
	for _, lectureID := range f.engine.lectureIDs(f.course) {
		_, err := f.engine.progress.CompleteLecture(context.Background(), f.student.ID, f.course.ID, lectureID)
		require.NoError(t, err)
	}
	_, err := f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, f.quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(f.quiz)})
	require.NoError(t, err)

	graded, err := f.engine.assessments.Grade(context.Background(), f.owner(), f.quiz.ID, dto.GradeAssessmentRequest{
		StudentID: f.student.ID,
		Score:     10,
		Feedback:  "<b>Great</b> work",
	})
	require.NoError(t, err)
	require.Equal(t, 100, graded.Progress.OverallProgress)
	require.Equal(t, string(models.AssessmentStatusGraded), graded.Entry.Status)
	require.Equal(t, "Great work", graded.Entry.Feedback)
	require.Equal(t, f.instructor.ID, *graded.Entry.GradedBy)

	var enrollment models.Enrollment
	require.NoError(t, f.engine.db.Where("student_id = ? AND course_id = ?", f.student.ID, f.course.ID).First(&enrollment).Error)
	require.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	require.EqualValues(t, 1, f.engine.count(t, &models.CompletedCourse{}))
	require.Equal(t, 1, f.engine.recorder.count(EventCourseCompleted))

	_, err = f.engine.assessments.Grade(context.Background(), f.owner(), f.quiz.ID, dto.GradeAssessmentRequest{StudentID: f.student.ID, Score: 4})
	require.ErrorIs(t, err, ErrAlreadyGraded)
	require.Equal(t, 1, f.engine.recorder.count(EventCourseCompleted))
}

func TestGradeUsesLatestGradedAssessment(t *testing.T) {
	f := newAssessmentFixture(t, 2)
	second := f.engine.seedQuiz(t, f.course.ID, f.instructor.ID, 1, 4)

	for _, quiz := range []models.Assessment{f.quiz, second} {
		_, err := f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(quiz)})
		require.NoError(t, err)
	}

	first, err := f.engine.assessments.Grade(context.Background(), f.owner(), f.quiz.ID, dto.GradeAssessmentRequest{StudentID: f.student.ID, Score: 10})
	require.NoError(t, err)
	require.Equal(t, 50, first.Progress.OverallProgress)

	latest, err := f.engine.assessments.Grade(context.Background(), f.owner(), second.ID, dto.GradeAssessmentRequest{StudentID: f.student.ID, Score: 1})
	require.NoError(t, err)
	require.Equal(t, 13, latest.Progress.OverallProgress)
}

func TestGradeRequiresOwnership(t *testing.T) {
	f := newAssessmentFixture(t, 1)
	stranger := f.engine.seedUser(t, models.UserRoleInstructor)
	_, err := f.engine.assessments.Submit(context.Background(), f.student.ID, f.course.ID, f.quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(f.quiz)})
	require.NoError(t, err)

	_, err = f.engine.assessments.Grade(context.Background(), ActivityActor{ID: stranger.ID, Role: "instructor"}, f.quiz.ID, dto.GradeAssessmentRequest{StudentID: f.student.ID, Score: 5})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.engine.assessments.Grade(context.Background(), ActivityActor{ID: 1, Role: "admin"}, f.quiz.ID, dto.GradeAssessmentRequest{StudentID: f.student.ID, Score: 5})
	require.NoError(t, err)
}

func TestGradeWithoutSubmission(t *testing.T) {
	f := newAssessmentFixture(t, 1)

	_, err := f.engine.assessments.Grade(context.Background(), f.owner(), f.quiz.ID, dto.GradeAssessmentRequest{StudentID: f.student.ID, Score: 5})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
