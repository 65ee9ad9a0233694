package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

func newDashboard(engine *testEngine) StudentDashboardService {
	dashboards := NewStudentDashboardService(
		repository.NewEnrollmentRepository(engine.db),
		repository.NewUserRepository(engine.db),
		engine.redis,
		time.Minute,
		testLogger(),
	)
	engine.hub.Subscribe(NewDashboardListener(dashboards))
	return dashboards
}

func TestStudentDashboardAggregationAndCaching(t *testing.T) {
	engine := newTestEngine(t)
	dashboards := newDashboard(engine)
	ctx := context.Background()

	instructor := engine.seedUser(t, models.UserRoleInstructor)
	student := engine.seedUser(t, models.UserRoleStudent)
	course := engine.seedCourse(t, instructor.ID, 2)
	engine.enroll(t, student.ID, course.ID)

	first, err := dashboards.GetDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.Summary.TotalCourses)
	require.Zero(t, first.Summary.CompletedCourses)
	require.Len(t, first.Courses, 1)
	require.Equal(t, "Distributed Systems", first.Courses[0].Title)
	require.Zero(t, first.Courses[0].Progress)
	require.True(t, engine.mini.Exists("dashboard:student:"+uintString(student.ID)))

	_, err = engine.progress.CompleteLecture(ctx, student.ID, course.ID, engine.lectureIDs(course)[0])
	require.NoError(t, err)
	require.False(t, engine.mini.Exists("dashboard:student:"+uintString(student.ID)))

	second, err := dashboards.GetDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 25, second.Courses[0].Progress)
	require.Equal(t, 25.0, second.Summary.AverageProgress)

	quiz := engine.seedQuiz(t, course.ID, instructor.ID, 2, 5)
	_, err = engine.assessments.Submit(ctx, student.ID, course.ID, quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(quiz)})
	require.NoError(t, err)

	third, err := dashboards.GetDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, third.Summary.AssessmentsTaken)
	require.Equal(t, 1, third.Summary.AssessmentsPassed)
	require.Equal(t, 100.0, third.Summary.AverageScore)
	require.Len(t, third.RecentResults, 1)
	require.Equal(t, quiz.ID, third.RecentResults[0].AssessmentID)
}

func TestStudentDashboardServesCachedCopyUntilInvalidated(t *testing.T) {
	engine := newTestEngine(t)
	dashboards := NewStudentDashboardService(
		repository.NewEnrollmentRepository(engine.db),
		repository.NewUserRepository(engine.db),
		engine.redis,
		time.Minute,
		testLogger(),
	)
	ctx := context.Background()

	instructor := engine.seedUser(t, models.UserRoleInstructor)
	student := engine.seedUser(t, models.UserRoleStudent)
	course := engine.seedCourse(t, instructor.ID, 1)

	empty, err := dashboards.GetDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Zero(t, empty.Summary.TotalCourses)
	require.Empty(t, empty.Courses)

	// Enrolling dispatches an event but this dashboard is not subscribed.
	engine.enroll(t, student.ID, course.ID)

	cached, err := dashboards.GetDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Zero(t, cached.Summary.TotalCourses)

	require.NoError(t, dashboards.Invalidate(ctx, student.ID))
	fresh, err := dashboards.GetDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fresh.Summary.TotalCourses)
}

func TestStudentDashboardRejectsNonStudents(t *testing.T) {
	engine := newTestEngine(t)
	dashboards := newDashboard(engine)
	instructor := engine.seedUser(t, models.UserRoleInstructor)

	_, err := dashboards.GetDashboard(context.Background(), instructor.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStudentDashboardCountsCompletedCourses(t *testing.T) {
	engine := newTestEngine(t)
	dashboards := newDashboard(engine)
	ctx := context.Background()

	instructor := engine.seedUser(t, models.UserRoleInstructor)
	student := engine.seedUser(t, models.UserRoleStudent)
	finished := engine.seedCourse(t, instructor.ID, 1)
	started := engine.seedCourse(t, instructor.ID, 2)
	engine.enroll(t, student.ID, finished.ID)
	engine.enroll(t, student.ID, started.ID)

	quiz := engine.seedQuiz(t, finished.ID, instructor.ID, 1, 10)
	_, err := engine.progress.CompleteLecture(ctx, student.ID, finished.ID, engine.lectureIDs(finished)[0])
	require.NoError(t, err)
	_, err = engine.assessments.Submit(ctx, student.ID, finished.ID, quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(quiz)})
	require.NoError(t, err)
	_, err = engine.assessments.Grade(ctx, ActivityActor{ID: instructor.ID, Role: string(models.UserRoleInstructor)}, quiz.ID, dto.GradeAssessmentRequest{StudentID: student.ID, Score: 10})
	require.NoError(t, err)

	dashboard, err := dashboards.GetDashboard(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 2, dashboard.Summary.TotalCourses)
	require.Equal(t, 1, dashboard.Summary.CompletedCourses)
	require.Equal(t, 50.0, dashboard.Summary.AverageProgress)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
