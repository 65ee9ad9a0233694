package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

type fakeAnalyticsRepo struct {
	activeCount int64
	statuses    []repository.EnrollmentStatusCount
	graded      []models.AssessmentProgress
	completions []models.CompletedCourse
	top         []repository.StudentCompletionCount
}

func (f *fakeAnalyticsRepo) CountActiveStudents(context.Context) (int64, error) {
	return f.activeCount, nil
}

func (f *fakeAnalyticsRepo) CountEnrollmentsByStatus(context.Context) ([]repository.EnrollmentStatusCount, error) {
	return f.statuses, nil
}

func (f *fakeAnalyticsRepo) ListGradedEntries(context.Context) ([]models.AssessmentProgress, error) {
	return f.graded, nil
}

func (f *fakeAnalyticsRepo) ListCompletionsSince(_ context.Context, since time.Time) ([]models.CompletedCourse, error) {
	result := make([]models.CompletedCourse, 0)
	for _, completion := range f.completions {
		if !completion.CompletedAt.Before(since) {
			result = append(result, completion)
		}
	}
	return result, nil
}

func (f *fakeAnalyticsRepo) TopStudentsByCompletions(context.Context, int) ([]repository.StudentCompletionCount, error) {
	return f.top, nil
}

func TestAdminAnalyticsServiceCaching(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	now := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	repo := &fakeAnalyticsRepo{
		activeCount: 5,
		statuses: []repository.EnrollmentStatusCount{
			{Status: "active", Total: 3},
			{Status: "completed", Total: 1},
			{Status: "cancelled", Total: 2},
		},
		graded: []models.AssessmentProgress{
			{Score: 19, TotalPoints: 20},
			{Score: 8, TotalPoints: 10},
			{Score: 2, TotalPoints: 10},
			{Score: 5, TotalPoints: 0},
		},
		completions: []models.CompletedCourse{
			{UserID: 1, CourseID: 1, CompletedAt: now.Add(-time.Hour)},
			{UserID: 2, CourseID: 1, CompletedAt: now.Add(-2 * time.Hour)},
			{UserID: 3, CourseID: 1, CompletedAt: now.AddDate(0, 0, -120)},
		},
		top: []repository.StudentCompletionCount{
			{UserID: 1, FirstName: "Ada", LastName: "Lovelace", Completed: 1},
		},
	}

	svc := NewAdminAnalyticsService(repo, client, time.Minute, testLogger())
	svc.(*adminAnalyticsService).now = func() time.Time { return now }

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.False(t, summary.CacheHit)
	require.Equal(t, int64(5), summary.ActiveStudents)
	require.Equal(t, int64(3), summary.ActiveEnrollments)
	require.Equal(t, int64(1), summary.CompletedEnrollments)
	require.Equal(t, 25.0, summary.CompletionRate)
	require.Equal(t, int64(3), summary.GradedAssessments)
	require.Equal(t, dto.GradeDistributionResponse{"90-100": 1, "75-89": 1, "60-74": 0, "0-59": 1}, summary.GradeDistribution)
	require.Len(t, summary.WeeklyCompletions, 1)
	require.Equal(t, time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), summary.WeeklyCompletions[0].WeekStart)
	require.Equal(t, int64(2), summary.WeeklyCompletions[0].Completions)
	require.Equal(t, "Ada Lovelace", summary.TopStudents[0].Name)

	repo.activeCount = 10
	summaryCached, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.True(t, summaryCached.CacheHit)
	require.Equal(t, summary.ActiveStudents, summaryCached.ActiveStudents)

	require.NoError(t, svc.Invalidate(context.Background()))
	refreshed, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.Equal(t, int64(10), refreshed.ActiveStudents)
}

func TestAdminAnalyticsReadsEngineTables(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	instructor := engine.seedUser(t, models.UserRoleInstructor)
	first := engine.seedUser(t, models.UserRoleStudent)
	second := engine.seedUser(t, models.UserRoleStudent)
	course := engine.seedCourse(t, instructor.ID, 1)
	other := engine.seedCourse(t, instructor.ID, 1)

	quizzes := map[uint]models.Assessment{
		course.ID: engine.seedQuiz(t, course.ID, instructor.ID, 1, 10),
		other.ID:  engine.seedQuiz(t, other.ID, instructor.ID, 1, 10),
	}
	grader := ActivityActor{ID: instructor.ID, Role: string(models.UserRoleInstructor)}

	for _, pair := range []struct {
		student uint
		course  models.Course
	}{
		{first.ID, course}, {first.ID, other}, {second.ID, course},
	} {
		engine.enroll(t, pair.student, pair.course.ID)
		_, err := engine.progress.CompleteLecture(ctx, pair.student, pair.course.ID, engine.lectureIDs(pair.course)[0])
		require.NoError(t, err)
		quiz := quizzes[pair.course.ID]
		_, err = engine.assessments.Submit(ctx, pair.student, pair.course.ID, quiz.ID, dto.SubmitAssessmentRequest{Answers: correctAnswers(quiz)})
		require.NoError(t, err)
		graded, err := engine.assessments.Grade(ctx, grader, quiz.ID, dto.GradeAssessmentRequest{StudentID: pair.student, Score: 10})
		require.NoError(t, err)
		require.Equal(t, 100, graded.Progress.OverallProgress)
	}

	svc := NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(engine.db), nil, time.Minute, testLogger())
	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)

	require.Equal(t, int64(2), summary.ActiveStudents)
	require.Equal(t, int64(0), summary.ActiveEnrollments)
	require.Equal(t, int64(3), summary.CompletedEnrollments)
	require.Equal(t, 100.0, summary.CompletionRate)
	require.Len(t, summary.TopStudents, 2)
	require.Equal(t, first.ID, summary.TopStudents[0].StudentID)
	require.Equal(t, int64(2), summary.TopStudents[0].CompletedCourses)
	require.Equal(t, int64(3), summary.GradedAssessments)
	require.Equal(t, int64(3), summary.GradeDistribution["90-100"])
	require.Len(t, summary.WeeklyCompletions, 1)
	require.Equal(t, int64(3), summary.WeeklyCompletions[0].Completions)
}
