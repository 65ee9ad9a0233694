package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role models.UserRole, email string) models.User {
	t.Helper()
	user := models.User{FirstName: "Test", LastName: string(role), Email: email, Role: role, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedCourse creates a course with one section per entry of lectures, each holding that many lectures.
func seedCourse(t *testing.T, db *gorm.DB, instructorID uint, lectures ...int) models.Course {
	t.Helper()
	course := models.Course{Title: "Go Fundamentals", InstructorID: instructorID, Status: models.CourseStatusPublished}
	for i, count := range lectures {
		section := models.CourseSection{Title: fmt.Sprintf("Section %d", i+1), Position: i}
		for j := 0; j < count; j++ {
			section.Lectures = append(section.Lectures, models.CourseLecture{Title: fmt.Sprintf("Lecture %d.%d", i+1, j+1), Position: j})
		}
		course.Sections = append(course.Sections, section)
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedEnrollment(t *testing.T, db *gorm.DB, studentID, courseID uint) (models.Enrollment, models.Progress) {
	t.Helper()
	enrollment := models.Enrollment{
		StudentID:      studentID,
		CourseID:       courseID,
		Status:         models.EnrollmentStatusActive,
		EnrollmentDate: time.Now().UTC(),
	}
	progress := models.Progress{}
	require.NoError(t, NewEnrollmentRepository(db).Enroll(context.Background(), &enrollment, &progress))
	return enrollment, progress
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
