package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// ErrCourseCounterNotUpdated is returned when the enrolled course row vanished mid-transaction.
var ErrCourseCounterNotUpdated = errors.New("course student counter not updated")

// EnrollmentRepository persists enrollments and their zero-state progress records.
type EnrollmentRepository interface {
	Enroll(ctx context.Context, enrollment *models.Enrollment, progress *models.Progress) error
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
	ExistsForStudentAndCourse(ctx context.Context, studentID, courseID uint) (bool, error)
	ExistsForPayment(ctx context.Context, paymentID uint) (bool, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	CountByCourse(ctx context.Context, courseID uint) (int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Enroll writes the enrollment, its progress record, the course counter
// increment and the enrolled-course history entry in one transaction.
func (r *enrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment, progress *models.Progress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(enrollment).Error; err != nil {
			return err
		}

		progress.StudentID = enrollment.StudentID
		progress.CourseID = enrollment.CourseID
		progress.EnrollmentID = enrollment.ID
		if err := tx.Omit(clause.Associations).Create(progress).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Course{}).
			Where("id = ?", enrollment.CourseID).
			UpdateColumn("total_students", gorm.Expr("total_students + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCourseCounterNotUpdated
		}

		history := models.EnrolledCourse{
			UserID:         enrollment.StudentID,
			CourseID:       enrollment.CourseID,
			EnrollmentDate: enrollment.EnrollmentDate,
		}
		return tx.Create(&history).Error
	})
}

func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) ExistsForStudentAndCourse(ctx context.Context, studentID, courseID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepository) ExistsForPayment(ctx context.Context, paymentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("payment_id = ?", paymentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Course").
		Order("enrollment_date DESC, id DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) CountByCourse(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}
