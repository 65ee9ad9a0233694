package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// ErrAssessmentEntryGraded is returned when a grading attempt hits an entry that is already graded.
var ErrAssessmentEntryGraded = errors.New("assessment entry already graded")

// LectureActivity identifies one curriculum entry mutation.
type LectureActivity struct {
	ProgressID uint
	SectionID  uint
	LectureID  uint
	TimeSpent  int64
	At         time.Time
}

// AssessmentGrade carries the values written by a grading transition.
type AssessmentGrade struct {
	EntryID  uint
	Score    float64
	Feedback string
	GradedBy uint
	At       time.Time
}

// ProgressSnapshot is the input of the overall-progress computation, read under the progress row lock.
type ProgressSnapshot struct {
	Progress          models.Progress
	CompletedLectures int64
	LatestGraded      *models.AssessmentProgress
}

// OverallProgressFunc derives the overall percentage from a snapshot.
type OverallProgressFunc func(snapshot ProgressSnapshot) int

// RecomputeResult describes the outcome of an overall-progress recomputation.
type RecomputeResult struct {
	ProgressID   uint
	StudentID    uint
	CourseID     uint
	Previous     int
	Overall      int
	CompletedNow bool
	CompletedAt  *time.Time
}

// ProgressRepository owns the per-(student, course) progress records.
type ProgressRepository interface {
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Progress, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Progress, error)
	TouchLecture(ctx context.Context, activity LectureActivity) (models.CurriculumProgress, error)
	CompleteLecture(ctx context.Context, activity LectureActivity, compute OverallProgressFunc) (RecomputeResult, error)
	GetAssessmentEntry(ctx context.Context, progressID, assessmentID uint) (models.AssessmentProgress, error)
	SubmitAssessment(ctx context.Context, entry *models.AssessmentProgress, result *models.AssessmentResult) error
	GradeAssessment(ctx context.Context, progressID uint, grade AssessmentGrade, compute OverallProgressFunc) (RecomputeResult, error)
	Recompute(ctx context.Context, progressID uint, compute OverallProgressFunc, at time.Time) (RecomputeResult, error)
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs a progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Progress, error) {
	var progress models.Progress
	if err := r.withEntries(r.db.WithContext(ctx)).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&progress).Error; err != nil {
		return models.Progress{}, err
	}
	return progress, nil
}

func (r *progressRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Progress, error) {
	var records []models.Progress
	if err := r.withEntries(r.db.WithContext(ctx)).
		Where("course_id = ?", courseID).
		Order("student_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *progressRepository) withEntries(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Curriculum", func(db *gorm.DB) *gorm.DB {
			return db.Order("section_id ASC, lecture_id ASC")
		}).
		Preload("Assessments", func(db *gorm.DB) *gorm.DB {
			return db.Order("assessment_id ASC")
		})
}

// TouchLecture lazily creates the curriculum entry and adds the time delta in a single upsert.
func (r *progressRepository) TouchLecture(ctx context.Context, activity LectureActivity) (models.CurriculumProgress, error) {
	var entry models.CurriculumProgress
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		at := activity.At
		insert := models.CurriculumProgress{
			ProgressID:   activity.ProgressID,
			SectionID:    activity.SectionID,
			LectureID:    activity.LectureID,
			TimeSpent:    activity.TimeSpent,
			LastAccessed: &at,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: curriculumKey,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"time_spent":    gorm.Expr("curriculum_progress_entries.time_spent + ?", activity.TimeSpent),
				"last_accessed": at,
			}),
		}).Create(&insert).Error; err != nil {
			return err
		}

		if err := r.touchRecord(tx, activity.ProgressID, at); err != nil {
			return err
		}

		return tx.Where("progress_id = ? AND section_id = ? AND lecture_id = ?",
			activity.ProgressID, activity.SectionID, activity.LectureID).
			First(&entry).Error
	})
	if err != nil {
		return models.CurriculumProgress{}, err
	}
	return entry, nil
}

// CompleteLecture marks the entry completed and recomputes the overall progress in one transaction.
func (r *progressRepository) CompleteLecture(ctx context.Context, activity LectureActivity, compute OverallProgressFunc) (RecomputeResult, error) {
	var result RecomputeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := r.lockRecord(tx, activity.ProgressID)
		if err != nil {
			return err
		}

		at := activity.At
		insert := models.CurriculumProgress{
			ProgressID:     activity.ProgressID,
			SectionID:      activity.SectionID,
			LectureID:      activity.LectureID,
			Completed:      true,
			CompletionDate: &at,
			LastAccessed:   &at,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: curriculumKey,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed":       true,
				"completion_date": at,
				"last_accessed":   at,
			}),
		}).Create(&insert).Error; err != nil {
			return err
		}

		if err := r.touchRecord(tx, activity.ProgressID, at); err != nil {
			return err
		}

		result, err = r.recompute(tx, progress, compute, at)
		return err
	})
	return result, err
}

func (r *progressRepository) GetAssessmentEntry(ctx context.Context, progressID, assessmentID uint) (models.AssessmentProgress, error) {
	var entry models.AssessmentProgress
	if err := r.db.WithContext(ctx).
		Where("progress_id = ? AND assessment_id = ?", progressID, assessmentID).
		First(&entry).Error; err != nil {
		return models.AssessmentProgress{}, err
	}
	return entry, nil
}

// SubmitAssessment inserts the assessment entry and appends the student's result history.
// The unique (progress_id, assessment_id) index rejects a second submission.
func (r *progressRepository) SubmitAssessment(ctx context.Context, entry *models.AssessmentProgress, result *models.AssessmentResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		at := result.TakenAt
		if entry.SubmissionDate != nil {
			at = *entry.SubmissionDate
		}
		return r.touchRecord(tx, entry.ProgressID, at)
	})
}

// GradeAssessment moves the entry to graded with a compare-and-swap on its status,
// then recomputes the overall progress of the owning record.
func (r *progressRepository) GradeAssessment(ctx context.Context, progressID uint, grade AssessmentGrade, compute OverallProgressFunc) (RecomputeResult, error) {
	var result RecomputeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := r.lockRecord(tx, progressID)
		if err != nil {
			return err
		}

		gradedBy := grade.GradedBy
		update := tx.Model(&models.AssessmentProgress{}).
			Where("id = ? AND progress_id = ? AND status <> ?", grade.EntryID, progressID, models.AssessmentStatusGraded).
			Updates(map[string]interface{}{
				"status":       models.AssessmentStatusGraded,
				"score":        grade.Score,
				"feedback":     grade.Feedback,
				"grading_date": grade.At,
				"graded_by":    &gradedBy,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrAssessmentEntryGraded
		}

		result, err = r.recompute(tx, progress, compute, grade.At)
		return err
	})
	return result, err
}

func (r *progressRepository) Recompute(ctx context.Context, progressID uint, compute OverallProgressFunc, at time.Time) (RecomputeResult, error) {
	var result RecomputeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := r.lockRecord(tx, progressID)
		if err != nil {
			return err
		}
		result, err = r.recompute(tx, progress, compute, at)
		return err
	})
	return result, err
}

var curriculumKey = []clause.Column{{Name: "progress_id"}, {Name: "section_id"}, {Name: "lecture_id"}}

func (r *progressRepository) lockRecord(tx *gorm.DB, progressID uint) (models.Progress, error) {
	var progress models.Progress
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&progress, progressID).Error; err != nil {
		return models.Progress{}, err
	}
	return progress, nil
}

func (r *progressRepository) touchRecord(tx *gorm.DB, progressID uint, at time.Time) error {
	return tx.Model(&models.Progress{}).Where("id = ?", progressID).Update("last_accessed", at).Error
}

// recompute must run with the progress row locked so that concurrent completions
// serialise on the record and the last writer sees every committed entry.
func (r *progressRepository) recompute(tx *gorm.DB, progress models.Progress, compute OverallProgressFunc, at time.Time) (RecomputeResult, error) {
	snapshot := ProgressSnapshot{Progress: progress}

	if err := tx.Model(&models.CurriculumProgress{}).
		Where("progress_id = ? AND completed = ?", progress.ID, true).
		Count(&snapshot.CompletedLectures).Error; err != nil {
		return RecomputeResult{}, err
	}

	var latest models.AssessmentProgress
	err := tx.Where("progress_id = ? AND status = ?", progress.ID, models.AssessmentStatusGraded).
		Order("grading_date DESC").
		Order("id DESC").
		First(&latest).Error
	switch {
	case err == nil:
		snapshot.LatestGraded = &latest
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return RecomputeResult{}, err
	}

	overall := compute(snapshot)
	result := RecomputeResult{
		ProgressID: progress.ID,
		StudentID:  progress.StudentID,
		CourseID:   progress.CourseID,
		Previous:   progress.OverallProgress,
		Overall:    overall,
	}

	if err := tx.Model(&models.Progress{}).Where("id = ?", progress.ID).
		Update("overall_progress", overall).Error; err != nil {
		return RecomputeResult{}, err
	}

	if err := tx.Model(&models.Enrollment{}).Where("id = ?", progress.EnrollmentID).
		Updates(map[string]interface{}{"progress": overall, "last_accessed": at}).Error; err != nil {
		return RecomputeResult{}, err
	}

	if overall < 100 {
		return result, nil
	}

	transition := tx.Model(&models.Enrollment{}).
		Where("id = ? AND status = ?", progress.EnrollmentID, models.EnrollmentStatusActive).
		Updates(map[string]interface{}{
			"status":          models.EnrollmentStatusCompleted,
			"completion_date": at,
		})
	if transition.Error != nil {
		return RecomputeResult{}, transition.Error
	}
	if transition.RowsAffected == 0 {
		return result, nil
	}

	completed := models.CompletedCourse{UserID: progress.StudentID, CourseID: progress.CourseID, CompletedAt: at}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&completed).Error; err != nil {
		return RecomputeResult{}, err
	}

	if err := tx.Model(&models.EnrolledCourse{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", progress.StudentID, progress.CourseID, false).
		Updates(map[string]interface{}{"completed": true, "completion_date": at}).Error; err != nil {
		return RecomputeResult{}, err
	}

	result.CompletedNow = true
	result.CompletedAt = &at
	return result, nil
}
