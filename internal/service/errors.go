package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDependencyFailure = errors.New("dependency failure")
)

// Error carries the failing operation and a kind alongside a human readable message.
type Error struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the wrapped cause, falling back to the kind.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches both the kind and the wrapped cause.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Op == t.Op && e.Kind == t.Kind && e.Message == t.Message
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func newError(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

func wrapError(op string, kind error, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// Named engine errors.
var (
	ErrCourseNotFound        = newError("enrollment.Enroll", ErrNotFound, "course not found")
	ErrPaymentNotFound       = newError("enrollment.Enroll", ErrNotFound, "payment not found")
	ErrPaymentNotCompleted   = newError("enrollment.Enroll", ErrInvalidState, "payment is not completed")
	ErrPaymentOwnerMismatch  = newError("enrollment.Enroll", ErrConflict, "payment belongs to another student")
	ErrPaymentCourseMismatch = newError("enrollment.Enroll", ErrConflict, "payment targets another course")
	ErrPaymentAlreadyUsed    = newError("enrollment.Enroll", ErrConflict, "payment already consumed by an enrollment")
	ErrEnrollmentExists      = newError("enrollment.Enroll", ErrConflict, "student is already enrolled in this course")
	ErrEnrollmentNotFound    = newError("enrollment.Get", ErrNotFound, "enrollment not found")

	ErrProgressNotFound = newError("progress.Get", ErrNotFound, "progress record not found")
	ErrLectureNotFound  = newError("progress.Lecture", ErrNotFound, "lecture not found in course curriculum")

	ErrAssessmentNotFound       = newError("assessment.Get", ErrNotFound, "assessment not found")
	ErrAssessmentCourseMismatch = newError("assessment.Get", ErrNotFound, "assessment does not belong to course")
	ErrAlreadySubmitted         = newError("assessment.Submit", ErrConflict, "assessment already submitted")
	ErrSubmissionNotFound       = newError("assessment.Grade", ErrNotFound, "assessment submission not found")
	ErrAlreadyGraded            = newError("assessment.Grade", ErrConflict, "assessment already graded")
	ErrScoreOutOfRange          = newError("assessment.Grade", ErrInvalidInput, "score must be between zero and the assessment total points")
	ErrNotAssessmentOwner       = newError("assessment.Grade", ErrUnauthorized, "assessment does not belong to instructor")
	ErrNotCourseOwner           = newError("progress.ListCourse", ErrUnauthorized, "course does not belong to instructor")

	ErrStudentNotFound      = newError("user.Get", ErrNotFound, "student not found")
	ErrNotificationNotFound = newError("notification.MarkRead", ErrNotFound, "notification not found")

	ErrOTPInvalid = newError("otp.Verify", ErrInvalidInput, "otp code is invalid or expired")
)

// validationError wraps validator failures as invalid input.
func validationError(op string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0]
		return wrapError(op, ErrInvalidInput, fmt.Sprintf("%s failed %s validation", field.Field(), field.Tag()), err)
	}
	return wrapError(op, ErrInvalidInput, "invalid payload", err)
}

// storeError maps persistence failures onto the error taxonomy.
func storeError(op string, err error, notFound *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrRecordNotFound):
		return wrapError(op, ErrNotFound, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return wrapError(op, ErrConflict, "record already exists", err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
