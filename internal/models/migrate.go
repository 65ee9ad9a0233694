package models

// All returns every model managed by the service, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&CourseSection{},
		&CourseLecture{},
		&Payment{},
		&Enrollment{},
		&EnrolledCourse{},
		&Progress{},
		&CurriculumProgress{},
		&Assessment{},
		&AssessmentQuestion{},
		&QuestionOption{},
		&AssessmentProgress{},
		&Badge{},
		&UserBadge{},
		&CompletedCourse{},
		&AssessmentResult{},
		&Notification{},
		&ActivityLog{},
	}
}
