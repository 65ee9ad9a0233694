package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions written by the engine itself. Admins may record others.
const (
	ActivityActionEnrollmentCreated = "enrollment.created"
	ActivityActionAssessmentGraded  = "assessment.graded"
)

// Entities referenced from the audit trail.
const (
	ActivityEntityEnrollment           = "enrollment"
	ActivityEntityAssessmentSubmission = "assessment_submission"
)

// ActivityLog is one audit trail row. EntityID points into the table named by EntityType.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null;index:idx_activity_entity" json:"entity_type"`
	EntityID   *uint             `gorm:"index:idx_activity_entity" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}
