package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// BadgeResponse is a catalog badge as seen by its holder.
type BadgeResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Criteria    string    `json:"criteria"`
	CourseID    *uint     `json:"course_id"`
	GrantedAt   time.Time `json:"granted_at"`
}

// NewBadgeResponse converts a badge grant.
func NewBadgeResponse(grant models.UserBadge) BadgeResponse {
	return BadgeResponse{
		ID:          grant.BadgeID,
		Name:        grant.Badge.Name,
		Description: grant.Badge.Description,
		Icon:        grant.Badge.Icon,
		Criteria:    string(grant.Badge.Criteria),
		CourseID:    grant.Badge.CourseID,
		GrantedAt:   grant.GrantedAt,
	}
}

// BadgeCheckResult lists the badges granted by one evaluation.
type BadgeCheckResult struct {
	StudentID uint            `json:"student_id"`
	Granted   []BadgeResponse `json:"granted"`
	Outcome
}
