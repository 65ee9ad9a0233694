package dto

import (
	"time"

	"github.com/noah-isme/gema-lms-api/internal/models"
)

// RelatedEntityPayload is the tagged reference attached to a notification.
type RelatedEntityPayload struct {
	Kind string `json:"kind" validate:"required,oneof=course payment support_ticket assessment badge"`
	ID   uint   `json:"id" validate:"required"`
}

// NotificationCreateRequest describes the payload to create a notification.
type NotificationCreateRequest struct {
	UserID  uint                  `json:"user_id" validate:"required"`
	Title   string                `json:"title" validate:"required,max=255"`
	Message string                `json:"message" validate:"required,max=2000"`
	Type    string                `json:"type" validate:"required,oneof=system course payment support announcement"`
	Related *RelatedEntityPayload `json:"related" validate:"omitempty"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        uint                  `json:"id"`
	UserID    uint                  `json:"user_id"`
	Title     string                `json:"title"`
	Message   string                `json:"message"`
	Type      string                `json:"type"`
	Related   *RelatedEntityPayload `json:"related"`
	Read      bool                  `json:"read"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	response := NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Title:     model.Title,
		Message:   model.Message,
		Type:      string(model.Type),
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
	if related, ok := model.Related(); ok {
		response.Related = &RelatedEntityPayload{Kind: string(related.Kind), ID: related.ID}
	}
	return response
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}
