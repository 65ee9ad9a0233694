package models

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType classifies notifications.
type NotificationType string

// Notification types.
const (
	NotificationTypeSystem       NotificationType = "system"
	NotificationTypeCourse       NotificationType = "course"
	NotificationTypePayment      NotificationType = "payment"
	NotificationTypeSupport      NotificationType = "support"
	NotificationTypeAnnouncement NotificationType = "announcement"
)

// Valid reports whether the type is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeSystem, NotificationTypeCourse, NotificationTypePayment, NotificationTypeSupport, NotificationTypeAnnouncement:
		return true
	}
	return false
}

// RelatedKind names the entity a notification points at.
type RelatedKind string

// Related entity kinds.
const (
	RelatedCourse        RelatedKind = "course"
	RelatedPayment       RelatedKind = "payment"
	RelatedSupportTicket RelatedKind = "support_ticket"
	RelatedAssessment    RelatedKind = "assessment"
	RelatedBadge         RelatedKind = "badge"
)

// RelatedEntity is a tagged reference: the kind decides which store resolves the id.
type RelatedEntity struct {
	Kind RelatedKind `json:"kind"`
	ID   uint        `json:"id"`
}

// Validate checks that the reference names a known kind and a non-zero id.
func (r RelatedEntity) Validate() error {
	switch r.Kind {
	case RelatedCourse, RelatedPayment, RelatedSupportTicket, RelatedAssessment, RelatedBadge:
	default:
		return fmt.Errorf("unknown related entity kind %q", r.Kind)
	}
	if r.ID == 0 {
		return fmt.Errorf("related %s id is required", r.Kind)
	}
	return nil
}

// String renders the reference as kind:id.
func (r RelatedEntity) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"index;not null" json:"user_id"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	Type        NotificationType `gorm:"size:32;not null" json:"type"`
	RelatedKind *RelatedKind     `gorm:"size:32" json:"related_kind"`
	RelatedID   *uint            `json:"related_id"`
	Read        bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Related returns the tagged reference stored on the notification, if any.
func (n Notification) Related() (RelatedEntity, bool) {
	if n.RelatedKind == nil || n.RelatedID == nil {
		return RelatedEntity{}, false
	}
	return RelatedEntity{Kind: RelatedKind(strings.TrimSpace(string(*n.RelatedKind))), ID: *n.RelatedID}, true
}

// SetRelated stores the tagged reference on the notification.
func (n *Notification) SetRelated(ref *RelatedEntity) {
	if ref == nil {
		n.RelatedKind = nil
		n.RelatedID = nil
		return
	}
	kind := ref.Kind
	id := ref.ID
	n.RelatedKind = &kind
	n.RelatedID = &id
}
