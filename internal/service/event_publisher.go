package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// MessagePublisher is the subset of a NATS connection used to fan out events.
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

var _ MessagePublisher = (*nats.Conn)(nil)

type progressEnvelope struct {
	Source string        `json:"source"`
	Event  ProgressEvent `json:"event"`
	SentAt time.Time     `json:"sent_at"`
}

// EventPublisher forwards every progress event to the message broker under <subject>.<event type>.
type EventPublisher struct {
	publisher MessagePublisher
	subject   string
	nodeID    string
	logger    zerolog.Logger
}

// NewEventPublisher constructs the broker listener. A nil publisher turns it into a no-op.
func NewEventPublisher(publisher MessagePublisher, subject string, logger zerolog.Logger) *EventPublisher {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		subject = "lms.progress"
	}
	return &EventPublisher{
		publisher: publisher,
		subject:   subject,
		nodeID:    uuid.NewString(),
		logger:    logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Name identifies the listener in logs and metrics.
func (p *EventPublisher) Name() string { return "event_publisher" }

// Subject returns the broker subject used for the event type.
func (p *EventPublisher) Subject(eventType ProgressEventType) string {
	return p.subject + "." + string(eventType)
}

// HandleProgressEvent publishes the event as JSON.
func (p *EventPublisher) HandleProgressEvent(_ context.Context, event ProgressEvent) error {
	if p.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(progressEnvelope{Source: p.nodeID, Event: event, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	subject := p.Subject(event.Type)
	if err := p.publisher.Publish(subject, payload); err != nil {
		return err
	}
	p.logger.Debug().Str("subject", subject).Uint("student_id", event.StudentID).Msg("progress event published")
	return nil
}
