package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/observability"
)

// ProgressEventType names a committed engine transition.
type ProgressEventType string

// Progress event types.
const (
	EventEnrollmentCreated   ProgressEventType = "enrollment.created"
	EventLectureCompleted    ProgressEventType = "lecture.completed"
	EventCourseCompleted     ProgressEventType = "course.completed"
	EventAssessmentSubmitted ProgressEventType = "assessment.submitted"
	EventAssessmentGraded    ProgressEventType = "assessment.graded"
)

// ProgressEvent is emitted after the write that caused it has committed.
type ProgressEvent struct {
	Type            ProgressEventType `json:"type"`
	StudentID       uint              `json:"student_id"`
	CourseID        uint              `json:"course_id"`
	LectureID       uint              `json:"lecture_id,omitempty"`
	AssessmentID    uint              `json:"assessment_id,omitempty"`
	OverallProgress int               `json:"overall_progress"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// ProgressListener reacts to committed progress events. Errors never undo the
// committed write; they surface as warnings on the caller's result.
type ProgressListener interface {
	Name() string
	HandleProgressEvent(ctx context.Context, event ProgressEvent) error
}

// ProgressListenerFunc adapts a function into a ProgressListener.
type ProgressListenerFunc struct {
	ListenerName string
	Fn           func(ctx context.Context, event ProgressEvent) error
}

// Name returns the listener name.
func (f ProgressListenerFunc) Name() string { return f.ListenerName }

// HandleProgressEvent invokes the wrapped function.
func (f ProgressListenerFunc) HandleProgressEvent(ctx context.Context, event ProgressEvent) error {
	return f.Fn(ctx, event)
}

func warnOutcome(outcome *dto.Outcome, effect string, err error) {
	outcome.Degraded = true
	outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("%s: %v", effect, err))
}

// EventHub fans committed progress events out to the registered listeners.
type EventHub struct {
	mu        sync.RWMutex
	listeners []ProgressListener
	logger    zerolog.Logger
}

// NewEventHub constructs an empty hub.
func NewEventHub(logger zerolog.Logger) *EventHub {
	return &EventHub{logger: logger.With().Str("component", "progress_events").Logger()}
}

// Subscribe registers a listener. Listeners run in registration order.
func (h *EventHub) Subscribe(listener ProgressListener) {
	if listener == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, listener)
}

// Dispatch runs every listener synchronously. A failing listener does not stop
// the others; its error is logged, counted and recorded on the outcome.
func (h *EventHub) Dispatch(ctx context.Context, outcome *dto.Outcome, events ...ProgressEvent) {
	if h == nil {
		return
	}
	h.mu.RLock()
	listeners := append([]ProgressListener(nil), h.listeners...)
	h.mu.RUnlock()

	for _, event := range events {
		for _, listener := range listeners {
			if err := listener.HandleProgressEvent(ctx, event); err != nil {
				observability.SideEffectFailures().WithLabelValues(listener.Name()).Inc()
				h.logger.Warn().
					Err(err).
					Str("listener", listener.Name()).
					Str("event", string(event.Type)).
					Uint("student_id", event.StudentID).
					Uint("course_id", event.CourseID).
					Msg("progress listener failed")
				warnOutcome(outcome, listener.Name(), wrapError("events.Dispatch", ErrDependencyFailure, string(event.Type), err))
			}
		}
	}
}
