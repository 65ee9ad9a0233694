package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/models"
	"github.com/noah-isme/gema-lms-api/internal/observability"
	"github.com/noah-isme/gema-lms-api/internal/repository"
)

// Notifier is the fire-and-forget notification collaborator used by the engine.
type Notifier interface {
	Notify(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
}

// NotificationService persists notifications and fans them out to the delivery brokers.
type NotificationService interface {
	Notifier
	List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	sanitizer    *bluemonday.Policy
	nodeID       string
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// NewNotificationService constructs a notification service. Nil brokers are skipped.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = strings.ReplaceAll(channelBase, ".", ":") + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		validator:    validate,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-lms-api/internal/service/notification"),
		sanitizer:    bluemonday.StrictPolicy(),
		nodeID:       uuid.NewString(),
	}
}

func (s *notificationService) Notify(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, validationError("notification.Notify", err)
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if title == "" || message == "" {
		return dto.NotificationResponse{}, newError("notification.Notify", ErrInvalidInput, "notification empty after sanitization")
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(payload.UserID)),
		attribute.String("notification.type", payload.Type),
	))
	defer span.End()

	model := models.Notification{
		UserID:  payload.UserID,
		Title:   title,
		Message: message,
		Type:    models.NotificationType(payload.Type),
	}
	if payload.Related != nil {
		related := models.RelatedEntity{Kind: models.RelatedKind(payload.Related.Kind), ID: payload.Related.ID}
		if err := related.Validate(); err != nil {
			return dto.NotificationResponse{}, wrapError("notification.Notify", ErrInvalidInput, "invalid related entity", err)
		}
		model.SetRelated(&related)
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(model)
	if err := s.publish(spanCtx, response); err != nil {
		span.RecordError(err)
		s.logger.Warn().Err(err).Uint("user_id", response.UserID).Msg("failed to publish notification to broker")
	}

	observability.NotificationsSent().WithLabelValues(response.Type).Inc()
	return response, nil
}

func (s *notificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]dto.NotificationResponse, error) {
	if userID == 0 {
		return nil, newError("notification.List", ErrInvalidInput, "user id is required")
	}

	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(userID)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID)
	if err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, storeError("notification.MarkRead", err, ErrNotificationNotFound)
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse) error {
	event := notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}
