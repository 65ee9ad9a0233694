package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// NotificationHandler manages the notification inbox.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the inbox routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/notifications", h.list)
	router.Patch("/notifications/:id/read", h.markRead)
}

// RegisterAdmin binds the route that sends a notification to any user.
func (h *NotificationHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/notifications", h.create)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	notifications, err := h.service.List(requestContext(c), userID, unreadOnly, limit, offset)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list notifications")
	}

	return utils.SendSuccess(c, "notifications", notifications)
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	notification, err := h.service.MarkRead(requestContext(c), id, userID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to update notification")
	}

	return utils.SendSuccess(c, "notification updated", notification)
}

func (h *NotificationHandler) create(c *fiber.Ctx) error {
	var payload dto.NotificationCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	notification, err := h.service.Notify(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to send notification")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "notification sent", notification)
}
