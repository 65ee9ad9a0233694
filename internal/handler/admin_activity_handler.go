package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

const (
	defaultActivityPageSize = 25
	maxActivityPageSize     = 100
)

// AdminActivityHandler serves the engine audit trail: enrollments, grading and
// anything admins record.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register mounts GET /activity on the admin group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("/activity", h.list)
}

// list accepts page, page_size, actor_id, action, entity_type, entity_id and since.
func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	var req dto.ActivityListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid activity filter")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	switch {
	case req.PageSize <= 0:
		req.PageSize = defaultActivityPageSize
	case req.PageSize > maxActivityPageSize:
		req.PageSize = maxActivityPageSize
	}

	response, err := h.service.List(requestContext(c), req)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list activity logs")
	}

	return utils.OK(c, response.Items, "activity logs", response.Pagination)
}
