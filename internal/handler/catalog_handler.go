package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// CatalogHandler lets admins drop cached curricula after course edits.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// RegisterAdmin binds the cache routes.
func (h *CatalogHandler) RegisterAdmin(router fiber.Router) {
	router.Delete("/courses/:courseId/catalog-cache", h.invalidate)
}

func (h *CatalogHandler) invalidate(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Invalidate(requestContext(c), courseID); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Uint("course_id", courseID).Msg("failed to invalidate curriculum cache")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "failed to invalidate curriculum cache")
	}
	return utils.SendSuccess(c, "curriculum cache invalidated", fiber.Map{"course_id": courseID})
}
