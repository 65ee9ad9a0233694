package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// BadgeHandler exposes badge listing and on-demand evaluation.
type BadgeHandler struct {
	service service.BadgeService
	logger  zerolog.Logger
}

// NewBadgeHandler constructs the handler.
func NewBadgeHandler(service service.BadgeService, logger zerolog.Logger) *BadgeHandler {
	return &BadgeHandler{
		service: service,
		logger:  logger.With().Str("component", "badge_handler").Logger(),
	}
}

// Register binds the student routes.
func (h *BadgeHandler) Register(router fiber.Router) {
	router.Get("/badges", h.list)
	router.Post("/badges/check", h.checkSelf)
}

// RegisterAdmin binds evaluation on behalf of any student.
func (h *BadgeHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/students/:studentId/badges/check", h.checkStudent)
}

func (h *BadgeHandler) list(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	badges, err := h.service.ListStudentBadges(requestContext(c), studentID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list badges")
	}
	return utils.SendSuccess(c, "badges", badges)
}

func (h *BadgeHandler) checkSelf(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	return h.check(c, studentID)
}

func (h *BadgeHandler) checkStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return h.check(c, studentID)
}

func (h *BadgeHandler) check(c *fiber.Ctx, studentID uint) error {
	result, err := h.service.CheckAndAssignBadges(requestContext(c), studentID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to evaluate badges")
	}
	return utils.SendSuccess(c, "badges evaluated", result)
}
