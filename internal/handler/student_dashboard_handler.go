package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// StudentDashboardHandler exposes the student dashboard endpoint.
type StudentDashboardHandler struct {
	service service.StudentDashboardService
	logger  zerolog.Logger
}

// NewStudentDashboardHandler creates a new handler instance.
func NewStudentDashboardHandler(service service.StudentDashboardService, logger zerolog.Logger) *StudentDashboardHandler {
	return &StudentDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "student_dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint.
func (h *StudentDashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
}

// RegisterAdmin exposes any student's dashboard to administrators.
func (h *StudentDashboardHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/students/:studentId/dashboard", h.getStudentDashboard)
}

func (h *StudentDashboardHandler) getDashboard(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	return h.render(c, studentID)
}

func (h *StudentDashboardHandler) getStudentDashboard(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return h.render(c, studentID)
}

func (h *StudentDashboardHandler) render(c *fiber.Ctx, studentID uint) error {
	dashboard, err := h.service.GetDashboard(requestContext(c), studentID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
