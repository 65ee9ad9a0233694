package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// ProgressHandler exposes curriculum progress endpoints.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register binds the student routes.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/courses/:courseId/progress", h.get)
	router.Post("/courses/:courseId/progress", h.touch)
	router.Post("/courses/:courseId/lectures/:lectureId/complete", h.complete)
}

// RegisterInstructor binds the course-wide read model for instructors.
func (h *ProgressHandler) RegisterInstructor(router fiber.Router) {
	router.Get("/courses/:courseId/progress", h.listCourse)
}

func (h *ProgressHandler) get(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := h.service.GetProgress(requestContext(c), studentID, courseID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load progress")
	}
	return utils.SendSuccess(c, "progress", progress)
}

func (h *ProgressHandler) touch(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LectureTouchRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := h.service.RecordLectureTouch(requestContext(c), studentID, courseID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to record lecture activity")
	}
	return utils.SendSuccess(c, "lecture activity recorded", entry)
}

func (h *ProgressHandler) complete(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	lectureID, err := parseUintParam(c, "lectureId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.CompleteLecture(requestContext(c), studentID, courseID, lectureID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to complete lecture")
	}
	if result.Degraded {
		requestLogger(h.logger, c).Warn().Strs("warnings", result.Warnings).Msg("lecture completed with degraded side effects")
	}
	return utils.SendSuccess(c, "lecture completed", result)
}

func (h *ProgressHandler) listCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	records, err := h.service.ListCourseProgress(requestContext(c), activityActorFromContext(c), courseID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list course progress")
	}
	return utils.OK(c, records, "course progress", dto.SinglePage(len(records)))
}
