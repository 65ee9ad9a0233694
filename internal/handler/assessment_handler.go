package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// AssessmentHandler exposes submission and grading endpoints.
type AssessmentHandler struct {
	service service.AssessmentService
	logger  zerolog.Logger
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(service service.AssessmentService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register binds the student routes.
func (h *AssessmentHandler) Register(router fiber.Router) {
	router.Post("/courses/:courseId/assessments/:assessmentId/submit", h.submit)
	router.Get("/courses/:courseId/assessments/:assessmentId/result", h.result)
}

// RegisterInstructor binds the grading route.
func (h *AssessmentHandler) RegisterInstructor(router fiber.Router) {
	router.Post("/assessments/:assessmentId/grade", h.grade)
}

func (h *AssessmentHandler) submit(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	assessmentID, err := parseUintParam(c, "assessmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitAssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Submit(requestContext(c), studentID, courseID, assessmentID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to submit assessment")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment submitted", result)
}

func (h *AssessmentHandler) result(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	assessmentID, err := parseUintParam(c, "assessmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entry, err := h.service.GetResult(requestContext(c), studentID, courseID, assessmentID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load assessment result")
	}
	return utils.SendSuccess(c, "assessment result", entry)
}

func (h *AssessmentHandler) grade(c *fiber.Ctx) error {
	actor := activityActorFromContext(c)
	if actor.ID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	assessmentID, err := parseUintParam(c, "assessmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeAssessmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Grade(requestContext(c), actor, assessmentID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to grade assessment")
	}
	return utils.SendSuccess(c, "assessment graded", result)
}
