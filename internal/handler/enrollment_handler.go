package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// EnrollmentHandler exposes the student enrollment endpoints.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register binds the routes to a student router group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Post("/enrollments", h.enroll)
	router.Get("/enrollments", h.list)
	router.Get("/courses/:courseId/certificate-eligibility", h.certificateEligibility)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Enroll(requestContext(c), studentID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to enroll")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrollment created", result)
}

func (h *EnrollmentHandler) list(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	enrollments, err := h.service.ListEnrollments(requestContext(c), studentID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list enrollments")
	}

	return utils.OK(c, enrollments, "enrollments", dto.SinglePage(len(enrollments)))
}

func (h *EnrollmentHandler) certificateEligibility(c *fiber.Ctx) error {
	studentID, ok := requireUser(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	eligibility, err := h.service.CertificateEligibility(requestContext(c), studentID, courseID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to check certificate eligibility")
	}

	return utils.SendSuccess(c, "certificate eligibility", eligibility)
}
