package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/dto"
	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// OTPHandler exposes one-time code issuance and verification.
type OTPHandler struct {
	service service.OTPService
	logger  zerolog.Logger
}

// NewOTPHandler constructs the handler.
func NewOTPHandler(service service.OTPService, logger zerolog.Logger) *OTPHandler {
	return &OTPHandler{
		service: service,
		logger:  logger.With().Str("component", "otp_handler").Logger(),
	}
}

// Register binds the auth routes.
func (h *OTPHandler) Register(router fiber.Router) {
	router.Post("/otp/request", h.request)
	router.Post("/otp/verify", h.verify)
}

func (h *OTPHandler) request(c *fiber.Ctx) error {
	var payload dto.OTPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	issued, err := h.service.Issue(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to issue otp")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "otp sent", issued)
}

func (h *OTPHandler) verify(c *fiber.Ctx) error {
	var payload dto.OTPVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	verified, err := h.service.Verify(requestContext(c), payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to verify otp")
	}
	return utils.SendSuccess(c, "otp verified", verified)
}
