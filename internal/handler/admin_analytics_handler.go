package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/service"
	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// AdminAnalyticsHandler serves platform-wide completion and grading metrics.
type AdminAnalyticsHandler struct {
	service service.AdminAnalyticsService
	logger  zerolog.Logger
}

// NewAdminAnalyticsHandler constructs the handler.
func NewAdminAnalyticsHandler(service service.AdminAnalyticsService, logger zerolog.Logger) *AdminAnalyticsHandler {
	return &AdminAnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_analytics_handler").Logger(),
	}
}

// Register mounts GET /analytics on the admin group. ?refresh=true recomputes
// the summary instead of serving the cached copy.
func (h *AdminAnalyticsHandler) Register(router fiber.Router) {
	router.Get("/analytics", h.get)
}

func (h *AdminAnalyticsHandler) get(c *fiber.Ctx) error {
	ctx := requestContext(c)
	if c.QueryBool("refresh") {
		if err := h.service.Invalidate(ctx); err != nil {
			requestLogger(h.logger, c).Warn().Err(err).Msg("failed to drop cached analytics")
		}
	}

	summary, err := h.service.GetSummary(ctx)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load analytics")
	}

	return utils.SendSuccess(c, "analytics summary", summary)
}
