package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Gautam-813/gauravphotoviewer/internal/services"
	"github.com/Gautam-813/gauravphotoviewer/internal/telegram"
)

// BackfillHandler triggers history synchronization and webhook setup
type BackfillHandler struct {
	backfill      *services.BackfillService
	bot           services.BotAPI
	publicBaseURL string
	logger        *slog.Logger
}

// NewBackfillHandler creates a new backfill handler. publicBaseURL may be
// empty, in which case the base URL of the incoming request is used.
func NewBackfillHandler(backfill *services.BackfillService, bot services.BotAPI, publicBaseURL string, logger *slog.Logger) *BackfillHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackfillHandler{
		backfill:      backfill,
		bot:           bot,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

func (h *BackfillHandler) baseURL(c *fiber.Ctx) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return c.BaseURL()
}

// HandleRun runs one backfill and returns its structured result.
// POST /api/backfill
func (h *BackfillHandler) HandleRun(c *fiber.Ctx) error {
	result, err := h.backfill.Run(context.Background(), h.baseURL(c))
	switch {
	case errors.Is(err, services.ErrBackfillBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A backfill run is already in progress",
		})
	case errors.Is(err, services.ErrNoChatID), errors.Is(err, telegram.ErrNoToken):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	case err != nil:
		// The run failed partway; the result still carries what was found
		// and whether the webhook came back.
		h.logger.Error("backfill failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":  err.Error(),
			"result": result,
		})
	}
	return c.JSON(result)
}

// HandleSetupWebhook registers this deployment's webhook with Telegram.
// GET /setup-webhook
func (h *BackfillHandler) HandleSetupWebhook(c *fiber.Ctx) error {
	webhookURL := strings.TrimRight(h.baseURL(c), "/") + services.WebhookPath

	if err := h.bot.SetWebhook(context.Background(), webhookURL); err != nil {
		status := fiber.StatusBadGateway
		if errors.Is(err, telegram.ErrNoToken) {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}
	h.logger.Info("webhook registered", "url", webhookURL)
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Webhook set to " + webhookURL,
	})
}
