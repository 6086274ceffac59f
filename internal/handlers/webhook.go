package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"

	"github.com/Gautam-813/gauravphotoviewer/internal/services"
)

// WebhookHandler receives Telegram webhook deliveries
type WebhookHandler struct {
	ingest *services.IngestService
	logger *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(ingest *services.IngestService, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{ingest: ingest, logger: logger}
}

// HandleTelegramWebhook handles one update pushed by Telegram.
// POST /api/telegram/webhook
// Telegram retries deliveries that do not get a 2xx, so every parseable
// update is acknowledged with 200 no matter what it contained; the ingest
// service swallows its own failures.
func (h *WebhookHandler) HandleTelegramWebhook(c *fiber.Ctx) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		h.logger.Warn("discarding malformed webhook payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid update payload",
		})
	}

	h.ingest.IngestUpdate(context.Background(), &update)
	return c.JSON(fiber.Map{"status": "ok"})
}
