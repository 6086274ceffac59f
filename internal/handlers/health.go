package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store *gallery.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *gallery.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"message":   "Telegram Image Gallery is running!",
		"images":    h.store.Len(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
