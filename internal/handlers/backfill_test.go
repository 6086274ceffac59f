package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"

	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
	"github.com/Gautam-813/gauravphotoviewer/internal/models"
	"github.com/Gautam-813/gauravphotoviewer/internal/services"
)

func newBackfillApp(t *testing.T, bot *stubBot, chatID int64) (*fiber.App, *gallery.Store) {
	t.Helper()
	store := newTestStore(t)
	ingest := services.NewIngestService(bot, store, nil, nil)
	backfill := services.NewBackfillService(bot, ingest, store, chatID, 100, 1000, nil, nil)
	handler := NewBackfillHandler(backfill, bot, "https://public.example", nil)

	app := fiber.New()
	app.Post("/api/backfill", handler.HandleRun)
	app.Get("/setup-webhook", handler.HandleSetupWebhook)
	return app, store
}

func TestBackfillEndpoint(t *testing.T) {
	bot := &stubBot{
		webhookURL: "https://public.example/api/telegram/webhook",
		history: []tgbotapi.Update{
			photoUpdate(1, 42, "p1"),
			photoUpdate(2, 42, "p2"),
		},
	}
	app, store := newBackfillApp(t, bot, 42)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/backfill", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var result models.BackfillResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if result.Found != 2 || result.Added != 2 || !result.WebhookRestored {
		t.Errorf("Unexpected result: %+v", result)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", store.Len())
	}
}

func TestBackfillEndpointBusy(t *testing.T) {
	bot := &stubBot{
		history: []tgbotapi.Update{photoUpdate(1, 42, "p1")},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	app, _ := newBackfillApp(t, bot, 42)

	firstDone := make(chan error, 1)
	go func() {
		_, err := app.Test(httptest.NewRequest("POST", "/api/backfill", nil), -1)
		firstDone <- err
	}()

	// Wait for the first run to reach the drain before triggering another.
	<-bot.started

	resp, err := app.Test(httptest.NewRequest("POST", "/api/backfill", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected 409 while a run is active, got %d", resp.StatusCode)
	}

	close(bot.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("First run request failed: %v", err)
	}
}

func TestBackfillEndpointWithoutChatID(t *testing.T) {
	app, _ := newBackfillApp(t, &stubBot{}, 0)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/backfill", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("Expected 500 for missing chat id, got %d", resp.StatusCode)
	}
}

func TestSetupWebhookEndpoint(t *testing.T) {
	bot := &stubBot{}
	app, _ := newBackfillApp(t, bot, 42)

	resp, err := app.Test(httptest.NewRequest("GET", "/setup-webhook", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if len(bot.setCalls) != 1 || !strings.HasSuffix(bot.setCalls[0], services.WebhookPath) {
		t.Errorf("Expected webhook registered at the webhook path, got %v", bot.setCalls)
	}
	if !strings.HasPrefix(bot.setCalls[0], "https://public.example") {
		t.Errorf("Expected configured base URL to win, got %q", bot.setCalls[0])
	}
}

func TestSetupWebhookEndpointWithoutToken(t *testing.T) {
	app, _ := newBackfillApp(t, &stubBot{noToken: true}, 42)

	resp, err := app.Test(httptest.NewRequest("GET", "/setup-webhook", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("Expected 500 without token, got %d", resp.StatusCode)
	}
}
