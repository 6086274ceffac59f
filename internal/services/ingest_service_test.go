package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
	"github.com/Gautam-813/gauravphotoviewer/internal/models"
	"github.com/Gautam-813/gauravphotoviewer/internal/telegram"
)

// stubBot implements BotAPI in memory. History pagination mirrors the real
// getUpdates contract: updates with UpdateID >= offset, at most limit.
type stubBot struct {
	mu sync.Mutex

	noToken    bool
	resolveErr map[string]error // file_id -> error
	resolved   []string

	history    []tgbotapi.Update
	updatesErr error

	webhookURL  string
	captureErr  error
	deleteErr   error
	setErr      error
	deleteCalls int
	setCalls    []string
	pagesServed int
}

func (b *stubBot) ResolveFileURL(_ context.Context, fileID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.noToken {
		return "", telegram.ErrNoToken
	}
	if err := b.resolveErr[fileID]; err != nil {
		return "", err
	}
	b.resolved = append(b.resolved, fileID)
	return "https://files.test/" + fileID, nil
}

func (b *stubBot) GetUpdatesPage(_ context.Context, offset, limit int) ([]tgbotapi.Update, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updatesErr != nil {
		return nil, b.updatesErr
	}
	b.pagesServed++
	var page []tgbotapi.Update
	for _, u := range b.history {
		if u.UpdateID >= offset {
			page = append(page, u)
			if len(page) == limit {
				break
			}
		}
	}
	return page, nil
}

func (b *stubBot) WebhookURL(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.webhookURL, b.captureErr
}

func (b *stubBot) DeleteWebhook(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteCalls++
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.webhookURL = ""
	return nil
}

func (b *stubBot) SetWebhook(_ context.Context, link string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setCalls = append(b.setCalls, link)
	if b.setErr != nil {
		return b.setErr
	}
	b.webhookURL = link
	return nil
}

func newTestStore(t *testing.T) *gallery.Store {
	t.Helper()
	return gallery.New(filepath.Join(t.TempDir(), "gallery.json"), nil)
}

func photoUpdate(id int, chatID int64, fileID string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id,
			Date:      1700000000 + id,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Caption:   fmt.Sprintf("photo %d", id),
			Photo: []tgbotapi.PhotoSize{
				{FileID: fileID + "-thumb", Width: 90, Height: 60},
				{FileID: fileID, FileUniqueID: "u-" + fileID, Width: 800, Height: 600},
			},
		},
	}
}

func documentUpdate(id int, chatID int64, fileID, mimeType string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id,
			Date:      1700000000 + id,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Document: &tgbotapi.Document{
				FileID:       fileID,
				FileUniqueID: "u-" + fileID,
				FileName:     fileID + ".png",
				MimeType:     mimeType,
			},
		},
	}
}

func TestIngestUpdatePhoto(t *testing.T) {
	bot := &stubBot{}
	store := newTestStore(t)
	svc := NewIngestService(bot, store, nil, nil)

	update := photoUpdate(1, 42, "p1")
	svc.IngestUpdate(context.Background(), &update)

	recs := store.List()
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.FileID != "p1" {
		t.Errorf("Expected largest size file_id p1, got %q", rec.FileID)
	}
	if rec.Width != 800 || rec.Height != 600 {
		t.Errorf("Expected 800x600, got %dx%d", rec.Width, rec.Height)
	}
	if rec.FullURL != "https://files.test/p1" || rec.ThumbURL != rec.FullURL {
		t.Errorf("Unexpected URLs: thumb %q full %q", rec.ThumbURL, rec.FullURL)
	}
	if rec.Provenance != models.ProvenanceLive {
		t.Errorf("Expected live provenance, got %q", rec.Provenance)
	}
	if ts, ok := rec.Timestamp.(int); !ok || ts != 1700000001 {
		t.Errorf("Expected the message date verbatim, got %v (%T)", rec.Timestamp, rec.Timestamp)
	}
}

func TestIngestUpdateDeduplicates(t *testing.T) {
	bot := &stubBot{}
	store := newTestStore(t)
	svc := NewIngestService(bot, store, nil, nil)

	update := photoUpdate(1, 42, "p1")
	svc.IngestUpdate(context.Background(), &update)
	svc.IngestUpdate(context.Background(), &update)

	if store.Len() != 1 {
		t.Errorf("Expected 1 record after duplicate delivery, got %d", store.Len())
	}
}

func TestIngestUpdateImageDocument(t *testing.T) {
	bot := &stubBot{}
	store := newTestStore(t)
	svc := NewIngestService(bot, store, nil, nil)

	update := documentUpdate(2, 42, "d1", "image/png")
	svc.IngestUpdate(context.Background(), &update)

	recs := store.List()
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	if recs[0].FileName != "d1.png" || recs[0].MimeType != "image/png" {
		t.Errorf("Document fields missing: %+v", recs[0])
	}
}

func TestIngestUpdateRejectsNonImageDocument(t *testing.T) {
	bot := &stubBot{}
	store := newTestStore(t)
	svc := NewIngestService(bot, store, nil, nil)

	update := documentUpdate(3, 42, "d2", "application/pdf")
	svc.IngestUpdate(context.Background(), &update)

	if store.Len() != 0 {
		t.Errorf("Expected pdf document to be ignored, store has %d records", store.Len())
	}
}

func TestIngestUpdateResolutionFailureAddsNothing(t *testing.T) {
	bot := &stubBot{resolveErr: map[string]error{"p1": fmt.Errorf("getFile p1 failed")}}
	store := newTestStore(t)
	svc := NewIngestService(bot, store, nil, nil)

	update := photoUpdate(1, 42, "p1")
	svc.IngestUpdate(context.Background(), &update)

	if store.Len() != 0 {
		t.Errorf("Expected no record on resolution failure, got %d", store.Len())
	}
}

func TestIngestUpdateToleratesMalformedUpdates(t *testing.T) {
	bot := &stubBot{}
	store := newTestStore(t)
	svc := NewIngestService(bot, store, nil, nil)

	svc.IngestUpdate(context.Background(), nil)
	svc.IngestUpdate(context.Background(), &tgbotapi.Update{UpdateID: 9})
	svc.IngestUpdate(context.Background(), &tgbotapi.Update{UpdateID: 10, Message: &tgbotapi.Message{Text: "hi"}})

	if store.Len() != 0 {
		t.Errorf("Expected nothing recorded, got %d", store.Len())
	}
}

func TestIngestUpdateWithoutToken(t *testing.T) {
	bot := &stubBot{noToken: true}
	store := newTestStore(t)
	svc := NewIngestService(bot, store, nil, nil)

	update := photoUpdate(1, 42, "p1")
	svc.IngestUpdate(context.Background(), &update)

	if store.Len() != 0 {
		t.Errorf("Expected no record without a token, got %d", store.Len())
	}
}
