package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
	"github.com/Gautam-813/gauravphotoviewer/internal/telegram"
)

// stubBot implements services.BotAPI for handler tests.
type stubBot struct {
	mu sync.Mutex

	noToken bool
	history []tgbotapi.Update

	webhookURL string
	setCalls   []string

	// When set, GetUpdatesPage blocks until the channel is closed. Used to
	// hold a backfill run open while a second request is made.
	block chan struct{}
	// Closed once GetUpdatesPage has been entered.
	started chan struct{}
	once    sync.Once
}

func (b *stubBot) ResolveFileURL(_ context.Context, fileID string) (string, error) {
	if b.noToken {
		return "", telegram.ErrNoToken
	}
	return "https://files.test/" + fileID, nil
}

func (b *stubBot) GetUpdatesPage(_ context.Context, offset, limit int) ([]tgbotapi.Update, error) {
	if b.noToken {
		return nil, telegram.ErrNoToken
	}
	if b.started != nil {
		b.once.Do(func() { close(b.started) })
	}
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
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
	if b.noToken {
		return "", telegram.ErrNoToken
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.webhookURL, nil
}

func (b *stubBot) DeleteWebhook(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.webhookURL = ""
	return nil
}

func (b *stubBot) SetWebhook(_ context.Context, link string) error {
	if b.noToken {
		return telegram.ErrNoToken
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.webhookURL = link
	b.setCalls = append(b.setCalls, link)
	return nil
}

func newTestStore(t *testing.T) *gallery.Store {
	t.Helper()
	return gallery.New(filepath.Join(t.TempDir(), "gallery.json"), nil)
}

func photoUpdateJSON(id int, chatID int64, fileID string) string {
	return fmt.Sprintf(`{"update_id":%d,"message":{"message_id":%d,"date":%d,"chat":{"id":%d},
		"photo":[{"file_id":"%s-thumb","width":90,"height":60},{"file_id":%q,"file_unique_id":"u-%s","width":800,"height":600}]}}`,
		id, id, 1700000000+id, chatID, fileID, fileID, fileID)
}

func photoUpdate(id int, chatID int64, fileID string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			MessageID: id,
			Date:      1700000000 + id,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Photo: []tgbotapi.PhotoSize{
				{FileID: fileID + "-thumb", Width: 90, Height: 60},
				{FileID: fileID, FileUniqueID: "u-" + fileID, Width: 800, Height: 600},
			},
		},
	}
}
