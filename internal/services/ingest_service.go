package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
	"github.com/Gautam-813/gauravphotoviewer/internal/models"
	"github.com/Gautam-813/gauravphotoviewer/internal/telegram"
)

// WebhookPath is the route Telegram delivers updates to. The backfill
// synchronizer re-registers the webhook at this path after draining history.
const WebhookPath = "/api/telegram/webhook"

// BotAPI is the slice of the Telegram client the ingestion services use.
// Satisfied by *telegram.Client; tests substitute stubs.
type BotAPI interface {
	ResolveFileURL(ctx context.Context, fileID string) (string, error)
	GetUpdatesPage(ctx context.Context, offset, limit int) ([]tgbotapi.Update, error)
	WebhookURL(ctx context.Context) (string, error)
	DeleteWebhook(ctx context.Context) error
	SetWebhook(ctx context.Context, link string) error
}

// IngestService is the live ingestion path: one webhook update in, at most
// one gallery record out. Classification, resolution and record building
// are shared with the backfill synchronizer so both paths behave
// identically.
type IngestService struct {
	bot     BotAPI
	store   *gallery.Store
	metrics *Metrics
	logger  *slog.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(bot BotAPI, store *gallery.Store, metrics *Metrics, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{bot: bot, store: store, metrics: metrics, logger: logger}
}

// IngestUpdate processes one webhook-delivered update. It never returns an
// error: every internal failure is logged and means "this update
// contributed nothing". The record is flushed to disk immediately after a
// successful insert.
func (s *IngestService) IngestUpdate(ctx context.Context, update *tgbotapi.Update) {
	s.metrics.updateReceived()
	if update == nil || update.Message == nil {
		s.logger.Debug("update carries no message, ignoring")
		return
	}

	rec, ok := s.BuildRecord(ctx, update.Message, models.ProvenanceLive)
	if !ok {
		return
	}

	inserted, err := s.store.Insert(rec)
	if err != nil {
		// Flush failure: the in-memory insert stands, the next successful
		// flush writes it out. A crash before then loses this record.
		s.logger.Error("failed to persist gallery after insert", "file_id", rec.FileID, "error", err)
	}
	if inserted {
		s.metrics.imageAdded(rec.Provenance)
		s.logger.Info("added new image", "file_id", rec.FileID, "message_id", rec.MessageID, "provenance", rec.Provenance)
	} else {
		s.metrics.duplicateSkipped()
		s.logger.Debug("image already recorded", "file_id", rec.FileID)
	}
}

// BuildRecord classifies a message and resolves its file into an
// ImageRecord. ok=false means the message carries no image or resolution
// failed; either way the message contributes nothing and the caller moves
// on.
func (s *IngestService) BuildRecord(ctx context.Context, msg *tgbotapi.Message, provenance models.Provenance) (models.ImageRecord, bool) {
	cls := telegram.Classify(msg)
	if cls.Kind == telegram.KindNone {
		s.logger.Debug("message carries no image", "message_id", messageID(msg))
		return models.ImageRecord{}, false
	}

	url, err := s.bot.ResolveFileURL(ctx, cls.FileID())
	if err != nil {
		s.metrics.resolveFailed()
		if errors.Is(err, telegram.ErrNoToken) {
			s.logger.Error("cannot resolve file: bot token not configured")
		} else {
			s.logger.Warn("failed to resolve file, skipping", "file_id", cls.FileID(), "error", err)
		}
		return models.ImageRecord{}, false
	}

	rec := models.ImageRecord{
		ID:         cls.FileID(),
		FileID:     cls.FileID(),
		Timestamp:  messageTimestamp(msg),
		Caption:    msg.Caption,
		MessageID:  msg.MessageID,
		ThumbURL:   url,
		FullURL:    url,
		Provenance: provenance,
	}
	switch cls.Kind {
	case telegram.KindPhoto:
		rec.FileUniqueID = cls.Photo.FileUniqueID
		rec.Width = cls.Photo.Width
		rec.Height = cls.Photo.Height
	case telegram.KindDocument:
		rec.FileUniqueID = cls.Document.FileUniqueID
		rec.FileName = cls.Document.FileName
		rec.MimeType = cls.Document.MimeType
	}
	return rec, true
}

// messageTimestamp keeps the platform's numeric date when present and falls
// back to an RFC3339 string otherwise. Both forms coexist in the store.
func messageTimestamp(msg *tgbotapi.Message) any {
	if msg.Date != 0 {
		return msg.Date
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func messageID(msg *tgbotapi.Message) int {
	if msg == nil {
		return 0
	}
	return msg.MessageID
}
