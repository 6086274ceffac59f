package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Gautam-813/gauravphotoviewer/internal/gallery"
	"github.com/Gautam-813/gauravphotoviewer/internal/logging"
	"github.com/Gautam-813/gauravphotoviewer/internal/models"
	"github.com/Gautam-813/gauravphotoviewer/internal/telegram"
)

var (
	// ErrBackfillBusy is returned when a run is triggered while another is
	// still draining. Runs never interleave: a second concurrent run would
	// race the webhook suspend/restore sequence.
	ErrBackfillBusy = errors.New("a backfill run is already in progress")

	// ErrNoChatID is a configuration failure: backfill cannot filter
	// history without knowing which chat to track.
	ErrNoChatID = errors.New("telegram chat id is not configured")
)

// BackfillService recovers images that predate live ingestion. Telegram
// only serves getUpdates while no webhook is registered, so a run suspends
// the webhook, drains history page by page, and restores the webhook no
// matter how the drain ended.
type BackfillService struct {
	bot     BotAPI
	ingest  *IngestService
	store   *gallery.Store
	metrics *Metrics
	logger  *slog.Logger

	chatID    int64
	pageSize  int
	maxPhotos int

	mu sync.Mutex // serializes whole runs
}

// NewBackfillService creates a new backfill service. pageSize and maxPhotos
// guard the drain loop: pageSize bounds each getUpdates call, maxPhotos
// caps the photos accumulated in a single run.
func NewBackfillService(bot BotAPI, ingest *IngestService, store *gallery.Store, chatID int64, pageSize, maxPhotos int, metrics *Metrics, logger *slog.Logger) *BackfillService {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	if maxPhotos <= 0 {
		maxPhotos = 1000
	}
	return &BackfillService{
		bot:       bot,
		ingest:    ingest,
		store:     store,
		metrics:   metrics,
		logger:    logger,
		chatID:    chatID,
		pageSize:  pageSize,
		maxPhotos: maxPhotos,
	}
}

// Run executes one backfill: capture webhook state, suspend it, drain
// history, restore it, commit the batch. Whatever was drained before a
// failure is still committed, and the returned result carries the counts
// alongside the error.
func (s *BackfillService) Run(ctx context.Context, baseURL string) (models.BackfillResult, error) {
	if !s.mu.TryLock() {
		return models.BackfillResult{}, ErrBackfillBusy
	}
	defer s.mu.Unlock()

	result := models.BackfillResult{RunID: uuid.NewString()}
	logger := logging.WithBackfillRun(s.logger, result.RunID)

	if s.chatID == 0 {
		s.metrics.backfillRun("error")
		return result, ErrNoChatID
	}

	// CaptureWebhook: remember what to put back afterwards.
	prev, err := s.bot.WebhookURL(ctx)
	if err != nil {
		s.metrics.backfillRun("error")
		return result, fmt.Errorf("failed to capture webhook state: %w", err)
	}

	// Suspend: getUpdates is rejected while a webhook is registered. A
	// failed delete aborts before any history is fetched; the webhook is
	// still in place, so there is nothing to restore.
	if prev != "" {
		if err := s.bot.DeleteWebhook(ctx); err != nil {
			s.metrics.backfillRun("error")
			return result, fmt.Errorf("failed to suspend webhook: %w", err)
		}
		logger.Info("webhook suspended for backfill", "previous_url", prev)
	}

	// Drain, with restoration guaranteed on every exit path.
	var records []models.ImageRecord
	drainErr := func() error {
		defer func() {
			if prev == "" {
				return
			}
			restoreURL := webhookURLFor(baseURL, prev)
			if err := s.bot.SetWebhook(ctx, restoreURL); err != nil {
				logger.Error("failed to restore webhook", "url", restoreURL, "error", err)
				return
			}
			result.WebhookRestored = true
			logger.Info("webhook restored", "url", restoreURL)
		}()

		var err error
		records, result.Found, err = s.drain(ctx, logger)
		return err
	}()

	// Commit: one flush for the whole batch, unlike the per-record flush
	// on the live path. InsertBatch re-checks every file_id, so anything
	// live ingestion recorded while we were draining is skipped here.
	added, flushErr := s.store.InsertBatch(records)
	result.Added = added
	if flushErr != nil {
		logger.Error("failed to persist gallery after backfill", "error", flushErr)
	}

	if drainErr != nil {
		s.metrics.backfillRun("error")
		return result, fmt.Errorf("history drain failed: %w", drainErr)
	}
	s.metrics.backfillRun("ok")
	logger.Info("backfill complete", "found", result.Found, "added", result.Added, "webhook_restored", result.WebhookRestored)
	return result, nil
}

// drain walks history with an increasing offset until an empty page, an
// error, or the photo cap. Per-item failures (unresolvable files) are
// skipped; only transport or API failures end the drain.
func (s *BackfillService) drain(ctx context.Context, logger *slog.Logger) (records []models.ImageRecord, found int, err error) {
	seen := make(map[string]struct{})
	offset := 0
	for {
		updates, err := s.bot.GetUpdatesPage(ctx, offset, s.pageSize)
		if err != nil {
			return records, found, err
		}
		if len(updates) == 0 {
			return records, found, nil
		}
		s.metrics.backfillPage()

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			msg := u.Message
			if msg == nil || msg.Chat == nil || msg.Chat.ID != s.chatID {
				continue
			}
			cls := telegram.Classify(msg)
			if cls.Kind == telegram.KindNone {
				continue
			}
			found++

			// Cross-path dedup: never resolve, let alone record, a
			// file_id that live ingestion or a previous run already has.
			fileID := cls.FileID()
			if _, dup := seen[fileID]; dup {
				s.metrics.duplicateSkipped()
				continue
			}
			if s.store.Exists(fileID) {
				s.metrics.duplicateSkipped()
				logger.Debug("already recorded, skipping", "file_id", fileID)
				continue
			}

			rec, ok := s.ingest.BuildRecord(ctx, msg, models.ProvenanceHistory)
			if !ok {
				continue
			}
			seen[fileID] = struct{}{}
			records = append(records, rec)
			if len(records) >= s.maxPhotos {
				logger.Warn("reached photo cap, stopping drain early", "cap", s.maxPhotos)
				return records, found, nil
			}
		}
	}
}

// webhookURLFor builds the webhook URL to restore. The externally visible
// base address wins over the captured URL, since the service may have been
// redeployed under a new host while keeping the same webhook path.
func webhookURLFor(baseURL, previous string) string {
	if baseURL == "" {
		return previous
	}
	return strings.TrimRight(baseURL, "/") + WebhookPath
}
