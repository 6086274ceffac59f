// Package telegram wraps the Telegram Bot API surface this service needs:
// file resolution, paginated history retrieval and webhook management, plus
// the message classifier shared by both ingestion paths.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// ErrNoToken is returned by every remote call when the bot token is not
// configured. This is a configuration failure: callers report it, they do
// not retry it.
var ErrNoToken = errors.New("telegram bot token is not configured")

const defaultRateLimit = 25 // Telegram allows ~30 bot API calls/sec

// Options configures a Client beyond the bot token.
type Options struct {
	// APIHost overrides https://api.telegram.org, mainly for tests.
	APIHost string
	// RateLimit caps outbound API calls per second. Zero means the default.
	RateLimit float64
	// HTTPClient overrides the default client used by the bot API library.
	HTTPClient tgbotapi.HTTPClient
	Logger     *slog.Logger
}

// Client is a thin, rate-limited wrapper around the bot API. Construction
// is offline; the first network call happens on first use, so a missing or
// bad token surfaces as per-call errors instead of a startup failure.
type Client struct {
	bot          *tgbotapi.BotAPI
	token        string
	fileEndpoint string
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient creates a client for the given bot token. An empty token yields
// a client whose every call fails with ErrNoToken, which keeps the read-only
// HTTP surface usable on an unconfigured deployment.
func NewClient(token string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	c := &Client{
		token:        token,
		fileEndpoint: tgbotapi.FileEndpoint,
		limiter:      rate.NewLimiter(rate.Limit(limit), int(limit)),
		logger:       logger,
	}
	if token == "" {
		return c
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: httpClient,
		Buffer: 100,
	}
	apiEndpoint := tgbotapi.APIEndpoint
	if opts.APIHost != "" {
		host := strings.TrimRight(opts.APIHost, "/")
		apiEndpoint = host + "/bot%s/%s"
		c.fileEndpoint = host + "/file/bot%s/%s"
	}
	bot.SetAPIEndpoint(apiEndpoint)
	c.bot = bot
	return c
}

// ResolveFileURL resolves a file_id to a fetchable URL via getFile. One
// outbound call, no retries; a failure affects that file only and callers
// skip the item rather than aborting their batch.
func (c *Client) ResolveFileURL(ctx context.Context, fileID string) (string, error) {
	if c.bot == nil {
		return "", ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("getFile %s failed: %w", fileID, err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("getFile %s returned no file_path", fileID)
	}
	return fmt.Sprintf(c.fileEndpoint, c.token, file.FilePath), nil
}

// GetUpdatesPage fetches one page of history starting at offset.
func (c *Client) GetUpdatesPage(ctx context.Context, offset, limit int) ([]tgbotapi.Update, error) {
	if c.bot == nil {
		return nil, ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	updates, err := c.bot.GetUpdates(tgbotapi.UpdateConfig{Offset: offset, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("getUpdates at offset %d failed: %w", offset, err)
	}
	return updates, nil
}

// WebhookURL returns the currently registered webhook URL, "" if none.
func (c *Client) WebhookURL(ctx context.Context) (string, error) {
	if c.bot == nil {
		return "", ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	info, err := c.bot.GetWebhookInfo()
	if err != nil {
		return "", fmt.Errorf("getWebhookInfo failed: %w", err)
	}
	return info.URL, nil
}

// DeleteWebhook unregisters the webhook, enabling getUpdates polling.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	if c.bot == nil {
		return ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("deleteWebhook failed: %w", err)
	}
	return nil
}

// SetWebhook registers link as the webhook URL, disabling getUpdates.
func (c *Client) SetWebhook(ctx context.Context, link string) error {
	if c.bot == nil {
		return ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	wh, err := tgbotapi.NewWebhook(link)
	if err != nil {
		return fmt.Errorf("invalid webhook url %q: %w", link, err)
	}
	if _, err := c.bot.Request(wh); err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}
	return nil
}
