package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/keepitup/internal/logging"
)

// LogSender writes events to the process-wide logger.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(ctx context.Context, event *Event) error {
	level := slog.LevelWarn
	if event.Success {
		level = slog.LevelInfo
	}
	logging.L().Log(ctx, level, event.Title(),
		"task", event.TaskID,
		"address", event.Address,
		"success", event.Success,
		"message", event.Message,
	)
	return nil
}

// WebhookSender POSTs the JSON encoded event to a URL.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

// WebhookOption configures a WebhookSender.
type WebhookOption func(*WebhookSender)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(s *WebhookSender) { s.httpClient = c }
}

// NewWebhookSender creates a sender posting to url.
func NewWebhookSender(url string, opts ...WebhookOption) *WebhookSender {
	s := &WebhookSender{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WebhookSenderName is the name WebhookSender registers under.
const WebhookSenderName = "webhook"

func (s *WebhookSender) Name() string { return WebhookSenderName }

// Send posts the event. Any non-2xx status is an error.
func (s *WebhookSender) Send(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
