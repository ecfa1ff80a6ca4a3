package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/ports"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"
)

type WebhookConfig struct {
	URL      string
	Token    string
	RetryMax int
	Timeout  time.Duration
}

// Webhook hands messages to an outbound delivery service over HTTP. Transient
// failures are retried; the outcome is reported per call, never raised.
type Webhook struct {
	client *retryablehttp.Client
	url    string
	token  string
	logger *slog.Logger
}

type webhookRequest struct {
	Channel  string `json:"channel"`
	To       string `json:"to"`
	Subject  string `json:"subject,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`
	Body     string `json:"body,omitempty"`
}

func NewWebhook(cfg WebhookConfig, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	client := retryablehttp.NewClient()
	client.Logger = logger
	client.RetryMax = cfg.RetryMax
	if client.RetryMax <= 0 {
		client.RetryMax = 3
	}
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	} else {
		client.HTTPClient.Timeout = 10 * time.Second
	}
	return &Webhook{
		client: client,
		url:    strings.TrimSpace(cfg.URL),
		token:  strings.TrimSpace(cfg.Token),
		logger: logger,
	}
}

func (w *Webhook) SendEmail(ctx context.Context, to string, subject string, htmlBody string) ports.DispatchResult {
	return w.send(ctx, webhookRequest{
		Channel:  channelEmail,
		To:       strings.TrimSpace(to),
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

func (w *Webhook) SendSMS(ctx context.Context, to string, body string) ports.DispatchResult {
	return w.send(ctx, webhookRequest{
		Channel: channelSMS,
		To:      strings.TrimSpace(to),
		Body:    body,
	})
}

func (w *Webhook) send(ctx context.Context, payload webhookRequest) ports.DispatchResult {
	if payload.To == "" {
		return ports.DispatchResult{Error: "recipient is empty"}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return w.fail(payload.Channel, fmt.Errorf("encode payload: %w", err))
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return w.fail(payload.Channel, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return w.fail(payload.Channel, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return w.fail(payload.Channel, fmt.Errorf("delivery service returned %d", resp.StatusCode))
	}
	return ports.DispatchResult{Success: true}
}

func (w *Webhook) fail(channel string, err error) ports.DispatchResult {
	w.logger.Warn("notification dispatch failed",
		"event", "voting_rights_notification_dispatch_failed",
		"module", "assembly-governance/voting-rights",
		"layer", "adapter",
		"channel", channel,
		"error", err.Error(),
	)
	return ports.DispatchResult{Error: err.Error()}
}

var _ ports.NotificationGateway = (*Webhook)(nil)
