package notifications

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"assembly/contexts/assembly-governance/voting-rights/ports"
)

// Sent is one message accepted by the Log gateway.
type Sent struct {
	Channel string
	To      string
	Subject string
	Body    string
}

// Log writes notifications to the logger instead of delivering them. Used
// in dev mode and tests; FailChannels forces per-channel failures.
type Log struct {
	mu           sync.Mutex
	sent         []Sent
	logger       *slog.Logger
	FailChannels map[string]string
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) SendEmail(_ context.Context, to string, subject string, htmlBody string) ports.DispatchResult {
	return l.record(Sent{Channel: channelEmail, To: strings.TrimSpace(to), Subject: subject, Body: htmlBody})
}

func (l *Log) SendSMS(_ context.Context, to string, body string) ports.DispatchResult {
	return l.record(Sent{Channel: channelSMS, To: strings.TrimSpace(to), Body: body})
}

func (l *Log) Sent() []Sent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Sent(nil), l.sent...)
}

func (l *Log) record(message Sent) ports.DispatchResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	if reason, ok := l.FailChannels[message.Channel]; ok {
		return ports.DispatchResult{Error: reason}
	}
	l.sent = append(l.sent, message)
	l.logger.Info("notification recorded",
		"event", "voting_rights_notification_recorded",
		"module", "assembly-governance/voting-rights",
		"layer", "adapter",
		"channel", message.Channel,
		"to", message.To,
	)
	return ports.DispatchResult{Success: true}
}

var _ ports.NotificationGateway = (*Log)(nil)
