package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	contractsv1 "assembly/contracts/gen/events/v1"

	"github.com/nats-io/nats.go"
)

// NATS publishes envelopes as JSON on "<prefix>.<topic>" subjects. Consumer
// groups map to NATS queue groups so each group sees an event once.
type NATS struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

func NewNATS(url string, prefix string, logger *slog.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("assembly-voting-rights"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	if logger != nil {
		logger.Info("nats connected",
			"event", "nats_connected",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"url", conn.ConnectedUrlRedacted(),
		)
	}
	return &NATS{conn: conn, prefix: strings.Trim(prefix, "."), logger: logger}, nil
}

func (n *NATS) subject(topic string) string {
	if n.prefix == "" {
		return topic
	}
	return n.prefix + "." + topic
}

func (n *NATS) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope %s: %w", event.EventID, err)
	}
	msg := nats.NewMsg(n.subject(topic))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.EventID)
	msg.Header.Set("Event-Type", event.EventType)
	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

func (n *NATS) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	subject := n.subject(topic)
	sub, err := n.conn.QueueSubscribe(subject, consumerGroup, func(msg *nats.Msg) {
		var event contractsv1.Envelope
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			n.logFailure("nats_decode_failed", subject, consumerGroup, "", err)
			return
		}
		if err := handler(ctx, event); err != nil {
			n.logFailure("nats_consume_failed", subject, consumerGroup, event.EventID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// Close drains in-flight messages before closing the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

func (n *NATS) logFailure(event string, subject string, consumerGroup string, eventID string, err error) {
	if n.logger == nil {
		return
	}
	n.logger.Error("nats consumer failed",
		"event", event,
		"module", "internal/platform/messaging",
		"layer", "platform",
		"subject", subject,
		"consumer_group", consumerGroup,
		"event_id", eventID,
		"error", err.Error(),
	)
}
