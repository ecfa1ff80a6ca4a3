package commands

import (
	"context"
	"sort"
	"strings"
	"sync"

	application "assembly/contexts/assembly-governance/voting-rights/application"
	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"golang.org/x/sync/errgroup"
)

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

type contactChannels struct {
	phone string
	email string
}

func (c contactChannels) empty() bool {
	return c.phone == "" && c.email == ""
}

// resolveContact prefers the contact data on the owned units and falls back
// to the identity profile.
func resolveContact(identity entities.Identity, units []entities.Unit) contactChannels {
	var contact contactChannels
	for _, unit := range units {
		if contact.phone == "" {
			contact.phone = strings.TrimSpace(unit.OwnerPhone)
		}
		if contact.email == "" {
			contact.email = strings.TrimSpace(unit.OwnerEmail)
		}
	}
	if contact.phone == "" {
		contact.phone = strings.TrimSpace(identity.Phone)
	}
	if contact.email == "" {
		contact.email = strings.TrimSpace(identity.Email)
	}
	return contact
}

// ChannelWarning records a channel that failed while another may have
// succeeded.
type ChannelWarning struct {
	Channel string
	Error   string
}

type dispatchOutcome struct {
	delivered []string
	warnings  []ChannelWarning
}

// dispatch sends message on every available channel concurrently. A failing
// channel never cancels the others.
func dispatch(
	ctx context.Context,
	gateway ports.NotificationGateway,
	metrics ports.Metrics,
	contact contactChannels,
	message ports.RenderedMessage,
) dispatchOutcome {
	metrics = application.ResolveMetrics(metrics)
	var (
		mu      sync.Mutex
		outcome dispatchOutcome
		group   errgroup.Group
	)
	record := func(channel string, result ports.DispatchResult) {
		metrics.OTPDispatched(channel, result.Success)
		mu.Lock()
		defer mu.Unlock()
		if result.Success {
			outcome.delivered = append(outcome.delivered, channel)
			return
		}
		reason := strings.TrimSpace(result.Error)
		if reason == "" {
			reason = "delivery failed"
		}
		outcome.warnings = append(outcome.warnings, ChannelWarning{Channel: channel, Error: reason})
	}
	if gateway == nil {
		if contact.phone != "" {
			record(ChannelSMS, ports.DispatchResult{Error: "notification gateway not configured"})
		}
		if contact.email != "" {
			record(ChannelEmail, ports.DispatchResult{Error: "notification gateway not configured"})
		}
		return outcome
	}
	if contact.phone != "" {
		group.Go(func() error {
			record(ChannelSMS, gateway.SendSMS(ctx, contact.phone, message.Text))
			return nil
		})
	}
	if contact.email != "" {
		group.Go(func() error {
			record(ChannelEmail, gateway.SendEmail(ctx, contact.email, message.Subject, message.HTMLBody))
			return nil
		})
	}
	_ = group.Wait()
	sort.Strings(outcome.delivered)
	sort.Slice(outcome.warnings, func(i, j int) bool {
		return outcome.warnings[i].Channel < outcome.warnings[j].Channel
	})
	return outcome
}

func joinWarnings(warnings []ChannelWarning) string {
	parts := make([]string, 0, len(warnings))
	for _, warning := range warnings {
		parts = append(parts, warning.Channel+": "+warning.Error)
	}
	return strings.Join(parts, "; ")
}
