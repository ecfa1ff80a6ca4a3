package notifications

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhookSendsAuthorizedJSON(t *testing.T) {
	var got webhookRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	hook := NewWebhook(WebhookConfig{URL: server.URL, Token: "secret"}, discardLogger())
	result := hook.SendSMS(context.Background(), " +573001112233 ", "code 123456")

	require.True(t, result.Success)
	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, channelSMS, got.Channel)
	require.Equal(t, "+573001112233", got.To)
	require.Equal(t, "code 123456", got.Body)
}

func TestWebhookRetriesThenReportsFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	hook := NewWebhook(WebhookConfig{URL: server.URL, RetryMax: 1}, discardLogger())
	hook.client.RetryWaitMin = time.Millisecond
	hook.client.RetryWaitMax = time.Millisecond

	result := hook.SendEmail(context.Background(), "owner@example.com", "subject", "<p>hi</p>")
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
	require.Equal(t, int32(2), calls.Load())
}

func TestWebhookRejectsEmptyRecipient(t *testing.T) {
	hook := NewWebhook(WebhookConfig{URL: "http://127.0.0.1:1"}, discardLogger())
	result := hook.SendSMS(context.Background(), "  ", "body")
	require.False(t, result.Success)
	require.Equal(t, "recipient is empty", result.Error)
}

func TestLogGatewayForcedFailure(t *testing.T) {
	gateway := NewLog(discardLogger())
	gateway.FailChannels = map[string]string{channelEmail: "smtp down"}

	require.False(t, gateway.SendEmail(context.Background(), "a@b.c", "s", "b").Success)
	require.True(t, gateway.SendSMS(context.Background(), "+57", "b").Success)
	require.Len(t, gateway.Sent(), 1)
}
