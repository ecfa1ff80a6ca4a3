package templates

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderDelegationOTP(t *testing.T) {
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	message, err := renderer.Render(context.Background(), "delegation_otp", map[string]string{
		"principal_name":      "Ana <Owner>",
		"representative_name": "Luis",
		"representative_doc":  "CC123",
		"code":                "482913",
		"expires_at":          "2026-01-01T10:30:00Z",
		"ttl_minutes":         "30",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(message.Text, "482913") || !strings.Contains(message.HTMLBody, "482913") {
		t.Fatalf("expected code in both bodies, got %+v", message)
	}
	if strings.Contains(message.HTMLBody, "<Owner>") {
		t.Fatalf("expected html body to escape names, got %q", message.HTMLBody)
	}
	if message.Subject == "" {
		t.Fatalf("expected subject")
	}
}

func TestRenderRejectsMissingVariable(t *testing.T) {
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := renderer.Render(context.Background(), "delegation_confirmed", map[string]string{
		"principal_name": "Ana",
	}); err == nil {
		t.Fatalf("expected missing variable error")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	_, err = renderer.Render(context.Background(), "welcome", nil)
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
}
