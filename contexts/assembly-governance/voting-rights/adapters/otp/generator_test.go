package otp

import (
	"context"
	"testing"
)

func TestGeneratorProducesZeroPaddedDigits(t *testing.T) {
	gen := Generator{}
	for i := 0; i < 50; i++ {
		code, err := gen.NewCode(context.Background())
		if err != nil {
			t.Fatalf("new code: %v", err)
		}
		if len(code) != defaultDigits {
			t.Fatalf("expected %d digits, got %q", defaultDigits, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}

func TestGeneratorCustomLength(t *testing.T) {
	code, err := Generator{Digits: 8}.NewCode(context.Background())
	if err != nil {
		t.Fatalf("new code: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("expected 8 digits, got %q", code)
	}
}
