package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const defaultDigits = 6

// Generator issues numeric one-time codes from crypto/rand.
type Generator struct {
	Digits int
}

func (g Generator) NewCode(_ context.Context) (string, error) {
	digits := g.Digits
	if digits <= 0 {
		digits = defaultDigits
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// Static always returns Code. Tests use it to drive verification.
type Static struct {
	Code string
}

func (s Static) NewCode(_ context.Context) (string, error) {
	return s.Code, nil
}
