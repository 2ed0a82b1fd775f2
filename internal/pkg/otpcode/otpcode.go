package otpcode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const defaultIssuer = "StudyGroup"

// Generator issues numeric time-based codes. Every call provisions a fresh
// random TOTP secret, so two codes for the same email are unrelated.
type Generator struct {
	issuer string
	period time.Duration
	digits otp.Digits
}

// NewGenerator returns a six-digit generator whose TOTP period equals validFor.
func NewGenerator(issuer string, validFor time.Duration) *Generator {
	if strings.TrimSpace(issuer) == "" {
		issuer = defaultIssuer
	}
	if validFor < time.Second {
		validFor = 5 * time.Minute
	}
	return &Generator{issuer: issuer, period: validFor, digits: otp.DigitsSix}
}

// Generate returns a code for account at time now.
func (g *Generator) Generate(account string, now time.Time) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", errors.New("otpcode: account is required")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.issuer,
		AccountName: account,
		Period:      uint(g.period / time.Second),
		Digits:      g.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otpcode: generate key: %w", err)
	}

	code, err := totp.GenerateCodeCustom(key.Secret(), now, g.validateOpts())
	if err != nil {
		return "", fmt.Errorf("otpcode: generate code: %w", err)
	}
	return code, nil
}

func (g *Generator) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(g.period / time.Second),
		Digits:    g.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
