package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	// BypassCode always verifies while demo mode is on.
	BypassCode = "123456"

	// ResendCooldown is how long a client waits before a new code may be issued
	// for the same attempt.
	ResendCooldown = 30 * time.Second
)

// CodeIssuer produces and checks one-time verification codes.
type CodeIssuer interface {
	Issue() (string, error)
	Check(submitted, expected string) bool
}

// OTPIssuer derives each code from a fresh random HOTP secret, so every call
// yields an independent six-digit code. Codes are never persisted.
type OTPIssuer struct {
	demoMode bool
}

// NewOTPIssuer creates an OTPIssuer. With demoMode set, BypassCode is accepted
// for any challenge.
func NewOTPIssuer(demoMode bool) *OTPIssuer {
	return &OTPIssuer{demoMode: demoMode}
}

func (o *OTPIssuer) Issue() (string, error) {
	key := make([]byte, 20)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("read random key: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(key)

	code, err := hotp.GenerateCodeCustom(secret, 0, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return code, nil
}

func (o *OTPIssuer) Check(submitted, expected string) bool {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return false
	}
	if expected != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) == 1 {
		return true
	}
	return o.demoMode && submitted == BypassCode
}
