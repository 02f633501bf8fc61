// Package otp issues short-lived numeric codes used to prove control of an
// email address.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	// DefaultTTL is the validity window of a freshly issued code.
	DefaultTTL = 10 * time.Minute

	minCode = 100000
	maxCode = 999999
)

// Code is an issued one-time password and the instant it stops being valid.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer valid at now.
func (c Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Matches reports whether value equals the code and the code is still valid
// at now. The comparison runs in constant time.
func (c Code) Matches(value string, now time.Time) bool {
	if c.Value == "" || c.Expired(now) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(value)) == 1
}

// Issuer generates codes. It does not persist or deliver them.
type Issuer struct {
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithRandom replaces the entropy source.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) {
		if r != nil {
			i.random = r
		}
	}
}

// NewIssuer builds an issuer whose codes live for ttl. A non-positive ttl
// falls back to DefaultTTL.
func NewIssuer(ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{ttl: ttl, now: time.Now, random: rand.Reader}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the validity window applied to issued codes.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a uniformly random six digit code in [100000, 999999]
// expiring TTL after issuance.
func (i *Issuer) Issue() (Code, error) {
	n, err := rand.Int(i.random, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return Code{}, fmt.Errorf("generate otp: %w", err)
	}
	return Code{
		Value:     fmt.Sprintf("%06d", n.Int64()+minCode),
		ExpiresAt: i.now().UTC().Add(i.ttl),
	}, nil
}
