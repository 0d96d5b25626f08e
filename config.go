package goPasswordless

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Obtain one from
// [DefaultConfig], adjust what the deployment needs, and hand it to
// [Builder.WithConfig]. The zero value is not usable.
type Config struct {
	Redis   RedisConfig
	OTP     OTPConfig
	Token   TokenConfig
	Session SessionConfig
	Limits  LimitsConfig
}

/*
====================================
REDIS CONFIG
====================================
*/

// RedisConfig configures the key-value store backend.
type RedisConfig struct {
	// URL is a redis:// connection string. Empty runs the engine on the
	// in-memory store alone, which is fine for development and single-node
	// tests but loses all state on restart.
	URL string
	// DialTimeout bounds the startup probe and the degraded-state re-probe.
	DialTimeout time.Duration
	// SweepInterval is how often the store collects expired fallback
	// entries and, while degraded, re-probes Redis.
	SweepInterval time.Duration
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig configures one-time password issuance.
type OTPConfig struct {
	// Prefix namespaces stored codes, default "otp".
	Prefix string
	// TTL is how long an issued code stays valid.
	TTL time.Duration
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures JWT issuance.
type TokenConfig struct {
	// SecretName is the name the signing secret is requested under from the
	// SecretSource, default "JWT_SECRET".
	SecretName string
	// AccessTTL is the access token lifetime.
	AccessTTL time.Duration
	// RefreshTTL is the refresh token lifetime.
	RefreshTTL time.Duration
	// Issuer is stamped into and required from every token when set.
	Issuer string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures server-side sessions.
type SessionConfig struct {
	// Prefix namespaces session records, default "session".
	Prefix string
	// Lifetime is the sliding idle window.
	Lifetime time.Duration
	// CleanupInterval is how often the background sweep runs.
	CleanupInterval time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// Rate is one fixed-window budget.
type Rate struct {
	MaxAttempts int
	Window      time.Duration
}

// LimitsConfig holds the per-operation budgets the engine enforces.
type LimitsConfig struct {
	// Prefix namespaces limiter counters, default "rate_limit".
	Prefix string
	// SendOTP bounds how often one identifier can request mail.
	SendOTP Rate
	// VerifyOTP bounds code guesses per identifier. Successful verification
	// resets it.
	VerifyOTP Rate
	// Refresh bounds token refreshes per user.
	Refresh Rate
}

// DefaultConfig returns the configuration the engine runs with when the
// caller changes nothing: in-memory store, 6-digit codes valid 10 minutes,
// 15-minute access tokens, 7-day sliding sessions.
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			URL:           "",
			DialTimeout:   5 * time.Second,
			SweepInterval: 60 * time.Second,
		},
		OTP: OTPConfig{
			Prefix: "otp",
			TTL:    10 * time.Minute,
		},
		Token: TokenConfig{
			SecretName: "JWT_SECRET",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Session: SessionConfig{
			Prefix:          "session",
			Lifetime:        7 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
		Limits: LimitsConfig{
			Prefix:    "rate_limit",
			SendOTP:   Rate{MaxAttempts: 3, Window: 15 * time.Minute},
			VerifyOTP: Rate{MaxAttempts: 5, Window: 15 * time.Minute},
			Refresh:   Rate{MaxAttempts: 10, Window: 15 * time.Minute},
		},
	}
}

// Validate rejects configurations the engine cannot run with. Build calls
// it; exposed so applications can fail fast on their own config plumbing.
func (c *Config) Validate() error {
	// Redis
	if c.Redis.DialTimeout < 0 {
		return errors.New("Redis DialTimeout must be >= 0")
	}
	if c.Redis.SweepInterval < 0 {
		return errors.New("Redis SweepInterval must be >= 0")
	}

	// OTP
	if c.OTP.Prefix == "" {
		return errors.New("OTP Prefix must not be empty")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}

	// Token
	if c.Token.SecretName == "" {
		return errors.New("Token SecretName must not be empty")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be >= AccessTTL")
	}

	// Session
	if c.Session.Prefix == "" {
		return errors.New("Session Prefix must not be empty")
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if c.Session.CleanupInterval <= 0 {
		return errors.New("Session CleanupInterval must be > 0")
	}

	// Limits
	if c.Limits.Prefix == "" {
		return errors.New("Limits Prefix must not be empty")
	}
	for _, budget := range []struct {
		name string
		rate Rate
	}{
		{"SendOTP", c.Limits.SendOTP},
		{"VerifyOTP", c.Limits.VerifyOTP},
		{"Refresh", c.Limits.Refresh},
	} {
		if budget.rate.MaxAttempts <= 0 {
			return errors.New("Limits " + budget.name + " MaxAttempts must be > 0")
		}
		if budget.rate.Window <= 0 {
			return errors.New("Limits " + budget.name + " Window must be > 0")
		}
	}

	return nil
}
