package goPasswordless

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "redis dial timeout zero valid",
			mutate: func(c *Config) {
				c.Redis.DialTimeout = 0
			},
			wantValid: true,
		},
		{
			name: "redis dial timeout negative invalid",
			mutate: func(c *Config) {
				c.Redis.DialTimeout = -time.Second
			},
			wantValid: false,
		},
		{
			name: "redis sweep interval negative invalid",
			mutate: func(c *Config) {
				c.Redis.SweepInterval = -time.Second
			},
			wantValid: false,
		},
		{
			name: "otp prefix empty invalid",
			mutate: func(c *Config) {
				c.OTP.Prefix = ""
			},
			wantValid: false,
		},
		{
			name: "otp ttl zero invalid",
			mutate: func(c *Config) {
				c.OTP.TTL = 0
			},
			wantValid: false,
		},
		{
			name: "token secret name empty invalid",
			mutate: func(c *Config) {
				c.Token.SecretName = ""
			},
			wantValid: false,
		},
		{
			name: "token access ttl zero invalid",
			mutate: func(c *Config) {
				c.Token.AccessTTL = 0
			},
			wantValid: false,
		},
		{
			name: "token refresh ttl zero invalid",
			mutate: func(c *Config) {
				c.Token.RefreshTTL = 0
			},
			wantValid: false,
		},
		{
			name: "refresh ttl shorter than access invalid",
			mutate: func(c *Config) {
				c.Token.AccessTTL = time.Hour
				c.Token.RefreshTTL = time.Minute
			},
			wantValid: false,
		},
		{
			name: "refresh ttl equal to access valid",
			mutate: func(c *Config) {
				c.Token.AccessTTL = time.Hour
				c.Token.RefreshTTL = time.Hour
			},
			wantValid: true,
		},
		{
			name: "session prefix empty invalid",
			mutate: func(c *Config) {
				c.Session.Prefix = ""
			},
			wantValid: false,
		},
		{
			name: "session lifetime zero invalid",
			mutate: func(c *Config) {
				c.Session.Lifetime = 0
			},
			wantValid: false,
		},
		{
			name: "session cleanup interval zero invalid",
			mutate: func(c *Config) {
				c.Session.CleanupInterval = 0
			},
			wantValid: false,
		},
		{
			name: "limits prefix empty invalid",
			mutate: func(c *Config) {
				c.Limits.Prefix = ""
			},
			wantValid: false,
		},
		{
			name: "send otp budget zero attempts invalid",
			mutate: func(c *Config) {
				c.Limits.SendOTP.MaxAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "verify otp budget zero window invalid",
			mutate: func(c *Config) {
				c.Limits.VerifyOTP.Window = 0
			},
			wantValid: false,
		},
		{
			name: "refresh budget negative attempts invalid",
			mutate: func(c *Config) {
				c.Limits.Refresh.MaxAttempts = -1
			},
			wantValid: false,
		},
		{
			name: "custom prefixes valid",
			mutate: func(c *Config) {
				c.OTP.Prefix = "code"
				c.Session.Prefix = "sess"
				c.Limits.Prefix = "rl"
			},
			wantValid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}
