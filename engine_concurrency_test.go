package goPasswordless

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// Racing verifications of the same code must produce exactly one session.
// The compare-and-delete consume makes the losers indistinguishable from a
// wrong guess.
func TestVerifyOTPConcurrencySingleWinner(t *testing.T) {
	f := newTestEngine(t, func(c *Config) {
		c.Limits.VerifyOTP = Rate{MaxAttempts: 100, Window: 15 * time.Minute}
	})
	ctx := context.Background()

	if err := f.engine.SendOTP(ctx, "a@example.com"); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	code := f.mailer.lastCode(t)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := f.engine.VerifyOTP(ctx, "a@example.com", code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	fail := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		if errors.Is(err, ErrInvalidOTP) {
			fail++
			continue
		}
		t.Fatalf("unexpected verify error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected exactly one verify success, got %d", success)
	}
	if fail != n-1 {
		t.Fatalf("expected %d verify failures, got %d", n-1, fail)
	}
}

// Refresh is stateless, so unlike the verify race every concurrent caller
// holding the same refresh token gets a pair.
func TestRefreshConcurrencyAllSucceed(t *testing.T) {
	f := newTestEngine(t, func(c *Config) {
		c.Limits.Refresh = Rate{MaxAttempts: 100, Window: 15 * time.Minute}
	})
	ctx := context.Background()

	result := f.login(t, ctx, "a@example.com")

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := f.engine.RefreshTokens(ctx, result.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Fatalf("refresh failed: %v", err)
		}
	}
}
