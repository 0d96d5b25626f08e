package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPasswordless/kv"
)

func newTestLimiter(t *testing.T, defaults Config) (*miniredis.Miniredis, *kv.Store, *Limiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := kv.New(kv.Config{}, kv.WithClient(client))
	t.Cleanup(func() { _ = store.Close() })

	return mr, store, New(store, "", defaults, nil)
}

func TestCheckAllowsUpToMax(t *testing.T) {
	_, _, lim := newTestLimiter(t, Config{MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		res := lim.Check(ctx, "a@example.com", "send_otp")
		if !res.Allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
		if res.Remaining != wantRemaining {
			t.Fatalf("request %d Remaining = %d, want %d", i+1, res.Remaining, wantRemaining)
		}
		if res.Err != nil {
			t.Fatalf("request %d Err = %v, want nil", i+1, res.Err)
		}
	}

	res := lim.Check(ctx, "a@example.com", "send_otp")
	if res.Allowed {
		t.Fatalf("request over budget allowed")
	}
	if res.Remaining != 0 {
		t.Fatalf("denied request Remaining = %d, want 0", res.Remaining)
	}
}

func TestCheckFiveAttemptHourBudget(t *testing.T) {
	_, _, lim := newTestLimiter(t, Config{MaxAttempts: 5, Window: time.Hour})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if res := lim.Check(ctx, "u", "op"); !res.Allowed {
			t.Fatalf("request %d of 5 denied", i+1)
		}
	}

	res := lim.Check(ctx, "u", "op")
	if res.Allowed || res.Remaining != 0 {
		t.Fatalf("sixth request = {Allowed:%v Remaining:%d}, want denied with 0", res.Allowed, res.Remaining)
	}
}

func TestCheckNewWindowRestoresBudget(t *testing.T) {
	mr, _, lim := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if res := lim.Check(ctx, "a@example.com", "send_otp"); !res.Allowed {
		t.Fatalf("first request denied")
	}
	if res := lim.Check(ctx, "a@example.com", "send_otp"); res.Allowed {
		t.Fatalf("second request in window allowed")
	}

	mr.FastForward(61 * time.Second)

	if res := lim.Check(ctx, "a@example.com", "send_otp"); !res.Allowed {
		t.Fatalf("request in fresh window denied")
	}
}

func TestCheckDenialsDoNotExtendWindow(t *testing.T) {
	mr, _, lim := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	lim.Check(ctx, "a@example.com", "send_otp")

	// A denied request halfway through must not push the window end out.
	mr.FastForward(30 * time.Second)
	if res := lim.Check(ctx, "a@example.com", "send_otp"); res.Allowed {
		t.Fatalf("request in window allowed")
	}

	mr.FastForward(31 * time.Second)
	if res := lim.Check(ctx, "a@example.com", "send_otp"); !res.Allowed {
		t.Fatalf("window was extended by a denied request")
	}
}

func TestCheckKeysAreIndependent(t *testing.T) {
	_, _, lim := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if res := lim.Check(ctx, "a@example.com", "send_otp"); !res.Allowed {
		t.Fatalf("first identifier denied")
	}
	if res := lim.Check(ctx, "b@example.com", "send_otp"); !res.Allowed {
		t.Fatalf("unrelated identifier shares a budget")
	}
	if res := lim.Check(ctx, "a@example.com", "verify_otp"); !res.Allowed {
		t.Fatalf("unrelated operation shares a budget")
	}
}

func TestCheckPerCallOverride(t *testing.T) {
	_, _, lim := newTestLimiter(t, Config{MaxAttempts: 5, Window: time.Minute})
	ctx := context.Background()

	lim.Check(ctx, "a@example.com", "refresh", Config{MaxAttempts: 1})

	res := lim.Check(ctx, "a@example.com", "refresh", Config{MaxAttempts: 1})
	if res.Allowed {
		t.Fatalf("override budget not applied")
	}
}

func TestCheckReportsResetAt(t *testing.T) {
	_, _, lim := newTestLimiter(t, Config{MaxAttempts: 3, Window: time.Minute})

	before := time.Now()
	res := lim.Check(context.Background(), "a@example.com", "send_otp")

	if !res.ResetAt.After(before) {
		t.Fatalf("ResetAt = %v, want in the future", res.ResetAt)
	}
	if res.ResetAt.After(before.Add(time.Minute + time.Second)) {
		t.Fatalf("ResetAt = %v, want within one window of %v", res.ResetAt, before)
	}
}

func TestResetRestoresBudget(t *testing.T) {
	_, _, lim := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	lim.Check(ctx, "a@example.com", "verify_otp")
	if res := lim.Check(ctx, "a@example.com", "verify_otp"); res.Allowed {
		t.Fatalf("second request in window allowed")
	}

	if err := lim.Reset(ctx, "a@example.com", "verify_otp"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if res := lim.Check(ctx, "a@example.com", "verify_otp"); !res.Allowed {
		t.Fatalf("request after Reset denied")
	}

	// Resetting a pair that was never checked is fine.
	if err := lim.Reset(ctx, "ghost@example.com", "verify_otp"); err != nil {
		t.Fatalf("Reset of untracked pair failed: %v", err)
	}
}

func TestCheckDegradedUsesMemoryCounters(t *testing.T) {
	store := kv.New(kv.Config{})
	t.Cleanup(func() { _ = store.Close() })
	lim := New(store, "", Config{MaxAttempts: 2, Window: time.Minute}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res := lim.Check(ctx, "a@example.com", "send_otp")
		if !res.Allowed {
			t.Fatalf("request %d denied on degraded store", i+1)
		}
		if res.Err != nil {
			t.Fatalf("degraded path reported error: %v", res.Err)
		}
	}

	if res := lim.Check(ctx, "a@example.com", "send_otp"); res.Allowed {
		t.Fatalf("over-budget request allowed on degraded store")
	}

	if err := lim.Reset(ctx, "a@example.com", "send_otp"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if res := lim.Check(ctx, "a@example.com", "send_otp"); !res.Allowed {
		t.Fatalf("request after Reset denied on degraded store")
	}
}

func TestCheckDegradedWindowExpires(t *testing.T) {
	store := kv.New(kv.Config{})
	t.Cleanup(func() { _ = store.Close() })
	lim := New(store, "", Config{MaxAttempts: 1, Window: 50 * time.Millisecond}, nil)
	ctx := context.Background()

	lim.Check(ctx, "a@example.com", "send_otp")
	if res := lim.Check(ctx, "a@example.com", "send_otp"); res.Allowed {
		t.Fatalf("second request in window allowed")
	}

	time.Sleep(80 * time.Millisecond)

	if res := lim.Check(ctx, "a@example.com", "send_otp"); !res.Allowed {
		t.Fatalf("request in fresh window denied")
	}
}

func TestCheckFailsOpenOnStoreError(t *testing.T) {
	_, store, lim := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})

	_ = store.Close()

	res := lim.Check(context.Background(), "a@example.com", "send_otp")
	if !res.Allowed {
		t.Fatalf("Check on closed store denied, want fail-open")
	}
	if res.Err == nil {
		t.Fatalf("fail-open Result.Err = nil, want the backend error")
	}
	if res.Remaining != 1 {
		t.Fatalf("fail-open Remaining = %d, want full budget", res.Remaining)
	}
}
