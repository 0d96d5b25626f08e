package goPasswordless

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// benchMailer keeps only the most recent message so long benchmark runs do
// not accumulate mail.
type benchMailer struct {
	mu   sync.Mutex
	last string
}

func (m *benchMailer) Send(_ context.Context, msg Message) (string, error) {
	m.mu.Lock()
	m.last = msg.Text
	m.mu.Unlock()
	return "bench", nil
}

func (m *benchMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return codePattern.FindString(m.last)
}

func newBenchmarkEngine(tb testing.TB) (*Engine, *benchMailer, func()) {
	tb.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		tb.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := DefaultConfig()
	// Budgets sized so the limiter never throttles the loop.
	cfg.Limits.SendOTP = Rate{MaxAttempts: 1 << 30, Window: time.Hour}
	cfg.Limits.VerifyOTP = Rate{MaxAttempts: 1 << 30, Window: time.Hour}
	cfg.Limits.Refresh = Rate{MaxAttempts: 1 << 30, Window: time.Hour}

	mailer := &benchMailer{}
	resolver := &mockResolver{users: map[string]UserRecord{
		"alice@example.com": {UserID: "u1", Email: "alice@example.com"},
	}}

	engine, err := New().
		WithConfig(cfg).
		WithRedisClient(rdb).
		WithMailer(mailer).
		WithUserResolver(resolver).
		WithSecretSource(StaticSecretSource{"JWT_SECRET": testSecret}).
		Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}

	return engine, mailer, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func benchLogin(tb testing.TB, engine *Engine, mailer *benchMailer) *LoginResult {
	tb.Helper()

	ctx := context.Background()
	if err := engine.SendOTP(ctx, "alice@example.com"); err != nil {
		tb.Fatalf("SendOTP failed: %v", err)
	}
	result, err := engine.VerifyOTP(ctx, "alice@example.com", mailer.lastCode())
	if err != nil {
		tb.Fatalf("VerifyOTP failed: %v", err)
	}
	return result
}

func BenchmarkValidateToken(b *testing.B) {
	engine, mailer, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	result := benchLogin(b, engine, mailer)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ValidateToken(result.AccessToken); err != nil {
			b.Fatalf("validate failed: %v", err)
		}
	}
}

func BenchmarkValidateSession(b *testing.B) {
	engine, mailer, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	result := benchLogin(b, engine, mailer)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ValidateSession(ctx, result.SessionID); err != nil {
			b.Fatalf("validate session failed: %v", err)
		}
	}
}

func BenchmarkRefreshTokens(b *testing.B) {
	engine, mailer, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	result := benchLogin(b, engine, mailer)
	ctx := context.Background()
	refresh := result.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := engine.RefreshTokens(ctx, refresh)
		if err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
		refresh = next.RefreshToken
	}
}

func BenchmarkLogin(b *testing.B) {
	engine, mailer, cleanup := newBenchmarkEngine(b)
	defer cleanup()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := engine.SendOTP(ctx, "alice@example.com"); err != nil {
			b.Fatalf("send failed: %v", err)
		}
		result, err := engine.VerifyOTP(ctx, "alice@example.com", mailer.lastCode())
		if err != nil {
			b.Fatalf("verify failed: %v", err)
		}
		_ = engine.Logout(ctx, result.SessionID)
	}
}
