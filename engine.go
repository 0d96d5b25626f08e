package goPasswordless

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrEthical07/goPasswordless/kv"
	"github.com/MrEthical07/goPasswordless/metrics"
	"github.com/MrEthical07/goPasswordless/otp"
	"github.com/MrEthical07/goPasswordless/rate"
	"github.com/MrEthical07/goPasswordless/session"
	"github.com/MrEthical07/goPasswordless/token"
)

// Engine is the passwordless authentication core. It owns the key-value
// store, the OTP, token, and session services, and the rate limiter, and
// exposes the login flows as methods. Construct one through [Builder.Build];
// all methods are safe for concurrent use afterwards.
type Engine struct {
	config   Config
	store    *kv.Store
	otp      *otp.Service
	tokens   *token.Manager
	sessions *session.Service
	limiter  *rate.Limiter
	mailer   Mailer
	resolver UserResolver
	metrics  *metrics.Metrics
	logger   *slog.Logger

	closeOnce sync.Once
}

// Close stops the background workers: the session sweeper, the store
// janitor, and the owned Redis client. Idempotent; engine methods called
// after Close fail with store errors.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.sessions != nil {
			e.sessions.Close()
		}
		if e.store != nil {
			if err := e.store.Close(); err != nil {
				e.logger.Warn("store close failed", "err", err)
			}
		}
		e.logger.Info("engine closed")
	})
}

// Health reports the store's connectivity state and a measured Redis round
// trip. It never mutates state; a failed ping while degraded is expected
// and shows up in PingError.
func (e *Engine) Health(ctx context.Context) Health {
	if e == nil || e.store == nil {
		return Health{StoreState: "unavailable", PingError: ErrEngineNotReady.Error()}
	}

	h := Health{
		StoreState: e.store.State().String(),
		Connected:  e.store.Connected(),
	}

	latency, err := e.store.Ping(ctx)
	h.PingLatency = latency
	if err != nil {
		h.PingError = err.Error()
	}
	return h
}

// Metrics returns the engine's metrics registry handle, nil when metrics
// were not enabled. The example server mounts Metrics().Handler() on
// /metrics.
func (e *Engine) Metrics() *metrics.Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

func (e *Engine) recordLimitDecision(operation string, res rate.Result) {
	decision := "allowed"
	if !res.Allowed {
		decision = "denied"
	}
	e.metrics.RecordRateLimitDecision(operation, decision)
	if res.Err != nil {
		e.logger.Warn("rate limiter failed open", "operation", operation, "err", res.Err)
	}
}
