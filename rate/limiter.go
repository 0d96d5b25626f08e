package rate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goPasswordless/kv"
)

const (
	defaultPrefix      = "rate_limit"
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute

	// How often the degraded-path counter map sheds expired entries.
	pruneEvery = time.Minute
)

// Config is one fixed-window budget: at most MaxAttempts requests per
// Window. Zero fields fall back to the limiter defaults.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Result is the outcome of a single Check.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Remaining is how many further requests the current window admits.
	Remaining int
	// ResetAt is when the current window ends and the budget refills.
	ResetAt time.Time
	// Err carries the backend failure when the limiter failed open.
	// Allowed is true in that case; callers that must know the decision
	// was degraded can inspect it.
	Err error
}

// Limiter enforces fixed-window rate limits on composite keys of the form
// "rate_limit:<operation>:<identifier>". Counters live in the shared
// [kv.Store]; while the store is degraded the limiter falls back to its
// own in-process counters so abuse protection survives a Redis outage.
type Limiter struct {
	store    *kv.Store
	prefix   string
	defaults Config
	logger   *slog.Logger

	mu        sync.Mutex
	counters  map[string]*memoryCounter
	nextPrune time.Time
}

type memoryCounter struct {
	count   int
	resetAt time.Time
}

// New creates a [Limiter] on the store. defaults applies to every Check
// that does not override it.
func New(store *kv.Store, prefix string, defaults Config, logger *slog.Logger) *Limiter {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if defaults.MaxAttempts <= 0 {
		defaults.MaxAttempts = defaultMaxAttempts
	}
	if defaults.Window <= 0 {
		defaults.Window = defaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Limiter{
		store:    store,
		prefix:   prefix,
		defaults: defaults,
		logger:   logger,
		counters: make(map[string]*memoryCounter),
	}
}

// Check records one request against the operation+identifier budget and
// reports whether it may proceed. Every call counts, including denied
// ones. An optional override replaces the default budget for this call;
// zero fields inherit the defaults.
//
// Backend failures other than a degraded store fail open: the request is
// allowed and the error is surfaced in Result.Err.
func (l *Limiter) Check(ctx context.Context, identifier, operation string, override ...Config) Result {
	cfg := l.resolve(override...)
	key := l.key(identifier, operation)
	now := time.Now()

	count, ttl, err := l.store.IncrWindow(ctx, key, cfg.Window)
	switch {
	case err == nil:
		remaining := int64(cfg.MaxAttempts) - count
		if remaining < 0 {
			remaining = 0
		}
		return Result{
			Allowed:   count <= int64(cfg.MaxAttempts),
			Remaining: int(remaining),
			ResetAt:   now.Add(ttl),
		}

	case errors.Is(err, kv.ErrNotConnected):
		return l.memoryCheck(key, cfg, now)

	default:
		l.logger.Warn("rate limit check errored, allowing request", "key", key, "err", err)
		return Result{
			Allowed:   true,
			Remaining: cfg.MaxAttempts,
			ResetAt:   now.Add(cfg.Window),
			Err:       err,
		}
	}
}

// Reset clears the operation+identifier budget on both backends. Resetting
// an untracked pair is not an error.
func (l *Limiter) Reset(ctx context.Context, identifier, operation string) error {
	key := l.key(identifier, operation)

	l.mu.Lock()
	delete(l.counters, key)
	l.mu.Unlock()

	return l.store.Delete(ctx, key)
}

func (l *Limiter) resolve(override ...Config) Config {
	cfg := l.defaults
	if len(override) > 0 {
		if override[0].MaxAttempts > 0 {
			cfg.MaxAttempts = override[0].MaxAttempts
		}
		if override[0].Window > 0 {
			cfg.Window = override[0].Window
		}
	}
	return cfg
}

func (l *Limiter) key(identifier, operation string) string {
	return l.prefix + ":" + operation + ":" + identifier
}

// memoryCheck is the degraded path: per-process counters with the same
// fixed-window accounting as the backend ones. Windows are armed on the
// first hit and never extended.
func (l *Limiter) memoryCheck(key string, cfg Config, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextPrune) {
		for k, c := range l.counters {
			if now.After(c.resetAt) {
				delete(l.counters, k)
			}
		}
		l.nextPrune = now.Add(pruneEvery)
	}

	c, ok := l.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &memoryCounter{resetAt: now.Add(cfg.Window)}
		l.counters[key] = c
	}
	c.count++

	remaining := cfg.MaxAttempts - c.count
	if remaining < 0 {
		remaining = 0
	}

	return Result{Allowed: c.count <= cfg.MaxAttempts, Remaining: remaining, ResetAt: c.resetAt}
}
