package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the connectivity state of a [Store]. A store is either serving
// from Redis or from its process-local fallback; there is no third mode.
type State int32

const (
	// StateConnected means reads and writes are served by Redis.
	StateConnected State = iota
	// StateDegraded means the store answers from process-local memory.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

const (
	defaultDialTimeout   = 5 * time.Second
	defaultSweepInterval = 60 * time.Second
	defaultScanCount     = 1000
)

// Config tunes a [Store]. Zero values fall back to the defaults above.
type Config struct {
	// URL is a redis:// connection string. Empty means the store runs on
	// memory alone and never reports StateConnected.
	URL string
	// DialTimeout bounds the startup connectivity probe and the periodic
	// re-probe while degraded.
	DialTimeout time.Duration
	// SweepInterval is how often expired memory entries are collected and,
	// while degraded, how often the Redis side is re-probed.
	SweepInterval time.Duration
	// ScanCount is the COUNT hint passed to Redis SCAN.
	ScanCount int64
}

// Option customizes a [Store] beyond what [Config] covers.
type Option func(*storeOptions)

type storeOptions struct {
	client redis.UniversalClient
	logger *slog.Logger
	hook   func(from, to State)
}

// WithClient injects an existing Redis client instead of dialing Config.URL.
// The store will not close an injected client.
func WithClient(client redis.UniversalClient) Option {
	return func(o *storeOptions) { o.client = client }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(o *storeOptions) { o.logger = logger }
}

// WithStateHook registers a callback invoked on every state transition,
// after the transition is committed. The hook must not block.
func WithStateHook(hook func(from, to State)) Option {
	return func(o *storeOptions) { o.hook = hook }
}

// compareAndDeleteLua deletes KEYS[1] only when its value equals ARGV[1].
// GET, compare, and DEL run as one script so two concurrent callers can
// never both observe a match.
var compareAndDeleteLua = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return -1
end
redis.call('DEL', KEYS[1])
return 1
`)

// incrWindowLua bumps a fixed-window counter. The TTL is armed only on the
// first hit of a window; later hits leave the deadline alone. Returns the
// count and the remaining window in milliseconds.
var incrWindowLua = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

// Store is a two-backend key-value store: Redis when reachable, a
// process-local map otherwise. The active backend is tracked by an explicit
// [State] and every transition is logged. Remote failures on the plain
// operations never propagate to callers; they flip the state and the memory
// side answers instead. Callers must tolerate false negatives after a
// degradation event, since values written to Redis are not mirrored locally.
type Store struct {
	remote      redis.UniversalClient
	ownsRemote  bool
	memory      *memoryStore
	logger      *slog.Logger
	hook        func(from, to State)
	dialTimeout time.Duration
	scanCount   int64

	state  atomic.Int32
	closed atomic.Bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Store and probes Redis once, bounded by Config.DialTimeout,
// to pick the initial state. An unreachable server, a malformed URL, or no
// URL at all are not errors: the store starts degraded and serves from
// memory. The janitor goroutine starts immediately and runs until Close.
func New(cfg Config, opts ...Option) *Store {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	scanCount := cfg.ScanCount
	if scanCount <= 0 {
		scanCount = defaultScanCount
	}

	s := &Store{
		memory:      newMemoryStore(),
		logger:      logger,
		hook:        o.hook,
		dialTimeout: dialTimeout,
		scanCount:   scanCount,
		done:        make(chan struct{}),
	}
	s.state.Store(int32(StateDegraded))

	s.remote = o.client
	if s.remote == nil && cfg.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			s.logger.Error("invalid redis url, running on memory store", "err", err)
		} else {
			// Fires on every new connection in the pool, including the
			// first dial, so recovery is noticed as soon as any command
			// re-establishes a connection.
			redisOpts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
				s.markConnected("dial")
				return nil
			}
			s.remote = redis.NewClient(redisOpts)
			s.ownsRemote = true
		}
	}

	if s.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		err := s.remote.Ping(ctx).Err()
		cancel()
		if err != nil {
			s.logger.Warn("redis unreachable at startup, serving from memory store", "err", err)
		} else {
			s.markConnected("startup")
		}
	} else {
		s.logger.Info("no redis backend configured, running on memory store")
	}

	s.wg.Add(1)
	go s.sweepLoop(sweepInterval)

	return s
}

// State reports the current connectivity state.
func (s *Store) State() State {
	return State(s.state.Load())
}

// Connected reports whether operations are currently served by Redis.
func (s *Store) Connected() bool {
	return s.State() == StateConnected
}

// Get returns the live value stored under key. Missing and expired keys
// both yield [ErrNotFound]. A Redis failure degrades the store and the
// memory side answers instead.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	if s.useRemote() {
		val, err := s.remote.Get(ctx, key).Result()
		switch {
		case err == nil:
			return val, nil
		case errors.Is(err, redis.Nil):
			return "", ErrNotFound
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			s.markDegraded("get", err)
		}
	}

	val, ok := s.memory.get(key)
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

// Set stores value under key for ttl. Exactly one backend is written: Redis
// while connected, memory while degraded.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	if s.useRemote() {
		err := s.remote.Set(ctx, key, value, ttl).Err()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.markDegraded("set", err)
	}

	s.memory.set(key, value, ttl)
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if s.useRemote() {
		err := s.remote.Del(ctx, key).Err()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.markDegraded("delete", err)
	}

	s.memory.delete(key)
	return nil
}

// ScanKeys returns every live key matching pattern. Patterns use the *
// wildcard; both backends interpret it identically. Ordering is undefined.
func (s *Store) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	if s.useRemote() {
		keys, err := s.scanRemote(ctx, pattern)
		if err == nil {
			return keys, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.markDegraded("scan", err)
	}

	return s.memory.scan(pattern)
}

func (s *Store) scanRemote(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.remote.Scan(ctx, cursor, pattern, s.scanCount).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// CompareAndDelete removes key only if its live value equals expect, as a
// single atomic step. It reports whether the delete happened; a mismatch
// leaves the value in place. Absent keys and mismatches are not errors.
func (s *Store) CompareAndDelete(ctx context.Context, key, expect string) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}

	if s.useRemote() {
		res, err := compareAndDeleteLua.Run(ctx, s.remote, []string{key}, expect).Int64()
		if err == nil {
			return res == 1, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		s.markDegraded("compare_and_delete", err)
	}

	return s.memory.compareAndDelete(key, expect), nil
}

// IncrWindow bumps the fixed-window counter at key and returns the count
// together with the remaining window. The window TTL is armed only by the
// first hit. Unlike the plain operations this one is Redis-only and
// surfaces failures, wrapped in [ErrNotConnected], so callers that keep
// their own local counters can take over while degraded.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s.closed.Load() {
		return 0, 0, ErrClosed
	}
	if window <= 0 {
		return 0, 0, ErrInvalidTTL
	}
	if !s.useRemote() {
		return 0, 0, ErrNotConnected
	}

	res, err := incrWindowLua.Run(ctx, s.remote, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, 0, ctxErr
		}
		s.markDegraded("incr_window", err)
		return 0, 0, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("%w: unexpected script reply", ErrNotConnected)
	}

	count, ttlMs := res[0], res[1]
	if ttlMs < 0 {
		// PTTL reports -1 for keys without expiry. Should not happen with
		// the script above; treat it as a fresh window.
		ttlMs = window.Milliseconds()
	}
	return count, time.Duration(ttlMs) * time.Millisecond, nil
}

// Ping measures a point-in-time Redis round trip. A failed Ping never
// marks the store degraded; only the plain operations do that. It can
// however trigger recovery: on an owned client the OnConnect hook fires
// for any new pool connection, a caller-initiated ping included.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if s.remote == nil {
		return 0, ErrNotConnected
	}

	start := time.Now()
	if err := s.remote.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return time.Since(start), nil
}

// Close stops the janitor, waits for it, and closes the Redis client when
// the store owns it. Subsequent operations return [ErrClosed]. Safe to call
// more than once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.wg.Wait()
		if s.ownsRemote && s.remote != nil {
			err = s.remote.Close()
		}
	})
	return err
}

func (s *Store) useRemote() bool {
	return s.remote != nil && s.Connected()
}

func (s *Store) markDegraded(op string, err error) {
	if s.state.CompareAndSwap(int32(StateConnected), int32(StateDegraded)) {
		s.logger.Warn("redis unavailable, serving from memory store",
			"op", op,
			"err", err,
		)
		if s.hook != nil {
			s.hook(StateConnected, StateDegraded)
		}
	}
}

func (s *Store) markConnected(reason string) {
	if s.state.CompareAndSwap(int32(StateDegraded), int32(StateConnected)) {
		dropped := s.memory.clear()
		s.logger.Info("redis connection established, serving from redis",
			"reason", reason,
			"dropped_fallback_entries", dropped,
		)
		if s.hook != nil {
			s.hook(StateDegraded, StateConnected)
		}
	}
}

// sweepLoop owns the two background duties: collecting expired memory
// entries and, while degraded, re-probing Redis so the store can leave
// fallback without waiting for caller traffic.
func (s *Store) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if removed := s.memory.sweep(); removed > 0 {
				s.logger.Debug("swept expired fallback entries", "removed", removed)
			}
			s.probeRemote()
		}
	}
}

func (s *Store) probeRemote() {
	if s.remote == nil || s.Connected() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.dialTimeout)
	defer cancel()

	if err := s.remote.Ping(ctx).Err(); err != nil {
		s.logger.Debug("redis still unreachable", "err", err)
		return
	}
	s.markConnected("probe")
}
