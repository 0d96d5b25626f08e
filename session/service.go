package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/goPasswordless/internal/random"
	"github.com/MrEthical07/goPasswordless/kv"
)

const (
	defaultPrefix          = "session"
	defaultLifetime        = 7 * 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// Config tunes a [Service]. Zero values fall back to the defaults above.
type Config struct {
	// Prefix namespaces session keys as "<prefix>:<sessionId>".
	Prefix string
	// Lifetime is the sliding idle window: a session dies Lifetime after
	// its last validated access.
	Lifetime time.Duration
	// CleanupInterval is how often the background sweep runs.
	CleanupInterval time.Duration
}

// Report summarizes one cleanup pass.
type Report struct {
	// SessionsDeleted counts stale records removed plus records that were
	// already gone when the sweep reached them.
	SessionsDeleted int
	// Errors holds per-key failures. The pass continues past them.
	Errors []error
}

// Service manages server-side login sessions: opaque CSPRNG identifiers
// mapped to JSON records in the shared [kv.Store] under
// "session:<sessionId>", with sliding expiration on every validation.
// The service owns a background sweep that removes stale records the
// backend TTL did not catch; Close stops it.
type Service struct {
	store    *kv.Store
	prefix   string
	lifetime time.Duration
	logger   *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewService creates a [Service] and starts its cleanup loop.
func NewService(store *kv.Store, cfg Config, logger *slog.Logger) *Service {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		store:    store,
		prefix:   cfg.Prefix,
		lifetime: cfg.Lifetime,
		logger:   logger,
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop(cfg.CleanupInterval)

	return s
}

// Create opens a session for the identity and returns its opaque ID. The
// ID is 16 bytes of CSPRNG output in base64url; it carries no embedded
// timestamp or user data.
func (s *Service) Create(ctx context.Context, userID, email string, meta Metadata) (string, error) {
	if userID == "" {
		return "", errors.New("session user id required")
	}

	id, err := random.NewID()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	data := &Data{
		UserID:       userID,
		Email:        email,
		CreatedAt:    now,
		LastAccessed: now,
		UserAgent:    meta.UserAgent,
		IPAddress:    meta.IPAddress,
	}

	if err := s.save(ctx, id, data); err != nil {
		return "", err
	}

	s.logger.Debug("session created", "session_id", id, "user_id", userID)
	return id, nil
}

// Validate loads a session, stamps lastAccessed, and re-persists it with a
// full lifetime, so every validated access pushes the deadline out. Missing,
// stale, and unreadable records all come back as [ErrNotFound]; stale and
// unreadable ones are deleted on sight.
func (s *Service) Validate(ctx context.Context, sessionID string) (*Data, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}

	key := s.key(sessionID)
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	data, err := decodeData(raw)
	if err != nil {
		s.logger.Warn("dropping unreadable session record", "session_id", sessionID, "err", err)
		_ = s.store.Delete(ctx, key)
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	if s.stale(data, now) {
		_ = s.store.Delete(ctx, key)
		s.logger.Info("session expired", "session_id", sessionID, "user_id", data.UserID)
		return nil, ErrNotFound
	}

	data.LastAccessed = now
	if err := s.save(ctx, sessionID, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Refresh extends a session without any other effect. Same contract and
// same sliding behavior as Validate; the separate name exists so call
// sites can say what they mean.
func (s *Service) Refresh(ctx context.Context, sessionID string) (*Data, error) {
	return s.Validate(ctx, sessionID)
}

// Delete ends a session. Deleting an unknown session is not an error.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, s.key(sessionID)); err != nil {
		return err
	}
	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// DeleteAllForUser ends every session owned by userID and reports how many
// went. Sessions created while the scan runs may be missed; callers that
// need a hard guarantee can invoke it twice.
func (s *Service) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	keys, err := s.store.ScanKeys(ctx, s.prefix+":*")
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			continue
		}
		data, err := decodeData(raw)
		if err != nil || data.UserID != userID {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			return deleted, err
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("user sessions deleted", "user_id", userID, "count", deleted)
	}
	return deleted, nil
}

// CleanupExpired scans every session key and removes stale records. A key
// that vanishes between scan and read was expired by the backend and is
// counted as deleted. Per-key failures land in the report; they never
// abort the pass.
func (s *Service) CleanupExpired(ctx context.Context) Report {
	var report Report

	keys, err := s.store.ScanKeys(ctx, s.prefix+":*")
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report
	}

	now := time.Now().UTC()
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrNotFound) {
				report.SessionsDeleted++
				continue
			}
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", key, err))
			continue
		}

		data, err := decodeData(raw)
		if err == nil && !s.stale(data, now) {
			continue
		}

		// Stale or unreadable: both go.
		if err := s.store.Delete(ctx, key); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", key, err))
			continue
		}
		report.SessionsDeleted++
	}

	return report
}

// Close stops the cleanup loop and waits for it. Safe to call repeatedly.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

func (s *Service) save(ctx context.Context, sessionID string, data *Data) error {
	encoded, err := encodeData(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := s.store.Set(ctx, s.key(sessionID), encoded, s.lifetime); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

func (s *Service) stale(d *Data, now time.Time) bool {
	return now.Sub(d.LastAccessed) > s.lifetime
}

func (s *Service) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Service) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			report := s.CleanupExpired(context.Background())
			if report.SessionsDeleted > 0 || len(report.Errors) > 0 {
				s.logger.Info("session cleanup pass finished",
					"deleted", report.SessionsDeleted,
					"errors", len(report.Errors),
				)
			}
		}
	}
}
