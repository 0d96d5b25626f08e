package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goPasswordless/internal/random"
	"github.com/MrEthical07/goPasswordless/kv"
)

// Digits is the code length. Fixed: stored codes from older deployments
// are six digits and the verify path compares exact strings.
const Digits = 6

const (
	defaultPrefix = "otp"
	defaultTTL    = 10 * time.Minute
)

// ErrStoreFailed is returned when a code could not be persisted. Distinct
// from a verification miss, which is never an error.
var ErrStoreFailed = errors.New("otp code storage failed")

// Config tunes a [Service]. Zero values fall back to the defaults above.
type Config struct {
	// Prefix namespaces code keys as "<prefix>:<identifier>".
	Prefix string
	// TTL is how long an issued code stays redeemable.
	TTL time.Duration
}

// Service issues and redeems one-time numeric login codes keyed by an
// identifier (normally an email address). Codes live in the shared
// [kv.Store] under "otp:<identifier>", one active code per identifier;
// issuing a new code replaces the previous one.
type Service struct {
	store  *kv.Store
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewService creates a [Service] on top of the given store.
func NewService(store *kv.Store, cfg Config, logger *slog.Logger) *Service {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		logger: logger,
	}
}

// TTL reports how long issued codes stay redeemable.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Generate returns a fresh six-digit code from crypto/rand, uniform over
// [100000, 999999]. Nothing is persisted; pair it with Store.
func (s *Service) Generate() (string, error) {
	return random.NumericCode(Digits)
}

// Store persists code for identifier with the configured TTL, replacing
// any previously issued code.
func (s *Service) Store(ctx context.Context, identifier, code string) error {
	if err := s.store.Set(ctx, s.key(identifier), code, s.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	return nil
}

// Verify redeems the code stored for identifier. It returns true at most
// once per stored code: the record is deleted atomically with the match,
// so a replay of the same code is a miss. A wrong candidate leaves the
// stored code in place for further attempts within its TTL. Backend
// failures are logged and reported as a miss, never as success.
func (s *Service) Verify(ctx context.Context, identifier, candidate string) bool {
	if identifier == "" || candidate == "" {
		return false
	}

	ok, err := s.store.CompareAndDelete(ctx, s.key(identifier), candidate)
	if err != nil {
		s.logger.Error("otp verification errored, denying",
			"identifier", identifier,
			"err", err,
		)
		return false
	}
	return ok
}

// Delete discards any outstanding code for identifier. Idempotent.
func (s *Service) Delete(ctx context.Context, identifier string) error {
	return s.store.Delete(ctx, s.key(identifier))
}

func (s *Service) key(identifier string) string {
	return s.prefix + ":" + identifier
}
