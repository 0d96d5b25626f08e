package goPasswordless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goPasswordless/kv"
	"github.com/MrEthical07/goPasswordless/metrics"
	"github.com/MrEthical07/goPasswordless/otp"
	"github.com/MrEthical07/goPasswordless/rate"
	"github.com/MrEthical07/goPasswordless/session"
	"github.com/MrEthical07/goPasswordless/token"
)

// Builder assembles an [Engine]. Chain the With methods and finish with
// Build; a builder is single-use.
type Builder struct {
	config  Config
	client  redis.UniversalClient
	mailer  Mailer
	users   UserResolver
	secrets SecretSource
	logger  *slog.Logger
	metrics *metrics.Metrics

	built bool
}

// New returns a Builder primed with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedisClient injects an existing Redis client instead of letting the
// store dial Config.Redis.URL. The engine will not close an injected
// client.
func (b *Builder) WithRedisClient(client redis.UniversalClient) *Builder {
	b.client = client
	return b
}

// WithMailer sets the mail transport. Required.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

// WithUserResolver sets the identity lookup. Required.
func (b *Builder) WithUserResolver(r UserResolver) *Builder {
	b.users = r
	return b
}

// WithSecretSource sets where the JWT signing secret comes from. Defaults
// to [EnvSecretSource].
func (b *Builder) WithSecretSource(s SecretSource) *Builder {
	b.secrets = s
	return b
}

// WithLogger sets the logger for the engine and every component it builds.
// Defaults to [slog.Default].
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetrics attaches a metrics registry. Without one the engine records
// nothing.
func (b *Builder) WithMetrics(m *metrics.Metrics) *Builder {
	b.metrics = m
	return b
}

// Build validates the configuration, resolves the signing secret, and wires
// the engine. A missing or too-short secret is a configuration error and
// fails here, never at request time.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if b.users == nil {
		return nil, errors.New("user resolver required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	secrets := b.secrets
	if secrets == nil {
		secrets = EnvSecretSource{}
	}

	secret, err := secrets.Secret(context.Background(), cfg.Token.SecretName)
	if err != nil {
		return nil, fmt.Errorf("resolve signing secret: %w", err)
	}

	tokens, err := token.NewManager(token.Config{
		Secret:     []byte(secret),
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	mx := b.metrics

	storeOpts := []kv.Option{
		kv.WithLogger(logger),
		kv.WithStateHook(func(_, to kv.State) {
			mx.RecordStoreState(to.String(), to == kv.StateConnected)
		}),
	}
	if b.client != nil {
		storeOpts = append(storeOpts, kv.WithClient(b.client))
	}

	store := kv.New(kv.Config{
		URL:           cfg.Redis.URL,
		DialTimeout:   cfg.Redis.DialTimeout,
		SweepInterval: cfg.Redis.SweepInterval,
	}, storeOpts...)

	if mx != nil {
		if store.Connected() {
			mx.StoreConnected.Set(1)
		} else {
			mx.StoreConnected.Set(0)
		}
	}

	engine := &Engine{
		config: cfg,
		store:  store,
		otp: otp.NewService(store, otp.Config{
			Prefix: cfg.OTP.Prefix,
			TTL:    cfg.OTP.TTL,
		}, logger),
		tokens: tokens,
		sessions: session.NewService(store, session.Config{
			Prefix:          cfg.Session.Prefix,
			Lifetime:        cfg.Session.Lifetime,
			CleanupInterval: cfg.Session.CleanupInterval,
		}, logger),
		limiter:  rate.New(store, cfg.Limits.Prefix, rate.Config{}, logger),
		mailer:   b.mailer,
		resolver: b.users,
		metrics:  mx,
		logger:   logger,
	}

	b.built = true

	return engine, nil
}
