package goPasswordless

import (
	"context"
	"time"
)

// Message is one piece of mail the engine asks a [Mailer] to deliver.
// Text is always set; HTML accompanies it when the mailer can use it.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers login codes. Implementations wrap whatever transport the
// application already has (SMTP, a provider SDK, a queue) and return a
// provider-side delivery id for tracing. [LogMailer] ships for development.
//
// Send is called on the login hot path; implementations that talk to slow
// providers should respect ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) (deliveryID string, err error)
}

// UserRecord is the application-owned identity a [UserResolver] maps a
// verified identifier to.
type UserRecord struct {
	UserID string
	Email  string
}

// UserResolver connects the engine to the application's user storage. It is
// consulted only after OTP verification proved mailbox ownership, so
// implementations are free to create the account on first login. Unknown
// identifiers return [ErrUserNotFound].
type UserResolver interface {
	Resolve(ctx context.Context, email string) (UserRecord, error)
}

// SecretSource provides named secrets to the engine, currently just the JWT
// signing secret. Shipped implementations: [EnvSecretSource] and
// [StaticSecretSource].
type SecretSource interface {
	Secret(ctx context.Context, name string) (string, error)
}

// LoginResult is returned by [Engine.VerifyOTP] and [Engine.RefreshTokens].
// SessionID is empty on refresh: a refresh mints new tokens but never
// touches sessions.
type LoginResult struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
	SessionID string
}

// Health is a point-in-time liveness snapshot from [Engine.Health].
type Health struct {
	// StoreState is "connected" or "degraded".
	StoreState string
	// Connected is true while the key-value store is served by Redis.
	Connected bool
	// PingLatency is the measured Redis round trip. Meaningless when
	// PingError is set.
	PingLatency time.Duration
	// PingError holds the probe failure, empty when the ping succeeded.
	PingError string
}
