// Package goPasswordless provides a passwordless authentication engine:
// email one-time codes in, JWT pairs and server-side sessions out.
//
// The engine is assembled through [Builder.Build] from an application-owned
// [Mailer] and [UserResolver], a [SecretSource] for the signing secret, and
// an optional Redis backend. Without Redis it runs entirely on an in-memory
// store; with Redis it degrades to memory automatically when the server
// becomes unreachable and returns when it recovers. All Engine methods are
// safe for concurrent use.
//
// The login flow is two calls: [Engine.SendOTP] mails a six-digit code, and
// [Engine.VerifyOTP] exchanges that code exactly once for an access/refresh
// token pair plus an opaque session id. Tokens are validated statelessly
// ([Engine.ValidateToken], [Engine.ValidateBearer]) and renewed through
// [Engine.RefreshTokens]; sessions are validated with sliding expiration
// and revoked through [Engine.Logout] and [Engine.LogoutAll].
//
// # Architecture boundaries
//
// This package is the orchestration surface. Storage, codes, tokens,
// sessions, and throttling each live in their own package (kv, otp, token,
// session, rate) and can be used standalone; the Engine adds the flow
// ordering, rate-limit policy, and instrumentation around them.
//
// # What this package must NOT do
//
//   - Send real mail or store users. Both stay behind the Mailer and
//     UserResolver interfaces.
//   - Serve HTTP. Handlers, routing, and middleware belong to the
//     application; examples/http-minimal shows the wiring.
//   - Persist anything outside the key-value store's key layout
//     ("otp:*", "session:*", "rate_limit:*").
package goPasswordless
