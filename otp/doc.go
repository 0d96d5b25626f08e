// Package otp implements the one-time code half of passwordless login:
// generate a short-lived six-digit code, store it keyed by the login
// identifier, and redeem it exactly once.
//
// Verification is deliberately a bare bool. Callers get no signal about
// whether a record existed, expired, or mismatched, so the API cannot be
// used as an oracle for which identifiers hold pending logins.
//
// # What this package must NOT do
//
//   - Send mail. Delivery belongs to the caller's Mailer.
//   - Throttle attempts. Brute-force bounding is the rate limiter's job,
//     composed one level up.
package otp
