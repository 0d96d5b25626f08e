package goPasswordless

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// engine or before Build wired its collaborators.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidIdentifier is returned when a flow is called with an empty
	// identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidOTP is returned when a code does not match, has expired, or
	// was already used. The three cases are deliberately indistinguishable.
	ErrInvalidOTP = errors.New("invalid or expired otp")
	// ErrOTPRateLimited is returned when the send or verify budget for an
	// identifier is exhausted.
	ErrOTPRateLimited = errors.New("otp rate limited")
	// ErrRefreshRateLimited is returned when a user exceeds the refresh
	// budget.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrUserNotFound is returned by a UserResolver that cannot map a
	// verified identifier to an account. The engine passes it through.
	ErrUserNotFound = errors.New("user not found")
	// ErrMailerUnavailable wraps a mailer delivery failure. The stored code
	// stays valid; the caller may retry the send.
	ErrMailerUnavailable = errors.New("mailer unavailable")
)
