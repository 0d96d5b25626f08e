package goPasswordless

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goPasswordless/rate"
	"github.com/MrEthical07/goPasswordless/session"
)

// Operation names for rate limiting. They are part of the stored key
// layout ("rate_limit:<operation>:<identifier>"), so changing one
// invalidates in-flight windows.
const (
	opSendOTP   = "send_otp"
	opVerifyOTP = "verify_otp"
	opRefresh   = "refresh"
)

// SendOTP generates a one-time code for the identifier, stores it, and
// hands it to the mailer. The code is stored before the send, so a mailer
// failure (ErrMailerUnavailable) leaves a valid code behind and the caller
// may simply retry.
//
// Sends are rate limited per identifier; over budget returns
// [ErrOTPRateLimited] without generating anything.
func (e *Engine) SendOTP(ctx context.Context, email string) error {
	if e == nil || e.mailer == nil {
		return ErrEngineNotReady
	}
	if email == "" {
		return ErrInvalidIdentifier
	}

	res := e.limiter.Check(ctx, email, opSendOTP, rate.Config{
		MaxAttempts: e.config.Limits.SendOTP.MaxAttempts,
		Window:      e.config.Limits.SendOTP.Window,
	})
	e.recordLimitDecision(opSendOTP, res)
	if !res.Allowed {
		e.logger.Info("otp send throttled", "identifier", email, "reset_at", res.ResetAt)
		return ErrOTPRateLimited
	}

	code, err := e.otp.Generate()
	if err != nil {
		return err
	}
	if err := e.otp.Store(ctx, email, code); err != nil {
		return err
	}
	e.metrics.RecordOTPIssued()

	minutes := int(e.otp.TTL().Minutes())
	deliveryID, err := e.mailer.Send(ctx, Message{
		To:      email,
		Subject: "Your login code",
		Text:    fmt.Sprintf("Your login code is %s. It expires in %d minutes.", code, minutes),
		HTML: fmt.Sprintf("<p>Your login code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>",
			code, minutes),
	})
	if err != nil {
		e.logger.Error("otp mail delivery failed", "identifier", email, "err", err)
		return fmt.Errorf("%w: %v", ErrMailerUnavailable, err)
	}

	e.logger.Info("otp sent", "identifier", email, "delivery_id", deliveryID)
	return nil
}

// VerifyOTP exchanges a valid code for a token pair and a fresh session.
// The code is consumed atomically: at most one concurrent caller wins, and
// a replay fails with [ErrInvalidOTP]. Wrong, expired, and replayed codes
// are indistinguishable to the caller.
//
// Verification attempts are rate limited per identifier; a successful login
// refills that budget. Session device metadata is taken from the context
// helpers [WithClientIP] and [WithUserAgent] when present.
func (e *Engine) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	if e == nil || e.resolver == nil {
		return nil, ErrEngineNotReady
	}
	if email == "" {
		return nil, ErrInvalidIdentifier
	}
	if code == "" {
		return nil, ErrInvalidOTP
	}

	res := e.limiter.Check(ctx, email, opVerifyOTP, rate.Config{
		MaxAttempts: e.config.Limits.VerifyOTP.MaxAttempts,
		Window:      e.config.Limits.VerifyOTP.Window,
	})
	e.recordLimitDecision(opVerifyOTP, res)
	if !res.Allowed {
		e.metrics.RecordOTPVerification("rate_limited")
		e.logger.Info("otp verify throttled", "identifier", email, "reset_at", res.ResetAt)
		return nil, ErrOTPRateLimited
	}

	if !e.otp.Verify(ctx, email, code) {
		e.metrics.RecordOTPVerification("failure")
		return nil, ErrInvalidOTP
	}

	user, err := e.resolver.Resolve(ctx, email)
	if err != nil {
		// The code was consumed; the resolver owns this failure.
		e.logger.Warn("user resolution failed after otp verify", "identifier", email, "err", err)
		return nil, err
	}
	if user.Email == "" {
		user.Email = email
	}

	pair, err := e.tokens.CreatePair(user.UserID, user.Email)
	if err != nil {
		return nil, err
	}
	e.metrics.RecordTokenIssued("access")
	e.metrics.RecordTokenIssued("refresh")

	sessionID, err := e.sessions.Create(ctx, user.UserID, user.Email, session.Metadata{
		UserAgent: userAgentFromContext(ctx),
		IPAddress: clientIPFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	e.metrics.RecordSessionCreated()

	if err := e.limiter.Reset(ctx, email, opVerifyOTP); err != nil {
		e.logger.Warn("verify budget reset failed", "identifier", email, "err", err)
	}

	e.metrics.RecordOTPVerification("success")
	e.logger.Info("login succeeded", "user_id", user.UserID, "session_id", sessionID)

	return &LoginResult{
		UserID:       user.UserID,
		Email:        user.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		SessionID:    sessionID,
	}, nil
}
